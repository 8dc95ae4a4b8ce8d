package handlers

import (
	"mileage-reimbursement-service/internal/api/dto"
	"mileage-reimbursement-service/internal/backup"
	"mileage-reimbursement-service/internal/domain"
)

func toVehicleResponse(v *domain.Vehicle) dto.VehicleResponse {
	return dto.VehicleResponse{
		ID:        v.ID,
		Make:      v.Make,
		Model:     v.Model,
		Fuel:      v.Fuel,
		RatePerKm: v.RatePerKm.StringFixed(4),
		Active:    v.Active,
		CreatedAt: v.CreatedAt,
	}
}

func toAddress(a dto.Address) domain.Address {
	return domain.Address{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func fromAddress(a domain.Address) dto.Address {
	return dto.Address{
		Name:       a.Name,
		Street:     a.Street,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

func toTripResponse(t *domain.Trip) dto.TripResponse {
	res := dto.TripResponse{
		ID:            t.ID,
		Date:          t.Date.Format(domain.DateLayout),
		Origin:        fromAddress(t.Origin),
		Destination:   fromAddress(t.Destination),
		Kilometers:    t.Kilometers,
		KmSource:      string(t.KmSource),
		RoundTrip:     t.RoundTrip,
		Purpose:       t.Purpose,
		VehicleID:     t.VehicleID,
		Notes:         t.Notes,
		Reimbursement: t.Reimbursement().StringFixed(2),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.Vehicle != nil {
		v := toVehicleResponse(t.Vehicle)
		res.Vehicle = &v
	}
	return res
}

func toStatsResponse(s domain.TripStats) dto.StatsResponse {
	return dto.StatsResponse{
		TotalKilometers:      s.TotalKilometers,
		TotalReimbursement:   s.TotalReimbursement.StringFixed(2),
		TripCount:            s.TripCount,
		AverageKilometers:    s.AverageKilometers,
		AverageReimbursement: s.AverageReimbursement.StringFixed(2),
		ByDate:               toBuckets(s.ByDate),
		ByMonth:              toBuckets(s.ByMonth),
		ByYear:               toBuckets(s.ByYear),
		ByVehicle:            toBuckets(s.ByVehicle),
		ByPurpose:            toBuckets(s.ByPurpose),
	}
}

func toBuckets(in map[string]*domain.StatsBucket) map[string]dto.StatsBucket {
	out := make(map[string]dto.StatsBucket, len(in))
	for k, b := range in {
		out[k] = dto.StatsBucket{
			Kilometers:    b.Kilometers,
			Reimbursement: b.Reimbursement.StringFixed(2),
			Count:         b.Count,
		}
	}
	return out
}

func toBackupResponse(i backup.Info) dto.BackupResponse {
	return dto.BackupResponse{Name: i.Name, Size: i.Size, ModTime: i.ModTime, Trips: i.Trips}
}
