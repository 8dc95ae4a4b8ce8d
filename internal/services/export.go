package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/ports"
	"strconv"
)

var csvHeader = []string{"Data", "Partenza", "Arrivo", "Km", "Metodo", "Motivo", "Veicolo", "Rimborso (€)"}

// ExportCSV writes every trip matching f as semicolon-separated CSV.
func (s *TripService) ExportCSV(ctx context.Context, f ports.TripFilter, w io.Writer) error {
	trips, err := s.all(ctx, f)
	if err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return WriteTripsCSV(w, trips)
}

func WriteTripsCSV(w io.Writer, trips []*domain.Trip) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("export csv: write header: %w", err)
	}

	for _, t := range trips {
		vehicle := ""
		if t.Vehicle != nil {
			vehicle = t.Vehicle.DisplayName()
		}

		record := []string{
			t.Date.Format(domain.DateLayout),
			t.Origin.Label(),
			t.Destination.Label(),
			strconv.FormatFloat(t.Kilometers, 'f', 2, 64),
			string(t.KmSource),
			t.Purpose,
			vehicle,
			t.Reimbursement().StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export csv: write trip %d: %w", t.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export csv: flush: %w", err)
	}
	return nil
}
