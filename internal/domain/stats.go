package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// StatsBucket aggregates trips sharing one grouping key.
type StatsBucket struct {
	Kilometers    float64
	Reimbursement decimal.Decimal
	Count         int
}

// TripStats summarizes a set of trips for dashboards.
// Kilometers are the recorded one-way values; reimbursements include round trips.
type TripStats struct {
	TotalKilometers      float64
	TotalReimbursement   decimal.Decimal
	TripCount            int
	AverageKilometers    float64
	AverageReimbursement decimal.Decimal
	ByDate               map[string]*StatsBucket
	ByMonth              map[string]*StatsBucket
	ByYear               map[string]*StatsBucket
	ByVehicle            map[string]*StatsBucket
	ByPurpose            map[string]*StatsBucket
}

func ComputeStats(trips []*Trip) TripStats {
	stats := TripStats{
		TotalReimbursement:   decimal.Zero,
		AverageReimbursement: decimal.Zero,
		TripCount:            len(trips),
		ByDate:               map[string]*StatsBucket{},
		ByMonth:              map[string]*StatsBucket{},
		ByYear:               map[string]*StatsBucket{},
		ByVehicle:            map[string]*StatsBucket{},
		ByPurpose:            map[string]*StatsBucket{},
	}
	if len(trips) == 0 {
		return stats
	}

	for _, t := range trips {
		amount := t.Reimbursement()
		stats.TotalKilometers += t.Kilometers
		stats.TotalReimbursement = stats.TotalReimbursement.Add(amount)

		vehicle := ""
		if t.Vehicle != nil {
			vehicle = t.Vehicle.DisplayName()
		}

		add(stats.ByDate, t.Date.Format(DateLayout), t.Kilometers, amount)
		add(stats.ByMonth, t.Date.Format("2006-01"), t.Kilometers, amount)
		add(stats.ByYear, strconv.Itoa(t.Date.Year()), t.Kilometers, amount)
		add(stats.ByVehicle, vehicle, t.Kilometers, amount)
		add(stats.ByPurpose, t.Purpose, t.Kilometers, amount)
	}

	n := float64(len(trips))
	stats.AverageKilometers = round2(stats.TotalKilometers / n)
	stats.AverageReimbursement = stats.TotalReimbursement.Div(decimal.NewFromInt(int64(len(trips)))).Round(2)
	stats.TotalKilometers = round2(stats.TotalKilometers)

	for _, group := range []map[string]*StatsBucket{stats.ByDate, stats.ByMonth, stats.ByYear, stats.ByVehicle, stats.ByPurpose} {
		for _, b := range group {
			b.Kilometers = round2(b.Kilometers)
		}
	}

	return stats
}

func add(group map[string]*StatsBucket, key string, km float64, amount decimal.Decimal) {
	b, ok := group[key]
	if !ok {
		b = &StatsBucket{Reimbursement: decimal.Zero}
		group[key] = b
	}
	b.Kilometers += km
	b.Reimbursement = b.Reimbursement.Add(amount)
	b.Count++
}

// RoundKm rounds a distance to two decimals.
func RoundKm(km float64) float64 { return round2(km) }

// round2 rounds half away from zero on the shortest decimal form of v,
// so 1.005 becomes 1.01 rather than 1.00.
func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
