package dto

type StatsBucket struct {
	Kilometers    float64 `json:"kilometers"`
	Reimbursement string  `json:"reimbursement"`
	Count         int     `json:"count"`
}

type StatsResponse struct {
	TotalKilometers      float64                `json:"total_kilometers"`
	TotalReimbursement   string                 `json:"total_reimbursement"`
	TripCount            int                    `json:"trip_count"`
	AverageKilometers    float64                `json:"average_kilometers"`
	AverageReimbursement string                 `json:"average_reimbursement"`
	ByDate               map[string]StatsBucket `json:"by_date"`
	ByMonth              map[string]StatsBucket `json:"by_month"`
	ByYear               map[string]StatsBucket `json:"by_year"`
	ByVehicle            map[string]StatsBucket `json:"by_vehicle"`
	ByPurpose            map[string]StatsBucket `json:"by_purpose"`
}
