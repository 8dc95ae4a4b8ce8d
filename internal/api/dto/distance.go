package dto

// DistanceRequest also accepts the Italian field names used by older clients.
type DistanceRequest struct {
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Origine      string `json:"origine,omitempty"`
	Destinazione string `json:"destinazione,omitempty"`
}

type DistanceResponse struct {
	Km     float64 `json:"km"`
	Metodo string  `json:"metodo"`
	Status string  `json:"status"`
}

type DistanceErrorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}
