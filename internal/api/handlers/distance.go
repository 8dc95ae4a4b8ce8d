package handlers

import (
	"mileage-reimbursement-service/internal/api/dto"
	"mileage-reimbursement-service/internal/services"
	"net/http"
	"strings"
)

type DistanceHandler struct {
	Service services.DistanceResolver
}

// Distance resolves the road distance between two free-text addresses.
func (h *DistanceHandler) Distance(w http.ResponseWriter, r *http.Request) {
	var req dto.DistanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	origin := firstNonEmpty(req.Origin, req.Origine)
	destination := firstNonEmpty(req.Destination, req.Destinazione)

	res, err := h.Service.Distance(r.Context(), origin, destination)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.DistanceResponse{
		Km:     res.Kilometers,
		Metodo: string(res.Method),
		Status: "OK",
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
