package handlers

import (
	"mileage-reimbursement-service/internal/api/dto"
	"mileage-reimbursement-service/internal/services"
	"net/http"
)

type VehicleHandler struct {
	Service *services.VehicleService
}

// List returns the user's vehicles; ?all=true includes deactivated ones.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.Service.List(r.Context(), userID(r), r.URL.Query().Get("all") == "true")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListVehicleResponse{Vehicles: make([]dto.VehicleResponse, 0, len(vehicles))}
	for _, v := range vehicles {
		res.Vehicles = append(res.Vehicles, toVehicleResponse(v))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateVehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.Service.Create(r.Context(), userID(r), req.Make, req.Model, req.Fuel, req.RatePerKm)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toVehicleResponse(v))
}

func (h *VehicleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	v, err := h.Service.Get(r.Context(), userID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toVehicleResponse(v))
}

func (h *VehicleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateVehicleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.Service.Update(r.Context(), userID(r), id, services.VehiclePatch{
		Make:      req.Make,
		Model:     req.Model,
		Fuel:      req.Fuel,
		RatePerKm: req.RatePerKm,
		Active:    req.Active,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toVehicleResponse(v))
}

func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), userID(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
