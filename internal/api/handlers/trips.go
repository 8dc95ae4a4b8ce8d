package handlers

import (
	"bytes"
	"fmt"
	"mileage-reimbursement-service/internal/api/dto"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/ports"
	"mileage-reimbursement-service/internal/services"
	"net/http"
	"strconv"
	"time"
)

type TripHandler struct {
	Service *services.TripService
}

func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := tripFilter(w, r)
	if !ok {
		return
	}

	page, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListTripResponse{
		Trips:   make([]dto.TripResponse, 0, len(page.Trips)),
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   page.Pages,
	}
	for _, t := range page.Trips {
		res.Trips = append(res.Trips, toTripResponse(t))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := h.Service.Create(r.Context(), userID(r), services.TripInput{
		Date:        req.Date,
		Origin:      toAddress(req.Origin),
		Destination: toAddress(req.Destination),
		Kilometers:  req.Kilometers,
		AutoKm:      req.AutoKm,
		RoundTrip:   req.RoundTrip,
		Purpose:     req.Purpose,
		VehicleID:   req.VehicleID,
		Notes:       req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toTripResponse(t))
}

func (h *TripHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	t, err := h.Service.Get(r.Context(), userID(r), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTripResponse(t))
}

func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTripRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	patch := services.TripPatch{
		Date:        req.Date,
		Kilometers:  req.Kilometers,
		Recalculate: req.Recalculate,
		RoundTrip:   req.RoundTrip,
		Purpose:     req.Purpose,
		VehicleID:   req.VehicleID,
		Notes:       req.Notes,
	}
	if req.Origin != nil {
		a := toAddress(*req.Origin)
		patch.Origin = &a
	}
	if req.Destination != nil {
		a := toAddress(*req.Destination)
		patch.Destination = &a
	}

	t, err := h.Service.Update(r.Context(), userID(r), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTripResponse(t))
}

func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

func (h *TripHandler) Stats(w http.ResponseWriter, r *http.Request) {
	f, ok := tripFilter(w, r)
	if !ok {
		return
	}

	stats, err := h.Service.Stats(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStatsResponse(stats))
}

func (h *TripHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	f, ok := tripFilter(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.Service.ExportCSV(r.Context(), f, &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}

	name := fmt.Sprintf("rimborso_km_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// tripFilter reads from, to, vehicle_id, purpose, q, page and per_page.
func tripFilter(w http.ResponseWriter, r *http.Request) (ports.TripFilter, bool) {
	q := r.URL.Query()
	f := ports.TripFilter{
		UserID:  userID(r),
		Purpose: q.Get("purpose"),
		Search:  q.Get("q"),
	}

	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if v := q.Get(p.key); v != "" {
			d, err := domain.ParseDate(v)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, p.key+" must be formatted as YYYY-MM-DD")
				return f, false
			}
			*p.dst = &d
		}
	}

	ints := []struct {
		key string
		set func(int64)
	}{
		{"vehicle_id", func(v int64) { f.VehicleID = v }},
		{"page", func(v int64) { f.Page = int(v) }},
		{"per_page", func(v int64) { f.PerPage = int(v) }},
	}
	for _, p := range ints {
		if v := q.Get(p.key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				writeError(w, r, http.StatusBadRequest, p.key+" must be a non-negative integer")
				return f, false
			}
			p.set(n)
		}
	}

	return f, true
}
