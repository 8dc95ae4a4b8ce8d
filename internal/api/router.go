package api

import (
	"mileage-reimbursement-service/internal/api/handlers"
	"mileage-reimbursement-service/internal/backup"
	"mileage-reimbursement-service/internal/services"
	"net/http"

	"go.uber.org/zap"
)

type Deps struct {
	Distance services.DistanceResolver
	Vehicles *services.VehicleService
	Trips    *services.TripService
	// Backups is nil when the store is not SQLite.
	Backups *backup.Manager
	DB      handlers.Pinger
	Log     *zap.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	mux := http.NewServeMux()

	health := &handlers.HealthHandler{DB: d.DB}
	distance := &handlers.DistanceHandler{Service: d.Distance}
	vehicles := &handlers.VehicleHandler{Service: d.Vehicles}
	trips := &handlers.TripHandler{Service: d.Trips}

	mux.HandleFunc("GET /health", health.Health)

	// The distance pipeline is stateless and open to any caller.
	mux.HandleFunc("POST /api/distance", distance.Distance)

	user := func(h http.HandlerFunc) http.Handler { return requireUser(h) }

	mux.Handle("GET /api/vehicles", user(vehicles.List))
	mux.Handle("POST /api/vehicles", user(vehicles.Create))
	mux.Handle("GET /api/vehicles/{id}", user(vehicles.Get))
	mux.Handle("PUT /api/vehicles/{id}", user(vehicles.Update))
	mux.Handle("DELETE /api/vehicles/{id}", user(vehicles.Delete))

	mux.Handle("GET /api/trips", user(trips.List))
	mux.Handle("POST /api/trips", user(trips.Create))
	mux.Handle("GET /api/trips/{id}", user(trips.Get))
	mux.Handle("PUT /api/trips/{id}", user(trips.Update))
	mux.Handle("DELETE /api/trips/{id}", user(trips.Delete))

	mux.Handle("GET /api/stats", user(trips.Stats))
	mux.Handle("GET /api/export/csv", user(trips.ExportCSV))

	if d.Backups != nil {
		backups := &handlers.BackupHandler{Manager: d.Backups}
		mux.Handle("GET /api/backups", user(backups.List))
		mux.Handle("POST /api/backups", user(backups.Create))
		mux.Handle("GET /api/backups/{name}", user(backups.Download))
		mux.Handle("DELETE /api/backups/{name}", user(backups.Delete))
	}

	return requestIDMiddleware(loggingMiddleware(log, recoverMiddleware(log, mux)))
}
