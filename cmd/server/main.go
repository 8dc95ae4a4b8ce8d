package main

import (
	"context"
	"errors"
	"mileage-reimbursement-service/internal/adapters/cache"
	"mileage-reimbursement-service/internal/adapters/distance"
	"mileage-reimbursement-service/internal/adapters/geocoding"
	"mileage-reimbursement-service/internal/adapters/repositories"
	"mileage-reimbursement-service/internal/api"
	"mileage-reimbursement-service/internal/backup"
	"mileage-reimbursement-service/internal/config"
	"mileage-reimbursement-service/internal/domain"
	"mileage-reimbursement-service/internal/platform/db"
	"mileage-reimbursement-service/internal/platform/logger"
	"mileage-reimbursement-service/internal/ports"
	"mileage-reimbursement-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// main is the application composition root.
// It wires concrete adapters (SQL store, Nominatim, OSRM/Valhalla) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log.Env, cfg.Log.Level)
	if err != nil {
		zap.NewExample().Fatal("build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	conn, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := repositories.InitSchema(context.Background(), conn); err != nil {
		log.Fatal("failed to initialize schema", zap.Error(err))
	}

	geoCache, closeCache, err := newGeocodeCache(cfg, conn, log)
	if err != nil {
		log.Fatal("failed to set up geocode cache", zap.Error(err))
	}
	defer closeCache()

	geocoder, err := geocoding.NewNominatimGeocoder(geocoding.Options{
		BaseURL:           cfg.Geocoding.URL,
		UserAgent:         cfg.Geocoding.UserAgent,
		CountryName:       cfg.Geocoding.CountryName,
		CountryCode:       cfg.Geocoding.CountryCode,
		Fallback:          domain.Coordinates{Lat: cfg.Geocoding.FallbackLat, Lon: cfg.Geocoding.FallbackLon},
		Timeout:           cfg.Geocoding.Timeout,
		RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
	}, geoCache, log)
	if err != nil {
		log.Fatal("failed to set up geocoder", zap.Error(err))
	}

	distanceSvc := services.NewDistanceService(geocoder, newRouteProvider(cfg), cfg.Routing.DistanceTimeout, log)

	vehicleRepo := repositories.NewSQLVehicleRepository(conn)
	tripRepo := repositories.NewSQLTripRepository(conn)

	deps := api.Deps{
		Distance: distanceSvc,
		Vehicles: services.NewVehicleService(vehicleRepo),
		DB:       conn,
		Log:      log,
	}

	var scheduler *backup.Scheduler
	if conn.DriverName() == db.DriverSQLite {
		manager, err := backup.NewManager(conn, cfg.Backup.Dir, cfg.Backup.Keep, cfg.Backup.Auto, log)
		if err != nil {
			log.Fatal("failed to set up backups", zap.Error(err))
		}
		deps.Backups = manager
		deps.Trips = services.NewTripService(tripRepo, vehicleRepo, distanceSvc, manager)

		if cfg.Backup.Schedule {
			scheduler, err = backup.NewScheduler(manager, log, backup.DailySchedule, backup.WeeklySchedule)
			if err != nil {
				log.Fatal("failed to schedule backups", zap.Error(err))
			}
			scheduler.Start()
		}
	} else {
		log.Info("backups disabled for non-sqlite store", zap.String("driver", conn.DriverName()))
		deps.Trips = services.NewTripService(tripRepo, vehicleRepo, distanceSvc, nil)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop(ctx)
	}

	log.Info("server stopped")
}

// newGeocodeCache builds the in-process LRU tier and, unless the backend is
// memory-only, a persistent tier behind it.
func newGeocodeCache(cfg *config.Config, conn *sqlx.DB, log *zap.Logger) (ports.GeocodeCache, func(), error) {
	local := cache.NewMemoryGeocodeCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		persistent := cache.NewRedisGeocodeCache(client, cfg.Cache.TTL)
		return cache.NewTieredGeocodeCache(local, persistent, log), func() { _ = client.Close() }, nil

	case config.CacheSQL:
		var persistent ports.GeocodeCache
		if conn.DriverName() == db.DriverSQLite {
			persistent = cache.NewSqliteGeocodeCache(conn.DB, cfg.Cache.TTL)
		} else {
			persistent = cache.NewSQLGeocodeCache(conn.DB, cfg.Cache.TTL)
		}
		return cache.NewTieredGeocodeCache(local, persistent, log), noop, nil

	default:
		return local, noop, nil
	}
}

func newRouteProvider(cfg *config.Config) ports.RouteProvider {
	if cfg.Routing.Engine == config.EngineValhalla {
		return distance.NewValhallaRouteProvider(cfg.Routing.ValhallaURL, cfg.Geocoding.UserAgent, cfg.Routing.Timeout)
	}
	return distance.NewOSRMRouteProvider(cfg.Routing.OSRMURL, cfg.Geocoding.UserAgent, cfg.Routing.Timeout)
}
