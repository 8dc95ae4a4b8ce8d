package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EngineOSRM     = "osrm"
	EngineValhalla = "valhalla"

	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheSQL    = "sql"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Geocoding GeocodingConfig
	Routing   RoutingConfig
	Cache     CacheConfig
	Backup    BackupConfig
	Log       LogConfig
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver   string // "sqlite" or "pgx"
	DSN      string
	SeedPath string
}

type GeocodingConfig struct {
	URL               string
	UserAgent         string
	CountryName       string
	CountryCode       string
	FallbackLat       float64
	FallbackLon       float64
	Timeout           time.Duration
	RequestsPerSecond float64
}

type RoutingConfig struct {
	Engine      string
	OSRMURL     string
	ValhallaURL string
	Timeout     time.Duration
	// DistanceTimeout bounds a whole geocode+route call.
	DistanceTimeout time.Duration
}

type CacheConfig struct {
	Backend    string
	MaxEntries int
	TTL        time.Duration
	RedisAddr  string
	RedisDB    int
}

type BackupConfig struct {
	Dir      string
	Keep     int
	Auto     bool
	Schedule bool
}

type LogConfig struct {
	Env   string
	Level string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/app.db")
	v.SetDefault("db.seed_path", "data/seeds/vehicles.json")

	v.SetDefault("geocoding.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "RimborsoKM/1.0")
	v.SetDefault("geocoding.country_name", "Italia")
	v.SetDefault("geocoding.country_code", "it")
	v.SetDefault("geocoding.fallback_lat", 41.9)
	v.SetDefault("geocoding.fallback_lon", 12.5)
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("geocoding.rps", 1.0)

	v.SetDefault("routing.engine", EngineOSRM)
	v.SetDefault("routing.osrm_url", "https://router.project-osrm.org")
	v.SetDefault("routing.valhalla_url", "https://valhalla1.openstreetmap.de")
	v.SetDefault("routing.timeout", 15*time.Second)
	v.SetDefault("routing.distance_timeout", 45*time.Second)

	v.SetDefault("cache.backend", CacheSQL)
	v.SetDefault("cache.max_entries", 1024)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)

	v.SetDefault("backup.dir", "backups")
	v.SetDefault("backup.keep", 10)
	v.SetDefault("backup.auto", true)
	v.SetDefault("backup.schedule", true)

	v.SetDefault("log.env", "development")
	v.SetDefault("log.level", "info")
}

// Load reads an optional .env file, then the environment. Keys map to
// upper-case variables with dots replaced by underscores (db.dsn -> DB_DSN).
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Addr:            v.GetString("server.addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("db.driver")),
			DSN:      v.GetString("db.dsn"),
			SeedPath: v.GetString("db.seed_path"),
		},
		Geocoding: GeocodingConfig{
			URL:               v.GetString("geocoding.url"),
			UserAgent:         v.GetString("geocoding.user_agent"),
			CountryName:       v.GetString("geocoding.country_name"),
			CountryCode:       v.GetString("geocoding.country_code"),
			FallbackLat:       v.GetFloat64("geocoding.fallback_lat"),
			FallbackLon:       v.GetFloat64("geocoding.fallback_lon"),
			Timeout:           v.GetDuration("geocoding.timeout"),
			RequestsPerSecond: v.GetFloat64("geocoding.rps"),
		},
		Routing: RoutingConfig{
			Engine:          strings.ToLower(v.GetString("routing.engine")),
			OSRMURL:         v.GetString("routing.osrm_url"),
			ValhallaURL:     v.GetString("routing.valhalla_url"),
			Timeout:         v.GetDuration("routing.timeout"),
			DistanceTimeout: v.GetDuration("routing.distance_timeout"),
		},
		Cache: CacheConfig{
			Backend:    strings.ToLower(v.GetString("cache.backend")),
			MaxEntries: v.GetInt("cache.max_entries"),
			TTL:        v.GetDuration("cache.ttl"),
			RedisAddr:  v.GetString("cache.redis_addr"),
			RedisDB:    v.GetInt("cache.redis_db"),
		},
		Backup: BackupConfig{
			Dir:      v.GetString("backup.dir"),
			Keep:     v.GetInt("backup.keep"),
			Auto:     v.GetBool("backup.auto"),
			Schedule: v.GetBool("backup.schedule"),
		},
		Log: LogConfig{
			Env:   v.GetString("log.env"),
			Level: v.GetString("log.level"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q: want sqlite or pgx", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("DB_DSN is required"))
	}

	switch c.Routing.Engine {
	case EngineOSRM, EngineValhalla:
	default:
		errs = append(errs, fmt.Errorf("ROUTING_ENGINE %q: want osrm or valhalla", c.Routing.Engine))
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheSQL:
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q: want memory, redis or sql", c.Cache.Backend))
	}
	if c.Cache.Backend == CacheRedis && strings.TrimSpace(c.Cache.RedisAddr) == "" {
		errs = append(errs, errors.New("CACHE_REDIS_ADDR is required for the redis cache"))
	}

	if c.Geocoding.FallbackLat < -90 || c.Geocoding.FallbackLat > 90 ||
		c.Geocoding.FallbackLon < -180 || c.Geocoding.FallbackLon > 180 {
		errs = append(errs, fmt.Errorf("geocoding fallback %v,%v out of range", c.Geocoding.FallbackLat, c.Geocoding.FallbackLon))
	}
	if c.Geocoding.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("GEOCODING_RPS must not be negative"))
	}
	if c.Backup.Keep < 1 {
		errs = append(errs, errors.New("BACKUP_KEEP must be at least 1"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
