package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		HTTP      HTTP      `envPrefix:"HTTP_"`
		Logger    Logger    `envPrefix:"LOGGER_"`
		Telemetry Telemetry `envPrefix:"TELEMETRY_"`
		Pyramid   Pyramid   `envPrefix:"PYRAMID_"`
		Cache     Cache     `envPrefix:"CACHE_"`
		Redis     Redis     `envPrefix:"REDIS_"`
	}

	HTTP struct {
		Server      Server        `envPrefix:"SERVER_"`
		Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
		CacheMaxAge int           `env:"CACHE_MAX_AGE" envDefault:"3600"`
		Production  bool          `env:"PRODUCTION" envDefault:"false"`
	}

	Server struct {
		Port         string        `env:"PORT,required"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	}

	Logger struct {
		Level      string `env:"LEVEL,required"`
		File       string `env:"FILE" envDefault:""`
		MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"100"`
		MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	}

	Telemetry struct {
		Enabled        bool   `env:"ENABLED" envDefault:"false"`
		ServiceName    string `env:"SERVICE_NAME" envDefault:"guide-helper-pyramid"`
		ServiceVersion string `env:"SERVICE_VERSION" envDefault:"1.0.0"`
		Environment    string `env:"ENVIRONMENT" envDefault:"production"`
		OTLPEndpoint   string `env:"OTLP_ENDPOINT" envDefault:"otel-collector.observability.svc.cluster.local:4317"`
	}

	Pyramid struct {
		SourceDir    string   `env:"SOURCE_DIR" envDefault:"static/wasp-map-layers"`
		SentinelDir  string   `env:"SENTINEL_DIR" envDefault:"static"`
		ScopeLayer   string   `env:"SCOPE_LAYER" envDefault:"map"`
		Layers       []string `env:"LAYERS" envDefault:"map,heightmap,collision" envSeparator:","`
		TileSize     int      `env:"TILE_SIZE" envDefault:"256"`
		ZoomMin      int      `env:"ZOOM_MIN" envDefault:"-6"`
		ZoomMax      int      `env:"ZOOM_MAX" envDefault:"2"`
		PlaneMin     int      `env:"PLANE_MIN" envDefault:"0"`
		PlaneMax     int      `env:"PLANE_MAX" envDefault:"3"`
		Format       string   `env:"FORMAT" envDefault:"webp"`
		LossyQuality int      `env:"LOSSY_QUALITY" envDefault:"75"`
		Workers      int      `env:"WORKERS" envDefault:"0"`
	}

	Cache struct {
		Backend       string `env:"BACKEND" envDefault:"filesystem"`
		Dir           string `env:"DIR" envDefault:"cache"`
		SQLitePath    string `env:"SQLITE_PATH" envDefault:"cache.db"`
		MemoryEnabled bool   `env:"MEMORY_ENABLED" envDefault:"false"`
		MemoryMaxCost int64  `env:"MEMORY_MAX_COST" envDefault:"268435456"`
	}

	Redis struct {
		Addr     string `env:"ADDR" envDefault:"localhost:6379"`
		Password string `env:"PASSWORD" envDefault:""`
		DB       int    `env:"DB" envDefault:"0"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.Redis.Password != "" {
		c.Redis.Password = "[redacted]"
	}
	return c
}
