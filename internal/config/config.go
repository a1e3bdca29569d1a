package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	GinMode     string `env:"GIN_MODE" envDefault:"release"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"inventory-service"`

	DB DBConfig

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://127.0.0.1:5173"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	RedisPassword  string        `env:"REDIS_PASSWORD"`
	RedisDB        int           `env:"REDIS_DB" envDefault:"0"`
	ReportCacheTTL time.Duration `env:"REPORT_CACHE_TTL" envDefault:"5m"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"inventory.events"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

type DBConfig struct {
	Host        string        `env:"DB_HOST" envDefault:"localhost"`
	Port        string        `env:"DB_PORT" envDefault:"5432"`
	User        string        `env:"DB_USER" envDefault:"postgres"`
	Password    string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name        string        `env:"DB_NAME" envDefault:"postgres"`
	SSLMode     string        `env:"DB_SSLMODE" envDefault:"disable"`
	LockTimeout time.Duration `env:"DB_LOCK_TIMEOUT" envDefault:"5s"`
}

// Load reads envFile when present, then parses the environment. Values
// already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		// A missing file is fine; deployments set the environment directly.
		_ = godotenv.Load(envFile)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DB.LockTimeout < 0 {
		return nil, fmt.Errorf("DB_LOCK_TIMEOUT must not be negative")
	}
	return &cfg, nil
}

// DSN is the postgres connection URL.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
