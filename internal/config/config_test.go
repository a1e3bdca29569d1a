package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	assert.Equal(t, "inventory.events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_LOCK_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.DB.LockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://shop.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("REDIS_ADDR=cache:6379\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("REDIS_ADDR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("DB_LOCK_TIMEOUT", "soon")
	_, err := Load("")
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	db := DBConfig{Host: "db", Port: "5432", User: "shop", Password: "p@ss word", Name: "retail", SSLMode: "disable"}
	assert.Equal(t, "postgres://shop:p%40ss%20word@db:5432/retail?sslmode=disable", db.DSN())
}
