package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("database:\n  host: db\n  user: app\n  name: flights\n"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Address)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2000, cfg.Database.LockTimeoutMS)
	assert.Equal(t, 3, cfg.Booking.MaxAttempts)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "host=db port=5432 user=app password= dbname=flights sslmode=disable", cfg.Database.DSN())
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("http: [unterminated"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@localhost/x", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@localhost/x", d.DSN())
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	env := map[string]string{
		"DATABASE_URL":   "postgres://localhost/flights",
		"REDIS_ADDR":     "localhost:6379",
		"KAFKA_BROKERS":  "k1:9092,k2:9092",
		"STORAGE_DRIVER": "memory",
	}
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "postgres://localhost/flights", cfg.Database.URL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
}

func TestValidate(t *testing.T) {
	cfg, err := Parse([]byte("storage:\n  driver: sqlite\n"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = StorageDriverMemory
	assert.NoError(t, cfg.Validate())

	cfg.Booking.MaxAttempts = -1
	assert.Error(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\nbooking:\n  max_attempts: 5\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Booking.MaxAttempts)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
