package config

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 2*time.Minute, cfg.Cache.Hot.TTL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.Warm.TTL)
	assert.Equal(t, 60*time.Minute, cfg.Cache.Cold.TTL)
	assert.Equal(t, 10, cfg.Worker.CoreWorkers)
	assert.Equal(t, 50, cfg.Worker.MaxWorkers)
	assert.Equal(t, 200, cfg.Worker.QueueSize)
	assert.Equal(t, 10, cfg.RateLimit.Strict.Capacity)
	assert.Equal(t, 100, cfg.RateLimit.Default.Capacity)
}

func TestLoad_OpenAIAndLimiterOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("RATE_LIMIT_STRICT_CAPACITY", "5")
	t.Setenv("RATE_LIMIT_STRICT_REFILL_PER_MINUTE", "5")
	t.Setenv("CACHE_WARM_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.Model)
	assert.Equal(t, 5, cfg.RateLimit.Strict.Capacity)
	assert.Equal(t, 5, cfg.RateLimit.Strict.RefillPerMinute)
	assert.Equal(t, 30*time.Second, cfg.Cache.Warm.TTL)
}

func TestLoad_RejectsInvalidWorkerSizing(t *testing.T) {
	t.Setenv("WORKER_CORE", "20")
	t.Setenv("WORKER_MAX", "5")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfigHelpers(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "chronic_care", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=chronic_care sslmode=disable", db.DatabaseDSN())

	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.RedisAddr())
}

func TestLoad_VaultSecretsOverlay(t *testing.T) {
	vault := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"data":{"OPENAI_API_KEY":"sk-from-vault","DB_PASSWORD":"vault-pw"}}}`))
	}))
	defer vault.Close()

	t.Setenv("VAULT_ENABLED", "true")
	t.Setenv("VAULT_ADDR", vault.URL)
	t.Setenv("VAULT_TOKEN", "s.token")
	t.Setenv("VAULT_PATH", "chronic-care/api")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DB_PASSWORD", "env-pw")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-from-vault", cfg.OpenAI.APIKey)
	assert.Equal(t, "env-pw", cfg.Database.Password)
}

func TestLoad_VaultFailureIsFatal(t *testing.T) {
	t.Setenv("VAULT_ENABLED", "true")
	t.Setenv("VAULT_ADDR", "")

	_, err := Load()
	assert.Error(t, err)
}
