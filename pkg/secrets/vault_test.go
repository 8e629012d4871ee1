package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_KVv2(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/chronic-care/api", r.URL.Path)
		assert.Equal(t, "s.token", r.Header.Get("X-Vault-Token"))
		w.Write([]byte(`{"data":{"data":{"OPENAI_API_KEY":"sk-vault","DB_PORT":5433,"REDIS_ENABLED":false}}}`))
	}))
	defer server.Close()

	values, err := Fetch(context.Background(), VaultConfig{
		Addr:  server.URL,
		Token: "s.token",
		Path:  "chronic-care/api",
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"OPENAI_API_KEY": "sk-vault",
		"DB_PORT":        "5433",
		"REDIS_ENABLED":  "false",
	}, values)
}

func TestFetch_KVv1(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/kv/chronic-care", r.URL.Path)
		w.Write([]byte(`{"data":{"DB_PASSWORD":"pw"}}`))
	}))
	defer server.Close()

	values, err := Fetch(context.Background(), VaultConfig{
		Addr:      server.URL,
		Token:     "s.token",
		Mount:     "kv",
		Path:      "chronic-care",
		KVVersion: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, "pw", values["DB_PASSWORD"])
}

func TestFetch_Errors(t *testing.T) {
	_, err := Fetch(context.Background(), VaultConfig{Addr: "http://vault"})
	assert.Error(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "permission denied", http.StatusForbidden)
	}))
	defer server.Close()

	_, err = Fetch(context.Background(), VaultConfig{Addr: server.URL, Token: "bad", Path: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}
