package ticket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	t.Run("default timeout", func(t *testing.T) {
		cfg := Config{}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "10s", cfg.Timeout)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		cfg := Config{Timeout: "not-a-duration"}
		require.Error(t, cfg.Validate())
	})
}

func TestNew(t *testing.T) {
	t.Run("empty endpoint picks local system", func(t *testing.T) {
		system, err := New(Config{Timeout: "10s"})
		require.NoError(t, err)
		assert.IsType(t, &LocalSystem{}, system)
	})

	t.Run("endpoint picks http system", func(t *testing.T) {
		system, err := New(Config{Endpoint: "https://tickets.internal/api", Timeout: "10s"})
		require.NoError(t, err)
		assert.IsType(t, &HTTPSystem{}, system)
	})
}

func TestLocalSystem(t *testing.T) {
	system := NewLocalSystem()

	ticket, err := system.Create(context.Background(), Request{
		System:   "default",
		Priority: "high",
		Summary:  "db down",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ticket.Ref, "TKT-"))
	assert.Equal(t, "default", ticket.System)
	assert.False(t, ticket.CreatedAt.IsZero())

	// 编号唯一
	again, err := system.Create(context.Background(), Request{})
	require.NoError(t, err)
	assert.NotEqual(t, ticket.Ref, again.Ref)
}

func TestHTTPSystem(t *testing.T) {
	t.Run("posts request and parses ref", func(t *testing.T) {
		var gotAuth string
		var gotReq Request

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&gotReq)
			_ = json.NewEncoder(w).Encode(map[string]string{"ref": "JIRA-1234"})
		}))
		defer server.Close()

		system := NewHTTPSystem(server.URL, "secret", 5*time.Second)

		ticket, err := system.Create(context.Background(), Request{
			System:   "jira",
			Priority: "high",
			Summary:  "db down",
		})
		require.NoError(t, err)

		assert.Equal(t, "JIRA-1234", ticket.Ref)
		assert.Equal(t, "Bearer secret", gotAuth)
		assert.Equal(t, "jira", gotReq.System)
	})

	t.Run("falls back to id field", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "INC-42"})
		}))
		defer server.Close()

		system := NewHTTPSystem(server.URL, "", 5*time.Second)

		ticket, err := system.Create(context.Background(), Request{})
		require.NoError(t, err)
		assert.Equal(t, "INC-42", ticket.Ref)
	})

	t.Run("non-2xx is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		system := NewHTTPSystem(server.URL, "", 5*time.Second)

		_, err := system.Create(context.Background(), Request{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "502")
	})
}
