package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartDeviceFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/login/device", r.URL.Path)

		_ = json.NewEncoder(w).Encode(DeviceAuthorization{
			DeviceCode:      "device-123",
			UserCode:        "ABCD-EFGH",
			VerificationURI: "https://auth.example.org/device",
			ExpiresIn:       600,
			Interval:        5,
		})
	}))
	defer server.Close()

	client := New(server.URL, 0)
	auth, err := client.StartDeviceFlow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "device-123", auth.DeviceCode)
	assert.Equal(t, "https://auth.example.org/device?user_code=ABCD-EFGH", auth.VerificationURL())
	assert.Equal(t, 5*time.Second, auth.PollInterval())
}

func TestStartDeviceFlow_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	_, err := client.StartDeviceFlow(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no device code")
}

func TestPollForToken_PendingThenSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "device-123", r.URL.Query().Get("device_code"))

		// The service wraps upstream IAM errors in a detail string
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"detail": `400: error from upstream, response: {"error": "authorization_pending"}`,
			})
			return
		}

		_, _ = w.Write([]byte(`{"token": {"access_token": "auth-token-xyz"}}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	token, err := client.PollForToken(context.Background(), "device-123", 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "auth-token-xyz", token)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPollForToken_SlowDownStretchesInterval(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "slow_down"})
			return
		}
		_, _ = w.Write([]byte(`{"token": {"access_token": "auth-token-xyz"}}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	var slept []time.Duration
	client.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	token, err := client.PollForToken(context.Background(), "device-123", 10*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, "auth-token-xyz", token)
	// slow_down adds five seconds to the requested interval
	require.Len(t, slept, 1)
	assert.Equal(t, 10*time.Millisecond+5*time.Second, slept[0])
}

func TestPollForToken_TerminalErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    map[string]string
		wantMsg string
	}{
		{
			name:    "expired",
			body:    map[string]string{"error": "expired_token"},
			wantMsg: "device code expired",
		},
		{
			name:    "denied",
			body:    map[string]string{"detail": `400: error, response: {"error": "access_denied"}`},
			wantMsg: "denied",
		},
		{
			name:    "unknown",
			body:    map[string]string{"error": "server_error", "error_description": "IAM unavailable"},
			wantMsg: "IAM unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer server.Close()

			client := New(server.URL, 0)
			_, err := client.PollForToken(context.Background(), "device-123", time.Millisecond)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestPollForToken_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "authorization_pending"})
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := New(server.URL, 0)
	_, err := client.PollForToken(ctx, "device-123", 10*time.Millisecond)
	require.Error(t, err)
}

func TestExchangeToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/exchange/data-management-api", r.URL.Path)
		assert.Equal(t, "latest", r.URL.Query().Get("version"))
		assert.Equal(t, "false", r.URL.Query().Get("try_use_cache"))
		assert.Equal(t, "auth-token-xyz", r.URL.Query().Get("access_token"))

		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "dm-token"})
	}))
	defer server.Close()

	client := New(server.URL, 0)
	token, err := client.ExchangeToken(context.Background(), APIDataManagement, "auth-token-xyz")

	require.NoError(t, err)
	assert.Equal(t, "dm-token", token)
}

func TestExchangeToken_LegacyTokenField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "sc-token"})
	}))
	defer server.Close()

	client := New(server.URL, 0)
	token, err := client.ExchangeToken(context.Background(), APISiteCapabilities, "auth-token-xyz")

	require.NoError(t, err)
	assert.Equal(t, "sc-token", token)
}

func TestExchangeToken_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	_, err := client.ExchangeToken(context.Background(), APIDataManagement, "auth-token-xyz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}
