package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer dm-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := New(server.URL, 0).WithToken("dm-token")
	_, err := client.ListNamespaces(context.Background())
	require.NoError(t, err)
}

func TestClientDecodesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail": "namespace not found"}`))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	_, err := client.ListNamespaces(context.Background())

	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.True(t, apiErr.IsNotFound())
	assert.Contains(t, apiErr.Error(), "namespace not found")
}

func TestClientKeepsNonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := New(server.URL, 0)
	_, err := client.ListNamespaces(context.Background())

	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestAPIErrorOAuthError(t *testing.T) {
	tests := []struct {
		name     string
		err      APIError
		wantCode string
		wantDesc string
	}{
		{
			name:     "direct fields",
			err:      APIError{Code: "access_denied", Description: "user said no"},
			wantCode: "access_denied",
			wantDesc: "user said no",
		},
		{
			name:     "wrapped in detail",
			err:      APIError{Detail: `400: error from token endpoint, response: {"error": "slow_down", "error_description": "polling too fast"}`},
			wantCode: "slow_down",
			wantDesc: "polling too fast",
		},
		{
			name: "detail without embedded json",
			err:  APIError{Detail: "something else entirely"},
		},
		{
			name: "malformed embedded json",
			err:  APIError{Detail: `response: {not json}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, desc := tt.err.OAuthError()
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantDesc, desc)
		})
	}
}

func TestAPIErrorAuthPredicates(t *testing.T) {
	assert.True(t, (&APIError{StatusCode: http.StatusUnauthorized}).IsAuthError())
	assert.True(t, (&APIError{StatusCode: http.StatusForbidden}).IsAuthError())
	assert.False(t, (&APIError{StatusCode: http.StatusBadRequest}).IsAuthError())
}
