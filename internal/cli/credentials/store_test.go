package credentials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIsExpired(t *testing.T) {
	tests := []struct {
		name     string
		token    Token
		expected bool
	}{
		{
			name:     "expired in past",
			token:    Token{Value: "tok", ExpiresAt: time.Now().Add(-1 * time.Hour)},
			expected: true,
		},
		{
			name:     "expires soon (within 60s)",
			token:    Token{Value: "tok", ExpiresAt: time.Now().Add(30 * time.Second)},
			expected: true,
		},
		{
			name:     "not expired",
			token:    Token{Value: "tok", ExpiresAt: time.Now().Add(2 * time.Hour)},
			expected: false,
		},
		{
			name:     "zero expiry is expired",
			token:    Token{Value: "tok"},
			expected: true,
		},
		{
			name:     "empty value is expired",
			token:    Token{ExpiresAt: time.Now().Add(time.Hour)},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.token.IsExpired())
		})
	}
}

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStoreAt(filepath.Join(t.TempDir(), "nested", "credentials.json"))
	require.NoError(t, err)
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)
	expires := time.Now().Add(time.Hour)

	require.NoError(t, store.SetAuthToken("https://authn.example.org", "auth-tok", expires))
	require.NoError(t, store.SetAPIToken("data-management-api", "dm-tok", expires))

	// Re-open from disk
	reopened, err := NewStoreAt(store.Path())
	require.NoError(t, err)

	assert.True(t, reopened.IsLoggedIn())
	token, err := reopened.AuthToken()
	require.NoError(t, err)
	assert.Equal(t, "auth-tok", token)

	apiToken, ok := reopened.APIToken("data-management-api")
	require.True(t, ok)
	assert.Equal(t, "dm-tok", apiToken)

	_, ok = reopened.APIToken("site-capabilities-api")
	assert.False(t, ok)
}

func TestStoreFilePermissions(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SetAuthToken("https://authn.example.org", "auth-tok", time.Now().Add(time.Hour)))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), dirInfo.Mode().Perm())
}

func TestStoreExpiredAuthToken(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SetAuthToken("https://authn.example.org", "auth-tok", time.Now().Add(-time.Minute)))

	assert.False(t, store.IsLoggedIn())
	_, err := store.AuthToken()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestStoreExpiredAPITokenNotReturned(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.SetAPIToken("data-management-api", "dm-tok", time.Now().Add(-time.Minute)))

	_, ok := store.APIToken("data-management-api")
	assert.False(t, ok)
}

func TestStoreAuthnURLChangeDropsAPITokens(t *testing.T) {
	store := testStore(t)
	expires := time.Now().Add(time.Hour)

	require.NoError(t, store.SetAuthToken("https://authn.example.org", "auth-tok", expires))
	require.NoError(t, store.SetAPIToken("data-management-api", "dm-tok", expires))

	require.NoError(t, store.SetAuthToken("https://other.example.org", "new-tok", expires))

	_, ok := store.APIToken("data-management-api")
	assert.False(t, ok, "API tokens from the old authn service must be dropped")
}

func TestStoreClear(t *testing.T) {
	store := testStore(t)
	expires := time.Now().Add(time.Hour)

	require.NoError(t, store.SetAuthToken("https://authn.example.org", "auth-tok", expires))
	require.NoError(t, store.Clear())

	assert.False(t, store.IsLoggedIn())

	reopened, err := NewStoreAt(store.Path())
	require.NoError(t, err)
	assert.False(t, reopened.IsLoggedIn())
}

func TestStoreClearWithoutFile(t *testing.T) {
	store := testStore(t)
	require.NoError(t, store.Clear())
	assert.NoFileExists(t, store.Path())
}

func TestStoreRejectsCorruptCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewStoreAt(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials cache")
}
