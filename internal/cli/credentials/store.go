// Package credentials stores the starbind CLI's cached tokens.
//
// The device-flow login is interactive, so its result is cached on disk
// and reused until it expires: one authentication token plus one
// exchanged token per downstream API, keyed by API name.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultConfigDir is the directory name under the user's config home.
	DefaultConfigDir = "starbind"
	// CredentialsFileName is the name of the token cache file.
	CredentialsFileName = "credentials.json"
	// FilePermissions for the cache file (read/write for owner only).
	FilePermissions = 0600
	// DirPermissions for the config directory.
	DirPermissions = 0700
)

// expirySkew treats tokens as expired slightly early so a token that is
// valid now does not expire mid-operation.
const expirySkew = 60 * time.Second

// ErrNotLoggedIn indicates no valid cached credentials exist.
var ErrNotLoggedIn = errors.New("not logged in - run 'starbind login' first")

// Token is one bearer token plus its expiry.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the token is missing, has no expiry, or
// expires within the next minute.
func (t *Token) IsExpired() bool {
	if t.Value == "" || t.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().Add(expirySkew).After(t.ExpiresAt)
}

// Credentials is the on-disk token cache.
type Credentials struct {
	// AuthnURL records which authentication service issued these
	// tokens. Tokens are dropped when the configured URL changes.
	AuthnURL string `json:"authn_url,omitempty"`

	// AuthToken is the device-flow authentication token.
	AuthToken Token `json:"auth_token,omitempty"`

	// APITokens holds exchanged per-API tokens, keyed by API name.
	APITokens map[string]Token `json:"api_tokens,omitempty"`
}

// Store manages the token cache file.
type Store struct {
	path  string
	creds *Credentials
}

// NewStore opens the token cache at its default location
// ($XDG_CONFIG_HOME/starbind/credentials.json).
func NewStore() (*Store, error) {
	path, err := defaultPath()
	if err != nil {
		return nil, err
	}
	return NewStoreAt(path)
}

// NewStoreAt opens the token cache at an explicit path.
func NewStoreAt(path string) (*Store, error) {
	store := &Store{path: path}

	if err := store.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		store.creds = &Credentials{APITokens: make(map[string]Token)}
	}

	return store, nil
}

func defaultPath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}

	return filepath.Join(configHome, DefaultConfigDir, CredentialsFileName), nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	s.creds = &Credentials{}
	if err := json.Unmarshal(data, s.creds); err != nil {
		return fmt.Errorf("invalid credentials cache %s: %w", s.path, err)
	}
	if s.creds.APITokens == nil {
		s.creds.APITokens = make(map[string]Token)
	}
	return nil
}

func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, FilePermissions)
}

// Path returns the cache file path.
func (s *Store) Path() string {
	return s.path
}

// IsLoggedIn reports whether a valid authentication token is cached.
func (s *Store) IsLoggedIn() bool {
	return !s.creds.AuthToken.IsExpired()
}

// AuthToken returns the cached authentication token, or ErrNotLoggedIn
// if none is valid.
func (s *Store) AuthToken() (string, error) {
	if s.creds.AuthToken.IsExpired() {
		return "", ErrNotLoggedIn
	}
	return s.creds.AuthToken.Value, nil
}

// APIToken returns a valid cached token for the named API, if any.
func (s *Store) APIToken(apiName string) (string, bool) {
	token, ok := s.creds.APITokens[apiName]
	if !ok || token.IsExpired() {
		return "", false
	}
	return token.Value, true
}

// SetAuthToken caches the authentication token issued by authnURL.
// Tokens exchanged against a different authentication service are
// dropped.
func (s *Store) SetAuthToken(authnURL, token string, expiresAt time.Time) error {
	if s.creds.AuthnURL != authnURL {
		s.creds.APITokens = make(map[string]Token)
	}
	s.creds.AuthnURL = authnURL
	s.creds.AuthToken = Token{Value: token, ExpiresAt: expiresAt}
	return s.save()
}

// SetAPIToken caches an exchanged per-API token.
func (s *Store) SetAPIToken(apiName, token string, expiresAt time.Time) error {
	s.creds.APITokens[apiName] = Token{Value: token, ExpiresAt: expiresAt}
	return s.save()
}

// Clear drops all cached tokens (logout). Clearing an already-empty
// cache is not an error.
func (s *Store) Clear() error {
	s.creds = &Credentials{APITokens: make(map[string]Token)}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}
	return s.save()
}
