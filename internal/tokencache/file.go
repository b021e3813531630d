// Package tokencache persists the most recent token exchange response in a
// single file for the lifetime of the process.
package tokencache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrMiss is returned when no usable token is cached
var ErrMiss = errors.New("no cached token")

// Token is the token endpoint response. Raw holds the body as received.
type Token struct {
	AccessToken          string          `json:"access_token"`
	TokenType            string          `json:"token_type,omitempty"`
	BotID                string          `json:"bot_id,omitempty"`
	WorkspaceID          string          `json:"workspace_id,omitempty"`
	WorkspaceName        string          `json:"workspace_name,omitempty"`
	WorkspaceIcon        string          `json:"workspace_icon,omitempty"`
	DuplicatedTemplateID string          `json:"duplicated_template_id,omitempty"`
	Owner                json.RawMessage `json:"owner,omitempty"`
	ExpiresIn            int64           `json:"expires_in,omitempty"`

	// Expiry is derived from ExpiresIn and the time the body was written
	Expiry time.Time `json:"-"`
	Raw    []byte    `json:"-"`
}

// ParseToken decodes a token endpoint response
func ParseToken(raw []byte) (*Token, error) {
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	tok.Raw = raw
	return &tok, nil
}

// Valid reports whether the token has an access token and, when the
// provider gave a lifetime, has not expired at now
func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.Expiry.IsZero() || now.Before(t.Expiry)
}

// OAuth2 returns the token as an oauth2.Token for bearer transports
func (t *Token) OAuth2() *oauth2.Token {
	tokenType := t.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: t.AccessToken,
		TokenType:   tokenType,
		Expiry:      t.Expiry,
	}
}

// Cache stores one token
type Cache interface {
	Load() (*Token, error)
	Save(raw []byte) error
	Remove() error
}

// FileCache keeps the raw token body in one file
type FileCache struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFileCache creates a new FileCache instance
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path, now: time.Now}
}

// Path returns the cache file location
func (c *FileCache) Path() string {
	return c.path
}

// Load returns the cached token, or ErrMiss when the file is absent,
// unreadable, has no access token or is expired
func (c *FileCache) Load() (*Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(c.path)
	if err != nil {
		return nil, ErrMiss
	}
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, ErrMiss
	}

	tok, err := ParseToken(raw)
	if err != nil {
		return nil, ErrMiss
	}
	if tok.ExpiresIn > 0 {
		tok.Expiry = info.ModTime().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	if !tok.Valid(c.now()) {
		return nil, ErrMiss
	}
	return tok, nil
}

// Save overwrites the cache with raw, replacing the file atomically
func (c *FileCache) Save(raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// Remove deletes the cache file. A missing file is not an error.
func (c *FileCache) Remove() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token cache: %w", err)
	}
	return nil
}
