package tokencache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenBody = `{"access_token":"secret_abc","token_type":"bearer","bot_id":"bot-1","workspace_name":"Kitchen","owner":{"type":"user"}}`

func TestFileCacheRoundTrip(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "cache", "token.json"))

	_, err := cache.Load()
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, cache.Save([]byte(tokenBody)))

	tok, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret_abc", tok.AccessToken)
	assert.Equal(t, "Kitchen", tok.WorkspaceName)
	assert.JSONEq(t, `{"type":"user"}`, string(tok.Owner))
	assert.Equal(t, tokenBody, string(tok.Raw))
	assert.True(t, tok.Expiry.IsZero())
}

func TestFileCacheSaveOverwrites(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "token.json"))

	require.NoError(t, cache.Save([]byte(tokenBody)))
	require.NoError(t, cache.Save([]byte(`{"access_token":"second"}`)))

	tok, err := cache.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", tok.AccessToken)

	entries, err := os.ReadDir(filepath.Dir(cache.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileCacheMisses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"access_token":`},
		{"no access token", `{"error":"invalid_grant"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "token.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := NewFileCache(path).Load()
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestFileCacheExpiry(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, cache.Save([]byte(`{"access_token":"short","expires_in":60}`)))

	tok, err := cache.Load()
	require.NoError(t, err)
	assert.False(t, tok.Expiry.IsZero())

	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = cache.Load()
	assert.ErrorIs(t, err, ErrMiss)
}

func TestFileCacheRemove(t *testing.T) {
	cache := NewFileCache(filepath.Join(t.TempDir(), "token.json"))

	assert.NoError(t, cache.Remove(), "removing a missing file is fine")

	require.NoError(t, cache.Save([]byte(tokenBody)))
	require.NoError(t, cache.Remove())

	_, err := os.Stat(cache.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestTokenOAuth2(t *testing.T) {
	tok, err := ParseToken([]byte(`{"access_token":"abc"}`))
	require.NoError(t, err)

	ot := tok.OAuth2()
	assert.Equal(t, "abc", ot.AccessToken)
	assert.Equal(t, "Bearer", ot.Type())
	assert.True(t, ot.Valid())
}
