package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	c := NewMemory()
	defer c.Close()

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("grammar_abc123def456", []byte(`{"patterns":[]}`)))

	value, ok, err := c.Get("grammar_abc123def456")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"patterns":[]}`, string(value))

	// Overwrite replaces the previous value.
	require.NoError(t, c.Put("grammar_abc123def456", []byte("v2")))
	value, ok, _ = c.Get("grammar_abc123def456")
	require.True(t, ok)
	assert.Equal(t, "v2", string(value))
}

func TestMemoryCacheCopies(t *testing.T) {
	c := NewMemory()
	defer c.Close()

	original := []byte("payload")
	require.NoError(t, c.Put("k", original))
	original[0] = 'X'

	value, ok, _ := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "payload", string(value))
}

func TestSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := NewSQLite(path)
	require.NoError(t, err)

	_, ok, err := c.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put("grammar_abc123def456", []byte("stored")))
	value, ok, err := c.Get("grammar_abc123def456")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "stored", string(value))

	require.NoError(t, c.Put("grammar_abc123def456", []byte("replaced")))
	value, ok, _ = c.Get("grammar_abc123def456")
	require.True(t, ok)
	assert.Equal(t, "replaced", string(value))

	require.NoError(t, c.Close())

	// Reopen: entries persist across connections.
	c2, err := NewSQLite(path)
	require.NoError(t, err)
	defer c2.Close()

	value, ok, err = c2.Get("grammar_abc123def456")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "replaced", string(value))
}
