package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "math", "fav_constant", "pi"))

	v, ok, err := s.Get(ctx, "math", "fav_constant")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "pi", v)
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "math", "k", "one"))
	require.NoError(t, s.Put(ctx, "math", "k", "two"))

	v, ok, err := s.Get(ctx, "math", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "two", v)
}

func TestGetMissingIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get(context.Background(), "math", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestKeysAreScopedPerAgent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "math", "k", "math-value"))
	require.NoError(t, s.Put(ctx, "code", "k", "code-value"))

	v, ok, err := s.Get(ctx, "math", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "math-value", v)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "math", "k", "v"))
	require.NoError(t, s.Delete(ctx, "math", "k"))

	_, ok, err := s.Get(ctx, "math", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, s.Delete(ctx, "math", "k"), "deleting an absent key is fine")
}
