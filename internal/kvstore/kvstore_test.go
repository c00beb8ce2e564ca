// ABOUTME: Tests for the in-memory Store implementation
// ABOUTME: Verifies namespace isolation, overwrite, delete, and value copying

package kvstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()

	value, ok, err := m.Get(context.Background(), "sessions", "list")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemory_SetGetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "messages", "abc", []byte(`[{"id":"1"}]`)))

	value, ok, err := m.Get(ctx, "messages", "abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, string(value))
}

func TestMemory_NamespaceIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "sessions", "k", []byte("a")))
	require.NoError(t, m.Set(ctx, "messages", "k", []byte("b")))

	value, ok, err := m.Get(ctx, "sessions", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", string(value))

	require.NoError(t, m.Delete(ctx, "sessions", "k"))

	_, ok, err = m.Get(ctx, "sessions", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// The other namespace is untouched.
	value, ok, err = m.Get(ctx, "messages", "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", string(value))
}

func TestMemory_OverwriteLastWriteWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "sessions", "list", []byte("first")))
	require.NoError(t, m.Set(ctx, "sessions", "list", []byte("second")))

	value, ok, err := m.Get(ctx, "sessions", "list")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", string(value))
}

func TestMemory_ReturnedValueIsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "ns", "k", []byte("orig")))

	value, ok, err := m.Get(ctx, "ns", "k")
	require.NoError(t, err)
	require.True(t, ok)
	value[0] = 'X'

	again, _, err := m.Get(ctx, "ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "orig", string(again))
}

func TestMemory_DeleteMissingIsNoError(t *testing.T) {
	m := NewMemory()
	assert.NoError(t, m.Delete(context.Background(), "ns", "never-set"))
}
