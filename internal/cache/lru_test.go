package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

func TestLRU(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(2)

	require.NoError(t, c.Put(ctx, "a", value.Int(1)))
	require.NoError(t, c.Put(ctx, "b", value.Int(2)))

	// Touch a so b becomes the oldest.
	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Put(ctx, "c", value.Int(3)))

	_, ok, _ = c.Get(ctx, "b")
	assert.False(t, ok, "least recently used entry is evicted")

	v, ok, _ := c.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "1", v.String())

	assert.Equal(t, Stats{Entries: 2, Hits: 2, Misses: 1, Evictions: 1}, c.Stats())
}

func TestLRU_Replace(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(2)

	require.NoError(t, c.Put(ctx, "a", value.Int(1)))
	require.NoError(t, c.Put(ctx, "a", value.String("x")))
	assert.Equal(t, 1, c.Len())

	v, _, _ := c.Get(ctx, "a")
	assert.Equal(t, `"x"`, v.String())
}

func TestLRU_Purge(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(0)

	require.NoError(t, c.Put(ctx, "a", value.Int(1)))
	c.Purge()
	assert.Zero(t, c.Len())

	_, ok, _ := c.Get(ctx, "a")
	assert.False(t, ok)
}

// failing is a tier whose every operation fails.
type failing struct{}

func (failing) Get(context.Context, string) (value.Value, bool, error) {
	return value.Value{}, false, errors.New("tier down")
}

func (failing) Put(context.Context, string, value.Value) error {
	return errors.New("tier down")
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	fast, slow := NewLRU(4), NewLRU(4)
	c := NewChain(fast, nil, slow)
	assert.Equal(t, 2, c.Len())

	require.NoError(t, slow.Put(ctx, "k", value.Int(7)))

	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "7", v.String())
	assert.Equal(t, 1, fast.Len(), "hit in a slower tier is copied forward")

	require.NoError(t, c.Put(ctx, "n", value.Null()))
	assert.Equal(t, 2, fast.Len())
	assert.Equal(t, 2, slow.Len())
}

func TestChain_Errors(t *testing.T) {
	ctx := context.Background()
	mem := NewLRU(4)
	c := NewChain(failing{}, mem)

	require.NoError(t, mem.Put(ctx, "k", value.Int(1)))

	v, ok, err := c.Get(ctx, "k")
	assert.True(t, ok, "later tiers still serve hits")
	assert.Equal(t, "1", v.String())
	assert.Error(t, err)

	assert.Error(t, c.Put(ctx, "x", value.Int(2)))
	_, ok, _ = mem.Get(ctx, "x")
	assert.True(t, ok, "healthy tiers are still written")
}
