package codecrafters

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGenerator struct {
	calls atomic.Int32
	known map[string]bool
	fail  atomic.Bool
	gate  chan struct{}
}

func (g *countingGenerator) generate(_ context.Context, slug string) ([]byte, error) {
	g.calls.Add(1)
	if g.gate != nil {
		<-g.gate
	}
	if g.fail.Load() {
		return nil, errors.New("database is locked")
	}
	if !g.known[slug] {
		return nil, ErrNotFound
	}
	return []byte("page:" + slug), nil
}

func newTestCache(ttl time.Duration, known ...string) (*PageCache, *countingGenerator, *fakeClock) {
	g := &countingGenerator{known: make(map[string]bool)}
	for _, k := range known {
		g.known[k] = true
	}
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewPageCache(NewMemoryPageStore(), g.generate, ttl)
	c.now = clock.now
	return c, g, clock
}

func TestPageCachePrime(t *testing.T) {
	c, g, _ := newTestCache(time.Minute, "a", "b")
	ctx := context.Background()

	require.NoError(t, c.Prime(ctx, []string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, c.Paths())
	assert.EqualValues(t, 2, g.calls.Load())

	body, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "page:a", string(body))
	assert.EqualValues(t, 2, g.calls.Load(), "primed page is served without generating")
}

func TestPageCacheFallbackGeneratesOnce(t *testing.T) {
	c, g, _ := newTestCache(time.Minute, "new")
	ctx := context.Background()
	assert.False(t, c.Known("new"))

	for i := 0; i < 3; i++ {
		body, err := c.Get(ctx, "new")
		require.NoError(t, err)
		assert.Equal(t, "page:new", string(body))
	}
	assert.True(t, c.Known("new"))
	assert.EqualValues(t, 1, g.calls.Load())
}

func TestPageCacheConcurrentMissesShareGeneration(t *testing.T) {
	c, g, _ := newTestCache(time.Minute, "busy")
	g.gate = make(chan struct{})

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body, err := c.Get(context.Background(), "busy")
			if err == nil {
				results[i] = string(body)
			}
		}(i)
	}
	// Let the first caller enter the generator, then release everyone.
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(g.gate)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "page:busy", r)
	}
	assert.Less(t, g.calls.Load(), int32(len(results)), "waiting callers share one generation")
}

func TestPageCacheDoesNotCacheNotFound(t *testing.T) {
	c, g, _ := newTestCache(time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, c.Known("missing"))

	g.known["missing"] = true
	body, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, "page:missing", string(body))
	assert.EqualValues(t, 2, g.calls.Load())
}

func TestPageCacheRevalidatesAfterTTL(t *testing.T) {
	c, g, clock := newTestCache(time.Minute, "a")
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	clock.advance(30 * time.Second)
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, g.calls.Load())

	clock.advance(time.Minute)
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, g.calls.Load())
}

func TestPageCacheServesStaleWhenRegenerationFails(t *testing.T) {
	c, g, clock := newTestCache(time.Minute, "a")
	ctx := context.Background()

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	clock.advance(2 * time.Minute)
	g.fail.Store(true)

	body, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "page:a", string(body))
}

func TestPageCacheInvalidate(t *testing.T) {
	c, g, _ := newTestCache(0, "a")
	ctx := context.Background()

	require.NoError(t, c.Refresh(ctx, "a"))
	require.NoError(t, c.Invalidate(ctx, "a"))
	assert.False(t, c.Known("a"))

	_, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, g.calls.Load())
}
