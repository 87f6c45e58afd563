package codecrafters

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Page is a rendered challenge page held by a PageStore.
type Page struct {
	Body        []byte    `json:"body"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// PageStore persists rendered pages by key.
type PageStore interface {
	Get(ctx context.Context, key string) (Page, bool, error)
	Set(ctx context.Context, key string, p Page) error
	Delete(ctx context.Context, key string) error
}

// PageGenerator renders the page for slug. It returns ErrNotFound when the
// slug does not resolve to a challenge.
type PageGenerator func(ctx context.Context, slug string) ([]byte, error)

// PageCache serves statically generated challenge pages. Known slugs are
// rendered up front by Prime; any other slug is generated on its first
// request while the caller waits, then served from the store until it is
// invalidated or older than the revalidate TTL.
type PageCache struct {
	store PageStore
	gen   PageGenerator
	ttl   time.Duration
	group singleflight.Group
	logf  func(format string, args ...any)
	now   func() time.Time

	mu    sync.RWMutex
	known map[string]struct{}
}

// NewPageCache creates a PageCache. A ttl <= 0 disables revalidation.
func NewPageCache(store PageStore, gen PageGenerator, ttl time.Duration) *PageCache {
	return &PageCache{
		store: store,
		gen:   gen,
		ttl:   ttl,
		logf:  func(string, ...any) {},
		now:   time.Now,
		known: make(map[string]struct{}),
	}
}

// Prime renders every slug in paths and records it as known.
func (c *PageCache) Prime(ctx context.Context, paths []string) error {
	for _, slug := range paths {
		if _, err := c.generate(ctx, slug); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the page for slug, generating it synchronously on a miss or
// when stale. Concurrent requests for the same slug share one generation.
// Not-found results are never stored.
func (c *PageCache) Get(ctx context.Context, slug string) ([]byte, error) {
	page, ok, err := c.store.Get(ctx, slug)
	if err != nil {
		c.logf("page cache read %s: %v", slug, err)
		ok = false
	}
	if ok && c.fresh(page) {
		return page.Body, nil
	}

	body, err := c.generate(ctx, slug)
	if err != nil {
		if ok && !errors.Is(err, ErrNotFound) {
			c.logf("page regenerate %s: %v; serving stale", slug, err)
			return page.Body, nil
		}
		return nil, err
	}
	return body, nil
}

// Refresh regenerates the page for slug now, e.g. right after it is created.
func (c *PageCache) Refresh(ctx context.Context, slug string) error {
	_, err := c.generate(ctx, slug)
	return err
}

// Invalidate drops the stored page so the next request regenerates it.
func (c *PageCache) Invalidate(ctx context.Context, slug string) error {
	c.mu.Lock()
	delete(c.known, slug)
	c.mu.Unlock()
	return c.store.Delete(ctx, slug)
}

// Known reports whether slug has a generated page.
func (c *PageCache) Known(slug string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.known[slug]
	return ok
}

// Paths returns the generated slugs in lexical order.
func (c *PageCache) Paths() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.known))
	for s := range c.known {
		out = append(out, s)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (c *PageCache) fresh(p Page) bool {
	return c.ttl <= 0 || c.now().Sub(p.GeneratedAt) < c.ttl
}

func (c *PageCache) generate(ctx context.Context, slug string) ([]byte, error) {
	// Shared generation must outlive any single caller's cancellation.
	genCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(slug, func() (any, error) {
		body, err := c.gen(genCtx, slug)
		if err != nil {
			return nil, err
		}
		if err := c.store.Set(genCtx, slug, Page{Body: body, GeneratedAt: c.now()}); err != nil {
			c.logf("page cache write %s: %v", slug, err)
		}
		c.mu.Lock()
		c.known[slug] = struct{}{}
		c.mu.Unlock()
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// MemoryPageStore keeps pages in process memory.
type MemoryPageStore struct {
	mu    sync.RWMutex
	pages map[string]Page
}

// NewMemoryPageStore creates an empty MemoryPageStore.
func NewMemoryPageStore() *MemoryPageStore {
	return &MemoryPageStore{pages: make(map[string]Page)}
}

func (m *MemoryPageStore) Get(_ context.Context, key string) (Page, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[key]
	return p, ok, nil
}

func (m *MemoryPageStore) Set(_ context.Context, key string, p Page) error {
	m.mu.Lock()
	m.pages[key] = p
	m.mu.Unlock()
	return nil
}

func (m *MemoryPageStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.pages, key)
	m.mu.Unlock()
	return nil
}
