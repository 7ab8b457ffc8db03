package gitpress

import (
	"context"
	"sync"
	"time"
)

// PostCache is an in-memory TTL cache of published posts for the public read
// endpoints. The remote store is the source of truth; admin writes invalidate
// the cache so the next public read reloads.
type PostCache struct {
	mu      sync.RWMutex
	posts   []BlogPost
	fetched time.Time
	ttl     time.Duration
	store   *PostStore

	// reloaded, when set, runs with the fresh post list after every reload,
	// outside no other lock than the cache's own. Used to rebuild the search
	// index.
	reloaded func([]BlogPost)
}

// NewPostCache creates a PostCache backed by the given PostStore.
func NewPostCache(s *PostStore, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

// OnReload registers a callback invoked with the post list after each reload.
func (c *PostCache) OnReload(fn func([]BlogPost)) {
	c.reloaded = fn
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.mu.Unlock()
}

// ensureLoaded returns cached posts after ensuring the cache is fresh. It
// tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		posts := c.posts
		c.mu.RUnlock()
		return posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return c.posts, nil
	}
	all, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	published := make([]BlogPost, 0, len(all))
	for _, p := range all {
		if p.Published {
			published = append(published, p)
		}
	}
	c.posts = published
	c.fetched = time.Now()
	if c.reloaded != nil {
		c.reloaded(published)
	}
	return c.posts, nil
}

// ListPosts returns the published posts, date descending.
func (c *PostCache) ListPosts(ctx context.Context) ([]BlogPost, error) {
	return c.ensureLoaded(ctx)
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(ctx context.Context, slug string) (BlogPost, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return BlogPost{}, ErrNotFound
}
