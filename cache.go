package notionpress

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miya025/notionpress/notion"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("notionpress: post not found")

// PostLister is the slice of the CMS client the cache depends on.
type PostLister interface {
	ListPublished(ctx context.Context) ([]notion.Post, error)
}

// PostCache is an in-memory cache of the published post list with TTL, so
// the request-time surfaces (feed, sitemap) don't hit the CMS per request.
type PostCache struct {
	mu      sync.RWMutex
	posts   []notion.Post
	fetched time.Time
	ttl     time.Duration
	source  PostLister
}

// NewPostCache creates a PostCache backed by the given lister.
func NewPostCache(source PostLister, ttl time.Duration) *PostCache {
	return &PostCache{source: source, ttl: ttl}
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

// ensureLoaded returns cached posts after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) ([]notion.Post, error) {
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
	posts, err := c.source.ListPublished(ctx)
	if err != nil {
		return nil, err
	}
	c.posts = posts
	c.fetched = time.Now()
	return c.posts, nil
}

// ListPosts returns published posts, optionally filtered by tag.
func (c *PostCache) ListPosts(ctx context.Context, tag string) ([]notion.Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return posts, nil
	}
	normalized := normalizeTag(tag)
	var filtered []notion.Post
	for _, p := range posts {
		for _, t := range p.Tags {
			if normalizeTag(t) == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// ListTags returns all unique tags from published posts, sorted.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{})
	for _, p := range posts {
		for _, t := range p.Tags {
			set[normalizeTag(t)] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags, nil
}

// GetPost returns a single published post by slug from the cache.
func (c *PostCache) GetPost(ctx context.Context, slug string) (notion.Post, error) {
	posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return notion.Post{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return notion.Post{}, ErrNotFound
}

func normalizeTag(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
