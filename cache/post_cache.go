package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gitpress/gitpress/model"
	Logger "github.com/gitpress/gitpress/utils/log"
)

// DefaultWindow is the freshness window applied when none is configured.
// Entries older than this are logically absent even if the backend still
// holds them.
const DefaultWindow = 420 * time.Second

const allPostsKey = "posts:all"

func PostKey(postId string) string {
	return "post:" + postId
}

// Outcome reports how a cache lookup resolved, so callers branch explicitly
// instead of interpreting sentinel nils.
type Outcome int

const (
	// Hit means a fresh value was found.
	Hit Outcome = iota
	// Miss means the backend answered but held no fresh value.
	Miss
	// Unavailable means the backend could not be consulted at all.
	Unavailable
)

// PostCache holds short-lived copies of individual posts and of the full
// post list, each stamped with the time it was cached. It never talks to the
// durable store, and it never returns an error: every backend failure
// degrades to a no-op or a Miss/Unavailable outcome.
type PostCache struct {
	backend Backend
	window  time.Duration

	// injectable for freshness tests
	now func() time.Time
}

// NewPostCache builds a cache over backend with the given freshness window.
// A nil backend is valid and makes every operation degrade. A non-positive
// window falls back to DefaultWindow.
func NewPostCache(backend Backend, window time.Duration) *PostCache {
	if window <= 0 {
		window = DefaultWindow
	}
	return &PostCache{
		backend: backend,
		window:  window,
		now:     time.Now,
	}
}

// NewPostCacheWithClock is NewPostCache with an injected clock, for tests
// that simulate the passage of the freshness window.
func NewPostCacheWithClock(backend Backend, window time.Duration, now func() time.Time) *PostCache {
	c := NewPostCache(backend, window)
	c.now = now
	return c
}

// IsAvailable probes the backend. Any failure, including the backend being
// unconfigured, yields false.
func (c *PostCache) IsAvailable(ctx context.Context) bool {
	if c.backend == nil {
		return false
	}
	if err := c.backend.Ping(ctx); err != nil {
		Logger.Log.Warn("cache backend unreachable: ", err)
		return false
	}
	return true
}

func (c *PostCache) fresh(entry model.CachedPost) bool {
	return c.now().Sub(entry.CachedAt) <= c.window
}

// GetPost returns the cached copy of a post, or Miss if it is missing or its
// cache stamp has aged past the freshness window.
func (c *PostCache) GetPost(ctx context.Context, postId string) (model.CachedPost, Outcome) {
	if c.backend == nil {
		return model.CachedPost{}, Unavailable
	}
	raw, found, err := c.backend.Get(ctx, PostKey(postId))
	if err != nil {
		Logger.Log.Warn("cache get failed for post ", postId, ": ", err)
		return model.CachedPost{}, Unavailable
	}
	if !found {
		return model.CachedPost{}, Miss
	}
	var entry model.CachedPost
	if err := json.Unmarshal(raw, &entry); err != nil {
		Logger.Log.Warn("corrupt cache entry for post ", postId, ": ", err)
		return model.CachedPost{}, Miss
	}
	if !c.fresh(entry) {
		return model.CachedPost{}, Miss
	}
	return entry, Hit
}

// SetPost stamps the post with the current time and stores it under its id,
// overwriting any previous entry, with a physical expiry equal to the
// freshness window.
func (c *PostCache) SetPost(ctx context.Context, post model.Post) {
	if c.backend == nil {
		return
	}
	entry := model.CachedPost{Post: post, CachedAt: c.now()}
	raw, err := json.Marshal(entry)
	if err != nil {
		Logger.Log.Warn("cannot marshal post ", post.Id, " for caching: ", err)
		return
	}
	if err := c.backend.Set(ctx, PostKey(post.Id), raw, c.window); err != nil {
		Logger.Log.Warn("cache set failed for post ", post.Id, ": ", err)
	}
}

// GetAllPosts returns the cached list snapshot. One stale entry invalidates
// the whole snapshot: the list is only as fresh as its stalest member.
func (c *PostCache) GetAllPosts(ctx context.Context) ([]model.CachedPost, Outcome) {
	if c.backend == nil {
		return nil, Unavailable
	}
	raw, found, err := c.backend.Get(ctx, allPostsKey)
	if err != nil {
		Logger.Log.Warn("cache get failed for post list: ", err)
		return nil, Unavailable
	}
	if !found {
		return nil, Miss
	}
	var entries []model.CachedPost
	if err := json.Unmarshal(raw, &entries); err != nil {
		Logger.Log.Warn("corrupt cached post list: ", err)
		return nil, Miss
	}
	for _, entry := range entries {
		if !c.fresh(entry) {
			return nil, Miss
		}
	}
	return entries, Hit
}

// SetAllPosts stamps every entry with the current time and stores the
// snapshot, overwriting any previous one.
func (c *PostCache) SetAllPosts(ctx context.Context, posts []model.Post) {
	if c.backend == nil {
		return
	}
	stamp := c.now()
	entries := make([]model.CachedPost, 0, len(posts))
	for _, post := range posts {
		entries = append(entries, model.CachedPost{Post: post, CachedAt: stamp})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		Logger.Log.Warn("cannot marshal post list for caching: ", err)
		return
	}
	if err := c.backend.Set(ctx, allPostsKey, raw, c.window); err != nil {
		Logger.Log.Warn("cache set failed for post list: ", err)
	}
}

// InvalidatePost removes the single-post entry unconditionally.
func (c *PostCache) InvalidatePost(ctx context.Context, postId string) {
	if c.backend == nil {
		return
	}
	if err := c.backend.Delete(ctx, PostKey(postId)); err != nil {
		Logger.Log.Warn("cache invalidate failed for post ", postId, ": ", err)
	}
}

// InvalidateAllPosts removes the list snapshot. Individual post entries are
// untouched.
func (c *PostCache) InvalidateAllPosts(ctx context.Context) {
	if c.backend == nil {
		return
	}
	if err := c.backend.Delete(ctx, allPostsKey); err != nil {
		Logger.Log.Warn("cache invalidate failed for post list: ", err)
	}
}
