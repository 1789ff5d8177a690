package posts

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"

	"github.com/gitpress/gitpress/cache"
	"github.com/gitpress/gitpress/model"
	"github.com/gitpress/gitpress/storage"
	Logger "github.com/gitpress/gitpress/utils/log"
)

// ErrNotFound is returned when the requested post does not exist in the
// durable store.
var ErrNotFound = errors.New("post not found")

const postsDir = "posts"

func postPath(postId string) string {
	return postsDir + "/" + postId + ".json"
}

// Coordinator owns the read/write policy over the post cache and the
// durable store. Reads are cache-first and fall through to the durable
// store without repopulating the cache; writes update the cache
// optimistically, treat the durable store as ground truth, and roll the
// cache back when the durable write fails.
//
// The coordinator holds no locks across its collaborators. Two concurrent
// writes to the same post id race: last durable writer wins, and the cache
// entry belongs to whichever write's cache step ran last. Misses simply fall
// through to the durable store, and the freshness window bounds how long a
// losing cache entry can be observed.
type Coordinator struct {
	store storage.DurableStore
	cache *cache.PostCache

	// injectable for deterministic tests
	now func() time.Time

	// id generation state; ids derive from the write clock and must stay
	// unique when two creations land on the same millisecond
	idMu   sync.Mutex
	lastId int64
}

func NewCoordinator(store storage.DurableStore, postCache *cache.PostCache) *Coordinator {
	return &Coordinator{
		store: store,
		cache: postCache,
		now:   time.Now,
	}
}

func (c *Coordinator) newPostId(at time.Time) string {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	id := at.UnixNano() / int64(time.Millisecond)
	if id <= c.lastId {
		id = c.lastId + 1
	}
	c.lastId = id
	return strconv.FormatInt(id, 10)
}

func sortNewestFirst(list []model.Post) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].Id > list[j].Id
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// GetAllPosts returns every post, newest first. A fresh, non-empty cached
// snapshot is served directly; anything else reads the durable store. The
// durable result is deliberately not written back to the cache, so a
// deterministic list-wide expiry forces periodic full refreshes instead of
// the cache indefinitely renewing itself from possibly stale reads.
func (c *Coordinator) GetAllPosts(ctx context.Context) ([]model.Post, error) {
	if c.cache.IsAvailable(ctx) {
		if entries, outcome := c.cache.GetAllPosts(ctx); outcome == cache.Hit && len(entries) > 0 {
			list := make([]model.Post, 0, len(entries))
			for _, entry := range entries {
				list = append(list, entry.Post)
			}
			sortNewestFirst(list)
			return list, nil
		}
	}

	entries, err := c.store.ListDirectory(ctx, postsDir)
	if err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	list := []model.Post{}
	for _, entry := range entries {
		raw, err := c.store.Read(ctx, entry.Path)
		if err != nil {
			Logger.Log.Warn("skipping unreadable post record ", entry.Path, ": ", err)
			continue
		}
		var post model.Post
		if err := json.Unmarshal(raw, &post); err != nil {
			Logger.Log.Warn("skipping malformed post record ", entry.Path, ": ", err)
			continue
		}
		list = append(list, post)
	}
	sortNewestFirst(list)
	return list, nil
}

// GetPost returns one post by id, cache-first. Like GetAllPosts, a miss
// reads the durable store without repopulating the cache.
func (c *Coordinator) GetPost(ctx context.Context, postId string) (model.Post, error) {
	if c.cache.IsAvailable(ctx) {
		if entry, outcome := c.cache.GetPost(ctx, postId); outcome == cache.Hit {
			return entry.Post, nil
		}
	}

	raw, err := c.store.Read(ctx, postPath(postId))
	if err != nil {
		if errors.Cause(err) == storage.ErrNotFound {
			return model.Post{}, ErrNotFound
		}
		return model.Post{}, errors.Wrapf(err, "read post %s", postId)
	}
	var post model.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return model.Post{}, errors.Wrapf(err, "malformed post record %s", postId)
	}
	return post, nil
}

// CreatePost assembles a new post from the draft and writes it through. The
// single-post cache entry is set before the durable write; if the durable
// write fails that entry is invalidated again so a post that does not
// durably exist is never served from cache.
func (c *Coordinator) CreatePost(ctx context.Context, draft model.PostDraft, author *model.Author) (model.Post, error) {
	now := c.now()
	post := model.Post{
		Id:        c.newPostId(now),
		Title:     draft.Title,
		Content:   draft.Content,
		Author:    draft.Author,
		CreatedAt: now,
		UpdatedAt: now,
		Published: draft.Published,
	}

	if c.cache.IsAvailable(ctx) {
		c.cache.SetPost(ctx, post)
	}

	raw, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return model.Post{}, errors.Wrap(err, "marshal post")
	}
	if err := c.store.Write(ctx, postPath(post.Id), raw, "Create post: "+post.Title, "", author); err != nil {
		c.cache.InvalidatePost(ctx, post.Id)
		return model.Post{}, errors.Wrapf(err, "create post %s", post.Id)
	}

	// Force the next list read to refresh from the durable store. The
	// single-post entry set above stays valid.
	c.cache.InvalidateAllPosts(ctx)
	return post, nil
}

// UpdatePost merges the partial update over the existing post and writes it
// through. On durable failure the cache entry is reverted to the pre-update
// snapshot, re-stamped, so readers never observe an update that did not
// durably land.
func (c *Coordinator) UpdatePost(ctx context.Context, postId string, update model.PostUpdate, author *model.Author) (model.Post, error) {
	existing, err := c.GetPost(ctx, postId)
	if err != nil {
		return model.Post{}, err
	}

	var prev model.Post
	if err := copier.Copy(&prev, &existing); err != nil {
		return model.Post{}, errors.Wrap(err, "snapshot post")
	}

	merged := existing
	if update.Title != nil {
		merged.Title = *update.Title
	}
	if update.Content != nil {
		merged.Content = *update.Content
	}
	if update.Published != nil {
		merged.Published = *update.Published
	}
	merged.UpdatedAt = c.now()

	if c.cache.IsAvailable(ctx) {
		c.cache.SetPost(ctx, merged)
	}

	// Best effort: a missing token only means the write loses conditional
	// overwrite protection.
	token, err := c.store.GetRevisionToken(ctx, postPath(postId))
	if err != nil {
		Logger.Log.Warn("no revision token for post ", postId, ": ", err)
		token = ""
	}

	raw, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return model.Post{}, errors.Wrap(err, "marshal post")
	}
	if err := c.store.Write(ctx, postPath(postId), raw, "Update post: "+merged.Title, token, author); err != nil {
		c.cache.SetPost(ctx, prev)
		return model.Post{}, errors.Wrapf(err, "update post %s", postId)
	}

	c.cache.InvalidateAllPosts(ctx)
	return merged, nil
}

// DeletePost removes a post from the durable store, invalidating its cache
// entry first. When the durable delete fails after that optimistic
// invalidation there is no compensating re-cache: the post is left
// cache-cold but durably intact, an accepted inconsistency bounded by the
// next read falling through to the durable store anyway.
func (c *Coordinator) DeletePost(ctx context.Context, postId string, author *model.Author) error {
	if c.cache.IsAvailable(ctx) {
		c.cache.InvalidatePost(ctx, postId)
	}

	token, err := c.store.GetRevisionToken(ctx, postPath(postId))
	if err != nil {
		if errors.Cause(err) == storage.ErrNotFound {
			return ErrNotFound
		}
		return errors.Wrapf(err, "revision for post %s", postId)
	}

	if err := c.store.Delete(ctx, postPath(postId), token, "Delete post: "+postId, author); err != nil {
		if errors.Cause(err) == storage.ErrNotFound {
			return ErrNotFound
		}
		return errors.Wrapf(err, "delete post %s", postId)
	}

	c.cache.InvalidateAllPosts(ctx)
	return nil
}
