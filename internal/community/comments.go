package community

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BloggingApp/community-service/internal/feedcache"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/moderation"
	"go.uber.org/zap"
)

const threadFetchTimeout = 10 * time.Second

type thread struct {
	comments   []model.Comment
	loaded     bool
	loading    bool
	generation uint64
}

// Comments lazily loads and caches comment threads per post, independently of the feeds.
type Comments struct {
	logger   *zap.Logger
	store    PostStore
	cache    *feedcache.Store
	viewer   model.Author
	notifier Notifier

	mu          sync.Mutex
	threads     map[int64]*thread
	placeholder int64

	wg sync.WaitGroup
}

func NewComments(logger *zap.Logger, store PostStore, cache *feedcache.Store, viewer model.Author, opts ...Option) *Comments {
	o := buildOptions(logger, opts)
	return &Comments{
		logger:   logger,
		store:    store,
		cache:    cache,
		viewer:   viewer,
		notifier: o.notifier,
		threads:  make(map[int64]*thread),
	}
}

func (c *Comments) threadLocked(postID int64) *thread {
	t, ok := c.threads[postID]
	if !ok {
		t = &thread{}
		c.threads[postID] = t
	}
	return t
}

// Open returns the cached thread of postID. When the thread has not been loaded yet it
// returns an empty list and starts fetching it in the background.
func (c *Comments) Open(postID int64) []model.Comment {
	c.mu.Lock()
	t := c.threadLocked(postID)
	comments := append([]model.Comment{}, t.comments...)
	start := !t.loaded && !t.loading
	c.mu.Unlock()

	if start {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), threadFetchTimeout)
			defer cancel()

			if _, err := c.Load(ctx, postID); err != nil {
				c.notifier.Notify(fmt.Errorf("failed to load comments: %w", err))
			}
		}()
	}

	return comments
}

// Load fetches the thread of postID and replaces the cached copy. Comments still
// waiting for server confirmation stay at the end of the list.
func (c *Comments) Load(ctx context.Context, postID int64) ([]model.Comment, error) {
	c.mu.Lock()
	t := c.threadLocked(postID)
	t.loading = true
	t.generation++
	gen := t.generation
	c.mu.Unlock()

	fetched, err := c.store.ListComments(ctx, postID)

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.threads[postID]
	if !ok || t.generation != gen {
		if err == nil {
			c.logger.Sugar().Debugf("discarded stale comments for post(%d)", postID)
		}
		return fetched, err
	}
	t.loading = false
	if err != nil {
		c.logger.Sugar().Errorf("failed to fetch post(%d) comments: %s", postID, err.Error())
		return nil, err
	}

	comments := make([]model.Comment, 0, len(fetched))
	comments = append(comments, fetched...)
	for _, comment := range t.comments {
		if comment.Pending {
			comments = append(comments, comment)
		}
	}
	t.comments = comments
	t.loaded = true

	return append([]model.Comment{}, comments...), nil
}

// Loaded reports whether the thread of postID has been fetched.
func (c *Comments) Loaded(postID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.threads[postID]
	return ok && t.loaded
}

// Thread returns the cached comments of postID without fetching.
func (c *Comments) Thread(postID int64) []model.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.threads[postID]
	if !ok {
		return []model.Comment{}
	}
	return append([]model.Comment{}, t.comments...)
}

// Submit moderates body and shows it at the end of the thread right away under a
// placeholder id. The post's comment counter only moves once the server accepts it.
func (c *Comments) Submit(ctx context.Context, postID int64, body string) (*model.Comment, error) {
	if err := moderation.Check(body); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.placeholder--
	placeholderID := c.placeholder
	t := c.threadLocked(postID)
	t.comments = append(t.comments, model.Comment{
		ID:        placeholderID,
		PostID:    postID,
		Author:    c.viewer,
		Content:   body,
		CreatedAt: time.Now(),
		Pending:   true,
	})
	c.mu.Unlock()

	version := c.cache.Version(postID)
	created, err := c.store.CreateComment(ctx, postID, body)

	c.mu.Lock()
	if t, ok := c.threads[postID]; ok {
		idx := -1
		for i, comment := range t.comments {
			if comment.ID == placeholderID {
				idx = i
				break
			}
		}
		if idx >= 0 {
			if err != nil || containsComment(t.comments, created.ID) {
				t.comments = append(t.comments[:idx], t.comments[idx+1:]...)
			} else {
				t.comments[idx] = *created
			}
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Sugar().Errorf("failed to create comment on post(%d): %s", postID, err.Error())
		err = fmt.Errorf("%w: %w", ErrMutationFailed, err)
		c.notifier.Notify(err)
		return nil, err
	}

	bumped := c.cache.UpdateIf(postID, version, func(post *model.Post) {
		post.Comments++
	})
	if !bumped {
		// a feed commit overwrote the post meanwhile and may or may not count the comment
		c.resync(ctx, postID)
	}

	return created, nil
}

func (c *Comments) resync(ctx context.Context, postID int64) {
	keys := c.cache.Containing(postID)
	c.cache.MarkStale(keys...)
	for _, key := range keys {
		if err := refreshFeed(ctx, c.logger, c.store, c.cache, key); err != nil {
			c.logger.Sugar().Warnf("feed(%s) left stale after commenting on post(%d): %s", key, postID, err.Error())
		}
	}
}

// Forget drops the cached thread of postID.
func (c *Comments) Forget(postID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.threads, postID)
}

// Wait blocks until background thread fetches have finished.
func (c *Comments) Wait() {
	c.wg.Wait()
}

func containsComment(comments []model.Comment, id int64) bool {
	for _, comment := range comments {
		if comment.ID == id && !comment.Pending {
			return true
		}
	}
	return false
}
