package community

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/feedcache"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/moderation"
	"go.uber.org/zap"
)

const revalidateTimeout = 10 * time.Second

// Feed selects the active feed and coordinates every mutation of cached posts.
type Feed struct {
	logger   *zap.Logger
	store    PostStore
	cache    *feedcache.Store
	viewer   model.Author
	notifier Notifier

	mu       sync.Mutex
	active   feedcache.FeedKey
	inflight map[int64]MutationKind
	onEvict  []func(postID int64)

	wg sync.WaitGroup
}

func NewFeed(logger *zap.Logger, store PostStore, cache *feedcache.Store, viewer model.Author, opts ...Option) *Feed {
	o := buildOptions(logger, opts)
	return &Feed{
		logger:   logger,
		store:    store,
		cache:    cache,
		viewer:   viewer,
		notifier: o.notifier,
		active:   feedcache.ForYou,
		inflight: make(map[int64]MutationKind),
	}
}

func (f *Feed) Viewer() model.Author {
	return f.viewer
}

func (f *Feed) Active() feedcache.FeedKey {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.active
}

// Posts returns the cached posts of the active feed without touching the network.
func (f *Feed) Posts() []model.Post {
	posts, _ := f.cache.Feed(f.Active())
	return posts
}

// OnEvict registers fn to run after a post leaves the cache.
func (f *Feed) OnEvict(fn func(postID int64)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.onEvict = append(f.onEvict, fn)
}

// Wait blocks until background revalidations have finished.
func (f *Feed) Wait() {
	f.wg.Wait()
}

// Select makes key the active feed. A feed that has never loaded is fetched before
// returning; a stale one is served from cache and revalidated in the background.
func (f *Feed) Select(ctx context.Context, key feedcache.FeedKey) ([]model.Post, error) {
	if !key.Valid() {
		return nil, ErrUnknownFeed
	}

	f.mu.Lock()
	f.active = key
	f.mu.Unlock()

	switch f.cache.State(key) {
	case feedcache.StateEmpty:
		if err := f.Refresh(ctx, key); err != nil {
			return nil, err
		}
	case feedcache.StateLoading:
		if !f.cache.HasData(key) {
			if err := f.Refresh(ctx, key); err != nil {
				return nil, err
			}
		}
	case feedcache.StateStale:
		posts, _ := f.cache.Feed(key)
		f.revalidate(key)
		return posts, nil
	}

	posts, _ := f.cache.Feed(key)
	return posts, nil
}

// Refresh fetches key from the server. A response overtaken by a newer fetch of the
// same key is dropped.
func (f *Feed) Refresh(ctx context.Context, key feedcache.FeedKey) error {
	if !key.Valid() {
		return ErrUnknownFeed
	}

	return refreshFeed(ctx, f.logger, f.store, f.cache, key)
}

// Reload discards the cached partition of key and fetches it again. Loads of key
// still in flight are dropped when they arrive.
func (f *Feed) Reload(ctx context.Context, key feedcache.FeedKey) ([]model.Post, error) {
	if !key.Valid() {
		return nil, ErrUnknownFeed
	}

	f.cache.Invalidate(key)
	return f.Select(ctx, key)
}

func refreshFeed(ctx context.Context, logger *zap.Logger, store PostStore, cache *feedcache.Store, key feedcache.FeedKey) error {
	gen := cache.BeginLoad(key)
	posts, err := store.ListPosts(ctx, key == feedcache.Following)
	if err != nil {
		cache.FailLoad(key, gen)
		logger.Sugar().Errorf("failed to fetch feed(%s): %s", key, err.Error())
		return err
	}

	if !cache.Commit(key, gen, posts) {
		logger.Sugar().Debugf("discarded stale response for feed(%s), generation %d", key, gen)
	}

	return nil
}

func (f *Feed) revalidate(key feedcache.FeedKey) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
		defer cancel()

		if err := f.Refresh(ctx, key); err != nil {
			f.notifier.Notify(fmt.Errorf("failed to refresh %s feed: %w", key, err))
		}
	}()
}

// reconcile replaces tentative state with the server's after a mutation settles.
func (f *Feed) reconcile(ctx context.Context, keys []feedcache.FeedKey) {
	f.cache.MarkStale(keys...)
	for _, key := range keys {
		if err := f.Refresh(ctx, key); err != nil {
			f.logger.Sugar().Warnf("feed(%s) left stale after failed reconciliation: %s", key, err.Error())
		}
	}
}

func (f *Feed) acquire(postID int64, kind MutationKind) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.inflight[postID]; busy {
		return false
	}
	f.inflight[postID] = kind
	return true
}

func (f *Feed) release(postID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.inflight, postID)
}

// InFlight reports whether a mutation of postID has not settled yet.
func (f *Feed) InFlight(postID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, busy := f.inflight[postID]
	return busy
}

// ToggleLike flips the viewer's like on postID immediately, then confirms it with the server.
func (f *Feed) ToggleLike(ctx context.Context, postID int64) (*Mutation, error) {
	return f.optimistic(ctx, MutationLike, feedcache.FieldLike, postID,
		func(post *model.Post) {
			if post.IsLiked {
				post.IsLiked = false
				post.Likes--
			} else {
				post.IsLiked = true
				post.Likes++
			}
		},
		func(ctx context.Context) error {
			_, err := f.store.ToggleLike(ctx, postID)
			return err
		},
	)
}

// ToggleSave flips the viewer's bookmark on postID immediately, then confirms it with the server.
func (f *Feed) ToggleSave(ctx context.Context, postID int64) (*Mutation, error) {
	return f.optimistic(ctx, MutationSave, feedcache.FieldSave, postID,
		func(post *model.Post) {
			post.IsSaved = !post.IsSaved
		},
		func(ctx context.Context) error {
			_, err := f.store.SavePost(ctx, postID)
			return err
		},
	)
}

func (f *Feed) optimistic(ctx context.Context, kind MutationKind, fields feedcache.Field, postID int64, apply func(*model.Post), call func(context.Context) error) (*Mutation, error) {
	if !f.acquire(postID, kind) {
		return nil, ErrMutationInFlight
	}
	defer f.release(postID)

	snapshot, ok := f.cache.Snapshot(postID, fields)
	if !ok {
		return nil, ErrPostNotCached
	}
	keys := f.cache.Containing(postID)

	m := &Mutation{
		Kind:     kind,
		PostID:   postID,
		State:    MutationPending,
		Snapshot: snapshot,
	}

	f.cache.Hold(postID)
	f.cache.Update(postID, apply)

	err := call(ctx)
	f.cache.Release(postID)
	if err != nil {
		f.cache.Restore(snapshot)
		m.State = MutationRolledBack
		f.logger.Sugar().Errorf("failed to %s post(%d), rolled back: %s", kind, postID, err.Error())
		err = fmt.Errorf("%w: %w", ErrMutationFailed, err)
		f.notifier.Notify(err)
		return m, err
	}

	m.State = MutationSettled
	f.reconcile(ctx, keys)

	return m, nil
}

// CanDelete reports whether the viewer may delete post. Callers should not offer the
// action otherwise.
func (f *Feed) CanDelete(post model.Post) bool {
	return post.Author.ID == f.viewer.ID
}

// Delete removes postID everywhere once the server confirms it.
func (f *Feed) Delete(ctx context.Context, postID int64) error {
	post, ok := f.cache.Post(postID)
	if !ok {
		return ErrPostNotCached
	}
	if !f.CanDelete(post) {
		return ErrNotAuthor
	}

	return f.confirmed(ctx, MutationDelete, postID, func(ctx context.Context) error {
		return f.store.DeletePost(ctx, postID)
	})
}

// Report flags postID for moderators and hides it from the viewer's feeds once confirmed.
func (f *Feed) Report(ctx context.Context, postID int64, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	if _, ok := f.cache.Post(postID); !ok {
		return ErrPostNotCached
	}

	return f.confirmed(ctx, MutationReport, postID, func(ctx context.Context) error {
		return f.store.ReportPost(ctx, postID, reason)
	})
}

func (f *Feed) confirmed(ctx context.Context, kind MutationKind, postID int64, call func(context.Context) error) error {
	if !f.acquire(postID, kind) {
		return ErrMutationInFlight
	}
	defer f.release(postID)

	if err := call(ctx); err != nil {
		f.logger.Sugar().Errorf("failed to %s post(%d): %s", kind, postID, err.Error())
		err = fmt.Errorf("%w: %w", ErrMutationFailed, err)
		f.notifier.Notify(err)
		return err
	}

	f.evict(postID)
	return nil
}

func (f *Feed) evict(postID int64) {
	f.cache.Evict(postID)

	f.mu.Lock()
	hooks := append([]func(int64){}, f.onEvict...)
	f.mu.Unlock()

	for _, fn := range hooks {
		fn(postID)
	}
}

// CreatePost submits a new post. The body is moderated before any network call.
func (f *Feed) CreatePost(ctx context.Context, req dto.CreatePostRequest) (*model.Post, error) {
	if err := moderation.Check(req.Content); err != nil {
		return nil, err
	}
	if !req.PostType.Valid() {
		return nil, ErrInvalidPostType
	}

	created, err := f.store.CreatePost(ctx, req)
	if err != nil {
		f.logger.Sugar().Errorf("failed to create post: %s", err.Error())
		return nil, err
	}

	f.cache.MarkStale(feedcache.Keys...)
	if err := f.Refresh(ctx, f.Active()); err != nil {
		f.logger.Sugar().Warnf("feed(%s) left stale after creating post(%d): %s", f.Active(), created.ID, err.Error())
	}

	return created, nil
}

// SearchUsers looks up authors by name. Queries shorter than MinSearchLength return
// nothing without contacting the server.
func (f *Feed) SearchUsers(ctx context.Context, query string) ([]model.Author, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinSearchLength {
		return nil, nil
	}

	return f.store.SearchUsers(ctx, query)
}

// HandleEvent applies a change pushed by the server.
func (f *Feed) HandleEvent(ev dto.FeedEvent) {
	switch ev.Type {
	case dto.EventPostCreated:
		f.cache.MarkStale(feedcache.Keys...)
	case dto.EventPostUpdated:
		if f.InFlight(ev.PostID) {
			return
		}
		f.cache.MarkStale(f.cache.Containing(ev.PostID)...)
	case dto.EventPostDeleted:
		f.evict(ev.PostID)
	default:
		f.logger.Sugar().Debugf("ignored feed event(%s)", ev.Type)
	}
}
