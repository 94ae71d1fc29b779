package community

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/feedcache"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/moderation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const viewerID = 1

type recorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *recorder) Notify(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errs = append(r.errs, err)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.errs)
}

func testPost(id, authorID, likes int64) model.Post {
	return model.Post{
		ID:       id,
		Content:  "Morning walks changed my sleep",
		PostType: model.PostTypeStory,
		Likes:    likes,
		Author:   model.Author{ID: authorID, DisplayName: "author", Role: model.RoleCustomer},
	}
}

type fixture struct {
	store    *fakeStore
	cache    *feedcache.Store
	feed     *Feed
	notices  *recorder
	comments *Comments
}

func newFixture(t *testing.T, posts ...model.Post) *fixture {
	t.Helper()

	store := newFakeStore(viewerID, posts...)
	store.following[2] = true
	cache := feedcache.New(0)
	notices := &recorder{}
	logger := zap.NewNop()

	f := &fixture{
		store:    store,
		cache:    cache,
		notices:  notices,
		feed:     NewFeed(logger, store, cache, model.Author{ID: viewerID}, WithNotifier(notices)),
		comments: NewComments(logger, store, cache, model.Author{ID: viewerID}, WithNotifier(notices)),
	}
	f.feed.OnEvict(f.comments.Forget)
	return f
}

func (f *fixture) loadBoth(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	_, err := f.feed.Select(ctx, feedcache.Following)
	require.NoError(t, err)
	_, err = f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)
}

func cached(t *testing.T, cache *feedcache.Store, key feedcache.FeedKey, id int64) model.Post {
	t.Helper()

	posts, _ := cache.Feed(key)
	for _, p := range posts {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("post %d not in feed %s", id, key)
	return model.Post{}
}

func TestSelectFetchesOnlyWhenEmpty(t *testing.T) {
	f := newFixture(t, testPost(1, 2, 0), testPost(2, 3, 0))
	ctx := context.Background()

	posts, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, 1, f.store.count("list"))

	posts, err = f.feed.Select(ctx, feedcache.Following)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(1), posts[0].ID)
	assert.Equal(t, 2, f.store.count("list"))

	_, err = f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.count("list"))
	assert.Equal(t, feedcache.ForYou, f.feed.Active())
	assert.Len(t, f.feed.Posts(), 2)

	_, err = f.feed.Select(ctx, feedcache.FeedKey("trending"))
	assert.ErrorIs(t, err, ErrUnknownFeed)
}

func TestSelectStaleServesCacheAndRevalidates(t *testing.T) {
	f := newFixture(t, testPost(1, 2, 0))
	ctx := context.Background()

	_, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)

	f.store.bumpLikes(1, 4)
	f.cache.MarkStale(feedcache.ForYou)

	posts, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(0), posts[0].Likes)

	f.feed.Wait()
	assert.Equal(t, 2, f.store.count("list"))
	assert.Equal(t, int64(4), cached(t, f.cache, feedcache.ForYou, 1).Likes)
	assert.Equal(t, feedcache.StatePopulated, f.cache.State(feedcache.ForYou))
}

func TestReadFailureKeepsPartitions(t *testing.T) {
	f := newFixture(t, testPost(1, 2, 0))
	ctx := context.Background()

	_, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)

	f.store.failOn("list", errUnavailable)
	_, err = f.feed.Select(ctx, feedcache.Following)
	assert.ErrorIs(t, err, errUnavailable)
	assert.Equal(t, feedcache.StateEmpty, f.cache.State(feedcache.Following))

	err = f.feed.Refresh(ctx, feedcache.ForYou)
	assert.ErrorIs(t, err, errUnavailable)
	posts, state := f.cache.Feed(feedcache.ForYou)
	assert.Equal(t, feedcache.StatePopulated, state)
	assert.Len(t, posts, 1)
}

func TestStaleFetchDiscarded(t *testing.T) {
	f := newFixture(t)

	var calls int32
	releases := []chan struct{}{make(chan struct{}), make(chan struct{})}
	results := [][]model.Post{
		{testPost(1, 2, 1)},
		{testPost(2, 2, 2)},
	}
	f.store.listHook = func(bool) ([]model.Post, error) {
		i := atomic.AddInt32(&calls, 1) - 1
		<-releases[i]
		return results[i], nil
	}

	ctx := context.Background()
	doneA := make(chan error, 1)
	go func() { doneA <- f.feed.Refresh(ctx, feedcache.ForYou) }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)

	doneB := make(chan error, 1)
	go func() { doneB <- f.feed.Refresh(ctx, feedcache.ForYou) }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, time.Millisecond)

	close(releases[1])
	require.NoError(t, <-doneB)
	close(releases[0])
	require.NoError(t, <-doneA)

	posts, state := f.cache.Feed(feedcache.ForYou)
	assert.Equal(t, feedcache.StatePopulated, state)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(2), posts[0].ID)
}

func TestLikeAppliesImmediatelyThenReconciles(t *testing.T) {
	f := newFixture(t, testPost(42, 2, 5))
	f.loadBoth(t)
	ctx := context.Background()

	gate := f.store.gate("like")
	type result struct {
		m   *Mutation
		err error
	}
	done := make(chan result, 1)
	go func() {
		m, err := f.feed.ToggleLike(ctx, 42)
		done <- result{m, err}
	}()
	require.Eventually(t, func() bool { return f.store.count("like") == 1 }, time.Second, time.Millisecond)

	for _, key := range feedcache.Keys {
		p := cached(t, f.cache, key, 42)
		assert.Equal(t, int64(6), p.Likes, key)
		assert.True(t, p.IsLiked, key)
	}
	assert.True(t, f.feed.InFlight(42))

	_, err := f.feed.ToggleLike(ctx, 42)
	assert.ErrorIs(t, err, ErrMutationInFlight)

	// Two other users like the post while ours is in flight.
	f.store.bumpLikes(42, 2)
	close(gate)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, MutationSettled, res.m.State)
	assert.Equal(t, MutationLike, res.m.Kind)
	assert.Equal(t, int64(5), res.m.Snapshot.Likes)
	assert.False(t, f.feed.InFlight(42))

	for _, key := range feedcache.Keys {
		p := cached(t, f.cache, key, 42)
		assert.Equal(t, int64(8), p.Likes, key)
		assert.True(t, p.IsLiked, key)
	}
}

func TestLikeTwiceIsIdempotent(t *testing.T) {
	f := newFixture(t, testPost(42, 3, 5))
	ctx := context.Background()
	_, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)

	before := cached(t, f.cache, feedcache.ForYou, 42)

	_, err = f.feed.ToggleLike(ctx, 42)
	require.NoError(t, err)
	assert.True(t, cached(t, f.cache, feedcache.ForYou, 42).IsLiked)

	_, err = f.feed.ToggleLike(ctx, 42)
	require.NoError(t, err)

	after := cached(t, f.cache, feedcache.ForYou, 42)
	assert.Equal(t, before.Likes, after.Likes)
	assert.Equal(t, before.IsLiked, after.IsLiked)
}

func TestLikeFailureRollsBackEveryPartition(t *testing.T) {
	p := testPost(42, 2, 5)
	p.Comments = 3
	f := newFixture(t, p, testPost(7, 3, 1))
	f.loadBoth(t)
	ctx := context.Background()

	before := map[feedcache.FeedKey]model.Post{}
	for _, key := range feedcache.Keys {
		before[key] = cached(t, f.cache, key, 42)
	}
	listCalls := f.store.count("list")

	f.store.failOn("like", errUnavailable)
	m, err := f.feed.ToggleLike(ctx, 42)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMutationFailed)
	assert.ErrorIs(t, err, errUnavailable)
	require.NotNil(t, m)
	assert.Equal(t, MutationRolledBack, m.State)

	for _, key := range feedcache.Keys {
		assert.Equal(t, before[key], cached(t, f.cache, key, 42), key)
	}
	assert.Equal(t, 1, f.notices.count())
	assert.Equal(t, listCalls, f.store.count("list"))
	assert.False(t, f.feed.InFlight(42))
}

func TestLikeRollbackKeepsConfirmedComment(t *testing.T) {
	f := newFixture(t, testPost(42, 2, 5))
	f.loadBoth(t)
	ctx := context.Background()
	_, err := f.comments.Load(ctx, 42)
	require.NoError(t, err)

	gate := f.store.gate("like")
	f.store.failOn("like", errUnavailable)
	done := make(chan error, 1)
	go func() {
		_, err := f.feed.ToggleLike(ctx, 42)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.store.count("like") == 1 }, time.Second, time.Millisecond)

	_, err = f.comments.Submit(ctx, 42, "great advice, thank you")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached(t, f.cache, feedcache.ForYou, 42).Comments)

	close(gate)
	assert.ErrorIs(t, <-done, ErrMutationFailed)

	for _, key := range feedcache.Keys {
		p := cached(t, f.cache, key, 42)
		assert.Equal(t, int64(5), p.Likes, key)
		assert.False(t, p.IsLiked, key)
		assert.Equal(t, int64(1), p.Comments, key)
	}
	assert.Len(t, f.comments.Thread(42), 1)
}

func TestLikeVisibleAcrossPartitionsWithoutFetch(t *testing.T) {
	f := newFixture(t, testPost(42, 2, 5))
	f.loadBoth(t)
	ctx := context.Background()

	gate := f.store.gate("like")
	done := make(chan error, 1)
	go func() {
		_, err := f.feed.ToggleLike(ctx, 42)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.store.count("like") == 1 }, time.Second, time.Millisecond)

	listCalls := f.store.count("list")
	posts, err := f.feed.Select(ctx, feedcache.Following)
	require.NoError(t, err)
	assert.Equal(t, listCalls, f.store.count("list"))
	require.Len(t, posts, 1)
	assert.True(t, posts[0].IsLiked)
	assert.Equal(t, int64(6), posts[0].Likes)

	close(gate)
	require.NoError(t, <-done)
}

func TestLikeUnknownPost(t *testing.T) {
	f := newFixture(t)

	_, err := f.feed.ToggleLike(context.Background(), 99)
	assert.ErrorIs(t, err, ErrPostNotCached)
	assert.Equal(t, 0, f.store.count("like"))
}

func TestSaveRollsBackOnFailure(t *testing.T) {
	f := newFixture(t, testPost(5, 2, 0))
	ctx := context.Background()
	_, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)

	m, err := f.feed.ToggleSave(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, MutationSettled, m.State)
	assert.True(t, cached(t, f.cache, feedcache.ForYou, 5).IsSaved)

	f.store.failOn("save", errUnavailable)
	m, err = f.feed.ToggleSave(ctx, 5)
	assert.ErrorIs(t, err, ErrMutationFailed)
	assert.Equal(t, MutationRolledBack, m.State)
	assert.True(t, cached(t, f.cache, feedcache.ForYou, 5).IsSaved)
}

func TestDeleteOwnPostEvictsEverywhere(t *testing.T) {
	f := newFixture(t, testPost(10, viewerID, 0), testPost(11, 2, 0))
	f.store.following[viewerID] = true
	f.loadBoth(t)
	ctx := context.Background()

	f.comments.Open(10)
	f.comments.Wait()
	require.True(t, f.comments.Loaded(10))

	require.NoError(t, f.feed.Delete(ctx, 10))

	assert.Empty(t, f.cache.Containing(10))
	_, ok := f.cache.Post(10)
	assert.False(t, ok)
	assert.False(t, f.comments.Loaded(10))
}

func TestDeleteForeignPostNotOffered(t *testing.T) {
	f := newFixture(t, testPost(11, 2, 0))
	ctx := context.Background()
	posts, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)

	assert.False(t, f.feed.CanDelete(posts[0]))
	assert.ErrorIs(t, f.feed.Delete(ctx, 11), ErrNotAuthor)
	assert.Equal(t, 0, f.store.count("delete"))
	assert.Len(t, f.feed.Posts(), 1)
}

func TestDeleteFailureIsNoop(t *testing.T) {
	f := newFixture(t, testPost(10, viewerID, 2))
	ctx := context.Background()
	_, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)
	before := cached(t, f.cache, feedcache.ForYou, 10)

	f.store.failOn("delete", errUnavailable)
	err = f.feed.Delete(ctx, 10)
	assert.ErrorIs(t, err, ErrMutationFailed)
	assert.Equal(t, before, cached(t, f.cache, feedcache.ForYou, 10))
	assert.Equal(t, 1, f.notices.count())
}

func TestReport(t *testing.T) {
	f := newFixture(t, testPost(11, 2, 0), testPost(12, 2, 0))
	ctx := context.Background()
	_, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)

	assert.ErrorIs(t, f.feed.Report(ctx, 11, "   "), ErrReasonRequired)
	assert.Equal(t, 0, f.store.count("report"))

	require.NoError(t, f.feed.Report(ctx, 11, "misleading health claims"))
	posts := f.feed.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, int64(12), posts[0].ID)
}

func TestCreatePostModeratedBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.feed.CreatePost(ctx, dto.CreatePostRequest{Content: "too short", PostType: model.PostTypeTip})
	assert.ErrorIs(t, err, moderation.ErrTooShort)

	_, err = f.feed.CreatePost(ctx, dto.CreatePostRequest{Content: "Is green tea good before bed?", PostType: "rant"})
	assert.ErrorIs(t, err, ErrInvalidPostType)
	assert.Equal(t, 0, f.store.count("create"))

	created, err := f.feed.CreatePost(ctx, dto.CreatePostRequest{Content: "Is green tea good before bed?", PostType: model.PostTypeQuestion})
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.count("create"))

	posts := f.feed.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, created.ID, posts[0].ID)
	assert.Equal(t, feedcache.StateEmpty, f.cache.State(feedcache.Following))
}

func TestSearchUsersMinimumLength(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	users, err := f.feed.SearchUsers(ctx, " ab ")
	require.NoError(t, err)
	assert.Nil(t, users)
	assert.Equal(t, 0, f.store.count("search"))

	users, err = f.feed.SearchUsers(ctx, "ann")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, f.store.count("search"))
}

func TestHandleEvent(t *testing.T) {
	f := newFixture(t, testPost(1, 2, 0), testPost(2, 3, 0))
	f.loadBoth(t)

	f.feed.HandleEvent(dto.NewFeedEvent(dto.EventPostUpdated, 2))
	assert.Equal(t, feedcache.StateStale, f.cache.State(feedcache.ForYou))
	assert.Equal(t, feedcache.StatePopulated, f.cache.State(feedcache.Following))

	f.feed.HandleEvent(dto.NewFeedEvent(dto.EventPostDeleted, 1))
	assert.Empty(t, f.cache.Containing(1))

	f.feed.HandleEvent(dto.NewFeedEvent(dto.EventPostCreated, 3))
	assert.Equal(t, feedcache.StateStale, f.cache.State(feedcache.Following))
}

func TestReloadDropsCachedPartition(t *testing.T) {
	f := newFixture(t, testPost(1, 2, 0))
	ctx := context.Background()

	_, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)
	f.store.bumpLikes(1, 3)

	posts, err := f.feed.Select(ctx, feedcache.ForYou)
	require.NoError(t, err)
	assert.Equal(t, int64(0), posts[0].Likes)
	assert.Equal(t, 1, f.store.count("list"))

	posts, err = f.feed.Reload(ctx, feedcache.ForYou)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, int64(3), posts[0].Likes)
	assert.Equal(t, 2, f.store.count("list"))
	assert.Equal(t, feedcache.StatePopulated, f.cache.State(feedcache.ForYou))

	_, err = f.feed.Reload(ctx, feedcache.FeedKey("trending"))
	assert.ErrorIs(t, err, ErrUnknownFeed)
}
