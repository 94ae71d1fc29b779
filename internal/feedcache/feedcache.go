// Package feedcache holds the client's local copy of the community feeds.
//
// Post bodies are stored once in a shared map keyed by post id. Each feed key owns a
// partition: the ordered list of ids the server returned plus its load state and a
// generation counter. Every exported method is a single critical section, so callers
// observe cache transitions atomically and network I/O always happens outside the cache.
package feedcache

import (
	"sync"
	"time"

	"github.com/BloggingApp/community-service/internal/model"
)

type FeedKey string

const (
	ForYou    FeedKey = "for-you"
	Following FeedKey = "following"
)

// Keys lists every feed key in display order.
var Keys = []FeedKey{ForYou, Following}

func (k FeedKey) Valid() bool {
	return k == ForYou || k == Following
}

type State int

const (
	StateEmpty State = iota
	StateLoading
	StatePopulated
	StateStale
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	case StateStale:
		return "stale"
	}
	return "unknown"
}

type partition struct {
	ids        []int64
	state      State
	prevState  State
	generation uint64
	fetchedAt  time.Time
}

type Store struct {
	mu         sync.Mutex
	posts      map[int64]model.Post
	partitions map[FeedKey]*partition
	held       map[int64]int
	versions   map[int64]uint64
	commits    uint64
	freshFor   time.Duration
	now        func() time.Time
}

// New creates an empty store. Populated partitions older than freshFor report StateStale;
// a zero freshFor disables time based staleness.
func New(freshFor time.Duration) *Store {
	s := &Store{
		posts:      make(map[int64]model.Post),
		partitions: make(map[FeedKey]*partition),
		held:       make(map[int64]int),
		versions:   make(map[int64]uint64),
		freshFor:   freshFor,
		now:        time.Now,
	}
	for _, key := range Keys {
		s.partitions[key] = &partition{}
	}

	return s
}

func (s *Store) partition(key FeedKey) *partition {
	p, ok := s.partitions[key]
	if !ok {
		p = &partition{}
		s.partitions[key] = p
	}
	return p
}

func (s *Store) stateLocked(p *partition) State {
	if p.state == StatePopulated && s.freshFor > 0 && s.now().Sub(p.fetchedAt) > s.freshFor {
		return StateStale
	}
	return p.state
}

func (s *Store) State(key FeedKey) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked(s.partition(key))
}

// BeginLoad moves the partition to Loading and returns the generation tag the
// response must carry to be committed.
func (s *Store) BeginLoad(key FeedKey) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(key)
	if p.state != StateLoading {
		p.prevState = s.stateLocked(p)
	}
	p.state = StateLoading
	p.generation++

	return p.generation
}

// Commit stores a fetched feed. It reports false and changes nothing when a newer
// load for the same key has started since gen was issued.
func (s *Store) Commit(key FeedKey, gen uint64, posts []model.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(key)
	if gen != p.generation {
		return false
	}

	s.commits++
	ids := make([]int64, 0, len(posts))
	for _, post := range posts {
		if cached, ok := s.posts[post.ID]; ok && s.held[post.ID] > 0 {
			post.Likes = cached.Likes
			post.IsLiked = cached.IsLiked
			post.IsSaved = cached.IsSaved
		}
		s.posts[post.ID] = post
		s.versions[post.ID] = s.commits
		ids = append(ids, post.ID)
	}

	p.ids = ids
	p.state = StatePopulated
	p.fetchedAt = s.now()
	s.collectLocked()

	return true
}

// FailLoad returns the partition to the state it had before the failed load.
func (s *Store) FailLoad(key FeedKey, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(key)
	if gen != p.generation || p.state != StateLoading {
		return
	}
	p.state = p.prevState
}

// Feed returns copies of the partition's posts in server order.
func (s *Store) Feed(key FeedKey) ([]model.Post, State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(key)
	posts := make([]model.Post, 0, len(p.ids))
	for _, id := range p.ids {
		if post, ok := s.posts[id]; ok {
			posts = append(posts, post)
		}
	}

	return posts, s.stateLocked(p)
}

// HasData reports whether the partition has been populated at least once since it
// was created or last invalidated.
func (s *Store) HasData(key FeedKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.partition(key).fetchedAt.IsZero()
}

func (s *Store) Post(id int64) (model.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	return post, ok
}

// Update applies fn to the cached body of post id.
func (s *Store) Update(id int64, fn func(post *model.Post)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok {
		return false
	}
	fn(&post)
	if post.Likes < 0 {
		post.Likes = 0
	}
	s.posts[id] = post

	return true
}

// Version identifies the last server write of post id. It changes whenever a
// committed feed overwrites the body, and is zero for posts that are not cached.
func (s *Store) Version(id int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.versions[id]
}

// UpdateIf applies fn like Update, but only when no feed commit has overwritten the
// body since version was read.
func (s *Store) UpdateIf(id int64, version uint64, fn func(post *model.Post)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.posts[id]
	if !ok || s.versions[id] != version {
		return false
	}
	fn(&post)
	if post.Likes < 0 {
		post.Likes = 0
	}
	s.posts[id] = post

	return true
}

// Containing lists the feed keys whose partition includes post id.
func (s *Store) Containing(id int64) []FeedKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.containingLocked(id)
}

func (s *Store) containingLocked(id int64) []FeedKey {
	var keys []FeedKey
	for _, key := range s.sortedKeysLocked() {
		for _, member := range s.partitions[key].ids {
			if member == id {
				keys = append(keys, key)
				break
			}
		}
	}
	return keys
}

func (s *Store) sortedKeysLocked() []FeedKey {
	keys := make([]FeedKey, 0, len(s.partitions))
	keys = append(keys, Keys...)
	for key := range s.partitions {
		if !key.Valid() {
			keys = append(keys, key)
		}
	}
	return keys
}

// Evict removes post id from every partition and from the shared map.
func (s *Store) Evict(id int64) []FeedKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.containingLocked(id)
	for _, key := range keys {
		p := s.partitions[key]
		ids := p.ids[:0:0]
		for _, member := range p.ids {
			if member != id {
				ids = append(ids, member)
			}
		}
		p.ids = ids
	}
	delete(s.posts, id)
	delete(s.versions, id)

	return keys
}

// MarkStale flags populated partitions for revalidation.
func (s *Store) MarkStale(keys ...FeedKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		p := s.partition(key)
		switch p.state {
		case StatePopulated:
			p.state = StateStale
		case StateLoading:
			if p.prevState == StatePopulated {
				p.prevState = StateStale
			}
		}
	}
}

// Invalidate drops a partition entirely. In-flight loads for it are discarded on arrival.
func (s *Store) Invalidate(key FeedKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.partition(key)
	p.ids = nil
	p.state = StateEmpty
	p.prevState = StateEmpty
	p.fetchedAt = time.Time{}
	p.generation++
	s.collectLocked()
}

// Hold keeps the local like and save fields of post id while a mutation on it is in
// flight, so feed loads landing in the meantime do not overwrite the tentative state.
func (s *Store) Hold(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.held[id]++
}

func (s *Store) Release(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held[id] <= 1 {
		delete(s.held, id)
		return
	}
	s.held[id]--
}

// collectLocked drops bodies no partition references anymore.
func (s *Store) collectLocked() {
	referenced := make(map[int64]struct{}, len(s.posts))
	for _, p := range s.partitions {
		for _, id := range p.ids {
			referenced[id] = struct{}{}
		}
	}
	for id := range s.posts {
		if _, ok := referenced[id]; !ok && s.held[id] == 0 {
			delete(s.posts, id)
			delete(s.versions, id)
		}
	}
}
