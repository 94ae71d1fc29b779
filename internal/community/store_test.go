package community

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/model"
)

var errUnavailable = errors.New("server unavailable")

// fakeStore behaves like the remote post store for a single viewer.
type fakeStore struct {
	mu sync.Mutex

	viewer    int64
	posts     []model.Post
	following map[int64]bool
	comments  map[int64][]model.Comment
	nextID    int64

	fail     map[string]error
	gates    map[string]chan struct{}
	calls    map[string]int
	listHook func(following bool) ([]model.Post, error)
}

func newFakeStore(viewer int64, posts ...model.Post) *fakeStore {
	return &fakeStore{
		viewer:    viewer,
		posts:     posts,
		following: make(map[int64]bool),
		comments:  make(map[int64][]model.Comment),
		nextID:    1000,
		fail:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
		calls:     make(map[string]int),
	}
}

func (s *fakeStore) enter(op string) error {
	s.mu.Lock()
	s.calls[op]++
	gate := s.gates[op]
	err := s.fail[op]
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return err
}

func (s *fakeStore) failOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fail[op] = err
}

func (s *fakeStore) gate(op string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{})
	s.gates[op] = ch
	return ch
}

func (s *fakeStore) count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[op]
}

func (s *fakeStore) find(id int64) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// bumpLikes simulates another user liking a post.
func (s *fakeStore) bumpLikes(id int64, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts[s.find(id)].Likes += delta
}

func (s *fakeStore) ListPosts(ctx context.Context, following bool) ([]model.Post, error) {
	if err := s.enter("list"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	hook := s.listHook
	s.mu.Unlock()
	if hook != nil {
		return hook(following)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Post
	for _, p := range s.posts {
		if following && !s.following[p.Author.ID] {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) SearchUsers(ctx context.Context, query string) ([]model.Author, error) {
	if err := s.enter("search"); err != nil {
		return nil, err
	}
	return []model.Author{{ID: 7, DisplayName: query}}, nil
}

func (s *fakeStore) CreatePost(ctx context.Context, req dto.CreatePostRequest) (*model.Post, error) {
	if err := s.enter("create"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p := model.Post{
		ID:        s.nextID,
		Title:     req.Title,
		Content:   req.Content,
		PostType:  req.PostType,
		Category:  req.Category,
		Tags:      req.Tags,
		Author:    model.Author{ID: s.viewer},
		CreatedAt: time.Now(),
	}
	s.posts = append([]model.Post{p}, s.posts...)
	return &p, nil
}

func (s *fakeStore) ToggleLike(ctx context.Context, postID int64) (*dto.LikeResponse, error) {
	if err := s.enter("like"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &s.posts[s.find(postID)]
	if p.IsLiked {
		p.IsLiked = false
		p.Likes--
	} else {
		p.IsLiked = true
		p.Likes++
	}
	return &dto.LikeResponse{PostID: postID, IsLiked: p.IsLiked, Likes: p.Likes}, nil
}

func (s *fakeStore) DeletePost(ctx context.Context, postID int64) error {
	if err := s.enter("delete"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(postID)
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return nil
}

func (s *fakeStore) SavePost(ctx context.Context, postID int64) (*dto.SaveResponse, error) {
	if err := s.enter("save"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := &s.posts[s.find(postID)]
	p.IsSaved = !p.IsSaved
	return &dto.SaveResponse{PostID: postID, IsSaved: p.IsSaved}, nil
}

func (s *fakeStore) ReportPost(ctx context.Context, postID int64, reason string) error {
	if err := s.enter("report"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(postID)
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	return nil
}

func (s *fakeStore) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	if err := s.enter("comments"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]model.Comment{}, s.comments[postID]...), nil
}

func (s *fakeStore) CreateComment(ctx context.Context, postID int64, content string) (*model.Comment, error) {
	if err := s.enter("comment"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	c := model.Comment{
		ID:        s.nextID,
		PostID:    postID,
		Author:    model.Author{ID: s.viewer},
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.comments[postID] = append(s.comments[postID], c)
	if i := s.find(postID); i >= 0 {
		s.posts[i].Comments++
	}
	return &c, nil
}
