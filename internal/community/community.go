// Package community keeps a responsive local view of the community feed consistent
// with the remote post store. Likes and saves are applied optimistically and then
// reconciled by re-fetching authoritative state; deletes and reports are applied only
// after the server confirms them.
package community

import (
	"context"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/model"
	"go.uber.org/zap"
)

// MinSearchLength is the shortest user search query sent to the server.
const MinSearchLength = 3

// PostStore is the authoritative remote copy of posts, comments and likes.
type PostStore interface {
	ListPosts(ctx context.Context, following bool) ([]model.Post, error)
	SearchUsers(ctx context.Context, query string) ([]model.Author, error)
	CreatePost(ctx context.Context, req dto.CreatePostRequest) (*model.Post, error)
	ToggleLike(ctx context.Context, postID int64) (*dto.LikeResponse, error)
	DeletePost(ctx context.Context, postID int64) error
	SavePost(ctx context.Context, postID int64) (*dto.SaveResponse, error)
	ReportPost(ctx context.Context, postID int64, reason string) error
	ListComments(ctx context.Context, postID int64) ([]model.Comment, error)
	CreateComment(ctx context.Context, postID int64, content string) (*model.Comment, error)
}

// Notifier surfaces non-blocking failures to the user, such as a rolled back like.
type Notifier interface {
	Notify(err error)
}

type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) {
	f(err)
}

type logNotifier struct {
	logger *zap.Logger
}

func (n logNotifier) Notify(err error) {
	n.logger.Sugar().Warnf("community: %s", err.Error())
}

type Option func(*options)

type options struct {
	notifier Notifier
}

func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

func buildOptions(logger *zap.Logger, opts []Option) options {
	o := options{notifier: logNotifier{logger: logger}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
