package service

import (
	"context"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/repository"
	"go.uber.org/zap"
)

// Broadcaster fans feed events out to connected clients.
type Broadcaster interface {
	Broadcast(ev dto.FeedEvent)
}

type Post interface {
	Feed(ctx context.Context, viewerID int64, following bool) ([]*model.Post, error)
	Create(ctx context.Context, author model.Author, req dto.CreatePostRequest) (*model.Post, error)
	ToggleLike(ctx context.Context, postID int64, userID int64) (*dto.LikeResponse, error)
	ToggleSave(ctx context.Context, postID int64, userID int64) (*dto.SaveResponse, error)
	Report(ctx context.Context, postID int64, userID int64, reason string) error
	Delete(ctx context.Context, postID int64, userID int64) error
}

type Comment interface {
	FindPostComments(ctx context.Context, postID int64) ([]*model.Comment, error)
	Create(ctx context.Context, author model.Author, postID int64, req dto.CreateCommentRequest) (*model.Comment, error)
}

type User interface {
	FindByID(ctx context.Context, id int64) (*model.Author, error)
	Search(ctx context.Context, query string) ([]*model.Author, error)
}

type Service struct {
	Post
	Comment
	User
}

func New(logger *zap.Logger, repo *repository.Repository, broadcaster Broadcaster) *Service {
	return &Service{
		Post:    newPostService(logger, repo, broadcaster),
		Comment: newCommentService(logger, repo, broadcaster),
		User:    newUserService(logger, repo),
	}
}
