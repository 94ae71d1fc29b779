package postgres

import (
	"context"

	"github.com/BloggingApp/community-service/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

const MAX_LIMIT = 50

func maxLimit(limit *int) {
	if *limit <= 0 || *limit > MAX_LIMIT {
		*limit = MAX_LIMIT
	}
}

type Post interface {
	Create(ctx context.Context, post model.Post) (*model.Post, error)
	FindFeed(ctx context.Context, viewerID int64, following bool, limit int) ([]*model.Post, error)
	ToggleLike(ctx context.Context, postID int64, userID int64) (liked bool, likes int64, err error)
	ToggleSave(ctx context.Context, postID int64, userID int64) (bool, error)
	Report(ctx context.Context, postID int64, userID int64, reason string) error
	Delete(ctx context.Context, postID int64, authorID int64) error
}

type Comment interface {
	Create(ctx context.Context, comment model.Comment) (*model.Comment, error)
	FindPostComments(ctx context.Context, postID int64, limit int) ([]*model.Comment, error)
}

type User interface {
	FindByID(ctx context.Context, id int64) (*model.Author, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Author, error)
}

type PostgresRepository struct {
	Post
	Comment
	User
}

func New(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		Post:    newPostRepo(db),
		Comment: newCommentRepo(db),
		User:    newUserRepo(db),
	}
}
