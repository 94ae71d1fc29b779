package service

import (
	"context"
	"errors"
	"time"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/moderation"
	"github.com/BloggingApp/community-service/internal/repository"
	"github.com/BloggingApp/community-service/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const foreignKeyViolation = "23503"

type commentService struct {
	logger      *zap.Logger
	repo        *repository.Repository
	broadcaster Broadcaster
}

func newCommentService(logger *zap.Logger, repo *repository.Repository, broadcaster Broadcaster) Comment {
	return &commentService{
		logger:      logger,
		repo:        repo,
		broadcaster: broadcaster,
	}
}

func (s *commentService) FindPostComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	cachedComments, err := redisrepo.GetMany[model.Comment](s.repo.Redis.Default, ctx, redisrepo.PostCommentsKey(postID))
	if err == nil {
		return cachedComments, nil
	}
	if err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get post(%d) comments from redis: %s", postID, err.Error())
		return nil, ErrInternal
	}

	comments, err := s.repo.Postgres.Comment.FindPostComments(ctx, postID, 0)
	if err != nil {
		s.logger.Sugar().Errorf("failed to find post(%d) comments from postgres: %s", postID, err.Error())
		return nil, ErrInternal
	}
	if comments == nil {
		comments = []*model.Comment{}
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.PostCommentsKey(postID), comments, 10*time.Minute); err != nil {
		s.logger.Sugar().Errorf("failed to set post(%d) comments in redis: %s", postID, err.Error())
	}

	return comments, nil
}

func (s *commentService) Create(ctx context.Context, author model.Author, postID int64, req dto.CreateCommentRequest) (*model.Comment, error) {
	if err := moderation.Check(req.Content); err != nil {
		return nil, err
	}

	comment := model.Comment{
		PostID:  postID,
		Author:  author,
		Content: req.Content,
	}

	createdComment, err := s.repo.Postgres.Comment.Create(ctx, comment)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, ErrPostNotFound
		}

		s.logger.Sugar().Errorf("failed to create user(%d) comment on post(%d): %s", author.ID, postID, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostCommentsKey(postID)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%d) comments from redis: %s", postID, err.Error())
	}

	s.broadcaster.Broadcast(dto.NewFeedEvent(dto.EventPostUpdated, postID))

	return createdComment, nil
}
