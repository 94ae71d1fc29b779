package service

import (
	"context"
	"errors"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/moderation"
	"github.com/BloggingApp/community-service/internal/repository"
	"github.com/BloggingApp/community-service/internal/repository/postgres"
	"github.com/BloggingApp/community-service/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type postService struct {
	logger      *zap.Logger
	repo        *repository.Repository
	broadcaster Broadcaster
}

func newPostService(logger *zap.Logger, repo *repository.Repository, broadcaster Broadcaster) Post {
	return &postService{
		logger:      logger,
		repo:        repo,
		broadcaster: broadcaster,
	}
}

func (s *postService) Feed(ctx context.Context, viewerID int64, following bool) ([]*model.Post, error) {
	posts, err := s.repo.Postgres.Post.FindFeed(ctx, viewerID, following, viper.GetInt("feed.limit"))
	if err != nil {
		s.logger.Sugar().Errorf("failed to find feed(following=%t) for user(%d) from postgres: %s", following, viewerID, err.Error())
		return nil, ErrInternal
	}

	if posts == nil {
		posts = []*model.Post{}
	}

	return posts, nil
}

func (s *postService) Create(ctx context.Context, author model.Author, req dto.CreatePostRequest) (*model.Post, error) {
	if err := moderation.Check(req.Content); err != nil {
		return nil, err
	}
	if !req.PostType.Valid() {
		return nil, ErrInvalidPostType
	}

	post := model.Post{
		Title:    req.Title,
		Content:  req.Content,
		PostType: req.PostType,
		Category: req.Category,
		Tags:     req.Tags,
		Author:   author,
	}

	createdPost, err := s.repo.Postgres.Post.Create(ctx, post)
	if err != nil {
		s.logger.Sugar().Errorf("failed to create user(%d) post: %s", author.ID, err.Error())
		return nil, ErrInternal
	}

	s.broadcaster.Broadcast(dto.NewFeedEvent(dto.EventPostCreated, createdPost.ID))

	return createdPost, nil
}

func (s *postService) ToggleLike(ctx context.Context, postID int64, userID int64) (*dto.LikeResponse, error) {
	liked, likes, err := s.repo.Postgres.Post.ToggleLike(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}

		s.logger.Sugar().Errorf("failed to toggle user(%d) like on post(%d): %s", userID, postID, err.Error())
		return nil, ErrInternal
	}

	s.broadcaster.Broadcast(dto.NewFeedEvent(dto.EventPostUpdated, postID))

	return &dto.LikeResponse{
		PostID:  postID,
		IsLiked: liked,
		Likes:   likes,
	}, nil
}

func (s *postService) ToggleSave(ctx context.Context, postID int64, userID int64) (*dto.SaveResponse, error) {
	saved, err := s.repo.Postgres.Post.ToggleSave(ctx, postID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}

		s.logger.Sugar().Errorf("failed to toggle user(%d) save on post(%d): %s", userID, postID, err.Error())
		return nil, ErrInternal
	}

	return &dto.SaveResponse{
		PostID:  postID,
		IsSaved: saved,
	}, nil
}

func (s *postService) Report(ctx context.Context, postID int64, userID int64, reason string) error {
	if err := s.repo.Postgres.Post.Report(ctx, postID, userID, reason); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPostNotFound
		}

		s.logger.Sugar().Errorf("failed to report post(%d) by user(%d): %s", postID, userID, err.Error())
		return ErrInternal
	}

	s.logger.Sugar().Infof("post(%d) reported by user(%d)", postID, userID)

	return nil
}

func (s *postService) Delete(ctx context.Context, postID int64, userID int64) error {
	if err := s.repo.Postgres.Post.Delete(ctx, postID, userID); err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrPostNotFound
		case errors.Is(err, postgres.ErrNotPostAuthor):
			return ErrNotPostAuthor
		}

		s.logger.Sugar().Errorf("failed to delete post(%d) by user(%d): %s", postID, userID, err.Error())
		return ErrInternal
	}

	if err := s.repo.Redis.Default.Del(ctx, redisrepo.PostCommentsKey(postID)).Err(); err != nil {
		s.logger.Sugar().Errorf("failed to delete post(%d) comments from redis: %s", postID, err.Error())
	}

	s.broadcaster.Broadcast(dto.NewFeedEvent(dto.EventPostDeleted, postID))

	return nil
}
