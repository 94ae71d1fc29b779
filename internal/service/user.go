package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/repository"
	"github.com/BloggingApp/community-service/internal/repository/redisrepo"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const minSearchLength = 3

type userService struct {
	logger *zap.Logger
	repo   *repository.Repository
}

func newUserService(logger *zap.Logger, repo *repository.Repository) User {
	return &userService{
		logger: logger,
		repo:   repo,
	}
}

func (s *userService) FindByID(ctx context.Context, id int64) (*model.Author, error) {
	cachedUser, err := redisrepo.Get[model.Author](s.repo.Redis.Default, ctx, redisrepo.UserCacheKey(id))
	if err == nil && cachedUser != nil {
		return cachedUser, nil
	}
	if err != nil && err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get user(%d) from redis: %s", id, err.Error())
		return nil, ErrInternal
	}

	user, err := s.repo.Postgres.User.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		s.logger.Sugar().Errorf("failed to get user(%d) from postgres: %s", id, err.Error())
		return nil, ErrInternal
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, redisrepo.UserCacheKey(id), user, time.Hour); err != nil {
		s.logger.Sugar().Errorf("failed to set user(%d) in redis: %s", id, err.Error())
	}

	return user, nil
}

func (s *userService) Search(ctx context.Context, query string) ([]*model.Author, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLength {
		return nil, ErrQueryTooShort
	}

	key := redisrepo.UserSearchKey(query)
	cachedUsers, err := redisrepo.GetMany[model.Author](s.repo.Redis.Default, ctx, key)
	if err == nil {
		return cachedUsers, nil
	}
	if err != redis.Nil {
		s.logger.Sugar().Errorf("failed to get user search(%s) from redis: %s", query, err.Error())
		return nil, ErrInternal
	}

	users, err := s.repo.Postgres.User.Search(ctx, query, 20)
	if err != nil {
		s.logger.Sugar().Errorf("failed to search users(%s) in postgres: %s", query, err.Error())
		return nil, ErrInternal
	}
	if users == nil {
		users = []*model.Author{}
	}

	if err := s.repo.Redis.Default.SetJSON(ctx, key, users, time.Minute); err != nil {
		s.logger.Sugar().Errorf("failed to set user search(%s) in redis: %s", query, err.Error())
	}

	return users, nil
}
