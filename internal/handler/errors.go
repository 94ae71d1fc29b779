package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/moderation"
	"github.com/BloggingApp/community-service/internal/service"
	"github.com/gin-gonic/gin"
)

var (
	errNotAuthorized      = errors.New("user is not authorized")
	errInvalidPostID      = errors.New("invalid post ID")
	errFollowingNeedsAuth = errors.New("following feed requires authorization")
	errTooManyRequests    = errors.New("too many requests, please wait")
)

func errorStatus(err error) int {
	var rejection *moderation.Rejection
	switch {
	case errors.As(err, &rejection),
		errors.Is(err, service.ErrInvalidPostType),
		errors.Is(err, service.ErrQueryTooShort):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotPostAuthor):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), dto.NewBasicResponse(false, err.Error()))
}
