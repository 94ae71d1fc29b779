package service

import "errors"

var (
	ErrInternal        = errors.New("internal server error")
	ErrPostNotFound    = errors.New("post not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNotPostAuthor   = errors.New("only the author can delete a post")
	ErrInvalidPostType = errors.New("invalid post type")
	ErrQueryTooShort   = errors.New("search query must be at least 3 characters")
)
