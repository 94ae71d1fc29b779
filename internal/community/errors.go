package community

import "errors"

var (
	ErrNotAuthor        = errors.New("only the author can delete a post")
	ErrMutationInFlight = errors.New("a change to this post is already in progress")
	ErrPostNotCached    = errors.New("post is not in the local feed")
	ErrMutationFailed   = errors.New("failed to apply change, please try again")
	ErrReasonRequired   = errors.New("report reason is required")
	ErrUnknownFeed      = errors.New("unknown feed")
	ErrInvalidPostType  = errors.New("invalid post type")
)
