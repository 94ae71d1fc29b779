package postgres

import "errors"

var ErrNotPostAuthor = errors.New("user is not the author of the post")
