package redisrepo

import (
	"fmt"
	"strings"
)

const (
	USER_CACHE_KEY    = "user-cache:%d"    // <userID>
	POST_COMMENTS_KEY = "post-comments:%d" // <postID>
	USER_SEARCH_KEY   = "user-search:%s"   // <normalized query>
)

func UserCacheKey(userID int64) string {
	return fmt.Sprintf(USER_CACHE_KEY, userID)
}

func PostCommentsKey(postID int64) string {
	return fmt.Sprintf(POST_COMMENTS_KEY, postID)
}

func UserSearchKey(query string) string {
	return fmt.Sprintf(USER_SEARCH_KEY, strings.ToLower(strings.TrimSpace(query)))
}
