package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/BloggingApp/community-service/internal/community"
	"github.com/BloggingApp/community-service/internal/model"
)

func renderFeed(w io.Writer, viewer model.Author, posts []model.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "no posts yet")
		return
	}

	for _, post := range posts {
		renderPost(w, viewer, post)
	}
}

func renderPost(w io.Writer, viewer model.Author, post model.Post) {
	var flags []string
	if post.Pinned {
		flags = append(flags, "pinned")
	}
	if post.IsLiked {
		flags = append(flags, "liked")
	}
	if post.IsSaved {
		flags = append(flags, "saved")
	}
	if post.Author.ID == viewer.ID {
		flags = append(flags, "yours")
	}

	author := post.Author.DisplayName
	if post.Author.Verified {
		author += " (verified " + post.Author.Role + ")"
	}

	fmt.Fprintf(w, "#%d [%s] %s  likes:%d comments:%d", post.ID, post.PostType, author, post.Likes, post.Comments)
	if len(flags) > 0 {
		fmt.Fprintf(w, "  %s", strings.Join(flags, ","))
	}
	fmt.Fprintln(w)

	if post.Title != nil {
		fmt.Fprintf(w, "  %s\n", *post.Title)
	}
	fmt.Fprintf(w, "  %s\n", post.Content)
	if len(post.Tags) > 0 {
		fmt.Fprintf(w, "  #%s\n", strings.Join(post.Tags, " #"))
	}
}

func renderComments(w io.Writer, comments []model.Comment) {
	if len(comments) == 0 {
		fmt.Fprintln(w, "no comments yet")
		return
	}

	for _, comment := range comments {
		marker := ""
		if comment.Pending {
			marker = " (sending)"
		}
		fmt.Fprintf(w, "%s%s: %s\n", comment.Author.DisplayName, marker, comment.Content)
	}
}

func renderUsers(w io.Writer, users []model.Author) {
	if len(users) == 0 {
		fmt.Fprintln(w, "no members found")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, user := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", user.ID, user.DisplayName, user.Role)
	}
	tw.Flush()
}

func renderMutation(w io.Writer, a *app, mutation *community.Mutation) {
	fmt.Fprintf(w, "%s on post %d: %s\n", mutation.Kind, mutation.PostID, mutation.State)

	if post, ok := a.cache.Post(mutation.PostID); ok {
		renderPost(w, a.feed.Viewer(), post)
	}
}
