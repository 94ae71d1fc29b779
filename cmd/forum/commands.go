package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/feedcache"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/spf13/cobra"
)

func newFeedCmd(a *app) *cobra.Command {
	var reload bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the for-you or following feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := feedKey(cmd)

			var (
				posts []model.Post
				err   error
			)
			if reload {
				posts, err = a.feed.Reload(cmd.Context(), key)
			} else {
				posts, err = a.feed.Select(cmd.Context(), key)
			}
			if err != nil {
				return err
			}

			renderFeed(cmd.OutOrStdout(), a.feed.Viewer(), posts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reload, "reload", false, "drop the cached feed and fetch it again")

	return cmd
}

func newPostCmd(a *app) *cobra.Command {
	var (
		postType string
		title    string
		category string
		tags     []string
	)

	cmd := &cobra.Command{
		Use:   "post <content>",
		Short: "Publish a new post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.CreatePostRequest{
				Content:  strings.Join(args, " "),
				PostType: model.PostType(postType),
				Tags:     tags,
			}
			if title != "" {
				req.Title = &title
			}
			if category != "" {
				req.Category = &category
			}

			if _, err := a.feed.Select(cmd.Context(), feedKey(cmd)); err != nil {
				return err
			}

			post, err := a.feed.CreatePost(cmd.Context(), req)
			if err != nil {
				return err
			}

			renderPost(cmd.OutOrStdout(), a.feed.Viewer(), *post)
			return nil
		},
	}

	cmd.Flags().StringVar(&postType, "type", string(model.PostTypeDiscussion), "question, advice, story, tip or discussion")
	cmd.Flags().StringVar(&title, "title", "", "optional title")
	cmd.Flags().StringVar(&category, "category", "", "optional category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag, repeatable")

	return cmd
}

func newLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := postIDArg(args[0])
			if err != nil {
				return err
			}
			if _, err := a.feed.Select(cmd.Context(), feedKey(cmd)); err != nil {
				return err
			}

			mutation, err := a.feed.ToggleLike(cmd.Context(), postID)
			if err != nil {
				return err
			}

			renderMutation(cmd.OutOrStdout(), a, mutation)
			return nil
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <post-id>",
		Short: "Toggle a bookmark on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := postIDArg(args[0])
			if err != nil {
				return err
			}
			if _, err := a.feed.Select(cmd.Context(), feedKey(cmd)); err != nil {
				return err
			}

			mutation, err := a.feed.ToggleSave(cmd.Context(), postID)
			if err != nil {
				return err
			}

			renderMutation(cmd.OutOrStdout(), a, mutation)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <post-id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := postIDArg(args[0])
			if err != nil {
				return err
			}
			if _, err := a.feed.Select(cmd.Context(), feedKey(cmd)); err != nil {
				return err
			}

			if err := a.feed.Delete(cmd.Context(), postID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "post %d deleted\n", postID)
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report <post-id> <reason>",
		Short: "Report a post and hide it from your feeds",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := postIDArg(args[0])
			if err != nil {
				return err
			}
			if _, err := a.feed.Select(cmd.Context(), feedKey(cmd)); err != nil {
				return err
			}

			if err := a.feed.Report(cmd.Context(), postID, strings.Join(args[1:], " ")); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "post %d reported\n", postID)
			return nil
		},
	}
}

func newCommentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <post-id>",
		Short: "Show the comment thread of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := postIDArg(args[0])
			if err != nil {
				return err
			}

			comments, err := a.comments.Load(cmd.Context(), postID)
			if err != nil {
				return err
			}

			renderComments(cmd.OutOrStdout(), comments)
			return nil
		},
	}
}

func newCommentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <post-id> <body>",
		Short: "Add a comment to a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := postIDArg(args[0])
			if err != nil {
				return err
			}
			if _, err := a.feed.Select(cmd.Context(), feedKey(cmd)); err != nil {
				return err
			}
			if _, err := a.comments.Load(cmd.Context(), postID); err != nil {
				return err
			}

			if _, err := a.comments.Submit(cmd.Context(), postID, strings.Join(args[1:], " ")); err != nil {
				return err
			}

			renderComments(cmd.OutOrStdout(), a.comments.Thread(postID))
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find members by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.feed.SearchUsers(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			renderUsers(cmd.OutOrStdout(), users)
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the feed live until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			key := feedKey(cmd)
			posts, err := a.feed.Select(ctx, key)
			if err != nil {
				return err
			}
			renderFeed(cmd.OutOrStdout(), a.feed.Viewer(), posts)

			err = a.client.Subscribe(ctx, func(ev dto.FeedEvent) {
				a.feed.HandleEvent(ev)
				if a.cache.State(key) != feedcache.StateStale {
					return
				}

				if err := a.feed.Refresh(ctx, key); err != nil {
					cmd.PrintErrf("! failed to refresh feed: %s\n", err.Error())
					return
				}
				posts, _ := a.cache.Feed(key)
				fmt.Fprintf(cmd.OutOrStdout(), "-- %s post %d\n", ev.Type, ev.PostID)
				renderFeed(cmd.OutOrStdout(), a.feed.Viewer(), posts)
			})
			if err != nil && ctx.Err() == nil {
				return err
			}

			return nil
		},
	}
}

