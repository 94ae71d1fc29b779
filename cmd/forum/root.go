package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BloggingApp/community-service/internal/community"
	"github.com/BloggingApp/community-service/internal/config"
	"github.com/BloggingApp/community-service/internal/feedcache"
	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/remote"
	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var errNoToken = errors.New("access token is not set, use --token or FORUM_ACCESS_TOKEN")

// app is the engine wired for a single command invocation.
type app struct {
	client   *remote.Client
	cache    *feedcache.Store
	feed     *community.Feed
	comments *community.Comments
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	var a app

	root := &cobra.Command{
		Use:          "forum",
		Short:        "Terminal client for the community feed",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			viewer, err := viewerFromToken(cfg.AccessToken)
			if err != nil {
				return err
			}

			notifier := community.NotifierFunc(func(err error) {
				fmt.Fprintf(cmd.ErrOrStderr(), "! %s\n", err.Error())
			})

			a.client = remote.New(logger, remote.Config{
				BaseURL:     cfg.BaseURL,
				AccessToken: cfg.AccessToken,
				Timeout:     cfg.Timeout,
			})
			a.cache = feedcache.New(cfg.FreshFor)
			a.feed = community.NewFeed(logger, a.client, a.cache, viewer, community.WithNotifier(notifier))
			a.comments = community.NewComments(logger, a.client, a.cache, viewer, community.WithNotifier(notifier))
			a.feed.OnEvict(a.comments.Forget)

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.feed != nil {
				a.feed.Wait()
				a.comments.Wait()
			}
		},
	}

	root.PersistentFlags().String("base-url", "http://localhost:8080/api/v1", "community API base URL")
	root.PersistentFlags().String("token", "", "bearer access token")
	root.PersistentFlags().Bool("following", false, "use the following feed instead of for-you")
	viper.BindPFlag("client.base_url", root.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("client.access_token", root.PersistentFlags().Lookup("token"))

	root.AddCommand(
		newFeedCmd(&a),
		newPostCmd(&a),
		newLikeCmd(&a),
		newSaveCmd(&a),
		newDeleteCmd(&a),
		newReportCmd(&a),
		newCommentsCmd(&a),
		newCommentCmd(&a),
		newSearchCmd(&a),
		newWatchCmd(&a),
	)

	return root
}

func loadConfig() (config.ClientConfig, error) {
	godotenv.Load()

	viper.SetEnvPrefix("forum")
	viper.SetEnvKeyReplacer(strings.NewReplacer("client.", "", ".", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("client.timeout", 10*time.Second)
	viper.SetDefault("client.fresh_for", time.Minute)

	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.ClientConfig{}, err
		}
	}

	cfg := config.ClientConfig{
		BaseURL:     viper.GetString("client.base_url"),
		AccessToken: viper.GetString("client.access_token"),
		Timeout:     viper.GetDuration("client.timeout"),
		FreshFor:    viper.GetDuration("client.fresh_for"),
	}
	if cfg.AccessToken == "" {
		return cfg, errNoToken
	}

	return cfg, nil
}

// viewerFromToken reads the viewer identity from the token claims. The server verifies
// the signature; the client only needs the id to know which posts it authored.
func viewerFromToken(token string) (model.Author, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return model.Author{}, fmt.Errorf("failed to parse access token: %w", err)
	}

	viewer := model.Author{}
	switch id := claims["id"].(type) {
	case float64:
		viewer.ID = int64(id)
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return model.Author{}, fmt.Errorf("invalid id claim: %w", err)
		}
		viewer.ID = parsed
	default:
		return model.Author{}, errors.New("access token has no id claim")
	}
	if role, ok := claims["role"].(string); ok {
		viewer.Role = role
	}

	return viewer, nil
}

func feedKey(cmd *cobra.Command) feedcache.FeedKey {
	following, _ := cmd.Flags().GetBool("following")
	if following {
		return feedcache.Following
	}
	return feedcache.ForYou
}

func postIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", arg)
	}
	return id, nil
}
