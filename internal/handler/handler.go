package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/BloggingApp/community-service/internal/model"
	"github.com/BloggingApp/community-service/internal/service"
	"github.com/BloggingApp/community-service/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EventStream upgrades a request into a feed event subscription.
type EventStream interface {
	ServeWs(w http.ResponseWriter, r *http.Request)
}

type Handler struct {
	logger   *zap.Logger
	services *service.Service
	events   EventStream
	limiter  *IPRateLimiter
}

func New(logger *zap.Logger, services *service.Service, events EventStream, limiter *IPRateLimiter) *Handler {
	return &Handler{
		logger:   logger,
		services: services,
		events:   events,
		limiter:  limiter,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(h.requestIDMiddleware)
	corsOrigin := viper.GetString("client.origin")
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"POST", "GET", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
	}))

	v1 := r.Group("/api/v1")
	{
		posts := v1.Group("/posts")
		{
			posts.GET("", h.notRequiredAuthMiddleware, h.postsFeed)
			posts.POST("", h.authMiddleware, h.rateLimitMiddleware, h.postsCreate)

			post := posts.Group("/:postID")
			{
				post.DELETE("", h.authMiddleware, h.postsDelete)
				post.POST("/like", h.authMiddleware, h.postsLike)
				post.POST("/save", h.authMiddleware, h.postsSave)
				post.POST("/report", h.authMiddleware, h.postsReport)
				post.GET("/comments", h.commentsGet)
				post.POST("/comments", h.authMiddleware, h.rateLimitMiddleware, h.commentsCreate)
			}
		}

		users := v1.Group("/users")
		{
			users.GET("/search", h.authMiddleware, h.usersSearch)
		}

		v1.GET("/ws", h.eventsSubscribe)
	}

	return r
}

func (h *Handler) getUserDataFromClaims(ctx context.Context, claims jwt.MapClaims) (*model.Author, error) {
	var id int64
	switch raw := claims["id"].(type) {
	case float64:
		id = int64(raw)
	case string:
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		id = parsed
	default:
		return nil, fmt.Errorf("unexpected id claim %T", raw)
	}

	user, err := h.services.User.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (h *Handler) getUserDataFromAccessTokenClaims(ctx context.Context, accessToken string) (*model.Author, error) {
	claims, err := utils.DecodeJWT(accessToken, []byte(os.Getenv("ACCESS_SECRET")))
	if err != nil {
		return nil, err
	}

	return h.getUserDataFromClaims(ctx, claims)
}

func (h *Handler) getUserFromRequest(c *gin.Context) *model.Author {
	userReq, _ := c.Get("user")

	user, ok := userReq.(model.Author)
	if !ok {
		return nil
	}

	return &user
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func postIDParam(c *gin.Context) (int64, error) {
	postID, err := strconv.ParseInt(strings.TrimSpace(c.Param("postID")), 10, 64)
	if err != nil || postID <= 0 {
		return 0, errInvalidPostID
	}

	return postID, nil
}
