// Package remote talks to the community post service over its REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BloggingApp/community-service/internal/dto"
	"github.com/BloggingApp/community-service/internal/model"
	"go.uber.org/zap"
)

var ErrUnauthorized = errors.New("not authorized")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Code    int
	Details string
}

func (e *StatusError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("post service responded %d", e.Code)
	}
	return fmt.Sprintf("post service responded %d: %s", e.Code, e.Details)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && (e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden)
}

type Config struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

type Client struct {
	logger      *zap.Logger
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func New(logger *zap.Logger, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		logger:      logger,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method string, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(bodyJSON)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Add("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sugar().Debugf("failed to send request to post service(%s %s): %s", method, endpoint, err.Error())
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Code: resp.StatusCode}
		var basic dto.BasicResponse
		if err := json.Unmarshal(respBody, &basic); err == nil {
			statusErr.Details = basic.Details
		}
		return statusErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	return json.Unmarshal(respBody, out)
}

func postPath(postID int64, suffix string) string {
	return "/posts/" + strconv.FormatInt(postID, 10) + suffix
}

func (c *Client) ListPosts(ctx context.Context, following bool) ([]model.Post, error) {
	var posts []model.Post
	if err := c.do(ctx, http.MethodGet, "/posts?following="+strconv.FormatBool(following), nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]model.Author, error) {
	var users []model.Author
	if err := c.do(ctx, http.MethodGet, "/users/search?query="+url.QueryEscape(query), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreatePost(ctx context.Context, req dto.CreatePostRequest) (*model.Post, error) {
	var post model.Post
	if err := c.do(ctx, http.MethodPost, "/posts", req, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) ToggleLike(ctx context.Context, postID int64) (*dto.LikeResponse, error) {
	var like dto.LikeResponse
	if err := c.do(ctx, http.MethodPost, postPath(postID, "/like"), nil, &like); err != nil {
		return nil, err
	}
	return &like, nil
}

func (c *Client) DeletePost(ctx context.Context, postID int64) error {
	return c.do(ctx, http.MethodDelete, postPath(postID, ""), nil, nil)
}

func (c *Client) SavePost(ctx context.Context, postID int64) (*dto.SaveResponse, error) {
	var save dto.SaveResponse
	if err := c.do(ctx, http.MethodPost, postPath(postID, "/save"), nil, &save); err != nil {
		return nil, err
	}
	return &save, nil
}

func (c *Client) ReportPost(ctx context.Context, postID int64, reason string) error {
	return c.do(ctx, http.MethodPost, postPath(postID, "/report"), dto.ReportPostRequest{Reason: reason}, nil)
}

func (c *Client) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.do(ctx, http.MethodGet, postPath(postID, "/comments"), nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, postID int64, content string) (*model.Comment, error) {
	var comment model.Comment
	if err := c.do(ctx, http.MethodPost, postPath(postID, "/comments"), dto.CreateCommentRequest{Content: content}, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}
