package dto

import "github.com/BloggingApp/community-service/internal/model"

type CreatePostRequest struct {
	Title    *string        `json:"title"`
	Content  string         `json:"content" binding:"required"`
	PostType model.PostType `json:"post_type" binding:"required"`
	Category *string        `json:"category"`
	Tags     []string       `json:"tags"`
}

type ReportPostRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}
