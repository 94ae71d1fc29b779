package model

import "time"

type PostType string

const (
	PostTypeQuestion   PostType = "question"
	PostTypeAdvice     PostType = "advice"
	PostTypeStory      PostType = "story"
	PostTypeTip        PostType = "tip"
	PostTypeDiscussion PostType = "discussion"
)

func (t PostType) Valid() bool {
	switch t {
	case PostTypeQuestion, PostTypeAdvice, PostTypeStory, PostTypeTip, PostTypeDiscussion:
		return true
	}
	return false
}

// Categories is the suggested set shown by clients. The server accepts any tag.
var Categories = []string{
	"nutrition",
	"fitness",
	"sleep",
	"mental-health",
	"skincare",
	"yoga",
	"meditation",
	"recipes",
	"weight-loss",
	"general",
}

type Post struct {
	ID        int64     `json:"id"`
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	PostType  PostType  `json:"post_type"`
	Category  *string   `json:"category"`
	ImageURL  *string   `json:"image_url"`
	Tags      []string  `json:"tags"`
	Pinned    bool      `json:"pinned"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	Shares    int64     `json:"shares"`
	Views     int64     `json:"views"`
	IsLiked   bool      `json:"is_liked"`
	IsSaved   bool      `json:"is_saved"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
