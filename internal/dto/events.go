package dto

import "time"

const (
	EventPostCreated = "post_created"
	EventPostUpdated = "post_updated"
	EventPostDeleted = "post_deleted"
)

// FeedEvent is pushed to connected clients whenever the authoritative post state changes.
type FeedEvent struct {
	Type      string    `json:"type"`
	PostID    int64     `json:"post_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewFeedEvent(eventType string, postID int64) FeedEvent {
	return FeedEvent{
		Type:      eventType,
		PostID:    postID,
		Timestamp: time.Now(),
	}
}
