package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventStoryPosted     EventType = "story.posted"
	EventStoryDeleted    EventType = "story.deleted"
	EventMemberRequested EventType = "member.requested"
	EventMemberUpdated   EventType = "member.updated"
	EventPlaybackFrame   EventType = "playback.frame"
	EventPlaybackNotice  EventType = "playback.notice"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	AccountID string      `json:"account_id,omitempty"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// StoryEvent is the payload of story.posted and story.deleted
type StoryEvent struct {
	StoryID  string `json:"story_id"`
	AuthorID string `json:"author_id"`
}

// MemberEvent is the payload of member.requested and member.updated
type MemberEvent struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// PlaybackFrame is pushed to a live viewer after every playback state change.
// Frames may arrive out of order; the one with the higher (seq, elapsed_ms) wins.
type PlaybackFrame struct {
	Seq       uint64  `json:"seq"`
	ElapsedMS int64   `json:"elapsed_ms"`
	Index     int     `json:"index"`
	Total     int     `json:"total"`
	Progress  float64 `json:"progress"`
	Story     *Story  `json:"story,omitempty"`
}

// PlaybackNotice carries a non-fatal viewer error
type PlaybackNotice struct {
	Message string `json:"message"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, accountID string, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		AccountID: accountID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
