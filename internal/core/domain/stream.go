package domain

import "time"

type StreamStatus string

const (
	StreamActive StreamStatus = "active"
	StreamEnded  StreamStatus = "ended"
)

// Stream is one live broadcast session keyed by its content id. The
// active→ended transition is one-way and terminal. Comment and reaction
// lists are append-only.
type Stream struct {
	ID           string
	ContentID    ContentID
	Broadcasters map[string]struct{}
	Viewers      map[string]struct{}
	Status       StreamStatus
	StartedAt    time.Time
	EndedAt      *time.Time
	Title        string
	Metadata     map[string]interface{}
	IsAnonymous  bool
	Comments     []StreamComment
	Reactions    []StreamReaction
}

type StreamComment struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId,omitempty"`
	Username string    `json:"username,omitempty"`
	Text     string    `json:"text"`
	At       time.Time `json:"timestamp"`
}

type StreamReaction struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId,omitempty"`
	Username string    `json:"username,omitempty"`
	Type     string    `json:"type"`
	At       time.Time `json:"timestamp"`
}

// PublicStream is the only sanctioned read model for streams: counts
// instead of raw identity sets, with anonymous metadata redacted.
type PublicStream struct {
	ID               string                 `json:"id"`
	ContentID        ContentID              `json:"contentId"`
	Title            string                 `json:"title"`
	Status           StreamStatus           `json:"status"`
	StartedAt        time.Time              `json:"startedAt"`
	EndedAt          *time.Time             `json:"endedAt,omitempty"`
	ViewerCount      int                    `json:"viewerCount"`
	BroadcasterCount int                    `json:"broadcasterCount"`
	CommentCount     int                    `json:"commentCount"`
	ReactionCount    int                    `json:"reactionCount"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// CreateStreamParams carries everything a broadcaster supplies on create.
type CreateStreamParams struct {
	ContentID   ContentID
	UserID      string
	Title       string
	Metadata    map[string]interface{}
	IsAnonymous bool
}

// LocationFilter narrows active-stream listings to broadcasts whose
// metadata places them within RadiusKm of the given point.
type LocationFilter struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}
