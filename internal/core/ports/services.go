package ports

import (
	"context"
	"time"

	"newspulse/internal/core/domain"
)

// ActivityTracker ingests activity events and maintains the per-content
// trend aggregates. Track is best-effort telemetry: it never errors, an
// empty content id returns nil with no side effects.
type ActivityTracker interface {
	Track(contentID domain.ContentID, activityType string, opts domain.TrackOptions) *domain.TrendSnapshot
	Snapshot(contentID domain.ContentID) *domain.TrendSnapshot
	EvictStale(inactiveFor time.Duration) int
}

// TrendSource exposes the tracker's aggregate state to the ranker as
// detached copies; the ranker never sees live internal maps.
type TrendSource interface {
	EntriesSnapshot() []domain.TrendEntry
}

// TrendQuery selects and bounds a trending listing. A timeframe outside
// the known window names silently degrades to total.
type TrendQuery struct {
	Timeframe string
	Region    string
	Limit     int
}

type TrendRanker interface {
	TrendingNews(q TrendQuery) []domain.TrendSnapshot
}

// RegionQuery bounds an active-regions listing. ActiveWithin gates on
// last activity time; ordering stays by raw cumulative count.
type RegionQuery struct {
	Limit        int
	ActiveWithin time.Duration
}

// RegionIndex is the derived per-region view over the activity stream.
type RegionIndex interface {
	RecordActivity(region string, contentID domain.ContentID, at time.Time)
	ActiveRegions(q RegionQuery) []domain.RegionSummary
	RegionCount(name string) int64
}

// CommentInput and ReactionInput carry the caller-supplied fields of an
// appended record; ids and timestamps are server-assigned.
type CommentInput struct {
	UserID   string
	Username string
	Text     string
}

type ReactionInput struct {
	UserID   string
	Username string
	Type     string
}

// StreamRegistry manages live broadcast lifecycle. Failure is reported
// through false/nil sentinels, never errors: callers translate those to
// HTTP statuses.
type StreamRegistry interface {
	CreateStream(ctx context.Context, p domain.CreateStreamParams) *domain.PublicStream
	EndStream(ctx context.Context, id, userID string) bool
	AddViewer(ctx context.Context, id, viewerID string) bool
	RemoveViewer(ctx context.Context, id, viewerID string) bool
	AddComment(ctx context.Context, id string, in CommentInput) *domain.StreamComment
	AddReaction(ctx context.Context, id string, in ReactionInput) *domain.StreamReaction
	UpdateMetadata(ctx context.Context, id string, meta map[string]interface{}) bool
	PublicStream(ctx context.Context, id string) *domain.PublicStream
	ActiveStreams(ctx context.Context, filter *domain.LocationFilter) []domain.PublicStream
	ViewerCount(ctx context.Context, id string) int
	ReapEnded(ctx context.Context, retention time.Duration) int
}

// NotificationSender is the per-user push path exposed by the transport
// bridge. The boolean only reports whether any live session matched.
type NotificationSender interface {
	SendNotificationToUser(userID string, n domain.Notification) bool
}
