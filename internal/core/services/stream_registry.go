package services

import (
	"context"
	"sync"
	"time"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
	"newspulse/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// metadata keys stripped from anonymous broadcasts. Best-effort field
// matching, not a content audit: callers must not put other identifying
// fields into metadata without extending this list.
var anonymousMetadataKeys = []string{"username", "userId", "userLocation", "profilePic"}

// maxCommentLength caps stored comment text; the append-only list is
// process-lifetime memory.
const maxCommentLength = 500

type streamRegistry struct {
	// Guards read-modify-write sequences across repository calls; the
	// repository's own lock only covers single operations.
	mu sync.Mutex

	repo   ports.StreamRepository
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewStreamRegistry(repo ports.StreamRepository, logger *zap.SugaredLogger) *streamRegistry {
	return &streamRegistry{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *streamRegistry) SetNowFunc(now func() time.Time) {
	s.now = now
}

// CreateStream registers a broadcast keyed by its content id.
// Last-create-wins: an existing stream for the same content id is
// replaced without complaint. Missing required fields return nil.
func (s *streamRegistry) CreateStream(ctx context.Context, p domain.CreateStreamParams) *domain.PublicStream {
	if p.ContentID == "" || p.UserID == "" || p.Title == "" {
		return nil
	}

	stream := &domain.Stream{
		ID:           string(p.ContentID),
		ContentID:    p.ContentID,
		Broadcasters: map[string]struct{}{p.UserID: {}},
		Viewers:      make(map[string]struct{}),
		Status:       domain.StreamActive,
		StartedAt:    s.now(),
		Title:        p.Title,
		Metadata:     copyMetadata(p.Metadata),
		IsAnonymous:  p.IsAnonymous,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Put(ctx, stream); err != nil {
		s.logger.Errorw("failed to store stream", "stream_id", stream.ID, "error", err)
		return nil
	}

	s.logger.Infow("stream created",
		"stream_id", stream.ID,
		"broadcaster", p.UserID,
		"anonymous", p.IsAnonymous,
	)
	return publicView(stream)
}

// EndStream transitions a stream to ended. Only a registered broadcaster
// may end it; anyone else gets false with no state change.
func (s *streamRegistry) EndStream(ctx context.Context, id, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil || stream.Status != domain.StreamActive {
		return false
	}
	if _, ok := stream.Broadcasters[userID]; !ok {
		s.logger.Warnw("rejected end attempt from non-broadcaster", "stream_id", id, "user_id", userID)
		return false
	}

	endedAt := s.now()
	stream.Status = domain.StreamEnded
	stream.EndedAt = &endedAt

	if err := s.repo.Put(ctx, stream); err != nil {
		s.logger.Errorw("failed to persist ended stream", "stream_id", id, "error", err)
		return false
	}

	s.logger.Infow("stream ended", "stream_id", id, "by", userID)
	return true
}

func (s *streamRegistry) AddViewer(ctx context.Context, id, viewerID string) bool {
	if viewerID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil || stream.Status != domain.StreamActive {
		return false
	}
	stream.Viewers[viewerID] = struct{}{}
	return s.repo.Put(ctx, stream) == nil
}

func (s *streamRegistry) RemoveViewer(ctx context.Context, id, viewerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false
	}
	delete(stream.Viewers, viewerID)
	return s.repo.Put(ctx, stream) == nil
}

// AddComment appends a timestamped comment. Ended streams still accept
// comments; the reaper bounds how long that window stays open.
func (s *streamRegistry) AddComment(ctx context.Context, id string, in ports.CommentInput) *domain.StreamComment {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil
	}

	comment := domain.StreamComment{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		Username: in.Username,
		Text:     utils.TruncateString(utils.SanitizeString(in.Text), maxCommentLength),
		At:       s.now(),
	}
	stream.Comments = append(stream.Comments, comment)
	if err := s.repo.Put(ctx, stream); err != nil {
		return nil
	}
	return &comment
}

func (s *streamRegistry) AddReaction(ctx context.Context, id string, in ports.ReactionInput) *domain.StreamReaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil
	}

	reaction := domain.StreamReaction{
		ID:       uuid.NewString(),
		UserID:   in.UserID,
		Username: in.Username,
		Type:     in.Type,
		At:       s.now(),
	}
	stream.Reactions = append(stream.Reactions, reaction)
	if err := s.repo.Put(ctx, stream); err != nil {
		return nil
	}
	return &reaction
}

func (s *streamRegistry) UpdateMetadata(ctx context.Context, id string, meta map[string]interface{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false
	}
	if stream.Metadata == nil {
		stream.Metadata = make(map[string]interface{}, len(meta))
	}
	for k, v := range meta {
		stream.Metadata[k] = v
	}
	return s.repo.Put(ctx, stream) == nil
}

// PublicStream is the only sanctioned read path: counts instead of raw
// identity sets, anonymous metadata redacted.
func (s *streamRegistry) PublicStream(ctx context.Context, id string) *domain.PublicStream {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil
	}
	return publicView(stream)
}

// ActiveStreams lists active broadcasts. With a location filter, only
// streams whose metadata carries latitude/longitude within the radius
// are returned; streams without coordinates are excluded by the filter.
func (s *streamRegistry) ActiveStreams(ctx context.Context, filter *domain.LocationFilter) []domain.PublicStream {
	s.mu.Lock()
	defer s.mu.Unlock()

	streams, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil
	}

	out := make([]domain.PublicStream, 0, len(streams))
	for _, stream := range streams {
		if filter != nil && !withinRadius(stream, filter) {
			continue
		}
		out = append(out, *publicView(stream))
	}
	return out
}

func (s *streamRegistry) ViewerCount(ctx context.Context, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0
	}
	return len(stream.Viewers)
}

// ReapEnded evicts ended streams past the retention window so the store
// cannot grow without bound. Returns the number of reaped streams.
func (s *streamRegistry) ReapEnded(ctx context.Context, retention time.Duration) int {
	cutoff := s.now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	ended, err := s.repo.ListEnded(ctx)
	if err != nil {
		return 0
	}

	reaped := 0
	for _, stream := range ended {
		if stream.EndedAt != nil && stream.EndedAt.Before(cutoff) {
			if err := s.repo.Delete(ctx, stream.ID); err == nil {
				reaped++
			}
		}
	}
	if reaped > 0 {
		s.logger.Infow("reaped ended streams", "count", reaped)
	}
	return reaped
}

func withinRadius(stream *domain.Stream, filter *domain.LocationFilter) bool {
	lat, ok := metaFloat(stream.Metadata, "latitude")
	if !ok {
		return false
	}
	lng, ok := metaFloat(stream.Metadata, "longitude")
	if !ok {
		return false
	}
	return utils.HaversineKm(filter.Latitude, filter.Longitude, lat, lng) <= filter.RadiusKm
}

func metaFloat(meta map[string]interface{}, key string) (float64, bool) {
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func publicView(stream *domain.Stream) *domain.PublicStream {
	meta := copyMetadata(stream.Metadata)
	if stream.IsAnonymous {
		if meta == nil {
			meta = make(map[string]interface{})
		}
		for _, key := range anonymousMetadataKeys {
			delete(meta, key)
		}
		meta["broadcasterName"] = "Anonymous"
		meta["anonymousBroadcast"] = true
	}

	return &domain.PublicStream{
		ID:               stream.ID,
		ContentID:        stream.ContentID,
		Title:            stream.Title,
		Status:           stream.Status,
		StartedAt:        stream.StartedAt,
		EndedAt:          stream.EndedAt,
		ViewerCount:      len(stream.Viewers),
		BroadcasterCount: len(stream.Broadcasters),
		CommentCount:     len(stream.Comments),
		ReactionCount:    len(stream.Reactions),
		Metadata:         meta,
	}
}

func copyMetadata(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return nil
	}
	cp := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		cp[k] = v
	}
	return cp
}
