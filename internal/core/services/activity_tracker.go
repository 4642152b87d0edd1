package services

import (
	"sort"
	"sync"
	"time"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"

	"go.uber.org/zap"
)

// retentionWindow bounds how long raw activity records are kept. Anything
// older contributes to no score and is pruned amortized on the next track
// call for the same content id.
const retentionWindow = 24 * time.Hour

// Blend weights for the total score: 3*last15m + 2*lastHour + 1*last24h.
// Windows are nested, so a fresh event counts in all three sums.
var totalBlend = map[domain.Timeframe]float64{
	domain.TimeframeLast15m:  3,
	domain.TimeframeLastHour: 2,
	domain.TimeframeLast24h:  1,
}

type activityTracker struct {
	mu      sync.RWMutex
	entries map[domain.ContentID]*domain.TrendEntry

	regions ports.RegionIndex
	logger  *zap.SugaredLogger
	now     func() time.Time
}

// NewActivityTracker builds an empty tracker. The region index receives
// every regional event seen by the ingestion path.
func NewActivityTracker(regions ports.RegionIndex, logger *zap.SugaredLogger) *activityTracker {
	return &activityTracker{
		entries: make(map[domain.ContentID]*domain.TrendEntry),
		regions: regions,
		logger:  logger,
		now:     time.Now,
	}
}

// SetNowFunc replaces the clock, used by tests to simulate old events.
func (t *activityTracker) SetNowFunc(now func() time.Time) {
	t.now = now
}

func (t *activityTracker) Track(contentID domain.ContentID, activityType string, opts domain.TrackOptions) *domain.TrendSnapshot {
	if contentID == "" {
		return nil
	}

	typ := domain.ParseActivityType(activityType)
	now := t.now()

	t.mu.Lock()
	entry, exists := t.entries[contentID]
	if !exists {
		entry = &domain.TrendEntry{
			ContentID: contentID,
			Counts:    make(map[domain.ActivityType]int),
			Regions:   make(map[string]int),
			Scores:    make(map[domain.Timeframe]float64),
		}
		t.entries[contentID] = entry
	}

	entry.Records = append(entry.Records, domain.ActivityRecord{
		ContentID: contentID,
		Type:      typ,
		ActorID:   opts.ActorID,
		Region:    opts.Region,
		At:        now,
	})
	entry.Counts[typ]++
	if opts.Region != "" {
		entry.Regions[opts.Region]++
	}
	entry.LastActivity = now

	pruneRecords(entry, now)
	recomputeScores(entry, now)

	snap := snapshotEntry(entry)
	t.mu.Unlock()

	if opts.Region != "" && t.regions != nil {
		t.regions.RecordActivity(opts.Region, contentID, now)
	}

	t.logger.Debugw("tracked activity",
		"content_id", contentID,
		"type", typ,
		"region", opts.Region,
		"total_score", snap.Scores[domain.TimeframeTotal],
	)

	return snap
}

func (t *activityTracker) Snapshot(contentID domain.ContentID) *domain.TrendSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, exists := t.entries[contentID]
	if !exists {
		return nil
	}
	return snapshotEntry(entry)
}

// EntriesSnapshot hands the ranker detached copies of every entry.
func (t *activityTracker) EntriesSnapshot() []domain.TrendEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.TrendEntry, 0, len(t.entries))
	for _, entry := range t.entries {
		out = append(out, copyEntry(entry))
	}
	return out
}

// EvictStale removes entries with no activity for the given duration.
// Returns the number of evicted entries.
func (t *activityTracker) EvictStale(inactiveFor time.Duration) int {
	cutoff := t.now().Add(-inactiveFor)

	t.mu.Lock()
	defer t.mu.Unlock()

	evicted := 0
	for id, entry := range t.entries {
		if entry.LastActivity.Before(cutoff) {
			delete(t.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		t.logger.Infow("evicted stale trend entries", "count", evicted)
	}
	return evicted
}

func pruneRecords(entry *domain.TrendEntry, now time.Time) {
	cutoff := now.Add(-retentionWindow)
	kept := entry.Records[:0]
	for _, rec := range entry.Records {
		if rec.At.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	entry.Records = kept
}

func recomputeScores(entry *domain.TrendEntry, now time.Time) {
	total := 0.0
	for _, tf := range domain.ScoreWindows {
		cutoff := now.Add(-tf.Window())
		sum := 0.0
		for _, rec := range entry.Records {
			if rec.At.After(cutoff) {
				sum += rec.Type.Weight()
			}
		}
		entry.Scores[tf] = sum
		total += totalBlend[tf] * sum
	}
	entry.Scores[domain.TimeframeTotal] = total
}

func snapshotEntry(entry *domain.TrendEntry) *domain.TrendSnapshot {
	counts := make(map[domain.ActivityType]int, len(entry.Counts))
	for k, v := range entry.Counts {
		counts[k] = v
	}
	scores := make(map[domain.Timeframe]float64, len(entry.Scores))
	for k, v := range entry.Scores {
		scores[k] = v
	}

	regions := make([]domain.RegionCount, 0, len(entry.Regions))
	for name, count := range entry.Regions {
		regions = append(regions, domain.RegionCount{Name: name, Count: count})
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].Count != regions[j].Count {
			return regions[i].Count > regions[j].Count
		}
		return regions[i].Name < regions[j].Name
	})

	return &domain.TrendSnapshot{
		ContentID:      entry.ContentID,
		Score:          scores[domain.TimeframeTotal],
		Scores:         scores,
		ActivityCounts: counts,
		RegionActivity: regions,
	}
}

func copyEntry(entry *domain.TrendEntry) domain.TrendEntry {
	cp := domain.TrendEntry{
		ContentID:    entry.ContentID,
		Records:      append([]domain.ActivityRecord(nil), entry.Records...),
		Counts:       make(map[domain.ActivityType]int, len(entry.Counts)),
		Regions:      make(map[string]int, len(entry.Regions)),
		Scores:       make(map[domain.Timeframe]float64, len(entry.Scores)),
		LastActivity: entry.LastActivity,
	}
	for k, v := range entry.Counts {
		cp.Counts[k] = v
	}
	for k, v := range entry.Regions {
		cp.Regions[k] = v
	}
	for k, v := range entry.Scores {
		cp.Scores[k] = v
	}
	return cp
}
