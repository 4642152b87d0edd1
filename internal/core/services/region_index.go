package services

import (
	"sort"
	"sync"
	"time"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
)

const (
	defaultRegionLimit  = 10
	defaultActiveWithin = 60 * time.Minute
)

type regionStats struct {
	count        int64
	items        map[domain.ContentID]struct{}
	lastActivity time.Time
}

type regionIndex struct {
	mu      sync.RWMutex
	regions map[string]*regionStats
	now     func() time.Time
}

func NewRegionIndex() *regionIndex {
	return &regionIndex{
		regions: make(map[string]*regionStats),
		now:     time.Now,
	}
}

func (r *regionIndex) SetNowFunc(now func() time.Time) {
	r.now = now
}

func (r *regionIndex) RecordActivity(region string, contentID domain.ContentID, at time.Time) {
	if region == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stats, exists := r.regions[region]
	if !exists {
		stats = &regionStats{items: make(map[domain.ContentID]struct{})}
		r.regions[region] = stats
	}
	stats.count++
	stats.items[contentID] = struct{}{}
	if at.After(stats.lastActivity) {
		stats.lastActivity = at
	}
}

// ActiveRegions returns regions with activity inside the recency window,
// ordered by raw cumulative count. The count deliberately never decays:
// a historically huge region outranks a quieter recent one as long as it
// passes the recency gate.
func (r *regionIndex) ActiveRegions(q ports.RegionQuery) []domain.RegionSummary {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultRegionLimit
	}
	activeWithin := q.ActiveWithin
	if activeWithin <= 0 {
		activeWithin = defaultActiveWithin
	}
	cutoff := r.now().Add(-activeWithin)

	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]domain.RegionSummary, 0, len(r.regions))
	for name, stats := range r.regions {
		if stats.lastActivity.Before(cutoff) {
			continue
		}
		summaries = append(summaries, domain.RegionSummary{
			Name:         name,
			Count:        stats.count,
			NewsItems:    len(stats.items),
			LastActivity: stats.lastActivity,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Name < summaries[j].Name
	})

	if len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}

// TrackedRegions reports how many regions the index currently holds,
// regardless of recency. Used for gauge reporting.
func (r *regionIndex) TrackedRegions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.regions)
}

func (r *regionIndex) RegionCount(name string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if stats, exists := r.regions[name]; exists {
		return stats.count
	}
	return 0
}
