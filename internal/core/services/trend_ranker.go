package services

import (
	"sort"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"
)

const defaultTrendLimit = 10

type trendRanker struct {
	source ports.TrendSource
}

func NewTrendRanker(source ports.TrendSource) ports.TrendRanker {
	return &trendRanker{source: source}
}

// TrendingNews returns the top entries for the selected timeframe.
// Unknown timeframes degrade to total without erroring. The region
// filter matches on raw presence in the entry's region counts, not on
// recent regional activity: one hit 23 hours ago still matches as long
// as the record survives the 24h prune.
func (r *trendRanker) TrendingNews(q ports.TrendQuery) []domain.TrendSnapshot {
	timeframe := domain.ParseTimeframe(q.Timeframe)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultTrendLimit
	}

	entries := r.source.EntriesSnapshot()

	filtered := entries[:0]
	for _, entry := range entries {
		if q.Region != "" && entry.Regions[q.Region] == 0 {
			continue
		}
		filtered = append(filtered, entry)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Scores[timeframe] > filtered[j].Scores[timeframe]
	})

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	out := make([]domain.TrendSnapshot, 0, len(filtered))
	for i := range filtered {
		snap := snapshotEntry(&filtered[i])
		snap.Score = snap.Scores[timeframe]
		out = append(out, *snap)
	}
	return out
}
