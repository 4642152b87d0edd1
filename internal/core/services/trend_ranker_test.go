package services

import (
	"testing"
	"time"

	"newspulse/internal/core/domain"
	"newspulse/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTrackerAndRanker(t *testing.T) (*activityTracker, ports.TrendRanker) {
	t.Helper()
	tracker := NewActivityTracker(NewRegionIndex(), zaptest.NewLogger(t).Sugar())
	return tracker, NewTrendRanker(tracker)
}

func TestTrendingNews_OrdersByScoreAndTruncates(t *testing.T) {
	tracker, ranker := newTrackerAndRanker(t)

	// news-a: 2 comments = 20, news-b: 2 shares = 30, news-c: 10 views = 10
	tracker.Track("news-a", "comment", domain.TrackOptions{})
	tracker.Track("news-a", "comment", domain.TrackOptions{})
	tracker.Track("news-b", "share", domain.TrackOptions{})
	tracker.Track("news-b", "share", domain.TrackOptions{})
	for i := 0; i < 10; i++ {
		tracker.Track("news-c", "view", domain.TrackOptions{})
	}

	top := ranker.TrendingNews(ports.TrendQuery{Timeframe: "lastHour", Limit: 2})
	require.Len(t, top, 2)
	assert.Equal(t, domain.ContentID("news-b"), top[0].ContentID)
	assert.Equal(t, domain.ContentID("news-a"), top[1].ContentID)
	assert.Equal(t, 30.0, top[0].Score)
	assert.Equal(t, 20.0, top[1].Score)
}

func TestTrendingNews_UnknownTimeframeFallsBackToTotal(t *testing.T) {
	tracker, ranker := newTrackerAndRanker(t)

	tracker.Track("news-a", "like", domain.TrackOptions{})

	top := ranker.TrendingNews(ports.TrendQuery{Timeframe: "lastFortnight"})
	require.Len(t, top, 1)
	// Fresh like: total = (3+2+1)*5
	assert.Equal(t, 30.0, top[0].Score)
}

func TestTrendingNews_RegionFilterMatchesOnPresence(t *testing.T) {
	tracker, ranker := newTrackerAndRanker(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	tracker.SetNowFunc(func() time.Time { return current })

	// A regional hit 23 hours ago still passes the filter: presence is
	// cumulative, only the 24h prune removes it.
	tracker.Track("news-a", "view", domain.TrackOptions{Region: "Berlin"})

	current = base.Add(23 * time.Hour)
	tracker.Track("news-b", "view", domain.TrackOptions{Region: "Hamburg"})

	top := ranker.TrendingNews(ports.TrendQuery{Region: "Berlin"})
	require.Len(t, top, 1)
	assert.Equal(t, domain.ContentID("news-a"), top[0].ContentID)

	assert.Empty(t, ranker.TrendingNews(ports.TrendQuery{Region: "Munich"}))
}

func TestTrendingNews_DefaultLimit(t *testing.T) {
	tracker, ranker := newTrackerAndRanker(t)

	for i := 0; i < 15; i++ {
		tracker.Track(domain.ContentID(string(rune('a'+i))), "view", domain.TrackOptions{})
	}

	top := ranker.TrendingNews(ports.TrendQuery{})
	assert.Len(t, top, defaultTrendLimit)
}

func TestTrendingNews_EmptySource(t *testing.T) {
	_, ranker := newTrackerAndRanker(t)
	assert.Empty(t, ranker.TrendingNews(ports.TrendQuery{Timeframe: "last15m"}))
}
