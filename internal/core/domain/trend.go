package domain

import "time"

// Timeframe names one of the tracked scoring windows.
type Timeframe string

const (
	TimeframeLast15m  Timeframe = "last15m"
	TimeframeLastHour Timeframe = "lastHour"
	TimeframeLast24h  Timeframe = "last24h"
	TimeframeTotal    Timeframe = "total"
)

// Window returns the duration covered by the timeframe. Total has no
// window of its own; it is a blend of the other three.
func (tf Timeframe) Window() time.Duration {
	switch tf {
	case TimeframeLast15m:
		return 15 * time.Minute
	case TimeframeLastHour:
		return time.Hour
	case TimeframeLast24h:
		return 24 * time.Hour
	default:
		return 0
	}
}

// ParseTimeframe validates a raw timeframe string. Invalid values fall
// back to TimeframeTotal rather than erroring; callers that care can
// compare the result against the input.
func ParseTimeframe(raw string) Timeframe {
	switch Timeframe(raw) {
	case TimeframeLast15m, TimeframeLastHour, TimeframeLast24h, TimeframeTotal:
		return Timeframe(raw)
	default:
		return TimeframeTotal
	}
}

// ScoreWindows lists the three real windows contributing to the total,
// in blend order. Total blend weights are 3:2:1.
var ScoreWindows = []Timeframe{TimeframeLast15m, TimeframeLastHour, TimeframeLast24h}

// TrendEntry is the per-content aggregate: the bounded recent activity
// list, counts by type, counts by region and the current window scores.
type TrendEntry struct {
	ContentID    ContentID
	Records      []ActivityRecord
	Counts       map[ActivityType]int
	Regions      map[string]int
	Scores       map[Timeframe]float64
	LastActivity time.Time
}

// RegionCount pairs a region name with its activity count for one entry.
type RegionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TrendSnapshot is the sanitized read model handed to callers; it never
// aliases the tracker's internal maps.
type TrendSnapshot struct {
	ContentID      ContentID             `json:"newsId"`
	Score          float64               `json:"score"`
	Scores         map[Timeframe]float64 `json:"scores"`
	ActivityCounts map[ActivityType]int  `json:"activityCounts"`
	RegionActivity []RegionCount         `json:"regionActivity"`
}

// RegionSummary is the read model of one entry in the region activity
// index. Count is cumulative and never decays.
type RegionSummary struct {
	Name         string    `json:"name"`
	Count        int64     `json:"count"`
	NewsItems    int       `json:"newsItems"`
	LastActivity time.Time `json:"lastActivity"`
}
