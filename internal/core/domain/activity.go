package domain

import "time"

type ContentID string
type ActivityType string

const (
	ActivityView    ActivityType = "view"
	ActivityLike    ActivityType = "like"
	ActivityComment ActivityType = "comment"
	ActivityShare   ActivityType = "share"

	// ActivityOther is the normalized bucket for unrecognized activity
	// types. Keeping the set closed prevents typos from minting new
	// counter buckets.
	ActivityOther ActivityType = "other"
)

// ParseActivityType maps a raw string onto the closed activity-type set.
// Unknown values normalize to ActivityOther.
func ParseActivityType(raw string) ActivityType {
	switch ActivityType(raw) {
	case ActivityView, ActivityLike, ActivityComment, ActivityShare:
		return ActivityType(raw)
	default:
		return ActivityOther
	}
}

// Weight returns the scoring weight of an activity type.
func (t ActivityType) Weight() float64 {
	switch t {
	case ActivityView:
		return 1
	case ActivityLike:
		return 5
	case ActivityComment:
		return 10
	case ActivityShare:
		return 15
	default:
		return 1
	}
}

// ActivityRecord is one ingested activity event. Records are never mutated
// and are pruned once older than the longest tracked window (24h).
type ActivityRecord struct {
	ContentID ContentID
	Type      ActivityType
	ActorID   string
	Region    string
	At        time.Time
}

// TrackOptions carries the optional attribution of an activity event.
type TrackOptions struct {
	ActorID string
	Region  string
}
