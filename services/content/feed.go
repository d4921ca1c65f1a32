package content

import (
	"sort"
	"time"
)

type Ordering string

const (
	// OrderRecent sorts by created_at, newest first.
	OrderRecent Ordering = "recent"
	// OrderStart sorts by start_at ascending. Undated records go last.
	OrderStart Ordering = "start"
)

// ParseOrdering falls back to OrderRecent for unknown values.
func ParseOrdering(s string) Ordering {
	if Ordering(s) == OrderStart {
		return OrderStart
	}
	return OrderRecent
}

type Partition string

const (
	PartitionOngoing  Partition = "ongoing"
	PartitionUpcoming Partition = "upcoming"
	PartitionPrevious Partition = "previous"
)

type Feed struct {
	Ongoing  []*Record `json:"ongoing"`
	Upcoming []*Record `json:"upcoming"`
	Previous []*Record `json:"previous"`
}

// Classify places a record relative to now. The ongoing rule is tested
// first, then upcoming, then previous; the first match wins, so records
// with an inverted range still land in exactly one partition.
func Classify(start, end *time.Time, now time.Time) Partition {
	s, e := start != nil, end != nil
	switch {
	case !s && !e,
		s && e && !start.After(now) && !end.Before(now),
		s && !e && !start.After(now),
		!s && e && !end.Before(now):
		return PartitionOngoing
	case s && start.After(now):
		return PartitionUpcoming
	default:
		return PartitionPrevious
	}
}

// ProjectFeed keeps only publicly visible records and partitions them.
// The input slice is not modified.
func ProjectFeed(records []*Record, now time.Time, order Ordering) Feed {
	feed := Feed{
		Ongoing:  []*Record{},
		Upcoming: []*Record{},
		Previous: []*Record{},
	}
	for _, r := range records {
		if !r.Visible() {
			continue
		}
		switch Classify(r.StartAt, r.EndAt, now) {
		case PartitionOngoing:
			feed.Ongoing = append(feed.Ongoing, r)
		case PartitionUpcoming:
			feed.Upcoming = append(feed.Upcoming, r)
		default:
			feed.Previous = append(feed.Previous, r)
		}
	}

	SortRecords(feed.Ongoing, order)
	SortRecords(feed.Upcoming, order)
	SortRecords(feed.Previous, order)
	return feed
}

// SortRecords sorts in place. Pinned records are not floated; callers that
// want that filter on pinned.
func SortRecords(records []*Record, order Ordering) {
	less := byRecent
	if order == OrderStart {
		less = byStart
	}
	sort.SliceStable(records, func(i, j int) bool {
		return less(records[i], records[j])
	})
}

func byRecent(a, b *Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func byStart(a, b *Record) bool {
	switch {
	case a.StartAt == nil && b.StartAt == nil:
		return byRecent(a, b)
	case a.StartAt == nil:
		return false
	case b.StartAt == nil:
		return true
	case !a.StartAt.Equal(*b.StartAt):
		return a.StartAt.Before(*b.StartAt)
	default:
		return byRecent(a, b)
	}
}
