package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func published(id string, start, end *time.Time) *Record {
	return &Record{ID: id, Kind: KindEvent, Status: StatusPublished, Origin: OriginOwner, StartAt: start, EndAt: end}
}

func ids(records []*Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestProjectFeedScenarios(t *testing.T) {
	now := *at("2025-01-05")

	feed := ProjectFeed([]*Record{
		published("running", at("2025-01-01"), at("2025-01-10")),
		published("future", at("2025-02-01"), nil),
		published("undated", nil, nil),
		published("past", nil, at("2025-01-02")),
	}, now, OrderRecent)

	require.ElementsMatch(t, []string{"running", "undated"}, ids(feed.Ongoing))
	require.Equal(t, []string{"future"}, ids(feed.Upcoming))
	require.Equal(t, []string{"past"}, ids(feed.Previous))
}

func TestProjectFeedSkipsHiddenRecords(t *testing.T) {
	now := *at("2025-01-05")
	records := []*Record{published("visible", nil, nil)}
	for _, s := range []Status{StatusDraft, StatusPending, StatusRejected, StatusExpired} {
		records = append(records, &Record{ID: string(s), Status: s})
	}

	feed := ProjectFeed(records, now, OrderRecent)
	require.Equal(t, []string{"visible"}, ids(feed.Ongoing))
	require.Empty(t, feed.Upcoming)
	require.Empty(t, feed.Previous)
}

func TestPartitionIsDisjointAndExhaustive(t *testing.T) {
	now := *at("2025-06-15")
	instants := []*time.Time{nil, at("2025-01-01"), at("2025-06-15"), at("2025-12-31")}

	var records []*Record
	for i, s := range instants {
		for j, e := range instants {
			records = append(records, published(string(rune('a'+i))+string(rune('a'+j)), s, e))
		}
	}

	feed := ProjectFeed(records, now, OrderRecent)
	seen := map[string]int{}
	for _, part := range [][]*Record{feed.Ongoing, feed.Upcoming, feed.Previous} {
		for _, r := range part {
			seen[r.ID]++
		}
	}
	require.Len(t, seen, len(records))
	for id, n := range seen {
		require.Equal(t, 1, n, "record %s placed %d times", id, n)
	}
}

func TestClassifyInvertedRange(t *testing.T) {
	now := *at("2025-06-15")
	require.Equal(t, PartitionUpcoming, Classify(at("2025-07-01"), at("2025-05-01"), now))
	require.Equal(t, PartitionOngoing, Classify(nil, nil, now))
	require.Equal(t, PartitionOngoing, Classify(at("2025-06-15"), at("2025-06-15"), now), "bounds are inclusive")
	require.Equal(t, PartitionOngoing, Classify(nil, at("2025-06-20"), now))
	require.Equal(t, PartitionPrevious, Classify(at("2025-01-01"), at("2025-02-01"), now))
}

func TestFeedOrderings(t *testing.T) {
	now := *at("2025-01-05")
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	old := published("old", at("2025-03-01"), nil)
	old.CreatedAt = base
	mid := published("mid", nil, nil)
	mid.CreatedAt = base.Add(time.Hour)
	fresh := published("fresh", at("2025-02-01"), nil)
	fresh.CreatedAt = base.Add(2 * time.Hour)
	undatedNew := published("undated-new", nil, nil)
	undatedNew.CreatedAt = base.Add(3 * time.Hour)

	input := []*Record{old, mid, fresh, undatedNew}

	recent := ProjectFeed(input, now, OrderRecent)
	require.Equal(t, []string{"fresh", "old"}, ids(recent.Upcoming))
	require.Equal(t, []string{"undated-new", "mid"}, ids(recent.Ongoing))

	byStart := ProjectFeed(input, now, OrderStart)
	require.Equal(t, []string{"fresh", "old"}, ids(byStart.Upcoming))

	all := []*Record{old, mid, fresh, undatedNew}
	SortRecords(all, OrderStart)
	require.Equal(t, []string{"fresh", "old", "undated-new", "mid"}, ids(all))
	require.Equal(t, []string{"old", "mid", "fresh", "undated-new"}, ids(input), "input order untouched")
}

func TestParseOrdering(t *testing.T) {
	require.Equal(t, OrderStart, ParseOrdering("start"))
	require.Equal(t, OrderRecent, ParseOrdering("recent"))
	require.Equal(t, OrderRecent, ParseOrdering(""))
	require.Equal(t, OrderRecent, ParseOrdering("bogus"))
}

func TestFilter(t *testing.T) {
	food := published("food", nil, nil)
	food.Category = "food"
	food.Pinned = true
	art := published("art", nil, nil)
	art.Category = "art"

	f, err := CompileFilter(`category == "food" && pinned`)
	require.NoError(t, err)
	require.Equal(t, []string{"food"}, ids(f.Apply([]*Record{food, art})))

	none, err := CompileFilter("")
	require.NoError(t, err)
	require.Nil(t, none)
	require.Len(t, none.Apply([]*Record{food, art}), 2)

	_, err = CompileFilter(`category + 1`)
	require.Error(t, err)

	_, err = CompileFilter(`title`)
	require.Error(t, err, "non-bool expressions are rejected")
}
