package service

import (
	"fmt"
	"sort"
	"time"

	"nft-activity-timeline/internal/domain/entity"
)

const (
	bucketDays      = 7
	day             = 24 * time.Hour
	bucketDateLabel = "Jan 2, 2006"
)

// EventBucket is one weekly window of ungrouped events
type EventBucket struct {
	Index  int
	Label  string
	Start  time.Time
	End    time.Time
	Events []entity.NFTEvent
}

// BucketEvents partitions events into weekly windows counted back from now.
// Relative order is kept inside each bucket, buckets are ordered most recent
// first, and weeks without events produce no bucket.
func BucketEvents(events []entity.NFTEvent, now time.Time) []EventBucket {
	byIndex := make(map[int][]entity.NFTEvent)
	for _, event := range events {
		idx := bucketIndex(now, event.Timestamp)
		byIndex[idx] = append(byIndex[idx], event)
	}

	indexes := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	buckets := make([]EventBucket, 0, len(indexes))
	for _, idx := range indexes {
		start := now.Add(-time.Duration(idx+1) * bucketDays * day)
		end := now.Add(-time.Duration(idx) * bucketDays * day)
		buckets = append(buckets, EventBucket{
			Index:  idx,
			Label:  bucketLabel(idx, start, end),
			Start:  start,
			End:    end,
			Events: byIndex[idx],
		})
	}
	return buckets
}

// bucketIndex returns floor(daysAgo / 7). Whole days are truncated, and
// future-dated events are clamped into the current week.
func bucketIndex(now, ts time.Time) int {
	daysAgo := int(now.Sub(ts) / day)
	if daysAgo < 0 {
		return 0
	}
	return daysAgo / bucketDays
}

func bucketLabel(idx int, start, end time.Time) string {
	endLabel := "Today"
	if idx > 0 {
		endLabel = end.Format(bucketDateLabel)
	}
	return fmt.Sprintf("%s - %s", start.Format(bucketDateLabel), endLabel)
}
