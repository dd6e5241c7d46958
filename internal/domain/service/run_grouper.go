package service

import (
	"time"

	"nft-activity-timeline/internal/domain/entity"
)

// GroupRuns collapses consecutive events sharing collection name and action.
// Events are never reordered, so two runs of the same collection separated by
// another collection stay distinct.
func GroupRuns(events []entity.NFTEvent) []entity.RunGroup {
	var groups []entity.RunGroup

	for _, event := range events {
		last := len(groups) - 1
		if last >= 0 &&
			groups[last].CollectionName == event.CollectionName &&
			groups[last].Action == event.Action {
			groups[last].Events = append(groups[last].Events, event)
			continue
		}

		groups = append(groups, entity.RunGroup{
			CollectionName: event.CollectionName,
			Action:         event.Action,
			Events:         []entity.NFTEvent{event},
		})
	}

	return groups
}

// BucketAndGroup builds the full timeline view: weekly buckets, each split
// into runs. It is recomputed from scratch on every call.
func BucketAndGroup(events []entity.NFTEvent, now time.Time) entity.Timeline {
	weeks := BucketEvents(events, now)

	buckets := make([]entity.TimeBucket, 0, len(weeks))
	for _, week := range weeks {
		buckets = append(buckets, entity.TimeBucket{
			Index:  week.Index,
			Label:  week.Label,
			Start:  week.Start,
			End:    week.End,
			Groups: GroupRuns(week.Events),
		})
	}

	return entity.Timeline{
		GeneratedAt: now,
		Buckets:     buckets,
	}
}
