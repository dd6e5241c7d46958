package entity

import (
	"math/big"
	"time"
)

// RunGroup is a maximal contiguous run of events sharing collection and action
type RunGroup struct {
	CollectionName string     `json:"collection_name"`
	Action         Action     `json:"action"`
	Events         []NFTEvent `json:"events"`
}

// Len returns the number of events in the run
func (g *RunGroup) Len() int {
	return len(g.Events)
}

// Collapsed reports whether a renderer should show the run as a single
// summary card. Runs at or below groupingMin are shown expanded.
func (g *RunGroup) Collapsed(groupingMin int) bool {
	return len(g.Events) > groupingMin
}

// TotalPrice sums the wei prices of a Bought or Sold run.
// Returns nil for runs whose action carries no price.
func (g *RunGroup) TotalPrice() *big.Int {
	if !g.Action.IsTrade() {
		return nil
	}
	total := new(big.Int)
	for i := range g.Events {
		if g.Events[i].Price != nil {
			total.Add(total, g.Events[i].Price)
		}
	}
	return total
}

// TotalPriceEth converts TotalPrice to whole ETH by integer division
func (g *RunGroup) TotalPriceEth() *big.Int {
	total := g.TotalPrice()
	if total == nil {
		return nil
	}
	return total.Quo(total, weiPerEth)
}

// TimeBucket is one weekly window of the timeline.
// Index counts weeks back from now, 0 being the current week.
type TimeBucket struct {
	Index  int        `json:"index"`
	Label  string     `json:"label"`
	Start  time.Time  `json:"start"`
	End    time.Time  `json:"end"`
	Groups []RunGroup `json:"groups"`
}

// EventCount returns the number of events across all groups
func (b *TimeBucket) EventCount() int {
	n := 0
	for i := range b.Groups {
		n += b.Groups[i].Len()
	}
	return n
}

// Timeline is the nested bucket/group view, most recent bucket first
type Timeline struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Buckets     []TimeBucket `json:"buckets"`
}

// Events flattens the timeline back into event order
func (t *Timeline) Events() []NFTEvent {
	var events []NFTEvent
	for _, b := range t.Buckets {
		for _, g := range b.Groups {
			events = append(events, g.Events...)
		}
	}
	return events
}
