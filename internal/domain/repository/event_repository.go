package repository

import (
	"context"

	"nft-activity-timeline/internal/domain/entity"
)

// EventQuery is one page request against the marketplace event feed.
// Filters are applied server-side.
type EventQuery struct {
	Address         string
	Limit           int
	Offset          int
	StartDate       string // YYYY-MM-DD, optional
	EndDate         string // YYYY-MM-DD, optional
	ContractAddress string
	Filter          entity.EventType
}

// EventRepository fetches raw marketplace events
type EventRepository interface {
	// FetchEvents retrieves one page of raw events for a wallet, newest first
	FetchEvents(ctx context.Context, query EventQuery) ([]entity.RawEvent, error)
}

// CollectionRepository fetches collection metadata
type CollectionRepository interface {
	// FetchHeldCollections retrieves collections in which owner holds assets
	FetchHeldCollections(ctx context.Context, owner string) ([]entity.CollectionInfo, error)

	// FetchCollection retrieves a single collection by asset contract address
	FetchCollection(ctx context.Context, contractAddress string) (*entity.CollectionInfo, error)
}
