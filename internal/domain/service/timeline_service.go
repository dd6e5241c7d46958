package service

import (
	"context"

	"nft-activity-timeline/internal/domain/entity"
)

// TimelineResult is a wallet timeline together with the query that produced it
type TimelineResult struct {
	QueryID      string          `json:"query_id"`
	Wallet       entity.Wallet   `json:"wallet"`
	Page         int             `json:"page"`
	HasMore      bool            `json:"has_more"`
	EventCount   int             `json:"event_count"`
	DroppedCount int             `json:"dropped_count"`
	Timeline     entity.Timeline `json:"timeline"`
}

// TimelineService defines the operations exposed to renderers
type TimelineService interface {
	// Query resolves the wallet, loads pages 1..criteria.Page and returns the
	// bucketed and grouped timeline over all loaded events
	Query(ctx context.Context, criteria entity.SearchCriteria) (*TimelineResult, error)

	// ResolveWallet resolves an address or ENS name
	ResolveWallet(ctx context.Context, input string) (*entity.Wallet, error)

	// Collections lists collections held by or recently traded by a wallet
	Collections(ctx context.Context, input string) ([]entity.CollectionInfo, error)

	// Collection returns a single collection by contract address. When wallet
	// is set and already lists the contract, that entry is returned as is.
	Collection(ctx context.Context, contractAddress, wallet string) (*entity.CollectionInfo, error)
}
