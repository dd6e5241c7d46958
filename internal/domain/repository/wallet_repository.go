package repository

import (
	"context"
	"time"

	"nft-activity-timeline/internal/domain/entity"
)

// WalletResolver resolves user input into an observer wallet
type WalletResolver interface {
	// Resolve accepts a hex address or an ENS name. Names without a bound
	// address fail with entity.ErrWalletNotFound.
	Resolve(ctx context.Context, input string) (*entity.Wallet, error)
}

// WalletCache caches wallet resolutions
type WalletCache interface {
	// Get returns the cached wallet for input, or nil when absent
	Get(ctx context.Context, input string) (*entity.Wallet, error)

	// Set stores a resolution for the given TTL
	Set(ctx context.Context, input string, wallet *entity.Wallet, ttl time.Duration) error
}
