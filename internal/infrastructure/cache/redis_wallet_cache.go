package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/repository"
	"nft-activity-timeline/internal/infrastructure/config"

	"github.com/redis/go-redis/v9"
)

const walletKeyPrefix = "wallet:"

// RedisWalletCache stores wallet resolutions in Redis with a TTL
type RedisWalletCache struct {
	client redis.UniversalClient
}

var _ repository.WalletCache = (*RedisWalletCache)(nil)

// NewRedisWalletCache creates a cache backed by the configured Redis instance
func NewRedisWalletCache(cfg *config.RedisConfig) *RedisWalletCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisWalletCache{client: client}
}

// NewRedisWalletCacheWithClient wraps an existing client
func NewRedisWalletCacheWithClient(client redis.UniversalClient) *RedisWalletCache {
	return &RedisWalletCache{client: client}
}

// Ping checks connectivity
func (r *RedisWalletCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (r *RedisWalletCache) Close() error {
	return r.client.Close()
}

// Get returns the cached wallet, or nil when the input was never resolved
// or the entry expired
func (r *RedisWalletCache) Get(ctx context.Context, input string) (*entity.Wallet, error) {
	data, err := r.client.Get(ctx, walletKey(input)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var wallet entity.Wallet
	if err := json.Unmarshal(data, &wallet); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return &wallet, nil
}

// Set stores a resolution. A zero ttl keeps the entry forever.
func (r *RedisWalletCache) Set(ctx context.Context, input string, wallet *entity.Wallet, ttl time.Duration) error {
	data, err := json.Marshal(wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	return r.client.Set(ctx, walletKey(input), data, ttl).Err()
}

// walletKey is case-insensitive
func walletKey(input string) string {
	return walletKeyPrefix + strings.ToLower(strings.TrimSpace(input))
}

// NoopWalletCache is used when Redis is disabled
type NoopWalletCache struct{}

var _ repository.WalletCache = NoopWalletCache{}

func (NoopWalletCache) Get(context.Context, string) (*entity.Wallet, error) {
	return nil, nil
}

func (NoopWalletCache) Set(context.Context, string, *entity.Wallet, time.Duration) error {
	return nil
}
