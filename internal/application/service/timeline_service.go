package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/repository"
	"nft-activity-timeline/internal/domain/service"
	"nft-activity-timeline/internal/infrastructure/config"
	"nft-activity-timeline/internal/infrastructure/logger"
	"nft-activity-timeline/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecentEventsLimit is how many recent events are scanned for traded collections
const RecentEventsLimit = 300

// TimelineApplicationService implements the TimelineService interface
type TimelineApplicationService struct {
	resolver    repository.WalletResolver
	cache       repository.WalletCache
	events      repository.EventRepository
	collections repository.CollectionRepository
	normalizer  *service.EventNormalizer
	pageLength  int
	maxPages    int
	cacheTTL    time.Duration
	now         func() time.Time
	logger      *logger.Logger
}

var _ service.TimelineService = (*TimelineApplicationService)(nil)

// NewTimelineApplicationService creates a new timeline application service
func NewTimelineApplicationService(
	resolver repository.WalletResolver,
	cache repository.WalletCache,
	events repository.EventRepository,
	collections repository.CollectionRepository,
	cfg *config.Config,
	logger *logger.Logger,
) *TimelineApplicationService {
	return &TimelineApplicationService{
		resolver:    resolver,
		cache:       cache,
		events:      events,
		collections: collections,
		normalizer:  service.NewEventNormalizer(cfg.OpenSea.WebBaseURL, cfg.OpenSea.OrderMatcherUsername),
		pageLength:  cfg.App.PageLength,
		maxPages:    cfg.App.MaxPages,
		cacheTTL:    cfg.Redis.TTL,
		now:         time.Now,
		logger:      logger.WithComponent("timeline-service"),
	}
}

// Query loads pages 1..criteria.Page for the wallet and rebuilds the whole
// timeline from every loaded event
func (s *TimelineApplicationService) Query(ctx context.Context, criteria entity.SearchCriteria) (result *service.TimelineResult, err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.QueriesTotal.WithLabelValues(status).Inc()
		metrics.QueryLatency.Observe(time.Since(start).Seconds())
	}()

	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if criteria.Page > s.maxPages {
		return nil, fmt.Errorf("%w: page %d exceeds the maximum of %d", entity.ErrInvalidCriteria, criteria.Page, s.maxPages)
	}

	queryID := uuid.NewString()
	log := s.logger.WithQuery(queryID, criteria.Wallet)

	wallet, err := s.ResolveWallet(ctx, criteria.Wallet)
	if err != nil {
		return nil, err
	}

	raw, hasMore, err := s.loadPages(ctx, wallet.Address, criteria)
	if err != nil {
		return nil, err
	}

	// a superseded request is discarded rather than rendered
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	normalized := s.normalizer.Normalize(raw, wallet.Address)
	s.recordDrops(log, normalized.Dropped)
	for i := range normalized.Events {
		metrics.EventsClassified.WithLabelValues(string(normalized.Events[i].Action)).Inc()
	}

	timeline := service.BucketAndGroup(normalized.Events, s.now())

	log.Info("Built timeline",
		zap.String("address", wallet.Address),
		zap.Int("pages", criteria.Page),
		zap.Int("raw_records", len(raw)),
		zap.Int("events", len(normalized.Events)),
		zap.Int("dropped", len(normalized.Dropped)),
		zap.Int("buckets", len(timeline.Buckets)),
		zap.Duration("elapsed", time.Since(start)))

	return &service.TimelineResult{
		QueryID:      queryID,
		Wallet:       *wallet,
		Page:         criteria.Page,
		HasMore:      hasMore,
		EventCount:   len(normalized.Events),
		DroppedCount: len(normalized.Dropped),
		Timeline:     timeline,
	}, nil
}

// loadPages fetches pages sequentially into a fresh slice. It stops early
// on a short page since later offsets are empty.
func (s *TimelineApplicationService) loadPages(ctx context.Context, address string, criteria entity.SearchCriteria) ([]entity.RawEvent, bool, error) {
	var raw []entity.RawEvent
	hasMore := false

	for page := 1; page <= criteria.Page; page++ {
		batch, err := s.events.FetchEvents(ctx, repository.EventQuery{
			Address:         address,
			Limit:           s.pageLength,
			Offset:          s.pageLength * (page - 1),
			StartDate:       criteria.StartDate,
			EndDate:         criteria.EndDate,
			ContractAddress: criteria.ContractAddress,
			Filter:          criteria.Filter,
		})
		if err != nil {
			return nil, false, fmt.Errorf("failed to fetch events page %d: %w", page, err)
		}

		raw = append(raw, batch...)
		hasMore = len(batch) >= s.pageLength
		if !hasMore {
			break
		}
	}

	return raw, hasMore, nil
}

func (s *TimelineApplicationService) recordDrops(log *logger.Logger, dropped []service.DroppedRecord) {
	for _, d := range dropped {
		metrics.RecordsDropped.WithLabelValues(string(d.Reason)).Inc()

		var priceErr *entity.MalformedPriceError
		if errors.As(d.Err, &priceErr) {
			log.Warn("Dropped sale with malformed price",
				zap.Int("index", d.Index),
				zap.String("key", priceErr.Key),
				zap.String("raw_price", priceErr.Raw))
			continue
		}
		log.Debug("Dropped raw record", zap.Int("index", d.Index), zap.String("reason", string(d.Reason)))
	}
}

// ResolveWallet resolves an address or ENS name through the cache
func (s *TimelineApplicationService) ResolveWallet(ctx context.Context, input string) (*entity.Wallet, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("%w: wallet is required", entity.ErrInvalidCriteria)
	}

	cached, err := s.cache.Get(ctx, input)
	switch {
	case err != nil:
		metrics.WalletCacheLookups.WithLabelValues("error").Inc()
		s.logger.Warn("Wallet cache lookup failed", zap.String("input", input), zap.Error(err))
	case cached != nil:
		metrics.WalletCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.WalletCacheLookups.WithLabelValues("miss").Inc()
	}

	wallet, err := s.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve wallet %q: %w", input, err)
	}

	if err := s.cache.Set(ctx, input, wallet, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache wallet", zap.String("input", input), zap.Error(err))
	}

	s.logger.Debug("Resolved wallet",
		zap.String("input", input),
		zap.String("address", wallet.Address),
		zap.String("ens", wallet.ENS))
	return wallet, nil
}

// Collections lists held collections followed by collections seen in recent
// events, deduplicated by slug
func (s *TimelineApplicationService) Collections(ctx context.Context, input string) ([]entity.CollectionInfo, error) {
	wallet, err := s.ResolveWallet(ctx, input)
	if err != nil {
		return nil, err
	}

	var held []entity.CollectionInfo
	var recent []entity.RawEvent

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		held, err = s.collections.FetchHeldCollections(gctx, wallet.Address)
		if err != nil {
			return fmt.Errorf("failed to fetch held collections: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = s.events.FetchEvents(gctx, repository.EventQuery{
			Address: wallet.Address,
			Limit:   RecentEventsLimit,
		})
		if err != nil {
			return fmt.Errorf("failed to fetch recent events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mergeCollections(held, recent), nil
}

func mergeCollections(held []entity.CollectionInfo, recent []entity.RawEvent) []entity.CollectionInfo {
	seen := make(map[string]bool, len(held))
	merged := make([]entity.CollectionInfo, 0, len(held))

	for _, c := range held {
		seen[c.Slug] = true
		merged = append(merged, c)
	}

	for i := range recent {
		asset := recent[i].PrimaryAsset()
		if asset == nil || seen[asset.Collection.Slug] {
			continue
		}
		seen[asset.Collection.Slug] = true
		merged = append(merged, entity.CollectionInfo{
			Name:            asset.Collection.Name,
			Slug:            asset.Collection.Slug,
			ImgURL:          asset.Collection.ImageURL,
			ContractAddress: asset.ContractAddress,
			Holding:         "0",
		})
	}

	return merged
}

// Collection returns one collection, preferring the wallet's own listing
func (s *TimelineApplicationService) Collection(ctx context.Context, contractAddress, wallet string) (*entity.CollectionInfo, error) {
	contractAddress = strings.TrimSpace(contractAddress)
	if contractAddress == "" {
		return nil, fmt.Errorf("%w: contract address is required", entity.ErrInvalidCriteria)
	}

	if wallet != "" {
		listed, err := s.Collections(ctx, wallet)
		if err != nil {
			return nil, err
		}
		for i := range listed {
			if strings.EqualFold(listed[i].ContractAddress, contractAddress) {
				return &listed[i], nil
			}
		}
	}

	info, err := s.collections.FetchCollection(ctx, contractAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection %s: %w", contractAddress, err)
	}
	return info, nil
}
