package opensea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/repository"
	"nft-activity-timeline/internal/infrastructure/config"
	"nft-activity-timeline/internal/infrastructure/logger"
	"nft-activity-timeline/internal/infrastructure/metrics"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	endpointEvents      = "events"
	endpointCollections = "collections"
	endpointAsset       = "asset"

	// HeldCollectionsLimit is the page size used when listing held collections
	HeldCollectionsLimit = 300
)

// Client provides access to the OpenSea v1 API
type Client struct {
	apiBaseURL string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
	logger     *logger.Logger
}

var (
	_ repository.EventRepository      = (*Client)(nil)
	_ repository.CollectionRepository = (*Client)(nil)
)

// NewClient creates a new OpenSea client
func NewClient(cfg *config.OpenSeaConfig, log *logger.Logger) *Client {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Client{
		apiBaseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     log.WithComponent("opensea-client"),
	}
}

// FetchEvents retrieves one page of asset events for an account
func (c *Client) FetchEvents(ctx context.Context, query repository.EventQuery) ([]entity.RawEvent, error) {
	params := url.Values{}
	params.Set("account_address", query.Address)
	params.Set("only_opensea", "false")
	params.Set("offset", strconv.Itoa(query.Offset))
	params.Set("limit", strconv.Itoa(query.Limit))
	if query.StartDate != "" {
		params.Set("occurred_after", query.StartDate+"T00:00:00")
	}
	if query.EndDate != "" {
		params.Set("occurred_before", query.EndDate+"T00:00:00")
	}
	if query.ContractAddress != "" {
		params.Set("asset_contract_address", query.ContractAddress)
	}
	if query.Filter != "" {
		params.Set("event_type", string(query.Filter))
	}

	var response EventsResponse
	if err := c.getJSON(ctx, endpointEvents, "/api/v1/events", params, &response); err != nil {
		return nil, err
	}

	events, failed := DecodeEvents(response.AssetEvents)
	for _, f := range failed {
		c.logger.Warn("Skipping undecodable asset event",
			zap.String("account", query.Address),
			zap.Int("offset", query.Offset),
			zap.Error(f))
	}

	c.logger.Debug("Fetched asset events",
		zap.String("account", query.Address),
		zap.Int("offset", query.Offset),
		zap.Int("received", len(response.AssetEvents)),
		zap.Int("decoded", len(events)))

	return events, nil
}

// FetchHeldCollections retrieves the collections in which owner holds assets
func (c *Client) FetchHeldCollections(ctx context.Context, owner string) ([]entity.CollectionInfo, error) {
	params := url.Values{}
	params.Set("asset_owner", owner)
	params.Set("offset", "0")
	params.Set("limit", strconv.Itoa(HeldCollectionsLimit))

	var response []APIHeldCollection
	if err := c.getJSON(ctx, endpointCollections, "/api/v1/collections", params, &response); err != nil {
		return nil, err
	}

	collections := make([]entity.CollectionInfo, 0, len(response))
	for i := range response {
		collections = append(collections, toHeldCollection(&response[i]))
	}
	return collections, nil
}

// FetchCollection looks up a collection through the first token of its contract
func (c *Client) FetchCollection(ctx context.Context, contractAddress string) (*entity.CollectionInfo, error) {
	path := fmt.Sprintf("/api/v1/asset/%s/1", url.PathEscape(contractAddress))

	var asset APIAsset
	if err := c.getJSON(ctx, endpointAsset, path, nil, &asset); err != nil {
		return nil, err
	}

	info := &entity.CollectionInfo{
		Name:            asset.Collection.Name,
		Slug:            asset.Collection.Slug,
		ImgURL:          deref(asset.Collection.ImageURL),
		ContractAddress: asset.AssetContract.Address,
		Holding:         "0",
	}
	if asset.Collection.Stats != nil {
		info.Floor = asset.Collection.Stats.FloorPrice
	}
	return info, nil
}

// Close releases idle keep-alive connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// getJSON performs a GET with rate limiting and retries, decoding the body into out
func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out interface{}) error {
	target := c.apiBaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			c.logger.Warn("Retrying marketplace request",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return &entity.NetworkError{Op: endpoint, Err: ctx.Err()}
			}
		}

		body, retryable, err := c.doRequest(ctx, endpoint, target)
		if err == nil {
			if err := json.Unmarshal(body, out); err != nil {
				return &entity.NetworkError{Op: endpoint, Err: fmt.Errorf("failed to decode response: %w", err)}
			}
			return nil
		}

		lastErr = err
		if !retryable {
			return err
		}
	}

	return lastErr
}

// doRequest performs one attempt. The bool reports whether a failure is transient.
func (c *Client) doRequest(ctx context.Context, endpoint, target string) ([]byte, bool, error) {
	if err := c.wait(ctx); err != nil {
		return nil, false, &entity.NetworkError{Op: endpoint, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, false, &entity.NetworkError{Op: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.OpenSeaLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OpenSeaRequests.WithLabelValues(endpoint, "network_error").Inc()
		// the caller gave up; retrying cannot help
		if ctx.Err() != nil {
			return nil, false, &entity.NetworkError{Op: endpoint, Err: ctx.Err()}
		}
		return nil, true, &entity.NetworkError{Op: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.OpenSeaRequests.WithLabelValues(endpoint, "network_error").Inc()
		return nil, true, &entity.NetworkError{Op: endpoint, StatusCode: resp.StatusCode, Err: err}
	}

	status := classifyStatus(resp.StatusCode)
	metrics.OpenSeaRequests.WithLabelValues(endpoint, status).Inc()

	switch status {
	case "ok":
		return body, false, nil
	case "rate_limited", "server_error":
		return nil, true, &entity.NetworkError{Op: endpoint, StatusCode: resp.StatusCode, Err: errors.New(snippet(body))}
	default:
		return nil, false, &entity.NetworkError{Op: endpoint, StatusCode: resp.StatusCode, Err: errors.New(snippet(body))}
	}
}

// wait blocks until the limiter grants a token, or ctx is done
func (c *Client) wait(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return errors.New("rate: cannot reserve token")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.OpenSeaRateLimitWaits.Inc()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		}
	}
	return nil
}

func classifyStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "ok"
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}

// snippet trims an error body for logs and error messages
func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	if s == "" {
		s = "empty response body"
	}
	return s
}
