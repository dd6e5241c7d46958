package fiber_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nft-activity-timeline/internal/application/dto"
	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/service"
	"nft-activity-timeline/internal/infrastructure/config"
	httpadapter "nft-activity-timeline/internal/infrastructure/http/fiber"
	"nft-activity-timeline/internal/infrastructure/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimelineService records the last call and returns canned results
type fakeTimelineService struct {
	QueryFn        func(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error)
	lastCriteria   entity.SearchCriteria
	lastContract   string
	lastWallet     string
	resolveErr     error
	collections    []entity.CollectionInfo
	collectionsErr error
}

func (f *fakeTimelineService) Query(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
	f.lastCriteria = c
	return f.QueryFn(ctx, c)
}

func (f *fakeTimelineService) ResolveWallet(ctx context.Context, input string) (*entity.Wallet, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	return &entity.Wallet{Address: "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045", ENS: input}, nil
}

func (f *fakeTimelineService) Collections(ctx context.Context, input string) ([]entity.CollectionInfo, error) {
	return f.collections, f.collectionsErr
}

func (f *fakeTimelineService) Collection(ctx context.Context, contract, wallet string) (*entity.CollectionInfo, error) {
	f.lastContract = contract
	f.lastWallet = wallet
	return &entity.CollectionInfo{Name: "Apes", Slug: "apes", ContractAddress: contract, Holding: "0"}, nil
}

func setupApp(t *testing.T, svc service.TimelineService) *fiber.App {
	t.Helper()
	return setupAppWithConfig(t, svc, &config.HTTPConfig{
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		RequestTimeout: 5 * time.Second,
	})
}

func setupAppWithConfig(t *testing.T, svc service.TimelineService, cfg *config.HTTPConfig) *fiber.App {
	t.Helper()
	handler := httpadapter.NewTimelineHandler(svc, 3, logger.NewNop())
	return httpadapter.NewServer(cfg, handler, logger.NewNop()).App()
}

func doGet(t *testing.T, app *fiber.App, target string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func sampleResult() *service.TimelineResult {
	now := time.Date(2021, time.October, 20, 12, 0, 0, 0, time.UTC)
	events := []entity.NFTEvent{
		{Key: "0x11", Action: entity.ActionMinted, CollectionName: "Passes", Timestamp: now.Add(-time.Hour)},
		{Key: "0x22", Action: entity.ActionMinted, CollectionName: "Passes", Timestamp: now.Add(-2 * time.Hour)},
	}
	return &service.TimelineResult{
		QueryID:    "q-1",
		Wallet:     entity.Wallet{Address: "0xabc", ENS: "abc.eth"},
		Page:       2,
		HasMore:    true,
		EventCount: 2,
		Timeline:   service.BucketAndGroup(events, now),
	}
}

func TestGetTimeline_Success(t *testing.T) {
	svc := &fakeTimelineService{
		QueryFn: func(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
			return sampleResult(), nil
		},
	}
	app := setupApp(t, svc)

	resp, body := doGet(t, app, "/v1/timeline?wallet=abc&page=2&filter=transfer&start_date=2021-09-01&contract_address=0xc0c0")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	assert.Equal(t, "abc", svc.lastCriteria.Wallet)
	assert.Equal(t, 2, svc.lastCriteria.Page)
	assert.Equal(t, entity.EventTypeTransfer, svc.lastCriteria.Filter)
	assert.Equal(t, "2021-09-01", svc.lastCriteria.StartDate)
	assert.Equal(t, "0xc0c0", svc.lastCriteria.ContractAddress)

	var got dto.TimelineResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "q-1", got.QueryID)
	assert.Equal(t, "abc.eth", got.Wallet.DisplayName)
	assert.True(t, got.HasMore)
	assert.Equal(t, 3, got.GroupingMin)
	require.Len(t, got.Buckets, 1)
	assert.Equal(t, "Oct 13, 2021 - Today", got.Buckets[0].Label)
	require.Len(t, got.Buckets[0].Groups, 1)
	assert.Equal(t, 2, got.Buckets[0].Groups[0].Count)
	assert.False(t, got.Buckets[0].Groups[0].Collapsed)
}

func TestGetTimeline_DefaultsPage(t *testing.T) {
	svc := &fakeTimelineService{
		QueryFn: func(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
			return sampleResult(), nil
		},
	}
	app := setupApp(t, svc)

	resp, _ := doGet(t, app, "/v1/timeline?wallet=abc")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, svc.lastCriteria.Page)
}

func TestGetTimeline_ContextHasDeadline(t *testing.T) {
	var queryCtx context.Context
	svc := &fakeTimelineService{
		QueryFn: func(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
			queryCtx = ctx
			deadline, ok := ctx.Deadline()
			assert.True(t, ok, "query context must carry a deadline")
			assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
			assert.NoError(t, ctx.Err())
			return sampleResult(), nil
		},
	}
	app := setupApp(t, svc)

	resp, _ := doGet(t, app, "/v1/timeline?wallet=abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NotNil(t, queryCtx)
	assert.ErrorIs(t, queryCtx.Err(), context.Canceled, "context is released once the request completes")
}

func TestGetTimeline_ContextCancellableWithoutTimeout(t *testing.T) {
	var queryCtx context.Context
	svc := &fakeTimelineService{
		QueryFn: func(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
			queryCtx = ctx
			_, ok := ctx.Deadline()
			assert.False(t, ok)
			assert.NotNil(t, ctx.Done())
			return sampleResult(), nil
		},
	}
	app := setupAppWithConfig(t, svc, &config.HTTPConfig{ReadTimeout: time.Second, WriteTimeout: time.Second})

	resp, _ := doGet(t, app, "/v1/timeline?wallet=abc")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, queryCtx)
	assert.Error(t, queryCtx.Err())
}

func TestGetTimeline_InvalidPage(t *testing.T) {
	svc := &fakeTimelineService{
		QueryFn: func(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	app := setupApp(t, svc)

	resp, body := doGet(t, app, "/v1/timeline?wallet=abc&page=two")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "invalid_request", errResp.Error)
}

func TestGetTimeline_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid criteria", fmt.Errorf("%w: bad filter", entity.ErrInvalidCriteria), http.StatusBadRequest, "invalid_request"},
		{"unknown wallet", fmt.Errorf("resolve: %w", entity.ErrWalletNotFound), http.StatusNotFound, "wallet_not_found"},
		{"ens disabled", &entity.NetworkError{Op: "ens.resolver", Err: entity.ErrENSDisabled}, http.StatusServiceUnavailable, "ens_unavailable"},
		{"upstream failure", fmt.Errorf("page 1: %w", &entity.NetworkError{Op: "events", StatusCode: 503, Err: errors.New("down")}), http.StatusBadGateway, "upstream_error"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeTimelineService{
				QueryFn: func(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
					return nil, tt.err
				},
			}
			app := setupApp(t, svc)

			resp, body := doGet(t, app, "/v1/timeline?wallet=abc")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var errResp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.wantCode, errResp.Error)
		})
	}
}

func TestGetWallet(t *testing.T) {
	app := setupApp(t, &fakeTimelineService{})

	resp, body := doGet(t, app, "/v1/wallets/vitalik.eth")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got dto.WalletResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "vitalik.eth", got.DisplayName)

	app = setupApp(t, &fakeTimelineService{resolveErr: entity.ErrWalletNotFound})
	resp, _ = doGet(t, app, "/v1/wallets/nobody")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetCollections(t *testing.T) {
	app := setupApp(t, &fakeTimelineService{})

	resp, body := doGet(t, app, "/v1/wallets/vitalik/collections")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	floor := 62.5
	app = setupApp(t, &fakeTimelineService{collections: []entity.CollectionInfo{
		{Name: "Apes", Slug: "apes", ContractAddress: "0xbc4c", Holding: "2", Floor: &floor},
	}})
	resp, body = doGet(t, app, "/v1/wallets/vitalik/collections")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []entity.CollectionInfo
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Holding)
	assert.Equal(t, 62.5, *got[0].Floor)
}

func TestGetCollection(t *testing.T) {
	svc := &fakeTimelineService{}
	app := setupApp(t, svc)

	resp, body := doGet(t, app, "/v1/collections/0xbc4c?wallet=vitalik")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0xbc4c", svc.lastContract)
	assert.Equal(t, "vitalik", svc.lastWallet)

	var got entity.CollectionInfo
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "apes", got.Slug)
}

func TestHealth(t *testing.T) {
	app := setupApp(t, &fakeTimelineService{})

	resp, body := doGet(t, app, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}
