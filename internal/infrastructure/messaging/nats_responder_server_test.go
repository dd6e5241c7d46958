package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/service"
	"nft-activity-timeline/internal/infrastructure/config"
	"nft-activity-timeline/internal/infrastructure/logger"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingTimelineService holds every query until release is closed
type blockingTimelineService struct {
	stubTimelineService
	started chan string
	release chan struct{}
}

func newBlockingTimelineService() *blockingTimelineService {
	return &blockingTimelineService{
		started: make(chan string, 8),
		release: make(chan struct{}),
	}
}

func (s *blockingTimelineService) Query(ctx context.Context, c entity.SearchCriteria) (*service.TimelineResult, error) {
	s.started <- c.Wallet
	select {
	case <-s.release:
		return &service.TimelineResult{QueryID: "q-" + c.Wallet, Wallet: entity.Wallet{Address: c.Wallet}, Page: c.Page}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func startResponder(t *testing.T, svc service.TimelineService, workers int) (*NATSResponder, *nats.Conn) {
	t.Helper()

	srv := natsserver.RunRandClientPortServer()
	t.Cleanup(srv.Shutdown)

	cfg := &config.NATSConfig{
		URL:               srv.ClientURL(),
		SubjectPrefix:     "timeline",
		QueueGroup:        "nft-activity-timeline",
		ConnectTimeout:    time.Second,
		ReconnectAttempts: 1,
		ReconnectDelay:    100 * time.Millisecond,
		RequestTimeout:    5 * time.Second,
		Workers:           workers,
		Enabled:           true,
	}
	r := NewNATSResponder(cfg, svc, 3, logger.NewNop())
	require.NoError(t, r.Connect(context.Background()))
	t.Cleanup(func() { _ = r.Disconnect(context.Background()) })
	require.True(t, r.IsConnected())

	client, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return r, client
}

func requestAsync(client *nats.Conn, subject, wallet string) <-chan *nats.Msg {
	out := make(chan *nats.Msg, 1)
	go func() {
		body, _ := json.Marshal(TimelineRequest{SearchCriteria: entity.SearchCriteria{Wallet: wallet}})
		msg, err := client.Request(subject, body, 5*time.Second)
		if err != nil {
			msg = nil
		}
		out <- msg
	}()
	return out
}

func waitStarted(t *testing.T, svc *blockingTimelineService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-svc.started:
		case <-time.After(3 * time.Second):
			t.Fatalf("only %d of %d queries started", i, n)
		}
	}
}

func requireReply(t *testing.T, replies <-chan *nats.Msg, wantQueryID string) {
	t.Helper()
	select {
	case msg := <-replies:
		require.NotNil(t, msg, "request failed")
		var reply TimelineReply
		require.NoError(t, json.Unmarshal(msg.Data, &reply))
		assert.Equal(t, http.StatusOK, reply.Status)
		require.NotNil(t, reply.Result)
		assert.Equal(t, wantQueryID, reply.Result.QueryID)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply received")
	}
}

func TestNATSResponder_QueriesRunConcurrently(t *testing.T) {
	svc := newBlockingTimelineService()
	r, client := startResponder(t, svc, 2)

	first := requestAsync(client, r.Subject(), "0xaaa")
	second := requestAsync(client, r.Subject(), "0xbbb")

	// both queries are in flight before either is released
	waitStarted(t, svc, 2)
	close(svc.release)

	requireReply(t, first, "q-0xaaa")
	requireReply(t, second, "q-0xbbb")
}

func TestNATSResponder_DisconnectWaitsForInFlightReplies(t *testing.T) {
	svc := newBlockingTimelineService()
	r, client := startResponder(t, svc, 1)

	replies := requestAsync(client, r.Subject(), "0xccc")
	waitStarted(t, svc, 1)

	disconnected := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		disconnected <- r.Disconnect(ctx)
	}()

	select {
	case err := <-disconnected:
		t.Fatalf("disconnect returned before the query finished: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(svc.release)

	requireReply(t, replies, "q-0xccc")
	select {
	case err := <-disconnected:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("disconnect did not complete")
	}
	assert.False(t, r.IsConnected())
}

func TestNATSResponder_DisconnectHonoursContext(t *testing.T) {
	svc := newBlockingTimelineService()
	r, client := startResponder(t, svc, 1)

	_ = requestAsync(client, r.Subject(), "0xddd")
	waitStarted(t, svc, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := r.Disconnect(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	close(svc.release)
}
