package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nft-activity-timeline/internal/application/dto"
	"nft-activity-timeline/internal/domain/entity"
	"nft-activity-timeline/internal/domain/service"
	"nft-activity-timeline/internal/infrastructure/config"
	"nft-activity-timeline/internal/infrastructure/logger"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// drainPollInterval is how often Disconnect checks whether the subscription drained
const drainPollInterval = 10 * time.Millisecond

// TimelineRequest is the payload of a timeline query message
type TimelineRequest struct {
	entity.SearchCriteria
}

// TimelineReply carries either a timeline or an error
type TimelineReply struct {
	Status int                   `json:"status"`
	Result *dto.TimelineResponse `json:"result,omitempty"`
	Error  *dto.ErrorResponse    `json:"error,omitempty"`
}

// NATSResponder answers timeline queries over NATS request/reply.
// Messages are handed to a worker group so up to Workers queries run at once;
// delivery blocks while every worker is busy.
type NATSResponder struct {
	conn        *nats.Conn
	sub         *nats.Subscription
	workers     *errgroup.Group
	closed      chan struct{}
	config      *config.NATSConfig
	svc         service.TimelineService
	groupingMin int
	logger      *logger.Logger

	mu        sync.Mutex
	isRunning bool
}

// NewNATSResponder creates a new NATS responder
func NewNATSResponder(cfg *config.NATSConfig, svc service.TimelineService, groupingMin int, logger *logger.Logger) *NATSResponder {
	return &NATSResponder{
		config:      cfg,
		svc:         svc,
		groupingMin: groupingMin,
		logger:      logger.WithComponent("nats-responder"),
	}
}

// Subject is the subject queries are received on
func (n *NATSResponder) Subject() string {
	return fmt.Sprintf("%s.query", n.config.SubjectPrefix)
}

// Connect connects to the NATS server and subscribes to the query subject
func (n *NATSResponder) Connect(ctx context.Context) error {
	if !n.config.Enabled {
		n.logger.Info("NATS is disabled, skipping connection")
		return nil
	}

	n.logger.Info("Connecting to NATS server", zap.String("url", n.config.URL))

	closed := make(chan struct{})
	opts := []nats.Option{
		nats.Name("nft-activity-timeline"),
		nats.Timeout(n.config.ConnectTimeout),
		nats.ReconnectWait(n.config.ReconnectDelay),
		nats.MaxReconnects(n.config.ReconnectAttempts),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			n.logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			n.logger.Info("NATS connection closed")
			close(closed)
		}),
	}

	conn, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		n.logger.Error("Failed to connect to NATS", zap.Error(err))
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	limit := n.config.Workers
	if limit < 1 {
		limit = 1
	}
	workers := &errgroup.Group{}
	workers.SetLimit(limit)

	subject := n.Subject()
	sub, err := conn.QueueSubscribe(subject, n.config.QueueGroup, func(msg *nats.Msg) {
		n.dispatch(workers, msg)
	})
	if err != nil {
		conn.Close()
		n.logger.Error("Failed to subscribe to subject", zap.Error(err))
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	n.mu.Lock()
	n.conn = conn
	n.sub = sub
	n.workers = workers
	n.closed = closed
	n.isRunning = true
	n.mu.Unlock()

	n.logger.Info("Listening for timeline queries",
		zap.String("subject", subject),
		zap.String("queue_group", n.config.QueueGroup),
		zap.Int("workers", limit))
	return nil
}

// dispatch hands a message to the worker group, blocking while it is full
func (n *NATSResponder) dispatch(workers *errgroup.Group, msg *nats.Msg) {
	if msg.Reply == "" {
		n.logger.Warn("Dropping timeline query without reply subject", zap.String("subject", msg.Subject))
		return
	}
	workers.Go(func() error {
		n.respond(msg)
		return nil
	})
}

func (n *NATSResponder) respond(msg *nats.Msg) {
	ctx := context.Background()
	if n.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.config.RequestTimeout)
		defer cancel()
	}

	if err := msg.Respond(n.handle(ctx, msg.Data)); err != nil {
		n.logger.Error("Failed to send reply", zap.Error(err))
	}
}

// handle decodes a request, runs the query and encodes the reply
func (n *NATSResponder) handle(ctx context.Context, data []byte) []byte {
	var reply TimelineReply

	var req TimelineRequest
	if err := json.Unmarshal(data, &req); err != nil {
		n.logger.Warn("Failed to unmarshal timeline request", zap.Error(err))
		reply.Status = http.StatusBadRequest
		reply.Error = &dto.ErrorResponse{Error: "invalid_request", Message: "request body is not valid JSON"}
		return n.encode(reply)
	}
	if req.Page == 0 {
		req.Page = 1
	}

	result, err := n.svc.Query(ctx, req.SearchCriteria)
	if err != nil {
		status, resp := dto.NewErrorResponse(err)
		if status >= http.StatusInternalServerError {
			n.logger.Error("Timeline query failed", zap.String("wallet", req.Wallet), zap.Error(err))
		}
		reply.Status = status
		reply.Error = &resp
		return n.encode(reply)
	}

	timeline := dto.NewTimelineResponse(result, n.groupingMin)
	reply.Status = http.StatusOK
	reply.Result = &timeline
	return n.encode(reply)
}

func (n *NATSResponder) encode(reply TimelineReply) []byte {
	data, err := json.Marshal(reply)
	if err != nil {
		n.logger.Error("Failed to marshal reply", zap.Error(err))
		return []byte(`{"status":500,"error":{"error":"internal_server_error"}}`)
	}
	return data
}

// Disconnect stops taking new queries, waits for in-flight queries to send
// their replies, then drains and closes the connection. It gives up and
// closes immediately once ctx is done.
func (n *NATSResponder) Disconnect(ctx context.Context) error {
	n.mu.Lock()
	conn, sub, workers, closed := n.conn, n.sub, n.workers, n.closed
	n.isRunning = false
	n.conn, n.sub, n.workers = nil, nil, nil
	n.mu.Unlock()

	if conn == nil {
		return nil
	}

	if err := sub.Drain(); err != nil {
		n.logger.Warn("Failed to drain subscription", zap.Error(err))
	}
	if err := waitUntil(ctx, func() bool { return !sub.IsValid() }); err != nil {
		conn.Close()
		return fmt.Errorf("NATS drain interrupted: %w", err)
	}

	done := make(chan struct{})
	go func() {
		_ = workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		conn.Close()
		return fmt.Errorf("NATS drain interrupted: %w", ctx.Err())
	}

	if err := conn.Drain(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	select {
	case <-closed:
		n.logger.Info("Disconnected from NATS")
		return nil
	case <-ctx.Done():
		conn.Close()
		return fmt.Errorf("NATS drain interrupted: %w", ctx.Err())
	}
}

// waitUntil polls cond until it holds or ctx is done
func waitUntil(ctx context.Context, cond func() bool) error {
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()

	for !cond() {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// IsConnected checks if connected to NATS
func (n *NATSResponder) IsConnected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isRunning && n.conn != nil && n.conn.IsConnected()
}
