package fiber

import (
	"context"
	"fmt"
	"time"

	"nft-activity-timeline/internal/infrastructure/config"
	"nft-activity-timeline/internal/infrastructure/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server owns the fiber app and its listener
type Server struct {
	app    *fiber.App
	port   int
	logger *logger.Logger
}

// NewServer builds the app and registers the handler's routes
func NewServer(cfg *config.HTTPConfig, handler *TimelineHandler, log *logger.Logger) *Server {
	log = log.WithComponent("http-server")

	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger(log))
	app.Use(requestTimeout(cfg.RequestTimeout))
	handler.Register(app)

	return &Server{app: app, port: cfg.Port, logger: log}
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Start listens in the background
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	go func() {
		if err := s.app.Listen(addr); err != nil {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// requestLogger tags each request with an id and logs its outcome
func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, requestID)

		err := c.Next()

		log.Debug("Handled request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}
}

// requestTimeout bounds the context handlers pass to the service. The
// context is cancelled once the handler returns.
func requestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			ctx    context.Context
			cancel context.CancelFunc
		)
		if timeout > 0 {
			ctx, cancel = context.WithTimeout(c.UserContext(), timeout)
		} else {
			ctx, cancel = context.WithCancel(c.UserContext())
		}
		defer cancel()

		c.SetUserContext(ctx)
		return c.Next()
	}
}
