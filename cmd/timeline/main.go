package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "nft-activity-timeline/internal/application/service"
	"nft-activity-timeline/internal/domain/repository"
	domain_service "nft-activity-timeline/internal/domain/service"
	"nft-activity-timeline/internal/infrastructure/blockchain"
	"nft-activity-timeline/internal/infrastructure/cache"
	"nft-activity-timeline/internal/infrastructure/config"
	httpadapter "nft-activity-timeline/internal/infrastructure/http/fiber"
	"nft-activity-timeline/internal/infrastructure/logger"
	"nft-activity-timeline/internal/infrastructure/messaging"
	"nft-activity-timeline/internal/infrastructure/opensea"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	// A missing .env file is fine outside local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.App.LogLevel, cfg.App.Env)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.OpenSea),
		fx.Supply(&cfg.Ethereum),
		fx.Supply(&cfg.HTTP),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Redis),

		// Infrastructure providers
		fx.Provide(
			opensea.NewClient,
			func(c *opensea.Client) repository.EventRepository { return c },
			func(c *opensea.Client) repository.CollectionRepository { return c },
			newEthereumClient,
			func(c *blockchain.EthereumClient) repository.WalletResolver { return c },
			newWalletCache,
		),

		// Application providers
		fx.Provide(
			app_service.NewTimelineApplicationService,
			func(s *app_service.TimelineApplicationService) domain_service.TimelineService { return s },
		),

		// Transports
		fx.Provide(
			func(svc domain_service.TimelineService, cfg *config.Config, log *logger.Logger) *httpadapter.TimelineHandler {
				return httpadapter.NewTimelineHandler(svc, cfg.App.GroupingMin, log)
			},
			httpadapter.NewServer,
			func(svc domain_service.TimelineService, cfg *config.Config, log *logger.Logger) *messaging.NATSResponder {
				return messaging.NewNATSResponder(&cfg.NATS, svc, cfg.App.GroupingMin, log)
			},
		),

		// Lifecycle hooks
		fx.Invoke(startHTTPServer),
		fx.Invoke(startResponder),
		fx.Invoke(startMetricsServer),
		fx.Invoke(closeClients),

		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

func newEthereumClient(lc fx.Lifecycle, cfg *config.EthereumConfig, log *logger.Logger) (*blockchain.EthereumClient, error) {
	client, err := blockchain.NewEthereumClient(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})
	return client, nil
}

// newWalletCache returns the Redis cache when enabled and a no-op cache otherwise
func newWalletCache(lc fx.Lifecycle, cfg *config.RedisConfig, log *logger.Logger) repository.WalletCache {
	if !cfg.Enabled {
		log.Info("Redis is disabled, wallet resolutions will not be cached")
		return cache.NoopWalletCache{}
	}

	c := cache.NewRedisWalletCache(cfg)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := c.Ping(ctx); err != nil {
				// Resolution still works without the cache
				log.Warn("Redis unreachable", zap.String("addr", cfg.Addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c
}

func startHTTPServer(lifecycle fx.Lifecycle, server *httpadapter.Server) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			server.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

func startResponder(lifecycle fx.Lifecycle, responder *messaging.NATSResponder, log *logger.Logger, cfg *config.Config) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("NATS Configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("subject", responder.Subject()),
				zap.Bool("enabled", cfg.NATS.Enabled),
			)
			if err := responder.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return responder.Disconnect(ctx)
		},
	})
}

// startMetricsServer exposes Prometheus metrics on the metrics port
func startMetricsServer(lifecycle fx.Lifecycle, cfg *config.Config, log *logger.Logger) {
	if !cfg.Metrics.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting metrics server...", zap.Int("port", cfg.Metrics.Port))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Metrics server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping metrics server...")
			return server.Shutdown(ctx)
		},
	})
}

func closeClients(lifecycle fx.Lifecycle, client *opensea.Client) {
	lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			client.Close()
			return nil
		},
	})
}
