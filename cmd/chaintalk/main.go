package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/chaintalk/chaintalk/adapters/events"
	"github.com/chaintalk/chaintalk/adapters/store"
	"github.com/chaintalk/chaintalk/adapters/tokenizer"
	"github.com/chaintalk/chaintalk/chain"
	"github.com/chaintalk/chaintalk/config"
	"github.com/chaintalk/chaintalk/metrics"
	"github.com/chaintalk/chaintalk/registry"
	"github.com/chaintalk/chaintalk/service"
	"github.com/chaintalk/chaintalk/transport/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("failed to parse Redis URL", "err", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(opts)

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		watermill.NewStdLogger(false, false),
	)
	if err != nil {
		logger.Error("failed to create Redis publisher", "err", err)
		os.Exit(1)
	}

	promReg := prometheus.NewRegistry()
	collector := metrics.NewCollector(promReg)

	reg := registry.NewRegistry(cfg.DefaultRoom)
	router := registry.NewRouter(reg, collector)

	lookups := service.ChainLookups{
		Names:    chain.NoopResolver{},
		Holdings: chain.NoopHoldings{},
	}
	if rpcClient, err := ethclient.Dial(cfg.EthereumHTTPURL); err != nil {
		logger.Warn("token gating disabled, RPC endpoint unreachable", "url", cfg.EthereumHTTPURL, "err", err)
	} else {
		lookups.Balances = chain.NewERC20Reader(rpcClient)
	}

	authService := service.NewAuthService(
		store.NewRedisStore(redisClient),
		tokenizer.NewJWTTokenizer([]byte(cfg.JWTSecret)),
		events.NewWatermillPublisher(publisher),
		lookups,
		logger,
	)

	ctx := context.Background()

	// The bridge lives and dies with its subscription. When the stream
	// ends the server keeps serving chat without chain events.
	go func() {
		wsClient, err := ethclient.Dial(cfg.EthereumWSURL)
		if err != nil {
			logger.Error("chain bridge disabled, subscription endpoint unreachable", "url", cfg.EthereumWSURL, "err", err)
			return
		}
		bridge := chain.NewBridge(wsClient, router, events.NewWatermillPublisher(publisher), collector, logger)
		if err := bridge.Run(ctx); err != nil {
			logger.Error("chain bridge stopped", "err", err)
		}
	}()

	ginRouter := http.SetupRouter(http.RouterDeps{
		Auth:        authService,
		Registry:    reg,
		Router:      router,
		ConnStats:   collector,
		Gatherer:    promReg,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})

	logger.Info("starting server", "addr", cfg.ServerAddress)
	if err := ginRouter.Run(cfg.ServerAddress); err != nil {
		logger.Error("server terminated", "err", err)
		os.Exit(1)
	}
}
