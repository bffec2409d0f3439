package chain

import (
	"context"
	"fmt"
	"log/slog"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/ports"
	"github.com/chaintalk/chaintalk/registry"
)

// BridgeStats receives a tick per rebroadcast chain event. Nil disables
// counting.
type BridgeStats interface {
	ChainEventBroadcast()
}

// Bridge subscribes to swap logs from a fixed pool watch-list and
// republishes material ones on the global feed. Its lifetime is independent
// of any connection; when the stream ends the Run call returns and restart
// is the caller's decision.
type Bridge struct {
	filterer ethereum.LogFilterer
	router   *registry.Router
	eventPub ports.EventPublisher
	detector *Detector
	stats    BridgeStats
	logger   *slog.Logger
	pools    []common.Address
}

// NewBridge creates a bridge over a connected log subscription source.
// eventPub and stats may be nil.
func NewBridge(filterer ethereum.LogFilterer, router *registry.Router, eventPub ports.EventPublisher, stats BridgeStats, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		filterer: filterer,
		router:   router,
		eventPub: eventPub,
		detector: NewDetector(),
		stats:    stats,
		logger:   logger,
		pools:    WatchedPools(),
	}
}

// Detector exposes the materiality detector for threshold configuration.
func (b *Bridge) Detector() *Detector {
	return b.detector
}

// Run opens the filtered subscription and processes logs until the context
// is canceled or the stream terminates.
func (b *Bridge) Run(ctx context.Context) error {
	query := ethereum.FilterQuery{
		Addresses: b.pools,
		Topics:    [][]common.Hash{{SwapTopic}},
	}

	logs := make(chan types.Log, 256)
	sub, err := b.filterer.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("%w: subscribe logs: %v", core.ErrBlockchain, err)
	}
	defer sub.Unsubscribe()

	b.logger.Info("chain bridge started", "pools", len(b.pools))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err != nil {
				return fmt.Errorf("%w: log stream: %v", core.ErrBlockchain, err)
			}
			b.logger.Warn("chain log stream ended")
			return nil
		case lg := <-logs:
			b.handleLog(ctx, lg)
		}
	}
}

// handleLog decodes, filters, and republishes one log. Undecodable logs are
// skipped, never fatal.
func (b *Bridge) handleLog(ctx context.Context, lg types.Log) {
	ev, err := decodeSwap(lg)
	if err != nil {
		b.logger.Debug("skipping undecodable log", "tx", lg.TxHash.Hex(), "err", err)
		return
	}

	info := PoolInfoFor(ev.Pool)
	if !b.detector.Material(info, ev.Amount0, ev.Amount1) {
		return
	}

	details := newSwapDetails(ev, info)
	event := core.NewChainEvent("UniswapV3Swap", lg.TxHash.Hex(), lg.BlockNumber, details)

	b.router.PublishGlobal(core.ChainEventMessage{ChainEvent: event})
	if b.stats != nil {
		b.stats.ChainEventBroadcast()
	}
	if b.eventPub != nil {
		if err := b.eventPub.PublishChainEvent(ctx, event); err != nil {
			b.logger.Warn("failed to publish chain event", "id", event.ID, "err", err)
		}
	}

	b.logger.Info("broadcast swap",
		"pool", ev.Pool.Hex(),
		"pair", info.Token0+"/"+info.Token1,
		"amount0", details.Amount0Display,
		"amount1", details.Amount1Display,
	)
}
