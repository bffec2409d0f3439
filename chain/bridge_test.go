package chain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/registry"
)

type fakeSub struct{ err chan error }

func (s *fakeSub) Err() <-chan error { return s.err }
func (s *fakeSub) Unsubscribe()      {}

type fakeFilterer struct {
	sub   *fakeSub
	logs  chan<- types.Log
	query ethereum.FilterQuery
	ready chan struct{}
}

func (f *fakeFilterer) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (f *fakeFilterer) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.query = q
	f.logs = ch
	close(f.ready)
	return f.sub, nil
}

type bridgeEnv struct {
	bridge   *Bridge
	filterer *fakeFilterer
	sub      *registry.GlobalSub
	done     chan error
	cancel   context.CancelFunc
}

func startBridge(t *testing.T) *bridgeEnv {
	t.Helper()

	router := registry.NewRouter(registry.NewRegistry(""), nil)
	sub := router.SubscribeGlobal()

	filterer := &fakeFilterer{sub: &fakeSub{err: make(chan error, 1)}, ready: make(chan struct{})}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bridge := NewBridge(filterer, router, nil, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bridge.Run(ctx) }()

	select {
	case <-filterer.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge never subscribed")
	}

	t.Cleanup(cancel)
	return &bridgeEnv{bridge: bridge, filterer: filterer, sub: sub, done: done, cancel: cancel}
}

func TestBridgeSubscribesToWatchedPools(t *testing.T) {
	env := startBridge(t)

	require.ElementsMatch(t, WatchedPools(), env.filterer.query.Addresses)
	require.Len(t, env.filterer.query.Topics, 1)
	require.Equal(t, SwapTopic, env.filterer.query.Topics[0][0])
}

func TestBridgeRebroadcastsMaterialSwaps(t *testing.T) {
	env := startBridge(t)

	big2, _ := new(big.Int).SetString("2000000000000000000", 10)
	env.filterer.logs <- packSwapLog(t, poolUSDCWETH, big.NewInt(100), big2)

	select {
	case msg := <-env.sub.C():
		event, ok := msg.(core.ChainEventMessage)
		require.True(t, ok)
		require.Equal(t, "UniswapV3Swap", event.EventType)
		require.Equal(t, uint64(19_000_000), event.BlockNumber)

		details, ok := event.Details.(SwapDetails)
		require.True(t, ok)
		require.Equal(t, "USDC", details.Token0)
		require.Equal(t, "2 WETH", details.Amount1Display)
	case <-time.After(2 * time.Second):
		t.Fatal("no chain event broadcast")
	}
}

func TestBridgeFiltersSmallSwaps(t *testing.T) {
	env := startBridge(t)

	env.filterer.logs <- packSwapLog(t, poolUSDCWETH, big.NewInt(100), big.NewInt(100))

	select {
	case msg := <-env.sub.C():
		t.Fatalf("unexpected broadcast: %#v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBridgeStopsOnStreamError(t *testing.T) {
	env := startBridge(t)

	env.filterer.sub.err <- errors.New("peer dropped")

	select {
	case err := <-env.done:
		require.ErrorIs(t, err, core.ErrBlockchain)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

func TestBridgeStopsOnCancel(t *testing.T) {
	env := startBridge(t)
	env.cancel()

	select {
	case err := <-env.done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
}
