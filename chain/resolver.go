package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chaintalk/chaintalk/ports"
)

// NoopResolver reports every name as unknown. ENS resolution is a pluggable
// lookup; running without it only costs display names.
type NoopResolver struct{}

var _ ports.NameResolver = NoopResolver{}

func (NoopResolver) ResolveName(ctx context.Context, address common.Address) (string, error) {
	return "", nil
}

// NoopHoldings reports empty holdings for every address.
type NoopHoldings struct{}

var _ ports.HoldingsReader = NoopHoldings{}

func (NoopHoldings) TokenHoldings(ctx context.Context, address common.Address) (map[string]string, error) {
	return map[string]string{}, nil
}

func (NoopHoldings) NFTHoldings(ctx context.Context, address common.Address) ([]string, error) {
	return []string{}, nil
}
