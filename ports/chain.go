package ports

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// NameResolver resolves a human-readable name for an address. Resolution is
// best-effort: implementations may be unimplemented and report unknown by
// returning an empty name.
type NameResolver interface {
	ResolveName(ctx context.Context, address common.Address) (string, error)
}

// HoldingsReader looks up token and NFT holdings for an address. Like name
// resolution it is best-effort enrichment and may be stubbed.
type HoldingsReader interface {
	TokenHoldings(ctx context.Context, address common.Address) (map[string]string, error)
	NFTHoldings(ctx context.Context, address common.Address) ([]string, error)
}

// BalanceReader reads an on-chain token balance for the access policy check.
type BalanceReader interface {
	BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error)
}
