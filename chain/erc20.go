package chain

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/chaintalk/chaintalk/core"
	"github.com/chaintalk/chaintalk/ports"
)

const erc20ABIJSON = `[{
	"constant": true,
	"inputs": [{"name": "owner", "type": "address"}],
	"name": "balanceOf",
	"outputs": [{"name": "", "type": "uint256"}],
	"type": "function"
}]`

var erc20ABI = mustParseABI(erc20ABIJSON)

// ERC20Reader reads token balances over an RPC client. It backs the
// balance-based access policy check.
type ERC20Reader struct {
	client *ethclient.Client
}

// NewERC20Reader creates a balance reader over a connected client.
func NewERC20Reader(client *ethclient.Client) *ERC20Reader {
	return &ERC20Reader{client: client}
}

var _ ports.BalanceReader = (*ERC20Reader)(nil)

// BalanceOf calls balanceOf(holder) on the token contract at the latest
// block.
func (r *ERC20Reader) BalanceOf(ctx context.Context, token, holder common.Address) (*big.Int, error) {
	data, err := erc20ABI.Pack("balanceOf", holder)
	if err != nil {
		return nil, fmt.Errorf("%w: pack balanceOf: %v", core.ErrInternal, err)
	}

	out, err := r.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: balanceOf call: %v", core.ErrBlockchain, err)
	}

	results, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil || len(results) != 1 {
		return nil, fmt.Errorf("%w: unpack balanceOf result: %v", core.ErrBlockchain, err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected balanceOf result type", core.ErrBlockchain)
	}
	return balance, nil
}
