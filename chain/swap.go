// Package chain ingests on-chain log events and republishes material ones
// through the broadcast fabric. Decoding is scoped to the Uniswap V3 Swap
// layout; the envelope type keeps the payload opaque so other decoders can
// slot in.
package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

const swapABIJSON = `[{
	"anonymous": false,
	"inputs": [
		{"indexed": true, "internalType": "address", "name": "sender", "type": "address"},
		{"indexed": true, "internalType": "address", "name": "recipient", "type": "address"},
		{"indexed": false, "internalType": "int256", "name": "amount0", "type": "int256"},
		{"indexed": false, "internalType": "int256", "name": "amount1", "type": "int256"},
		{"indexed": false, "internalType": "uint160", "name": "sqrtPriceX96", "type": "uint160"},
		{"indexed": false, "internalType": "uint128", "name": "liquidity", "type": "uint128"},
		{"indexed": false, "internalType": "int24", "name": "tick", "type": "int24"}
	],
	"name": "Swap",
	"type": "event"
}]`

var swapABI = mustParseABI(swapABIJSON)

// SwapTopic is the keccak hash of the Swap event signature, used to filter
// the log subscription.
var SwapTopic = crypto.Keccak256Hash(
	[]byte("Swap(address,address,int256,int256,uint160,uint128,int24)"),
)

// SwapDetails is the decoded payload attached to a rebroadcast swap event.
type SwapDetails struct {
	Sender         string `json:"sender"`
	Recipient      string `json:"recipient"`
	Amount0        string `json:"amount0"`
	Amount1        string `json:"amount1"`
	Amount0Display string `json:"amount0_display"`
	Amount1Display string `json:"amount1_display"`
	SqrtPriceX96   string `json:"sqrt_price_x96"`
	Liquidity      string `json:"liquidity"`
	Tick           int32  `json:"tick"`
	PoolAddress    string `json:"pool_address"`
	Token0         string `json:"token0"`
	Token1         string `json:"token1"`
}

type swapEvent struct {
	Pool         common.Address
	Sender       common.Address
	Recipient    common.Address
	Amount0      *big.Int
	Amount1      *big.Int
	SqrtPriceX96 *big.Int
	Liquidity    *big.Int
	Tick         *big.Int
}

// decodeSwap parses a raw log against the Swap layout.
func decodeSwap(lg types.Log) (*swapEvent, error) {
	if len(lg.Topics) != 3 || lg.Topics[0] != SwapTopic {
		return nil, fmt.Errorf("log is not a Swap event")
	}

	var data struct {
		Amount0      *big.Int
		Amount1      *big.Int
		SqrtPriceX96 *big.Int
		Liquidity    *big.Int
		Tick         *big.Int
	}
	if err := swapABI.UnpackIntoInterface(&data, "Swap", lg.Data); err != nil {
		return nil, fmt.Errorf("unpack Swap data: %w", err)
	}

	return &swapEvent{
		Pool:         lg.Address,
		Sender:       common.BytesToAddress(lg.Topics[1].Bytes()),
		Recipient:    common.BytesToAddress(lg.Topics[2].Bytes()),
		Amount0:      data.Amount0,
		Amount1:      data.Amount1,
		SqrtPriceX96: data.SqrtPriceX96,
		Liquidity:    data.Liquidity,
		Tick:         data.Tick,
	}, nil
}

func newSwapDetails(ev *swapEvent, info PoolInfo) SwapDetails {
	return SwapDetails{
		Sender:         ev.Sender.Hex(),
		Recipient:      ev.Recipient.Hex(),
		Amount0:        ev.Amount0.String(),
		Amount1:        ev.Amount1.String(),
		Amount0Display: FormatAmount(ev.Amount0, info.Decimals0, info.Token0),
		Amount1Display: FormatAmount(ev.Amount1, info.Decimals1, info.Token1),
		SqrtPriceX96:   ev.SqrtPriceX96.String(),
		Liquidity:      ev.Liquidity.String(),
		Tick:           int32(ev.Tick.Int64()),
		PoolAddress:    ev.Pool.Hex(),
		Token0:         info.Token0,
		Token1:         info.Token1,
	}
}

// FormatAmount renders a raw token amount as a human-readable quantity,
// e.g. FormatAmount(-1500000, 6, "USDC") == "-1.5 USDC".
func FormatAmount(amount *big.Int, decimals int32, symbol string) string {
	return decimal.NewFromBigInt(amount, -decimals).String() + " " + symbol
}

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
