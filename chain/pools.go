package chain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolInfo labels a watched pool with its token pair.
type PoolInfo struct {
	Token0    string
	Token1    string
	Decimals0 int32
	Decimals1 int32
}

var unknownPool = PoolInfo{Token0: "Unknown", Token1: "Unknown", Decimals0: 18, Decimals1: 18}

// knownPools is the static lookup table for the watched pools.
var knownPools = map[common.Address]PoolInfo{
	// USDC/WETH 0.05%
	common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640"): {
		Token0: "USDC", Token1: "WETH", Decimals0: 6, Decimals1: 18,
	},
	// USDC/WETH 0.3%
	common.HexToAddress("0x8ad599c3A0ff1De082011EFDDc58f1908eb6e6D8"): {
		Token0: "USDC", Token1: "WETH", Decimals0: 6, Decimals1: 18,
	},
	// WBTC/WETH 0.3%
	common.HexToAddress("0xCBCdF9626bC03E24f779434178A73a0B4bad62eD"): {
		Token0: "WBTC", Token1: "WETH", Decimals0: 8, Decimals1: 18,
	},
}

// WatchedPools returns the fixed watch-list of pool addresses.
func WatchedPools() []common.Address {
	pools := make([]common.Address, 0, len(knownPools))
	for addr := range knownPools {
		pools = append(pools, addr)
	}
	return pools
}

// PoolInfoFor resolves a pool address to its pair label, defaulting to
// Unknown/Unknown for unrecognized pools.
func PoolInfoFor(addr common.Address) PoolInfo {
	if info, ok := knownPools[addr]; ok {
		return info
	}
	return unknownPool
}

// DefaultThreshold is the materiality floor: one unit of an 18-decimal
// asset.
var DefaultThreshold = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Detector decides whether a swap is large enough to rebroadcast. Per-token
// thresholds may be configured; tokens without one use DefaultThreshold.
type Detector struct {
	thresholds map[string]*big.Int
}

// NewDetector creates a detector using the default threshold for every
// token.
func NewDetector() *Detector {
	return &Detector{thresholds: make(map[string]*big.Int)}
}

// SetThreshold overrides the materiality threshold for one token symbol.
func (d *Detector) SetThreshold(symbol string, threshold *big.Int) {
	d.thresholds[symbol] = new(big.Int).Set(threshold)
}

func (d *Detector) thresholdFor(symbol string) *big.Int {
	if t, ok := d.thresholds[symbol]; ok {
		return t
	}
	return DefaultThreshold
}

// Material reports whether at least one delta magnitude reaches its token's
// threshold.
func (d *Detector) Material(info PoolInfo, amount0, amount1 *big.Int) bool {
	abs0 := new(big.Int).Abs(amount0)
	abs1 := new(big.Int).Abs(amount1)
	return abs0.Cmp(d.thresholdFor(info.Token0)) >= 0 ||
		abs1.Cmp(d.thresholdFor(info.Token1)) >= 0
}
