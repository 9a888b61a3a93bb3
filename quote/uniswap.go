// Package quote prices a sell/buy pair from Uniswap V2 reserves read over
// RPC.
package quote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"charm-exchange-tui/helpers"
	"charm-exchange-tui/rpc"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNoFactory        = errors.New("quote: no Uniswap V2 factory on this chain")
	ErrNoPair           = errors.New("quote: no pool for this pair")
	ErrInsufficientPool = errors.New("quote: pool cannot fill this amount")
)

// Uniswap V2 factory deployments by chain id.
var factories = map[int64]common.Address{
	1:        common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f"),
	10:       common.HexToAddress("0x0c3c1c532F1e39EdF36BE9Fe0bE1410313E074Bf"),
	137:      common.HexToAddress("0x9e5A52f57b3038F1B8EeE45F28b3C1967e22799C"),
	8453:     common.HexToAddress("0x8909Dc15e40173Ff4699343b6eB8132c65e18eC6"),
	11155111: common.HexToAddress("0xF62c03E08ada871A0bEb309762E260a7a6a880E6"),
}

const pairJSON = `[
	{"constant":true,"inputs":[],"name":"token0","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"token1","outputs":[{"name":"","type":"address"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"}],"name":"getPair","outputs":[{"name":"pair","type":"address"}],"type":"function"}
]`

// PairABI covers the V2 pair and factory reads used here.
var PairABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(pairJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// FactoryFor returns the V2 factory on chainID.
func FactoryFor(chainID int64) (common.Address, bool) {
	f, ok := factories[chainID]
	return f, ok
}

// Pair represents a Uniswap V2 pair contract
type Pair struct {
	Address common.Address
	Token0  common.Address
	Token1  common.Address
}

// Quote is the result of pricing one swap.
type Quote struct {
	AmountIn       *big.Int
	AmountOut      *big.Int
	ReserveIn      *big.Int
	ReserveOut     *big.Int
	PriceImpact    float64 // percent
	EffectivePrice float64 // out per in, base units
}

func call(ctx context.Context, b rpc.Backend, to common.Address, method string, args ...any) ([]any, error) {
	data, err := PairABI.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := b.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("quote: %s on %s: %w", method, to.Hex(), err)
	}
	vals, err := PairABI.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("quote: decode %s from %s: %w", method, to.Hex(), err)
	}
	return vals, nil
}

// FindPair asks factory for the tokenA/tokenB pool.
func FindPair(ctx context.Context, b rpc.Backend, factory, tokenA, tokenB common.Address) (Pair, error) {
	if b == nil {
		return Pair{}, rpc.ErrNoClient
	}
	vals, err := call(ctx, b, factory, "getPair", tokenA, tokenB)
	if err != nil {
		return Pair{}, err
	}
	addr, ok := vals[0].(common.Address)
	if !ok || addr == (common.Address{}) {
		return Pair{}, ErrNoPair
	}

	// V2 orders pair tokens by address.
	t0, t1 := tokenA, tokenB
	if bytes.Compare(t0.Bytes(), t1.Bytes()) > 0 {
		t0, t1 = t1, t0
	}
	return Pair{Address: addr, Token0: t0, Token1: t1}, nil
}

// Reserves reads the pool reserves for tokenIn and the other side.
func Reserves(ctx context.Context, b rpc.Backend, p Pair, tokenIn common.Address) (reserveIn, reserveOut *big.Int, err error) {
	vals, err := call(ctx, b, p.Address, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	r0, ok0 := vals[0].(*big.Int)
	r1, ok1 := vals[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, nil, fmt.Errorf("quote: reserves from %s have types %T, %T", p.Address.Hex(), vals[0], vals[1])
	}
	switch tokenIn {
	case p.Token0:
		return r0, r1, nil
	case p.Token1:
		return r1, r0, nil
	}
	return nil, nil, fmt.Errorf("quote: %s is not in pair %s", tokenIn.Hex(), p.Address.Hex())
}

// GetAmountOut applies the constant product formula with the 0.3% fee:
// out = in*997*reserveOut / (reserveIn*1000 + in*997).
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientPool
	}
	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(997))
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Add(new(big.Int).Mul(reserveIn, big.NewInt(1000)), inWithFee)
	return num.Div(num, den), nil
}

// GetAmountIn is the inverse of GetAmountOut, rounded up:
// in = reserveIn*out*1000 / ((reserveOut-out)*997) + 1.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if reserveIn.Sign() <= 0 || reserveOut.Cmp(amountOut) <= 0 {
		return nil, ErrInsufficientPool
	}
	num := new(big.Int).Mul(new(big.Int).Mul(reserveIn, amountOut), big.NewInt(1000))
	den := new(big.Int).Mul(new(big.Int).Sub(reserveOut, amountOut), big.NewInt(997))
	in := num.Div(num, den)
	return in.Add(in, big.NewInt(1)), nil
}

func newQuote(amountIn, amountOut, reserveIn, reserveOut *big.Int) *Quote {
	q := &Quote{AmountIn: amountIn, AmountOut: amountOut, ReserveIn: reserveIn, ReserveOut: reserveOut}
	if amountIn.Sign() > 0 {
		q.EffectivePrice, _ = new(big.Float).Quo(new(big.Float).SetInt(amountOut), new(big.Float).SetInt(amountIn)).Float64()
	}
	if reserveIn.Sign() > 0 && reserveOut.Sign() > 0 {
		spot, _ := new(big.Float).Quo(new(big.Float).SetInt(reserveOut), new(big.Float).SetInt(reserveIn)).Float64()
		if spot > 0 && q.EffectivePrice > 0 {
			q.PriceImpact = (spot - q.EffectivePrice) / spot * 100
		}
	}
	return q
}

func pool(ctx context.Context, b rpc.Backend, chainID int64, tokenIn, tokenOut common.Address) (*big.Int, *big.Int, error) {
	if b == nil {
		return nil, nil, rpc.ErrNoClient
	}
	factory, ok := FactoryFor(chainID)
	if !ok {
		return nil, nil, ErrNoFactory
	}
	p, err := FindPair(ctx, b, factory, tokenIn, tokenOut)
	if err != nil {
		return nil, nil, err
	}
	return Reserves(ctx, b, p, tokenIn)
}

// ExactIn prices selling amountIn of tokenIn.
func ExactIn(ctx context.Context, b rpc.Backend, chainID int64, tokenIn, tokenOut common.Address, amountIn *big.Int) (*Quote, error) {
	rIn, rOut, err := pool(ctx, b, chainID, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	out, err := GetAmountOut(amountIn, rIn, rOut)
	if err != nil {
		return nil, err
	}
	return newQuote(amountIn, out, rIn, rOut), nil
}

// ExactOut prices buying amountOut of tokenOut.
func ExactOut(ctx context.Context, b rpc.Backend, chainID int64, tokenIn, tokenOut common.Address, amountOut *big.Int) (*Quote, error) {
	rIn, rOut, err := pool(ctx, b, chainID, tokenIn, tokenOut)
	if err != nil {
		return nil, err
	}
	in, err := GetAmountIn(amountOut, rIn, rOut)
	if err != nil {
		return nil, err
	}
	return newQuote(in, amountOut, rIn, rOut), nil
}

// RateRatio is the quote's price in whole tokens: buy per one sell.
func (q *Quote) RateRatio(decimalsIn, decimalsOut uint8) float64 {
	if q == nil || q.AmountIn.Sign() == 0 {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalsIn)), nil))
	scale.Quo(scale, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimalsOut)), nil)))
	r, _ := new(big.Float).Mul(big.NewFloat(q.EffectivePrice), scale).Float64()
	return r
}

// Format returns a human-readable line for q.
func (q *Quote) Format(symbolIn, symbolOut string, decimalsIn, decimalsOut uint8) string {
	if q == nil {
		return "No quote available"
	}
	return fmt.Sprintf("%s %s → %s %s (impact: %.2f%%)",
		helpers.FormatUnits(q.AmountIn, decimalsIn, 4), symbolIn,
		helpers.FormatUnits(q.AmountOut, decimalsOut, 4), symbolOut,
		q.PriceImpact)
}

// MinimumOut applies slippage in basis points to the quoted output.
// Slippage is clamped to [0, 10000].
func (q *Quote) MinimumOut(slippageBps int) *big.Int {
	if q == nil || q.AmountOut == nil {
		return big.NewInt(0)
	}
	slippageBps = min(max(slippageBps, 0), 10_000)
	keep := big.NewInt(int64(10_000 - slippageBps))
	out := new(big.Int).Mul(q.AmountOut, keep)
	return out.Div(out, big.NewInt(10_000))
}
