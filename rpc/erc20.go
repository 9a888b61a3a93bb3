package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20JSON = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// bytes32 variants used by a few early tokens (MKR, SAI).
const erc20Bytes32JSON = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"bytes32"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"bytes32"}],"type":"function"}
]`

// ERC20 is the parsed read-only ERC20 interface.
var ERC20 = mustABI(erc20JSON)

var erc20Bytes32 = mustABI(erc20Bytes32JSON)

func mustABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("rpc: bad abi: %v", err))
	}
	return parsed
}

// TokenMetadata is what an ERC20 says about itself.
type TokenMetadata struct {
	Address  common.Address
	Name     string
	Symbol   string
	Decimals uint8
}

func call(ctx context.Context, b Backend, token common.Address, method string, args ...any) ([]byte, error) {
	data, err := ERC20.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := b.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("rpc: %s on %s: %w", method, token.Hex(), err)
	}
	return out, nil
}

// ReadTokenMetadata reads name, symbol and decimals from token.
func ReadTokenMetadata(ctx context.Context, b Backend, token common.Address) (TokenMetadata, error) {
	md := TokenMetadata{Address: token}
	if b == nil {
		return md, ErrNoClient
	}

	var err error
	if md.Symbol, err = readText(ctx, b, token, "symbol"); err != nil {
		return md, err
	}
	if md.Name, err = readText(ctx, b, token, "name"); err != nil {
		// Name is optional in the standard.
		md.Name = md.Symbol
	}

	out, err := call(ctx, b, token, "decimals")
	if err != nil {
		return md, err
	}
	vals, err := ERC20.Unpack("decimals", out)
	if err != nil || len(vals) == 0 {
		return md, fmt.Errorf("rpc: decode decimals from %s: %w", token.Hex(), errOrEmpty(err))
	}
	dec, ok := vals[0].(uint8)
	if !ok {
		return md, fmt.Errorf("rpc: decimals from %s has type %T", token.Hex(), vals[0])
	}
	md.Decimals = dec
	return md, nil
}

func readText(ctx context.Context, b Backend, token common.Address, method string) (string, error) {
	out, err := call(ctx, b, token, method)
	if err != nil {
		return "", err
	}
	if vals, err := ERC20.Unpack(method, out); err == nil && len(vals) > 0 {
		if s, ok := vals[0].(string); ok {
			return s, nil
		}
	}
	vals, err := erc20Bytes32.Unpack(method, out)
	if err != nil || len(vals) == 0 {
		return "", fmt.Errorf("rpc: decode %s from %s: %w", method, token.Hex(), errOrEmpty(err))
	}
	raw, ok := vals[0].([32]byte)
	if !ok {
		return "", fmt.Errorf("rpc: %s from %s has type %T", method, token.Hex(), vals[0])
	}
	return string(bytes.TrimRight(raw[:], "\x00")), nil
}

// ReadTokenBalance returns owner's balance of token in base units.
func ReadTokenBalance(ctx context.Context, b Backend, token, owner common.Address) (*big.Int, error) {
	if b == nil {
		return nil, ErrNoClient
	}
	out, err := call(ctx, b, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return big.NewInt(0), nil
	}
	vals, err := ERC20.Unpack("balanceOf", out)
	if err != nil || len(vals) == 0 {
		return nil, fmt.Errorf("rpc: decode balanceOf from %s: %w", token.Hex(), errOrEmpty(err))
	}
	bal, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("rpc: balanceOf from %s has type %T", token.Hex(), vals[0])
	}
	return bal, nil
}

var errEmptyResult = errors.New("empty result")

func errOrEmpty(err error) error {
	if err != nil {
		return err
	}
	return errEmptyResult
}
