package rpc

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChain answers ERC20 reads for a fixed set of tokens.
type fakeChain struct {
	tokens   map[common.Address]fakeToken
	native   *big.Int
	failCall bool
}

type fakeToken struct {
	name, symbol string
	decimals     uint8
	balances     map[common.Address]*big.Int
	bytes32      bool
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.failCall {
		return nil, errors.New("connection refused")
	}
	tok, ok := f.tokens[*msg.To]
	if !ok {
		return nil, nil
	}
	sel := msg.Data[:4]
	switch {
	case bytes.Equal(sel, ERC20.Methods["symbol"].ID):
		if tok.bytes32 {
			var raw [32]byte
			copy(raw[:], tok.symbol)
			return erc20Bytes32.Methods["symbol"].Outputs.Pack(raw)
		}
		return ERC20.Methods["symbol"].Outputs.Pack(tok.symbol)
	case bytes.Equal(sel, ERC20.Methods["name"].ID):
		if tok.name == "" {
			return nil, errors.New("execution reverted")
		}
		return ERC20.Methods["name"].Outputs.Pack(tok.name)
	case bytes.Equal(sel, ERC20.Methods["decimals"].ID):
		return ERC20.Methods["decimals"].Outputs.Pack(tok.decimals)
	case bytes.Equal(sel, ERC20.Methods["balanceOf"].ID):
		args, err := ERC20.Methods["balanceOf"].Inputs.Unpack(msg.Data[4:])
		if err != nil {
			return nil, err
		}
		bal := tok.balances[args[0].(common.Address)]
		if bal == nil {
			bal = big.NewInt(0)
		}
		return ERC20.Methods["balanceOf"].Outputs.Pack(bal)
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeChain) CodeAt(_ context.Context, addr common.Address, _ *big.Int) ([]byte, error) {
	if _, ok := f.tokens[addr]; ok {
		return []byte{0x60, 0x80}, nil
	}
	return nil, nil
}

func (f *fakeChain) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	if f.native == nil {
		return nil, errors.New("connection refused")
	}
	return f.native, nil
}

var (
	daiAddr = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	mkrAddr = common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
	owner   = common.HexToAddress("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045")
)

func newFakeChain() *fakeChain {
	return &fakeChain{
		native: big.NewInt(1e18),
		tokens: map[common.Address]fakeToken{
			daiAddr: {name: "Dai Stablecoin", symbol: "DAI", decimals: 18, balances: map[common.Address]*big.Int{owner: big.NewInt(42)}},
			mkrAddr: {symbol: "MKR", decimals: 18, bytes32: true},
		},
	}
}

func TestReadTokenMetadata(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()

	md, err := ReadTokenMetadata(ctx, chain, daiAddr)
	require.NoError(t, err)
	assert.Equal(t, TokenMetadata{Address: daiAddr, Name: "Dai Stablecoin", Symbol: "DAI", Decimals: 18}, md)

	md, err = ReadTokenMetadata(ctx, chain, mkrAddr)
	require.NoError(t, err)
	assert.Equal(t, "MKR", md.Symbol)
	assert.Equal(t, "MKR", md.Name, "missing name falls back to symbol")

	_, err = ReadTokenMetadata(ctx, nil, daiAddr)
	assert.ErrorIs(t, err, ErrNoClient)

	chain.failCall = true
	_, err = ReadTokenMetadata(ctx, chain, daiAddr)
	assert.Error(t, err)
}

func TestReadTokenBalance(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()

	bal, err := ReadTokenBalance(ctx, chain, daiAddr, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())

	bal, err = ReadTokenBalance(ctx, chain, common.HexToAddress("0x01"), owner)
	require.NoError(t, err)
	assert.Zero(t, bal.Sign())
}

func TestHasCode(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()

	ok, err := HasCode(ctx, chain, daiAddr)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = HasCode(ctx, chain, owner)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = HasCode(ctx, nil, owner)
	assert.ErrorIs(t, err, ErrNoClient)
}

func TestLoadBalances(t *testing.T) {
	ctx := context.Background()
	chain := newFakeChain()
	watch := []WatchedToken{
		{Symbol: "MKR", Decimals: 18, Address: mkrAddr},
		{Symbol: "DAI", Decimals: 18, Address: daiAddr},
	}

	b := LoadBalances(ctx, chain, owner, watch)
	assert.Empty(t, b.ErrMessage)
	assert.Equal(t, owner.Hex(), b.Address)
	assert.Equal(t, big.NewInt(1e18), b.Native)
	require.Len(t, b.Tokens, 1, "zero balances are skipped")
	assert.Equal(t, "DAI", b.Tokens[0].Symbol)

	chain.native = nil
	assert.NotEmpty(t, LoadBalances(ctx, chain, owner, watch).ErrMessage)
	assert.Equal(t, ErrNoClient.Error(), LoadBalances(ctx, nil, owner, watch).ErrMessage)
}
