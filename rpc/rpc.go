package rpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ErrNoClient is returned when a lookup needs the chain and no RPC client is
// connected.
var ErrNoClient = errors.New("rpc: no client (set ETH_RPC_URL or add an RPC in settings)")

// Backend is the slice of an Ethereum client the app reads through.
// *ethclient.Client and *Client satisfy it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Client wraps an Ethereum RPC client
type Client struct {
	*ethclient.Client
	URL     string
	ChainID int64
}

// ConnectResult holds the result of an RPC connection attempt
type ConnectResult struct {
	Client *Client
	Error  error
}

// ConnectWithTimeout attempts to connect with a custom timeout
func ConnectWithTimeout(url string, timeout time.Duration) ConnectResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return ConnectContext(ctx, url)
}

// ConnectContext dials url under ctx.
func ConnectContext(ctx context.Context, url string) ConnectResult {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return ConnectResult{Error: fmt.Errorf("rpc: dial %s: %w", url, err)}
	}

	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return ConnectResult{Error: fmt.Errorf("rpc: chain id from %s: %w", url, err)}
	}

	return ConnectResult{
		Client: &Client{
			Client:  client,
			URL:     url,
			ChainID: id.Int64(),
		},
	}
}

// Close releases the connection. Safe on nil.
func (c *Client) Close() {
	if c == nil || c.Client == nil {
		return
	}
	c.Client.Close()
}

// TokenBalance represents an ERC20 token balance
type TokenBalance struct {
	Address  common.Address
	Symbol   string
	Decimals uint8
	Balance  *big.Int
}

// WatchedToken represents a token to query
type WatchedToken struct {
	Symbol   string
	Decimals uint8
	Address  common.Address
}

// Balances is the native and watched token holdings of one account.
type Balances struct {
	Address    string
	Native     *big.Int
	Tokens     []TokenBalance
	LoadedAt   time.Time
	ErrMessage string
}

// LoadBalances fetches the native balance and every non-zero watched token
// balance for addr. Failures are reported in ErrMessage.
func LoadBalances(ctx context.Context, b Backend, addr common.Address, watch []WatchedToken) Balances {
	d := Balances{
		Address:  addr.Hex(),
		Native:   big.NewInt(0),
		LoadedAt: time.Now(),
	}

	if b == nil {
		d.ErrMessage = ErrNoClient.Error()
		return d
	}

	wei, err := b.BalanceAt(ctx, addr, nil)
	if err != nil {
		d.ErrMessage = "Failed to load native balance."
		return d
	}
	d.Native = wei

	// For speed later: replace with Multicall3 batching.
	var toks []TokenBalance
	for _, t := range watch {
		bal, err := ReadTokenBalance(ctx, b, t.Address, addr)
		if err != nil {
			continue
		}
		if bal.Sign() > 0 {
			toks = append(toks, TokenBalance{
				Address:  t.Address,
				Symbol:   t.Symbol,
				Decimals: t.Decimals,
				Balance:  bal,
			})
		}
	}

	sort.Slice(toks, func(i, j int) bool {
		return strings.ToLower(toks[i].Symbol) < strings.ToLower(toks[j].Symbol)
	})
	d.Tokens = toks

	return d
}

// HasCode reports whether a contract is deployed at addr.
func HasCode(ctx context.Context, b Backend, addr common.Address) (bool, error) {
	if b == nil {
		return false, ErrNoClient
	}
	code, err := b.CodeAt(ctx, addr, nil)
	if err != nil {
		return false, fmt.Errorf("rpc: code at %s: %w", addr.Hex(), err)
	}
	return len(code) > 0, nil
}
