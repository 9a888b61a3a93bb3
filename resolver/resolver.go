package resolver

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/inputfsm"
	"charm-exchange-tui/persist"
	"charm-exchange-tui/rpc"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/singleflight"
)

// BackendFunc returns a backend serving chainID, or nil when none is
// connected to that chain.
type BackendFunc func(chainID int64) rpc.Backend

// Resolver implements inputfsm.Resolver over the bundled feeds and an
// optional chain backend.
type Resolver struct {
	feeds   *Feeds
	backend BackendFunc
	owner   func() string
	logger  *log.Logger
	group   singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBackend sets where on-chain lookups go.
func WithBackend(b BackendFunc) Option {
	return func(r *Resolver) { r.backend = b }
}

// WithOwner sets whose token balance is read on resolution.
func WithOwner(owner func() string) Option {
	return func(r *Resolver) { r.owner = owner }
}

// WithLogger sets the resolver logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New returns a Resolver over feeds.
func New(feeds *Feeds, opts ...Option) *Resolver {
	r := &Resolver{
		feeds:  feeds,
		logger: log.New(io.Discard),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var _ inputfsm.Resolver = (*Resolver)(nil)

// lookupTimeout bounds a shared lookup once it no longer follows the
// context of the caller that started it.
const lookupTimeout = 20 * time.Second

// Resolve finds the asset at input. Concurrent calls for the same chain,
// feed and address share one lookup; each caller gets its own copy. The
// shared lookup outlives a cancelled caller, which returns ctx.Err() alone.
func (r *Resolver) Resolve(ctx context.Context, input string, feed inputfsm.FeedType, chainID int64) (exchange.ValidatedAsset, error) {
	if !helpers.IsValidEthAddress(input) {
		return nil, fmt.Errorf("resolver: %w: %q", inputfsm.ErrInvalidHex, input)
	}
	address := helpers.NormalizeAddress(input)
	key := fmt.Sprintf("%d/%s/%s", chainID, feed, address)

	ch := r.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		if feed.WantsToken() {
			return r.resolveToken(lookupCtx, address, chainID)
		}
		return r.resolveAccount(lookupCtx, address, feed, chainID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Shared {
		r.logger.Debug("shared lookup", "key", key)
	}
	if res.Err != nil {
		return nil, res.Err
	}
	v := res.Val

	switch a := v.(type) {
	case *exchange.TokenContract:
		if a == nil {
			return nil, nil
		}
		return a.Clone(), nil
	case *exchange.WalletAccount:
		if a == nil {
			return nil, nil
		}
		return a.Clone(), nil
	}
	return nil, nil
}

func (r *Resolver) chain(chainID int64) rpc.Backend {
	if r.backend == nil {
		return nil
	}
	return r.backend(chainID)
}

func (r *Resolver) resolveToken(ctx context.Context, address string, chainID int64) (*exchange.TokenContract, error) {
	tok, bundled := r.feeds.FindToken(chainID, address)
	b := r.chain(chainID)

	if !bundled {
		if b == nil {
			return nil, rpc.ErrNoClient
		}
		addr := common.HexToAddress(address)
		ok, err := rpc.HasCode(ctx, b, addr)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Debug("no contract at address", "address", address, "chain", chainID)
			return nil, nil
		}
		md, err := rpc.ReadTokenMetadata(ctx, b, addr)
		if err != nil {
			return nil, fmt.Errorf("resolver: token metadata: %w", err)
		}
		tok = &exchange.TokenContract{
			Address:  address,
			ChainID:  chainID,
			Decimals: md.Decimals,
			Symbol:   md.Symbol,
			Name:     md.Name,
		}
	}

	if b != nil && r.owner != nil {
		if owner := r.owner(); helpers.IsValidEthAddress(owner) {
			bal, err := rpc.ReadTokenBalance(ctx, b, common.HexToAddress(address), common.HexToAddress(owner))
			if err != nil {
				r.logger.Debug("token balance unavailable", "address", address, "err", err)
			} else {
				tok.Balance = persist.BigIntFrom(bal)
			}
		}
	}
	r.logger.Info("resolved token", "symbol", tok.Symbol, "chain", chainID, "bundled", bundled)
	return tok, nil
}

func (r *Resolver) resolveAccount(ctx context.Context, address string, feed inputfsm.FeedType, chainID int64) (*exchange.WalletAccount, error) {
	if acct, ok := r.feeds.FindAccount(feed, address); ok {
		return acct, nil
	}

	b := r.chain(chainID)
	if b == nil {
		return nil, rpc.ErrNoClient
	}
	bal, err := b.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return nil, fmt.Errorf("resolver: balance of %s: %w", address, err)
	}
	if bal == nil {
		bal = new(big.Int)
	}
	return &exchange.WalletAccount{
		Address: address,
		Name:    helpers.ShortenAddr(address),
		Status:  exchange.StatusInfo,
		Balance: persist.BigIntFrom(bal),
	}, nil
}
