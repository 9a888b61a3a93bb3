package resolver

import (
	"context"
	"fmt"
	"io"
	"math/big"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/inputfsm"
	"charm-exchange-tui/persist"
	"charm-exchange-tui/rpc"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"
)

// Hydrator builds the connected account from what is known about an
// address locally and its balance on the current chain.
type Hydrator struct {
	Feeds   *Feeds
	Backend func() rpc.Backend
	// Known returns the accounts the user named, consulted before the feeds.
	// It is called on every hydration.
	Known  func() []exchange.WalletAccount
	Logger *log.Logger
}

var _ exchange.Hydrator = (*Hydrator)(nil)

// HydrateAccountFromAddress fetches metadata and balance concurrently. A
// balance failure fails the whole lookup.
func (h *Hydrator) HydrateAccountFromAddress(ctx context.Context, address string) (*exchange.WalletAccount, error) {
	if !helpers.IsValidEthAddress(address) {
		return nil, fmt.Errorf("resolver: cannot hydrate %q", address)
	}
	logger := h.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	var (
		meta    *exchange.WalletAccount
		balance *big.Int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meta = h.lookupMetadata(address)
		return nil
	})
	g.Go(func() error {
		var b rpc.Backend
		if h.Backend != nil {
			b = h.Backend()
		}
		if b == nil {
			return nil
		}
		wei, err := b.BalanceAt(gctx, common.HexToAddress(address), nil)
		if err != nil {
			return fmt.Errorf("resolver: balance of %s: %w", address, err)
		}
		balance = wei
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	acct := meta
	if acct == nil {
		acct = &exchange.WalletAccount{
			Address: helpers.NormalizeAddress(address),
			Name:    helpers.ShortenAddr(helpers.NormalizeAddress(address)),
		}
	}
	acct.Status = exchange.StatusSuccess
	if balance != nil {
		acct.Balance = persist.BigIntFrom(balance)
	}
	logger.Debug("hydrated account", "address", acct.Address, "name", acct.Name)
	return acct, nil
}

func (h *Hydrator) lookupMetadata(address string) *exchange.WalletAccount {
	var known []exchange.WalletAccount
	if h.Known != nil {
		known = h.Known()
	}
	for _, k := range known {
		if helpers.SameAddress(k.Address, address) {
			return k.Clone()
		}
	}
	if h.Feeds == nil {
		return nil
	}
	if a, ok := h.Feeds.FindAccount(inputfsm.RecipientAccountFeed, address); ok {
		return a
	}
	return nil
}
