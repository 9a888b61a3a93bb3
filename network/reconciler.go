// Package network keeps the app chain and the wallet chain in agreement.
//
// The app chain (Network.AppChainID) is authoritative once the session has
// one. The wallet is commanded to follow it; a wallet that moves on its own
// is treated as the user changing networks, and the app follows instead.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"

	"github.com/charmbracelet/log"
)

var (
	// ErrUnknownChain is returned when asked to move to a chain with no
	// metadata.
	ErrUnknownChain = errors.New("network: unknown chain")
	// ErrInvalidAddress is returned for an account that is not an address.
	ErrInvalidAddress = errors.New("network: invalid account address")
)

// Wallet is the part of a wallet connection the reconciler commands.
// SwitchChain asks the wallet to move; the wallet confirms later through
// Reconciler.OnChainChange.
type Wallet interface {
	SwitchChain(ctx context.Context, chainID int64) error
}

// WalletFunc adapts a function to Wallet.
type WalletFunc func(ctx context.Context, chainID int64) error

func (f WalletFunc) SwitchChain(ctx context.Context, chainID int64) error { return f(ctx, chainID) }

// WalletState is what the wallet reports at boot.
type WalletState struct {
	Connected bool
	ChainID   int64
	Address   string
}

// Reconciler applies wallet events to a store.
type Reconciler struct {
	store    *exchange.Store
	wallet   Wallet
	hydrator exchange.Hydrator
	logger   *log.Logger
	known    func(chainID int64) bool

	mu      sync.Mutex
	adopted bool
	pending int64
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the reconciler logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithHydrator sets how connected accounts get their metadata.
func WithHydrator(h exchange.Hydrator) Option {
	return func(r *Reconciler) { r.hydrator = h }
}

// WithKnownChains replaces the check SelectAppChain uses to accept a chain.
func WithKnownChains(known func(chainID int64) bool) Option {
	return func(r *Reconciler) {
		if known != nil {
			r.known = known
		}
	}
}

// New returns a Reconciler for store. wallet may be nil when no wallet can
// be commanded.
func New(store *exchange.Store, wallet Wallet, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		wallet: wallet,
		logger: log.New(io.Discard),
		known: func(chainID int64) bool {
			_, ok := exchange.LookupChain(chainID)
			return ok
		},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Pending returns the chain the wallet was last commanded to, or 0.
func (r *Reconciler) Pending() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Boot settles the chains once at startup. hadStored reports whether the
// store was restored from a previous session.
func (r *Reconciler) Boot(ctx context.Context, ws WalletState, hadStored bool) error {
	if r.store == nil {
		return exchange.ErrNoStore
	}

	switch {
	case !ws.Connected && !hadStored:
		r.logger.Info("boot: no wallet, no stored state", "chain", exchange.DefaultChainID)
		r.store.SetAppChainID(exchange.DefaultChainID, "boot default chain")
		r.store.SetWalletChainID(exchange.DefaultChainID, "boot default chain")
		r.store.SetConnected(false, "boot without wallet")
		return nil

	case !ws.Connected && hadStored:
		r.logger.Info("boot: restored session without wallet", "chain", r.store.Snapshot().Network.AppChainID)
		r.store.SetConnected(false, "boot without wallet")
		return nil
	}

	if ws.ChainID <= 0 {
		return fmt.Errorf("network: wallet reported chain %d", ws.ChainID)
	}

	r.store.SetConnected(true, "boot wallet connected")
	r.store.SetWalletChainID(ws.ChainID, "boot wallet chain")
	r.setPlaceholder(ws.Address)

	r.mu.Lock()
	adopt := !hadStored && !r.adopted
	r.adopted = true
	r.mu.Unlock()

	if adopt {
		r.logger.Info("boot: adopting wallet chain", "chain", ws.ChainID)
		r.store.SetAppChainID(ws.ChainID, "boot adopt wallet chain")
		return nil
	}

	app := r.store.Snapshot().Network.AppChainID
	if app == ws.ChainID {
		return nil
	}
	r.logger.Info("boot: wallet disagrees with app chain", "chain", app, "wallet", ws.ChainID)
	return r.commandSwitch(ctx, app)
}

// OnChainChange records a chain reported by the wallet. A report matching
// the pending commanded switch completes it; any other report is the user
// moving the wallet, and the app follows.
func (r *Reconciler) OnChainChange(ctx context.Context, chainID int64) error {
	if chainID <= 0 {
		return fmt.Errorf("network: wallet reported chain %d", chainID)
	}

	r.mu.Lock()
	pending := r.pending
	r.pending = 0
	r.mu.Unlock()

	r.store.SetWalletChainID(chainID, "wallet chain changed")
	r.store.SetConnected(true, "wallet chain changed")

	if pending != 0 && pending == chainID {
		r.logger.Info("wallet followed app chain", "chain", chainID)
		return nil
	}
	if r.store.SetAppChainID(chainID, "wallet moved chain") {
		r.logger.Info("app adopted wallet chain", "chain", chainID)
	}
	return nil
}

// OnDisconnect marks the wallet gone. Any commanded switch is abandoned.
func (r *Reconciler) OnDisconnect() {
	r.mu.Lock()
	r.pending = 0
	r.mu.Unlock()
	r.store.SetConnected(false, "wallet disconnected")
}

// OnAccountChange installs a placeholder for address and then hydrates it.
// It blocks for the lookup; hosts run it off their render loop. An empty
// address clears the connected account.
func (r *Reconciler) OnAccountChange(ctx context.Context, address string, status exchange.Status) error {
	if address == "" {
		r.store.SetConnectedAccount(nil, "wallet account cleared")
		return nil
	}
	if !helpers.IsValidEthAddress(address) {
		r.store.SetErrorMessage(&exchange.ErrorMessage{
			Status:  exchange.StatusMissingAccountAddress,
			Source:  "network",
			Message: fmt.Sprintf("%q is not an account address", address),
		}, "invalid wallet account")
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	if status == "" {
		status = exchange.StatusPending
	}

	r.store.SetConnectedAccount(exchange.MakeWalletFallback(address, status, "loading account"), "wallet account changed")
	if r.hydrator == nil {
		return nil
	}
	_, err := r.store.HydrateAccount(ctx, r.hydrator, address)
	return err
}

// SelectAppChain moves the app to chainID on the user's request and
// commands the wallet to follow.
func (r *Reconciler) SelectAppChain(ctx context.Context, chainID int64) error {
	if !r.known(chainID) {
		return fmt.Errorf("%w: %d", ErrUnknownChain, chainID)
	}
	r.store.SetAppChainID(chainID, "user selected chain")

	snap := r.store.Snapshot()
	if !snap.Network.Connected || snap.Network.ChainID == chainID {
		return nil
	}
	return r.commandSwitch(ctx, chainID)
}

func (r *Reconciler) commandSwitch(ctx context.Context, chainID int64) error {
	if r.wallet == nil {
		r.logger.Warn("no wallet to command", "chain", chainID)
		return nil
	}

	r.mu.Lock()
	r.pending = chainID
	r.mu.Unlock()

	r.logger.Info("commanding wallet switch", "chain", chainID)
	if err := r.wallet.SwitchChain(ctx, chainID); err != nil {
		r.mu.Lock()
		if r.pending == chainID {
			r.pending = 0
		}
		r.mu.Unlock()
		r.logger.Warn("wallet switch failed", "chain", chainID, "err", err)
		r.store.SetErrorMessage(&exchange.ErrorMessage{
			Status:  exchange.StatusWarning,
			Source:  "network",
			Message: fmt.Sprintf("wallet did not switch to chain %d: %v", chainID, err),
		}, "wallet switch failed")
		return fmt.Errorf("network: switch wallet to %d: %w", chainID, err)
	}
	return nil
}

func (r *Reconciler) setPlaceholder(address string) {
	if !helpers.IsValidEthAddress(address) {
		return
	}
	cur := r.store.Snapshot().Accounts.ConnectedAccount
	if cur != nil && helpers.SameAddress(cur.Address, address) {
		return
	}
	r.store.SetConnectedAccount(exchange.MakeWalletFallback(address, exchange.StatusPending, "loading account"), "boot wallet account")
}
