package session

import (
	"context"
	"errors"
	"fmt"

	"charm-exchange-tui/config"
	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/network"
	"charm-exchange-tui/rpc"
)

// ErrNoRPC is returned when no endpoint is configured for a chain.
var ErrNoRPC = errors.New("session: no RPC configured for chain")

// Conn is a live chain connection.
type Conn interface {
	rpc.Backend
	Close()
}

// Dialer opens url and reports the chain it serves.
type Dialer func(ctx context.Context, url string) (Conn, int64, error)

func dialRPC(ctx context.Context, url string) (Conn, int64, error) {
	res := rpc.ConnectContext(ctx, url)
	if res.Error != nil {
		return nil, 0, res.Error
	}
	return res.Client, res.Client.ChainID, nil
}

var _ network.Wallet = (*Session)(nil)

// Backend returns the current connection, or nil.
func (s *Session) Backend() rpc.Backend {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	if s.conn == nil {
		return nil
	}
	return s.conn
}

// Connection reports the endpoint and chain in use.
func (s *Session) Connection() (url string, chainID int64, ok bool) {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.connURL, s.connChain, s.conn != nil
}

func (s *Session) backendFor(chainID int64) rpc.Backend {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	if s.conn == nil || s.connChain != chainID {
		return nil
	}
	return s.conn
}

func (s *Session) install(conn Conn, url string, chainID int64) {
	s.connMu.Lock()
	old := s.conn
	s.conn, s.connURL, s.connChain = conn, url, chainID
	s.connMu.Unlock()
	if old != nil && old != conn {
		old.Close()
	}

	s.cfgMu.Lock()
	s.cfg.SetChainID(url, chainID)
	s.cfg.SetActiveRPC(url)
	if err := s.saveConfigLocked(); err != nil {
		s.logger.Warn("could not save config", "err", err)
	}
	s.cfgMu.Unlock()
	s.logger.Info("rpc connected", "url", url, "chain", chainID)
}

// SwitchChain moves the connection to the endpoint configured for chainID
// and reports the new chain to the reconciler.
func (s *Session) SwitchChain(ctx context.Context, chainID int64) error {
	s.cfgMu.Lock()
	r, ok := s.cfg.RPCForChain(chainID)
	s.cfgMu.Unlock()
	if !ok {
		return fmt.Errorf("%w %d", ErrNoRPC, chainID)
	}

	conn, got, err := s.dial(ctx, r.URL)
	if err != nil {
		return err
	}
	if got != chainID {
		conn.Close()
		return fmt.Errorf("session: %s serves chain %d, not %d", r.URL, got, chainID)
	}
	s.install(conn, r.URL, got)
	return s.reconciler.OnChainChange(ctx, got)
}

// Boot connects the active endpoint, settles the chains and loads the
// active wallet. A failed connection leaves the session offline.
func (s *Session) Boot(ctx context.Context) error {
	cfg := s.Config()

	var ws network.WalletState
	if r, ok := cfg.ActiveRPC(); ok {
		conn, chainID, err := s.dial(ctx, r.URL)
		if err != nil {
			s.logger.Warn("rpc unavailable, starting offline", "url", r.URL, "err", err)
		} else {
			s.install(conn, r.URL, chainID)
			ws = network.WalletState{Connected: true, ChainID: chainID}
		}
	}
	if w, ok := cfg.ActiveWallet(); ok && ws.Connected {
		ws.Address = w.Address
	}

	bootErr := s.reconciler.Boot(ctx, ws, s.restored)
	if ws.Address == "" {
		return bootErr
	}
	return errors.Join(bootErr, s.reconciler.OnAccountChange(ctx, ws.Address, exchange.StatusPending))
}

// UseRPC connects to url as if the user moved their wallet there. The app
// adopts whatever chain the endpoint serves.
func (s *Session) UseRPC(ctx context.Context, url string) error {
	conn, chainID, err := s.dial(ctx, url)
	if err != nil {
		s.store.SetErrorMessage(&exchange.ErrorMessage{
			Status:  exchange.StatusWarning,
			Source:  "rpc",
			Message: err.Error(),
		}, "rpc connect failed")
		return err
	}
	s.install(conn, url, chainID)
	return s.reconciler.OnChainChange(ctx, chainID)
}

// Disconnect drops the connection.
func (s *Session) Disconnect() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn, s.connURL, s.connChain = nil, "", 0
	s.connMu.Unlock()
	s.reconciler.OnDisconnect()
}

// UseAccount makes address the connected account, adding it to the wallet
// list when it is new.
func (s *Session) UseAccount(ctx context.Context, address string) error {
	if !helpers.IsValidEthAddress(address) {
		return s.reconciler.OnAccountChange(ctx, address, exchange.StatusPending)
	}
	err := s.UpdateConfig(func(cfg *config.Config) {
		if !cfg.SetActiveWallet(address) {
			cfg.Wallets = append(cfg.Wallets, config.WalletEntry{Address: helpers.NormalizeAddress(address)})
			cfg.SetActiveWallet(address)
		}
	})
	if err != nil {
		s.logger.Warn("could not save config", "err", err)
	}
	return s.reconciler.OnAccountChange(ctx, address, exchange.StatusPending)
}

// SelectChain moves the app to chainID and commands the connection to
// follow.
func (s *Session) SelectChain(ctx context.Context, chainID int64) error {
	return s.reconciler.SelectAppChain(ctx, chainID)
}

// PendingChain is the chain the connection was commanded to, or 0.
func (s *Session) PendingChain() int64 { return s.reconciler.Pending() }
