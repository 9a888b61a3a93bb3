package exchange

import (
	"context"
	"fmt"

	"charm-exchange-tui/helpers"
)

// Hydrator loads account metadata for an address.
type Hydrator interface {
	HydrateAccountFromAddress(ctx context.Context, address string) (*WalletAccount, error)
}

// HydratorFunc adapts a function to Hydrator.
type HydratorFunc func(ctx context.Context, address string) (*WalletAccount, error)

func (f HydratorFunc) HydrateAccountFromAddress(ctx context.Context, address string) (*WalletAccount, error) {
	return f(ctx, address)
}

// MakeWalletFallback builds a renderable account for address when its
// metadata could not be loaded.
func MakeWalletFallback(address string, status Status, message string) *WalletAccount {
	address = helpers.NormalizeAddress(address)
	return &WalletAccount{
		Address:     address,
		Name:        helpers.ShortenAddr(address),
		Symbol:      "",
		Description: message,
		Status:      status,
	}
}

// HydrateAccount fetches metadata for address and installs it as the
// connected account. The result is only written if the connected account
// still has that address when the fetch returns; a newer account change
// wins. It reports whether the result was written.
func (s *Store) HydrateAccount(ctx context.Context, h Hydrator, address string) (bool, error) {
	if s == nil {
		return false, ErrNoStore
	}

	acct, err := h.HydrateAccountFromAddress(ctx, address)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		s.logger.Warn("account hydration failed", "address", address, "err", err)
		acct = MakeWalletFallback(address, StatusMessageError, fmt.Sprintf("could not load account: %v", err))
	}
	if acct == nil {
		acct = MakeWalletFallback(address, StatusInfo, "no metadata for this account")
	}

	applied := false
	s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		cur := d.Accounts.ConnectedAccount
		if cur == nil || !helpers.SameAddress(cur.Address, address) {
			return d
		}
		applied = true
		d.Accounts.ConnectedAccount = acct.Clone()
		return d
	}, "hydrate connected account")

	if !applied {
		s.logger.Debug("discarding stale hydration", "address", address)
	}
	return applied, nil
}
