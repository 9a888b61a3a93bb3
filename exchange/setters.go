package exchange

import (
	"math/big"

	"charm-exchange-tui/helpers"
	"charm-exchange-tui/persist"

	"github.com/google/go-cmp/cmp"
)

// setField skips the clone entirely when same reports the field already
// holds the wanted value.
func (s *Store) setField(reason string, same func(cur *ExchangeContext) bool, apply func(d *ExchangeContext)) bool {
	noop := false
	s.read(func(cur *ExchangeContext) { noop = same(cur) })
	if noop {
		return false
	}
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		apply(d)
		return d
	}, reason)
}

func sameToken(a, b *TokenContract) bool   { return cmp.Equal(a, b, diffOptions) }
func sameAccount(a, b *WalletAccount) bool { return cmp.Equal(a, b, diffOptions) }
func sameMessage(a, b *ErrorMessage) bool  { return cmp.Equal(a, b) }
func sameAmount(t *TokenContract, v *big.Int) bool {
	return t != nil && t.Amount.Equal(persist.BigIntFrom(v))
}

func (s *Store) SetSellTokenContract(t *TokenContract, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameToken(cur.TradeData.SellTokenContract, t) },
		func(d *ExchangeContext) { d.TradeData.SellTokenContract = t.Clone() })
}

func (s *Store) SetBuyTokenContract(t *TokenContract, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameToken(cur.TradeData.BuyTokenContract, t) },
		func(d *ExchangeContext) { d.TradeData.BuyTokenContract = t.Clone() })
}

func (s *Store) SetPreviewTokenContract(t *TokenContract, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameToken(cur.TradeData.PreviewTokenContract, t) },
		func(d *ExchangeContext) { d.TradeData.PreviewTokenContract = t.Clone() })
}

// SetSellAmount sets the sell side amount in base units. Without a sell
// token there is nothing to hold it and the call is a no-op.
func (s *Store) SetSellAmount(amount *big.Int, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool {
			t := cur.TradeData.SellTokenContract
			return t == nil || sameAmount(t, amount)
		},
		func(d *ExchangeContext) {
			if d.TradeData.SellTokenContract != nil {
				d.TradeData.SellTokenContract.Amount = persist.BigIntFrom(amount)
			}
		})
}

// SetBuyAmount sets the buy side amount in base units.
func (s *Store) SetBuyAmount(amount *big.Int, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool {
			t := cur.TradeData.BuyTokenContract
			return t == nil || sameAmount(t, amount)
		},
		func(d *ExchangeContext) {
			if d.TradeData.BuyTokenContract != nil {
				d.TradeData.BuyTokenContract.Amount = persist.BigIntFrom(amount)
			}
		})
}

func (s *Store) SetSellBalance(balance *big.Int, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool {
			t := cur.TradeData.SellTokenContract
			return t == nil || t.Balance.Equal(persist.BigIntFrom(balance))
		},
		func(d *ExchangeContext) {
			if d.TradeData.SellTokenContract != nil {
				d.TradeData.SellTokenContract.Balance = persist.BigIntFrom(balance)
			}
		})
}

func (s *Store) SetBuyBalance(balance *big.Int, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool {
			t := cur.TradeData.BuyTokenContract
			return t == nil || t.Balance.Equal(persist.BigIntFrom(balance))
		},
		func(d *ExchangeContext) {
			if d.TradeData.BuyTokenContract != nil {
				d.TradeData.BuyTokenContract.Balance = persist.BigIntFrom(balance)
			}
		})
}

func (s *Store) SetTradeDirection(dir TradeDirection, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return cur.TradeData.TradeDirection == dir },
		func(d *ExchangeContext) { d.TradeData.TradeDirection = dir })
}

func (s *Store) SetSlippageBps(bps int, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return cur.TradeData.Slippage.BPS == bps },
		func(d *ExchangeContext) {
			d.TradeData.Slippage = Slippage{BPS: bps, Percentage: helpers.BpsToPercent(bps)}
		})
}

func (s *Store) SetRateRatio(ratio float64, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return cur.TradeData.RateRatio == ratio },
		func(d *ExchangeContext) { d.TradeData.RateRatio = ratio })
}

// SetAppChainID moves the app to chainID. Token contracts are chain scoped,
// so an actual change clears them in the same write.
func (s *Store) SetAppChainID(chainID int64, reason string) bool {
	if chainID <= 0 {
		s.logger.Warn("ignoring invalid app chain", "chain", chainID, "reason", reason)
		return false
	}
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return cur.Network.AppChainID == chainID },
		func(d *ExchangeContext) {
			d.Network.AppChainID = chainID
			applyNetworkInfo(&d.Network)
			clearTokens(&d.TradeData)
		})
}

// SetWalletChainID records the chain the wallet reports.
func (s *Store) SetWalletChainID(chainID int64, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return cur.Network.ChainID == chainID },
		func(d *ExchangeContext) { d.Network.ChainID = chainID })
}

func (s *Store) SetConnected(connected bool, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return cur.Network.Connected == connected },
		func(d *ExchangeContext) { d.Network.Connected = connected })
}

func (s *Store) SetConnectedAccount(a *WalletAccount, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameAccount(cur.Accounts.ConnectedAccount, a) },
		func(d *ExchangeContext) { d.Accounts.ConnectedAccount = a.Clone() })
}

func (s *Store) SetRecipientAccount(a *WalletAccount, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameAccount(cur.Accounts.RecipientAccount, a) },
		func(d *ExchangeContext) { d.Accounts.RecipientAccount = a.Clone() })
}

func (s *Store) SetAgentAccount(a *WalletAccount, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameAccount(cur.Accounts.AgentAccount, a) },
		func(d *ExchangeContext) { d.Accounts.AgentAccount = a.Clone() })
}

func (s *Store) SetSponsorAccount(a *WalletAccount, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameAccount(cur.Accounts.SponsorAccount, a) },
		func(d *ExchangeContext) { d.Accounts.SponsorAccount = a.Clone() })
}

// SetAccountLists replaces the known recipient and agent lists.
func (s *Store) SetAccountLists(recipients, agents []WalletAccount, reason string) bool {
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		d.Accounts.RecipientAccounts = cloneAccounts(recipients)
		d.Accounts.AgentAccounts = cloneAccounts(agents)
		return d
	}, reason)
}

// AddSponsorship records account as sponsored. Re-adding a known address
// is a no-op.
func (s *Store) AddSponsorship(account WalletAccount, reason string) bool {
	if !helpers.IsValidEthAddress(account.Address) {
		s.logger.Warn("ignoring sponsorship without address", "reason", reason)
		return false
	}
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		for _, existing := range d.Accounts.SponsorAccounts {
			if helpers.SameAddress(existing.Address, account.Address) {
				return d
			}
		}
		d.Accounts.SponsorAccounts = append(d.Accounts.SponsorAccounts, account)
		return d
	}, reason)
}

// RemoveSponsorship drops the sponsorship for address.
func (s *Store) RemoveSponsorship(address, reason string) bool {
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		kept := d.Accounts.SponsorAccounts[:0]
		for _, a := range d.Accounts.SponsorAccounts {
			if !helpers.SameAddress(a.Address, address) {
				kept = append(kept, a)
			}
		}
		d.Accounts.SponsorAccounts = kept
		return d
	}, reason)
}

func (s *Store) SetErrorMessage(m *ErrorMessage, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameMessage(cur.ErrorMessage, m) },
		func(d *ExchangeContext) {
			if m == nil {
				d.ErrorMessage = nil
				return
			}
			c := *m
			d.ErrorMessage = &c
		})
}

func (s *Store) SetAPIErrorMessage(m *ErrorMessage, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return sameMessage(cur.APIErrorMessage, m) },
		func(d *ExchangeContext) {
			if m == nil {
				d.APIErrorMessage = nil
				return
			}
			c := *m
			d.APIErrorMessage = &c
		})
}

func (s *Store) SetAPITradingProvider(p, reason string) bool {
	return s.setField(reason,
		func(cur *ExchangeContext) bool { return cur.Settings.APITradingProvider == p },
		func(d *ExchangeContext) { d.Settings.APITradingProvider = p })
}

func clearTokens(td *TradeData) {
	td.SellTokenContract = nil
	td.BuyTokenContract = nil
	td.PreviewTokenContract = nil
}
