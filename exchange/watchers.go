package exchange

import (
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/panels"
)

// Watchers see notifications that may arrive after newer writes. Each one
// decides again against the draft of its own write, never against next.

// watchTokenCollision clears the buy side when it names the sell token.
func (s *Store) watchTokenCollision(_, next *ExchangeContext, _ string) {
	if !tokensCollide(next) {
		return
	}
	s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		if tokensCollide(d) {
			s.logger.Info("buy token equals sell token, clearing buy side", "address", d.TradeData.BuyTokenContract.Address)
			d.TradeData.BuyTokenContract = nil
		}
		return d
	}, "dedupe sell/buy token")
}

func tokensCollide(c *ExchangeContext) bool {
	sell, buy := c.TradeData.SellTokenContract, c.TradeData.BuyTokenContract
	return sell != nil && buy != nil && helpers.SameAddress(sell.Address, buy.Address)
}

// watchTokenCommitOverlay sends the user back to the trading station when a
// token lands while the token list overlay is still up.
func (s *Store) watchTokenCommitOverlay(prev, next *ExchangeContext, _ string) {
	if !next.Settings.PanelTree.IsVisible(panels.TokenListSelectPanel) {
		return
	}
	sell := tokenCommitted(prev.TradeData.SellTokenContract, next.TradeData.SellTokenContract)
	buy := tokenCommitted(prev.TradeData.BuyTokenContract, next.TradeData.BuyTokenContract)
	if !sell && !buy {
		return
	}
	s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		if !d.Settings.PanelTree.IsVisible(panels.TokenListSelectPanel) {
			return d
		}
		// The committed token must still be the current one.
		if sell && !sameAddressOf(d.TradeData.SellTokenContract, next.TradeData.SellTokenContract) {
			sell = false
		}
		if buy && !sameAddressOf(d.TradeData.BuyTokenContract, next.TradeData.BuyTokenContract) {
			buy = false
		}
		if sell || buy {
			d.Settings.PanelTree = d.Settings.PanelTree.Open(panels.TradingStationPanel, "token committed")
		}
		return d
	}, "token committed")
}

func tokenCommitted(prev, next *TokenContract) bool {
	if next == nil {
		return false
	}
	return prev == nil || !helpers.SameAddress(prev.Address, next.Address)
}

func sameAddressOf(a, b *TokenContract) bool {
	return a != nil && b != nil && helpers.SameAddress(a.Address, b.Address)
}
