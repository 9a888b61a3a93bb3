package exchange

import (
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"
)

// Load restores a context from codec, merged over the defaults. It reports
// whether stored state was found. Without usable stored state it returns
// the defaults for fallbackChainID.
func Load(codec *persist.Codec, fallbackChainID int64) (*ExchangeContext, bool) {
	ctx := storedBase(fallbackChainID)
	if !codec.Load(ctx) {
		return NewExchangeContext(fallbackChainID), false
	}
	normalize(ctx, fallbackChainID)
	return ctx, true
}

// storedBase is the defaults a stored document decodes over. The panel tree
// starts empty so stale default nodes never mix with stored ones; Reconcile
// rebuilds it.
func storedBase(chainID int64) *ExchangeContext {
	c := NewExchangeContext(chainID)
	c.Settings.PanelTree = nil
	return c
}

// normalize repairs whatever a stored document left out or got wrong.
func normalize(c *ExchangeContext, fallbackChainID int64) {
	if c.Network.AppChainID <= 0 {
		c.Network.AppChainID = fallbackChainID
		if c.Network.AppChainID <= 0 {
			c.Network.AppChainID = DefaultChainID
		}
	}
	if c.Network.ChainID <= 0 {
		c.Network.ChainID = c.Network.AppChainID
	}
	applyNetworkInfo(&c.Network)
	// Connection state belongs to this process, not to the stored session.
	c.Network.Connected = false

	c.Settings.PanelTree = panels.Reconcile(c.Settings.PanelTree)
	if c.Settings.APITradingProvider == "" {
		c.Settings.APITradingProvider = defaultProvider
	}

	c.Accounts.SponsorAccounts = cloneAccounts(c.Accounts.SponsorAccounts)
	c.Accounts.RecipientAccounts = cloneAccounts(c.Accounts.RecipientAccounts)
	c.Accounts.AgentAccounts = cloneAccounts(c.Accounts.AgentAccounts)

	td := &c.TradeData
	if td.SellTokenContract != nil && td.BuyTokenContract != nil &&
		helpers.SameAddress(td.SellTokenContract.Address, td.BuyTokenContract.Address) {
		td.BuyTokenContract = nil
	}
	for _, t := range []*TokenContract{td.SellTokenContract, td.BuyTokenContract, td.PreviewTokenContract} {
		if t != nil && t.ChainID != 0 && t.ChainID != c.Network.AppChainID {
			clearTokens(td)
			break
		}
	}
}

// Encode returns the storage form of c: children stripped from the panel
// tree.
func Encode(c *ExchangeContext) ([]byte, error) {
	stored := c.Clone()
	stored.Settings.PanelTree = stored.Settings.PanelTree.Flatten()
	return persist.Marshal(stored)
}

// Decode parses a stored document over the defaults for fallbackChainID.
func Decode(data []byte, fallbackChainID int64) (*ExchangeContext, error) {
	c := storedBase(fallbackChainID)
	if err := persist.Unmarshal(data, c); err != nil {
		return nil, err
	}
	normalize(c, fallbackChainID)
	return c, nil
}
