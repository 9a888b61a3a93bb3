package exchange

import (
	"charm-exchange-tui/panels"
)

// DefaultChainID is used when neither storage nor a wallet names a chain.
const DefaultChainID int64 = 1

const (
	defaultSlippageBps = 100
	defaultProvider    = "0x"
)

// ChainInfo is static display metadata for a chain.
type ChainInfo struct {
	Name    string
	Symbol  string
	LogoURL string
	URL     string
}

var chains = map[int64]ChainInfo{
	1:        {Name: "Ethereum", Symbol: "ETH", LogoURL: "/assets/blockchains/1/info/network.png", URL: "https://etherscan.io"},
	10:       {Name: "Optimism", Symbol: "ETH", LogoURL: "/assets/blockchains/10/info/network.png", URL: "https://optimistic.etherscan.io"},
	137:      {Name: "Polygon", Symbol: "POL", LogoURL: "/assets/blockchains/137/info/network.png", URL: "https://polygonscan.com"},
	8453:     {Name: "Base", Symbol: "ETH", LogoURL: "/assets/blockchains/8453/info/network.png", URL: "https://basescan.org"},
	31337:    {Name: "Hardhat", Symbol: "ETH", LogoURL: "/assets/blockchains/31337/info/network.png", URL: ""},
	11155111: {Name: "Sepolia", Symbol: "ETH", LogoURL: "/assets/blockchains/11155111/info/network.png", URL: "https://sepolia.etherscan.io"},
}

// LookupChain returns the metadata for chainID.
func LookupChain(chainID int64) (ChainInfo, bool) {
	c, ok := chains[chainID]
	return c, ok
}

// KnownChains lists the chain ids with static metadata.
func KnownChains() []int64 {
	return []int64{1, 10, 137, 8453, 31337, 11155111}
}

func chainInfoOrUnknown(chainID int64) ChainInfo {
	if c, ok := chains[chainID]; ok {
		return c
	}
	return ChainInfo{Name: "Unknown Network", Symbol: "ETH"}
}

// NewExchangeContext returns a fully populated context for chainID. Every
// field downstream code reads has a value, so readers never need fallbacks.
func NewExchangeContext(chainID int64) *ExchangeContext {
	if chainID <= 0 {
		chainID = DefaultChainID
	}
	info := chainInfoOrUnknown(chainID)

	return &ExchangeContext{
		Network: Network{
			ChainID:    chainID,
			AppChainID: chainID,
			Connected:  false,
			Name:       info.Name,
			Symbol:     info.Symbol,
			LogoURL:    info.LogoURL,
			URL:        info.URL,
		},
		Accounts: Accounts{
			SponsorAccounts:   []WalletAccount{},
			RecipientAccounts: []WalletAccount{},
			AgentAccounts:     []WalletAccount{},
		},
		TradeData: TradeData{
			TradeDirection: SellExactOut,
			Slippage: Slippage{
				BPS:        defaultSlippageBps,
				Percentage: float64(defaultSlippageBps) / 100,
			},
		},
		Settings: Settings{
			PanelTree:          panels.Defaults(),
			APITradingProvider: defaultProvider,
		},
	}
}

// applyNetworkInfo refreshes display metadata for the app chain.
func applyNetworkInfo(n *Network) {
	info := chainInfoOrUnknown(n.AppChainID)
	n.Name = info.Name
	n.Symbol = info.Symbol
	n.LogoURL = info.LogoURL
	n.URL = info.URL
}
