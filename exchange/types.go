// Package exchange holds the single authoritative exchange session state and
// the only sanctioned way to change it.
package exchange

import (
	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"
)

// Status tags user-visible outcomes carried as data instead of errors.
type Status string

const (
	StatusInfo                  Status = "INFO"
	StatusSuccess               Status = "SUCCESS"
	StatusWarning               Status = "WARNING"
	StatusPending               Status = "PENDING"
	StatusMessageError          Status = "MESSAGE_ERROR"
	StatusErrorAPIPrice         Status = "ERROR_API_PRICE"
	StatusMissingAccountAddress Status = "MISSING_ACCOUNT_ADDRESS"
)

// TradeDirection says which side of the trade the user fixed.
type TradeDirection int

const (
	SellExactOut TradeDirection = iota
	BuyExactIn
)

func (d TradeDirection) String() string {
	if d == BuyExactIn {
		return "BUY_EXACT_IN"
	}
	return "SELL_EXACT_OUT"
}

// ValidatedAsset is a resolved token or wallet. Only *TokenContract and
// *WalletAccount implement it.
type ValidatedAsset interface {
	AssetAddress() string
	AssetSymbol() string
	validatedAsset()
}

// TokenContract is an ERC20 token (or the native coin) on one chain.
type TokenContract struct {
	Address  string         `json:"address"`
	ChainID  int64          `json:"chainId"`
	Decimals uint8          `json:"decimals"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	LogoURL  string         `json:"logoURL,omitempty"`
	Balance  persist.BigInt `json:"balance"`
	Amount   persist.BigInt `json:"amount"`
}

func (t *TokenContract) AssetAddress() string { return t.Address }
func (t *TokenContract) AssetSymbol() string  { return t.Symbol }
func (*TokenContract) validatedAsset()        {}

// Clone returns a copy; nil stays nil.
func (t *TokenContract) Clone() *TokenContract {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// WalletAccount is a connected wallet, recipient, agent or sponsor.
type WalletAccount struct {
	Address     string         `json:"address"`
	Name        string         `json:"name"`
	Symbol      string         `json:"symbol"`
	Website     string         `json:"website,omitempty"`
	Description string         `json:"description,omitempty"`
	Status      Status         `json:"status"`
	LogoURL     string         `json:"logoURL,omitempty"`
	Balance     persist.BigInt `json:"balance"`
}

func (w *WalletAccount) AssetAddress() string { return w.Address }
func (w *WalletAccount) AssetSymbol() string  { return w.Symbol }
func (*WalletAccount) validatedAsset()        {}

// Clone returns a copy; nil stays nil.
func (w *WalletAccount) Clone() *WalletAccount {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

// Network is the app's and the wallet's view of the chain.
type Network struct {
	ChainID    int64  `json:"chainId"`
	AppChainID int64  `json:"appChainId"`
	Connected  bool   `json:"connected"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	LogoURL    string `json:"logoURL"`
	URL        string `json:"url"`
}

// Accounts groups every account the session knows about.
type Accounts struct {
	ConnectedAccount  *WalletAccount  `json:"connectedAccount,omitempty"`
	AppAccount        *WalletAccount  `json:"appAccount,omitempty"`
	SponsorAccount    *WalletAccount  `json:"sponsorAccount,omitempty"`
	RecipientAccount  *WalletAccount  `json:"recipientAccount,omitempty"`
	AgentAccount      *WalletAccount  `json:"agentAccount,omitempty"`
	SponsorAccounts   []WalletAccount `json:"sponsorAccounts"`
	RecipientAccounts []WalletAccount `json:"recipientAccounts"`
	AgentAccounts     []WalletAccount `json:"agentAccounts"`
}

// Slippage is kept in both basis points and percent.
type Slippage struct {
	BPS        int     `json:"bps"`
	Percentage float64 `json:"percentage"`
}

type TradeData struct {
	TradeDirection       TradeDirection `json:"tradeDirection"`
	SellTokenContract    *TokenContract `json:"sellTokenContract,omitempty"`
	BuyTokenContract     *TokenContract `json:"buyTokenContract,omitempty"`
	PreviewTokenContract *TokenContract `json:"previewTokenContract,omitempty"`
	Slippage             Slippage       `json:"slippage"`
	RateRatio            float64        `json:"rateRatio"`
}

type Settings struct {
	PanelTree          panels.Tree `json:"panelTree"`
	APITradingProvider string      `json:"apiTradingProvider"`
}

// ErrorMessage is a user-visible failure.
type ErrorMessage struct {
	Status  Status `json:"status"`
	Source  string `json:"source"`
	ErrCode int    `json:"errCode"`
	Message string `json:"msg"`
}

// ExchangeContext is the root aggregate. Build it with NewExchangeContext and
// change it only through Store.SetExchangeContext.
type ExchangeContext struct {
	Network         Network       `json:"network"`
	Accounts        Accounts      `json:"accounts"`
	TradeData       TradeData     `json:"tradeData"`
	Settings        Settings      `json:"settings"`
	ErrorMessage    *ErrorMessage `json:"errorMessage,omitempty"`
	APIErrorMessage *ErrorMessage `json:"apiErrorMessage,omitempty"`
}

// Clone deep copies the context.
func (c *ExchangeContext) Clone() *ExchangeContext {
	if c == nil {
		return nil
	}
	out := *c

	a := &out.Accounts
	a.ConnectedAccount = c.Accounts.ConnectedAccount.Clone()
	a.AppAccount = c.Accounts.AppAccount.Clone()
	a.SponsorAccount = c.Accounts.SponsorAccount.Clone()
	a.RecipientAccount = c.Accounts.RecipientAccount.Clone()
	a.AgentAccount = c.Accounts.AgentAccount.Clone()
	a.SponsorAccounts = cloneAccounts(c.Accounts.SponsorAccounts)
	a.RecipientAccounts = cloneAccounts(c.Accounts.RecipientAccounts)
	a.AgentAccounts = cloneAccounts(c.Accounts.AgentAccounts)

	out.TradeData.SellTokenContract = c.TradeData.SellTokenContract.Clone()
	out.TradeData.BuyTokenContract = c.TradeData.BuyTokenContract.Clone()
	out.TradeData.PreviewTokenContract = c.TradeData.PreviewTokenContract.Clone()

	out.Settings.PanelTree = c.Settings.PanelTree.Clone()

	if c.ErrorMessage != nil {
		e := *c.ErrorMessage
		out.ErrorMessage = &e
	}
	if c.APIErrorMessage != nil {
		e := *c.APIErrorMessage
		out.APIErrorMessage = &e
	}
	return &out
}

func cloneAccounts(in []WalletAccount) []WalletAccount {
	if in == nil {
		return []WalletAccount{}
	}
	return append([]WalletAccount(nil), in...)
}
