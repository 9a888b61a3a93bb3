package session

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"charm-exchange-tui/config"
	"charm-exchange-tui/exchange"
	"charm-exchange-tui/inputfsm"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"
	"charm-exchange-tui/quote"
	"charm-exchange-tui/rpc"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	vitalik = "0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"
	wethHex = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	daiHex  = "0x6B175474E89094C44Da98b954EedeAC495271d0F"

	mainnetURL = "https://mainnet.test"
	baseURL    = "https://base.test"
)

var daiWethPool = common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11")

// fakeConn is one chain: a DAI/WETH pool on mainnet and fixed balances.
type fakeConn struct {
	chainID int64
	mu      sync.Mutex
	closed  bool
}

func (f *fakeConn) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	sel := msg.Data[:4]
	factory, _ := quote.FactoryFor(1)
	switch {
	case bytes.Equal(sel, rpc.ERC20.Methods["balanceOf"].ID):
		return rpc.ERC20.Methods["balanceOf"].Outputs.Pack(big.NewInt(42))
	case f.chainID == 1 && *msg.To == factory && bytes.Equal(sel, quote.PairABI.Methods["getPair"].ID):
		return quote.PairABI.Methods["getPair"].Outputs.Pack(daiWethPool)
	case f.chainID == 1 && *msg.To == daiWethPool && bytes.Equal(sel, quote.PairABI.Methods["getReserves"].ID):
		// token0 is DAI.
		return quote.PairABI.Methods["getReserves"].Outputs.Pack(big.NewInt(2_000_000), big.NewInt(1_000_000), uint32(0))
	}
	return nil, errors.New("execution reverted")
}

func (f *fakeConn) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeConn) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return big.NewInt(7e17), nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// fakeNet dials fakeConns by url.
type fakeNet struct {
	mu     sync.Mutex
	chains map[string]int64
	dialed []string
}

func (n *fakeNet) dial(_ context.Context, url string) (Conn, int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dialed = append(n.dialed, url)
	id, ok := n.chains[url]
	if !ok {
		return nil, 0, errors.New("connection refused")
	}
	return &fakeConn{chainID: id}, id, nil
}

func testConfig(activeURL string) config.Config {
	cfg := config.Config{
		RPCURLs: []config.RPCUrl{
			{Name: "Mainnet", URL: mainnetURL, ChainID: 1},
			{Name: "Base", URL: baseURL, ChainID: 8453},
		},
		Wallets:    []config.WalletEntry{{Name: "vitalik.eth", Address: vitalik, Active: true}},
		DebounceMS: map[string]int{Sell: 10, Buy: 10, Recipient: 10, Agent: 10, Preview: 10},
	}
	cfg.SetActiveRPC(activeURL)
	return cfg
}

func newSession(t *testing.T, cfg config.Config, st persist.Storage) (*Session, *fakeNet) {
	t.Helper()
	net := &fakeNet{chains: map[string]int64{mainnetURL: 1, baseURL: 8453}}
	if st == nil {
		st = persist.NewMemoryStorage()
	}
	s, err := New(cfg, WithStorage(st), WithDialer(net.dial))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, net
}

func token(t *testing.T, s *Session, chainID int64, addr string) *exchange.TokenContract {
	t.Helper()
	tok, ok := s.Feeds().FindToken(chainID, addr)
	require.True(t, ok, "token %s not bundled for chain %d", addr, chainID)
	return tok
}

func TestNewSeedsBundledAccounts(t *testing.T) {
	s, _ := newSession(t, testConfig(""), nil)

	assert.False(t, s.Restored())
	snap := s.Store().Snapshot()
	assert.NotEmpty(t, snap.Accounts.RecipientAccounts)
	assert.NotEmpty(t, snap.Accounts.AgentAccounts)
	for _, id := range Instances {
		assert.NotNil(t, s.Machine(id), id)
	}
	assert.Nil(t, s.Machine("nope"))
}

func TestBootOffline(t *testing.T) {
	s, net := newSession(t, testConfig(""), nil)

	require.NoError(t, s.Boot(context.Background()))

	n := s.Store().Snapshot().Network
	assert.Equal(t, exchange.DefaultChainID, n.AppChainID)
	assert.False(t, n.Connected)
	assert.Empty(t, net.dialed)
	assert.Nil(t, s.Backend())
}

func TestBootAdoptsWalletChainAndHydrates(t *testing.T) {
	s, _ := newSession(t, testConfig(baseURL), nil)

	require.NoError(t, s.Boot(context.Background()))

	snap := s.Store().Snapshot()
	assert.Equal(t, int64(8453), snap.Network.AppChainID)
	assert.Equal(t, int64(8453), snap.Network.ChainID)
	assert.True(t, snap.Network.Connected)

	acct := snap.Accounts.ConnectedAccount
	require.NotNil(t, acct)
	assert.Equal(t, "vitalik.eth", acct.Name)
	assert.Equal(t, exchange.StatusSuccess, acct.Status)
	assert.Equal(t, "700000000000000000", acct.Balance.String())

	url, chain, ok := s.Connection()
	assert.True(t, ok)
	assert.Equal(t, baseURL, url)
	assert.Equal(t, int64(8453), chain)
}

func TestBootRestoredSessionCommandsSwitch(t *testing.T) {
	st := persist.NewMemoryStorage()

	first, _ := newSession(t, testConfig(""), st)
	require.NoError(t, first.Boot(context.Background()))
	first.Close()

	second, net := newSession(t, testConfig(baseURL), st)
	require.True(t, second.Restored())
	require.NoError(t, second.Boot(context.Background()))

	n := second.Store().Snapshot().Network
	assert.Equal(t, int64(1), n.AppChainID, "stored app chain stays authoritative")
	assert.Equal(t, int64(1), n.ChainID, "connection followed the app")
	assert.Zero(t, second.PendingChain())
	assert.Equal(t, []string{baseURL, mainnetURL}, net.dialed)

	active, _ := second.Config().ActiveRPC()
	assert.Equal(t, mainnetURL, active.URL)
}

func TestSelectChainWithoutEndpoint(t *testing.T) {
	s, _ := newSession(t, testConfig(mainnetURL), nil)
	require.NoError(t, s.Boot(context.Background()))

	err := s.SelectChain(context.Background(), 137)
	require.ErrorIs(t, err, ErrNoRPC)

	snap := s.Store().Snapshot()
	assert.Equal(t, int64(137), snap.Network.AppChainID)
	assert.Equal(t, int64(1), snap.Network.ChainID)
	require.NotNil(t, snap.ErrorMessage)
	assert.Equal(t, exchange.StatusWarning, snap.ErrorMessage.Status)
}

func TestUseRPCIsAWalletMove(t *testing.T) {
	s, _ := newSession(t, testConfig(mainnetURL), nil)
	require.NoError(t, s.Boot(context.Background()))
	s.Store().SetSellTokenContract(token(t, s, 1, wethHex), "test")

	require.NoError(t, s.UseRPC(context.Background(), baseURL))

	snap := s.Store().Snapshot()
	assert.Equal(t, int64(8453), snap.Network.AppChainID)
	assert.Nil(t, snap.TradeData.SellTokenContract, "chain change clears tokens")

	err := s.UseRPC(context.Background(), "https://down.test")
	require.Error(t, err)
	assert.Equal(t, "rpc", s.Store().Snapshot().ErrorMessage.Source)
}

func TestDisconnect(t *testing.T) {
	s, _ := newSession(t, testConfig(mainnetURL), nil)
	require.NoError(t, s.Boot(context.Background()))

	s.Disconnect()
	assert.Nil(t, s.Backend())
	assert.False(t, s.Store().Snapshot().Network.Connected)
}

func TestUseAccountAddsWallet(t *testing.T) {
	s, _ := newSession(t, testConfig(mainnetURL), nil)
	require.NoError(t, s.Boot(context.Background()))

	other := "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	require.NoError(t, s.UseAccount(context.Background(), other))

	w, _ := s.Config().ActiveWallet()
	assert.Equal(t, other, w.Address)
	assert.Len(t, s.Config().Wallets, 2)
	assert.Equal(t, other, s.Store().Snapshot().Accounts.ConnectedAccount.Address)

	require.Error(t, s.UseAccount(context.Background(), "0x123"))
}

func TestHydrationUsesWalletsAddedLater(t *testing.T) {
	s, _ := newSession(t, testConfig(mainnetURL), nil)
	require.NoError(t, s.Boot(context.Background()))

	other := "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
	require.NoError(t, s.UpdateConfig(func(c *config.Config) {
		c.Wallets = append(c.Wallets, config.WalletEntry{Name: "treasury", Address: other})
	}))
	require.NoError(t, s.UseAccount(context.Background(), other))

	acct := s.Store().Snapshot().Accounts.ConnectedAccount
	require.NotNil(t, acct)
	assert.Equal(t, "treasury", acct.Name)
}

func TestMachinesCommitIntoStore(t *testing.T) {
	s, _ := newSession(t, testConfig(""), nil)
	st := s.Store()

	st.OpenOverlay(panels.TokenListSelectPanel, "test")
	s.Machine(Sell).Select(token(t, s, 1, wethHex))

	snap := st.Snapshot()
	require.NotNil(t, snap.TradeData.SellTokenContract)
	assert.Equal(t, "WETH", snap.TradeData.SellTokenContract.Symbol)
	assert.True(t, st.IsPanelVisible(panels.TradingStationPanel))
	assert.False(t, st.IsPanelVisible(panels.TokenListSelectPanel))
	assert.Equal(t, inputfsm.EmptyInput, s.Machine(Sell).State())

	recipients := snap.Accounts.RecipientAccounts
	require.NotEmpty(t, recipients)
	st.OpenOverlay(panels.RecipientListSelectPanel, "test")
	s.Machine(Recipient).Select(&recipients[0])
	assert.Equal(t, recipients[0].Address, st.Snapshot().Accounts.RecipientAccount.Address)
	assert.False(t, st.IsPanelVisible(panels.RecipientListSelectPanel))

	assert.True(t, s.SponsorRecipient())
	assert.False(t, s.SponsorRecipient(), "second sponsorship is a no-op")
	assert.Len(t, st.Snapshot().Accounts.SponsorAccounts, 1)

	// A token offered to an account machine is refused.
	s.Machine(Agent).Select(token(t, s, 1, daiHex))
	assert.Nil(t, st.Snapshot().Accounts.AgentAccount)
}

func TestPreviewMirrorsValidatedToken(t *testing.T) {
	s, _ := newSession(t, testConfig(""), nil)

	s.Machine(Preview).SetInput(daiHex)
	require.Eventually(t, func() bool {
		p := s.Store().Snapshot().TradeData.PreviewTokenContract
		return p != nil && p.Symbol == "DAI"
	}, waitFor, tick)
	assert.Nil(t, s.Store().Snapshot().TradeData.SellTokenContract, "preview never commits")

	s.Machine(Preview).SetInput("")
	require.Eventually(t, func() bool {
		return s.Store().Snapshot().TradeData.PreviewTokenContract == nil
	}, waitFor, tick)
}

func TestEventsCarryTransitionsAndWrites(t *testing.T) {
	s, _ := newSession(t, testConfig(""), nil)

	// Drain what New produced.
	for len(s.Events()) > 0 {
		<-s.Events()
	}

	s.Machine(Buy).SetInput("not-an-address")
	var sawTransition, sawWrite bool
	s.Store().SetSlippageBps(250, "test write")
	for !(sawTransition && sawWrite) {
		select {
		case ev := <-s.Events():
			if ev.Transition != nil && ev.Transition.Instance == Buy {
				sawTransition = true
			}
			if ev.Reason == "test write" {
				sawWrite = true
			}
		case <-timeout():
			t.Fatalf("events missing: transition=%v write=%v", sawTransition, sawWrite)
		}
	}
}

func TestAmountsAndSlippage(t *testing.T) {
	s, _ := newSession(t, testConfig(""), nil)
	st := s.Store()

	require.ErrorIs(t, s.SetAmountText(Sell, "1"), ErrNoToken)

	st.SetSellTokenContract(token(t, s, 1, wethHex), "test")
	st.SetBuyTokenContract(token(t, s, 1, daiHex), "test")

	require.NoError(t, s.SetAmountText(Sell, "1.5"))
	td := st.Snapshot().TradeData
	assert.Equal(t, "1500000000000000000", td.SellTokenContract.Amount.String())
	assert.Equal(t, exchange.SellExactOut, td.TradeDirection)

	require.NoError(t, s.SetAmountText(Buy, "2"))
	assert.Equal(t, exchange.BuyExactIn, st.Snapshot().TradeData.TradeDirection)
	require.Error(t, s.SetAmountText(Buy, "abc"))

	require.NoError(t, s.SetSlippageText("0.5"))
	assert.Equal(t, 50, st.Snapshot().TradeData.Slippage.BPS)
	require.Error(t, s.SetSlippageText("150"))

	require.True(t, s.SwapSides())
	td = st.Snapshot().TradeData
	assert.Equal(t, "DAI", td.SellTokenContract.Symbol)
	assert.Equal(t, "WETH", td.BuyTokenContract.Symbol)
	assert.Equal(t, exchange.SellExactOut, td.TradeDirection)
}

func TestRefreshQuote(t *testing.T) {
	s, _ := newSession(t, testConfig(mainnetURL), nil)
	require.NoError(t, s.Boot(context.Background()))
	st := s.Store()

	_, err := s.RefreshQuote(context.Background())
	require.ErrorIs(t, err, ErrNoToken)

	weth, dai := token(t, s, 1, wethHex), token(t, s, 1, daiHex)
	weth.Amount = persist.NewBigInt(1000)
	st.SetSellTokenContract(weth, "test")
	st.SetBuyTokenContract(dai, "test")

	q, err := s.RefreshQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1992), q.AmountOut.Int64())

	td := st.Snapshot().TradeData
	assert.InDelta(t, 1.992, td.RateRatio, 1e-9)
	assert.Equal(t, "1992", td.BuyTokenContract.Amount.String())
	assert.Nil(t, st.Snapshot().APIErrorMessage)

	require.NoError(t, s.UseRPC(context.Background(), baseURL))
	st.SetSellTokenContract(token(t, s, 8453, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), "test")
	st.SetBuyTokenContract(token(t, s, 8453, "0x4200000000000000000000000000000000000006"), "test")
	_, err = s.RefreshQuote(context.Background())
	require.Error(t, err)
	api := st.Snapshot().APIErrorMessage
	require.NotNil(t, api)
	assert.Equal(t, exchange.StatusErrorAPIPrice, api.Status)
}

func TestRefreshBalances(t *testing.T) {
	s, _ := newSession(t, testConfig(mainnetURL), nil)
	require.NoError(t, s.RefreshBalances(context.Background()), "no account is not an error")

	require.NoError(t, s.Boot(context.Background()))
	s.Store().SetSellTokenContract(token(t, s, 1, wethHex), "test")
	require.NoError(t, s.RefreshBalances(context.Background()))
	assert.Equal(t, "42", s.Store().Snapshot().TradeData.SellTokenContract.Balance.String())

	s.Disconnect()
	assert.ErrorIs(t, s.RefreshBalances(context.Background()), rpc.ErrNoClient)
}

func TestResetAndDismiss(t *testing.T) {
	s, _ := newSession(t, testConfig(""), nil)
	st := s.Store()

	st.SetErrorMessage(&exchange.ErrorMessage{Status: exchange.StatusWarning, Message: "x"}, "test")
	st.OpenOverlay(panels.ErrorMessagePanel, "test")
	s.DismissError()
	assert.Nil(t, st.Snapshot().ErrorMessage)
	assert.True(t, st.IsPanelVisible(panels.TradingStationPanel))

	st.SetSlippageBps(300, "test")
	s.Reset("test reset")
	assert.Equal(t, 100, st.Snapshot().TradeData.Slippage.BPS)
}
