package exchange

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dai  = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	usdc = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	vb   = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *persist.MemoryStorage) {
	t.Helper()
	mem := persist.NewMemoryStorage()
	codec := persist.NewCodec(mem, persist.DefaultKey, nil)
	opts = append([]Option{WithCodec(codec)}, opts...)
	return NewStore(NewExchangeContext(1), opts...), mem
}

func token(addr string, chainID int64) *TokenContract {
	return &TokenContract{Address: addr, ChainID: chainID, Decimals: 18, Symbol: "TKN", Name: "Token"}
}

func TestNewExchangeContextIsFullyPopulated(t *testing.T) {
	c := NewExchangeContext(137)
	assert.Equal(t, int64(137), c.Network.AppChainID)
	assert.Equal(t, int64(137), c.Network.ChainID)
	assert.Equal(t, "Polygon", c.Network.Name)
	assert.False(t, c.Network.Connected)
	assert.Equal(t, 100, c.TradeData.Slippage.BPS)
	assert.Equal(t, 1.0, c.TradeData.Slippage.Percentage)
	assert.Equal(t, "0x", c.Settings.APITradingProvider)
	assert.Len(t, c.Settings.PanelTree, len(panels.All()))
	assert.NotNil(t, c.Accounts.RecipientAccounts)

	assert.Equal(t, DefaultChainID, NewExchangeContext(0).Network.AppChainID)
	assert.Equal(t, "Unknown Network", NewExchangeContext(424242).Network.Name)
}

func TestCloneIsDeep(t *testing.T) {
	c := NewExchangeContext(1)
	c.TradeData.SellTokenContract = token(dai, 1)
	c.Accounts.RecipientAccounts = append(c.Accounts.RecipientAccounts, WalletAccount{Address: vb})

	cp := c.Clone()
	cp.TradeData.SellTokenContract.Symbol = "changed"
	cp.Accounts.RecipientAccounts[0].Name = "changed"
	cp.Settings.PanelTree[0].Visible = !cp.Settings.PanelTree[0].Visible

	assert.Equal(t, "TKN", c.TradeData.SellTokenContract.Symbol)
	assert.Empty(t, c.Accounts.RecipientAccounts[0].Name)
	assert.NotEqual(t, c.Settings.PanelTree[0].Visible, cp.Settings.PanelTree[0].Visible)
}

func TestIdentityUpdaterNeverPersists(t *testing.T) {
	s, mem := newTestStore(t)
	calls := 0
	s.Subscribe(func(_, _ *ExchangeContext, _ string) { calls++ })

	assert.False(t, s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext { return d }, "identity"))
	assert.False(t, s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext { return d.Clone() }, "clone"))
	assert.False(t, s.SetExchangeContext(func(*ExchangeContext) *ExchangeContext { return nil }, "nil"))

	assert.Zero(t, mem.Writes())
	assert.Zero(t, calls)
	assert.Zero(t, s.Version())
}

func TestNoOpIgnoresPanelChildrenAndEmptySlices(t *testing.T) {
	s, mem := newTestStore(t)

	assert.False(t, s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		d.Settings.PanelTree = d.Settings.PanelTree.Nest()
		d.Accounts.AgentAccounts = nil
		return d
	}, "nest"))
	assert.Zero(t, mem.Writes())
}

func TestWritePersistsAndNotifiesInOrder(t *testing.T) {
	s, mem := newTestStore(t, WithoutWatchers())

	var got []string
	s.Subscribe(func(_, _ *ExchangeContext, reason string) { got = append(got, "a:"+reason) })
	unsub := s.Subscribe(func(_, _ *ExchangeContext, reason string) { got = append(got, "b:"+reason) })

	require.True(t, s.SetSlippageBps(50, "slippage"))
	unsub()
	require.True(t, s.SetRateRatio(1.5, "rate"))

	assert.Equal(t, []string{"a:slippage", "b:slippage", "a:rate"}, got)
	assert.Equal(t, 2, mem.Writes())
	assert.Equal(t, uint64(2), s.Version())
	assert.Equal(t, 0.5, s.Snapshot().TradeData.Slippage.Percentage)
}

func TestListenerSeesPrevAndNext(t *testing.T) {
	s, _ := newTestStore(t)
	var prevChain, nextChain int64
	s.Subscribe(func(prev, next *ExchangeContext, _ string) {
		prevChain, nextChain = prev.Network.AppChainID, next.Network.AppChainID
	})

	require.True(t, s.SetAppChainID(10, "switch"))
	assert.Equal(t, int64(1), prevChain)
	assert.Equal(t, int64(10), nextChain)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s, _ := newTestStore(t)
	snap := s.Snapshot()
	snap.Network.Name = "mutated"
	assert.Equal(t, "Ethereum", s.Snapshot().Network.Name)
}

func TestPersistenceRoundTrip(t *testing.T) {
	s, mem := newTestStore(t)
	huge, ok := new(big.Int).SetString("123456789012345678901", 10)
	require.True(t, ok)

	sell := token(dai, 1)
	sell.Balance = persist.BigIntFrom(huge)
	require.True(t, s.SetSellTokenContract(sell, "sell"))
	require.True(t, s.SetSellAmount(big.NewInt(5_000), "amount"))
	require.True(t, s.OpenPanel(panels.SettingsPanel, "settings"))

	restored, found := Load(persist.NewCodec(mem, persist.DefaultKey, nil), 1)
	require.True(t, found)

	if diff := cmp.Diff(s.Snapshot(), restored, diffOptions); diff != "" {
		t.Errorf("restored context mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "123456789012345678901", restored.TradeData.SellTokenContract.Balance.String())
	assert.True(t, restored.Settings.PanelTree.IsVisible(panels.SettingsPanel))
}

func TestStoredTreeIsFlat(t *testing.T) {
	s, mem := newTestStore(t)
	require.True(t, s.OpenPanel(panels.SettingsPanel, "settings"))

	raw, ok, err := mem.Get(persist.DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(raw), "children")
	assert.Contains(t, string(raw), `"name":"Settings"`)
}

func TestLoadWithoutStoredState(t *testing.T) {
	c, found := Load(persist.NewCodec(persist.NewMemoryStorage(), "", nil), 8453)
	assert.False(t, found)
	assert.Equal(t, int64(8453), c.Network.AppChainID)
	assert.Equal(t, "Base", c.Network.Name)
}

func TestDecodeRepairsStoredDocument(t *testing.T) {
	doc := `{
		"network": {"chainId": 0, "appChainId": 137, "connected": true},
		"tradeData": {
			"sellTokenContract": {"address": "` + dai + `", "chainId": 137},
			"buyTokenContract": {"address": "` + lower(dai) + `", "chainId": 137}
		},
		"settings": {"panelTree": [{"panel": 999, "visible": true}, {"panel": 3, "visible": true}]}
	}`
	c, err := Decode([]byte(doc), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(137), c.Network.AppChainID)
	assert.Equal(t, int64(137), c.Network.ChainID)
	assert.False(t, c.Network.Connected)
	assert.Equal(t, "Polygon", c.Network.Name)
	assert.NotNil(t, c.TradeData.SellTokenContract)
	assert.Nil(t, c.TradeData.BuyTokenContract)
	assert.True(t, c.Settings.PanelTree.IsVisible(panels.TokenListSelectPanel))
	assert.False(t, c.Settings.PanelTree.IsVisible(panels.TradingStationPanel))
	assert.Equal(t, "0x", c.Settings.APITradingProvider)

	_, err = Decode([]byte("{"), 1)
	assert.Error(t, err)
}

func TestDecodeDropsTokensFromAnotherChain(t *testing.T) {
	doc := `{"network": {"appChainId": 10}, "tradeData": {"sellTokenContract": {"address": "` + dai + `", "chainId": 1}}}`
	c, err := Decode([]byte(doc), 1)
	require.NoError(t, err)
	assert.Nil(t, c.TradeData.SellTokenContract)
}

func TestEncodeMatchesStoredForm(t *testing.T) {
	c := NewExchangeContext(1)
	c.Settings.PanelTree = c.Settings.PanelTree.Nest()
	data, err := Encode(c)
	require.NoError(t, err)

	back, err := Decode(data, 1)
	require.NoError(t, err)
	assert.True(t, c.Settings.PanelTree.Equal(back.Settings.PanelTree))
}

// A sell token followed by the same buy token leaves the buy side empty.
func TestWatcherClearsDuplicateBuyToken(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.SetSellTokenContract(token(dai, 1), "sell"))
	require.True(t, s.SetBuyTokenContract(token(lower(dai), 1), "buy"))

	snap := s.Snapshot()
	require.NotNil(t, snap.TradeData.SellTokenContract)
	assert.Nil(t, snap.TradeData.BuyTokenContract)

	require.True(t, s.SetBuyTokenContract(token(usdc, 1), "buy"))
	assert.NotNil(t, s.Snapshot().TradeData.BuyTokenContract)
}

func TestWatcherCorrectionReachesListenersAfterTrigger(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.SetSellTokenContract(token(dai, 1), "sell"))

	var reasons []string
	s.Subscribe(func(_, _ *ExchangeContext, reason string) { reasons = append(reasons, reason) })
	s.SetBuyTokenContract(token(dai, 1), "buy")

	assert.Equal(t, []string{"buy", "dedupe sell/buy token"}, reasons)
}

func TestWatcherClosesTokenListOnCommit(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.OpenPanel(panels.TokenListSelectPanel, "pick sell token"))
	require.False(t, s.IsPanelVisible(panels.TradingStationPanel))

	require.True(t, s.SetSellTokenContract(token(dai, 1), "sell"))
	assert.True(t, s.IsPanelVisible(panels.TradingStationPanel))
	assert.False(t, s.IsPanelVisible(panels.TokenListSelectPanel))
}

// holdNotification blocks listeners of writes made with reason until the
// returned release is called. entered is closed once the held write is
// inside its notification.
func holdNotification(s *Store, reason string) (entered <-chan struct{}, release func()) {
	in := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once
	s.Subscribe(func(_, _ *ExchangeContext, r string) {
		if r != reason {
			return
		}
		once.Do(func() { close(in) })
		<-gate
	})
	return in, func() { close(gate) }
}

func TestLateCollisionNoticeKeepsNewerBuyToken(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.SetSellTokenContract(token(dai, 1), "sell"))

	entered, release := holdNotification(s, "buy dai")
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SetBuyTokenContract(token(dai, 1), "buy dai")
	}()
	<-entered

	require.True(t, s.SetBuyTokenContract(token(usdc, 1), "buy usdc"))
	release()
	<-done

	buy := s.Snapshot().TradeData.BuyTokenContract
	require.NotNil(t, buy)
	assert.Equal(t, usdc, buy.Address)
}

func TestLateCommitNoticeLeavesReopenedListAlone(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.OpenPanel(panels.TokenListSelectPanel, "pick sell token"))

	entered, release := holdNotification(s, "sell dai")
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.SetSellTokenContract(token(dai, 1), "sell dai")
	}()
	<-entered

	require.True(t, s.SetSellTokenContract(nil, "sell cleared"))
	release()
	<-done

	assert.True(t, s.IsPanelVisible(panels.TokenListSelectPanel))
	assert.False(t, s.IsPanelVisible(panels.TradingStationPanel))
}

func TestWatchersCanBeDisabled(t *testing.T) {
	s, _ := newTestStore(t, WithoutWatchers())
	require.True(t, s.SetSellTokenContract(token(dai, 1), "sell"))
	require.True(t, s.SetBuyTokenContract(token(dai, 1), "buy"))
	assert.NotNil(t, s.Snapshot().TradeData.BuyTokenContract)
}

func TestChainChangeClearsTokens(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.SetSellTokenContract(token(dai, 1), "sell"))
	require.True(t, s.SetBuyTokenContract(token(usdc, 1), "buy"))
	require.True(t, s.SetPreviewTokenContract(token(usdc, 1), "preview"))

	assert.False(t, s.SetAppChainID(1, "same chain"))
	assert.NotNil(t, s.Snapshot().TradeData.SellTokenContract)

	require.True(t, s.SetAppChainID(137, "switch"))
	snap := s.Snapshot()
	assert.Nil(t, snap.TradeData.SellTokenContract)
	assert.Nil(t, snap.TradeData.BuyTokenContract)
	assert.Nil(t, snap.TradeData.PreviewTokenContract)
	assert.Equal(t, "Polygon", snap.Network.Name)

	assert.False(t, s.SetAppChainID(-1, "bad"))
}

func TestSettersAreFieldLevelNoOps(t *testing.T) {
	s, mem := newTestStore(t, WithoutWatchers())

	tests := []struct {
		name string
		set  func() bool
	}{
		{"trade direction", func() bool { return s.SetTradeDirection(SellExactOut, "dir") }},
		{"slippage", func() bool { return s.SetSlippageBps(100, "slippage") }},
		{"wallet chain", func() bool { return s.SetWalletChainID(1, "chain") }},
		{"connected", func() bool { return s.SetConnected(false, "conn") }},
		{"provider", func() bool { return s.SetAPITradingProvider("0x", "provider") }},
		{"error", func() bool { return s.SetErrorMessage(nil, "error") }},
		{"api error", func() bool { return s.SetAPIErrorMessage(nil, "api error") }},
		{"recipient", func() bool { return s.SetRecipientAccount(nil, "recipient") }},
		{"amount without token", func() bool { return s.SetSellAmount(big.NewInt(1), "amount") }},
		{"balance without token", func() bool { return s.SetBuyBalance(big.NewInt(1), "balance") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.set())
		})
	}
	assert.Zero(t, mem.Writes())
}

func TestSettersApply(t *testing.T) {
	s, _ := newTestStore(t, WithoutWatchers())

	require.True(t, s.SetSellTokenContract(token(dai, 1), "sell"))
	require.True(t, s.SetBuyTokenContract(token(usdc, 1), "buy"))
	require.True(t, s.SetSellAmount(big.NewInt(10), "sell amount"))
	require.False(t, s.SetSellAmount(big.NewInt(10), "sell amount again"))
	require.True(t, s.SetBuyAmount(big.NewInt(20), "buy amount"))
	require.True(t, s.SetSellBalance(big.NewInt(30), "sell balance"))
	require.True(t, s.SetBuyBalance(big.NewInt(40), "buy balance"))
	require.True(t, s.SetTradeDirection(BuyExactIn, "dir"))
	require.True(t, s.SetWalletChainID(137, "wallet"))
	require.True(t, s.SetConnected(true, "conn"))
	require.True(t, s.SetConnectedAccount(&WalletAccount{Address: vb}, "connected"))
	require.True(t, s.SetAgentAccount(&WalletAccount{Address: usdc}, "agent"))
	require.True(t, s.SetSponsorAccount(&WalletAccount{Address: dai}, "sponsor"))
	require.True(t, s.SetErrorMessage(&ErrorMessage{Status: StatusMessageError, Message: "boom"}, "error"))
	require.True(t, s.SetAPIErrorMessage(&ErrorMessage{Status: StatusErrorAPIPrice, ErrCode: 429}, "api"))
	require.True(t, s.SetAPITradingProvider("uniswap", "provider"))

	snap := s.Snapshot()
	assert.Equal(t, "10", snap.TradeData.SellTokenContract.Amount.String())
	assert.Equal(t, "20", snap.TradeData.BuyTokenContract.Amount.String())
	assert.Equal(t, "30", snap.TradeData.SellTokenContract.Balance.String())
	assert.Equal(t, "40", snap.TradeData.BuyTokenContract.Balance.String())
	assert.Equal(t, BuyExactIn, snap.TradeData.TradeDirection)
	assert.Equal(t, int64(137), snap.Network.ChainID)
	assert.Equal(t, int64(1), snap.Network.AppChainID)
	assert.True(t, snap.Network.Connected)
	assert.Equal(t, vb, snap.Accounts.ConnectedAccount.Address)
	assert.Equal(t, usdc, snap.Accounts.AgentAccount.Address)
	assert.Equal(t, dai, snap.Accounts.SponsorAccount.Address)
	assert.Equal(t, "boom", snap.ErrorMessage.Message)
	assert.Equal(t, 429, snap.APIErrorMessage.ErrCode)
	assert.Equal(t, "uniswap", snap.Settings.APITradingProvider)
}

func TestSetterArgumentIsCopied(t *testing.T) {
	s, _ := newTestStore(t)
	tk := token(dai, 1)
	require.True(t, s.SetSellTokenContract(tk, "sell"))
	tk.Symbol = "mutated"
	assert.Equal(t, "TKN", s.Snapshot().TradeData.SellTokenContract.Symbol)
}

func TestSponsorships(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.AddSponsorship(WalletAccount{Address: vb, Name: "vb"}, "add"))
	assert.False(t, s.AddSponsorship(WalletAccount{Address: lower(vb)}, "add again"))
	assert.False(t, s.AddSponsorship(WalletAccount{Address: "nope"}, "bad"))
	require.True(t, s.AddSponsorship(WalletAccount{Address: dai}, "add dai"))
	assert.Len(t, s.Snapshot().Accounts.SponsorAccounts, 2)

	require.True(t, s.RemoveSponsorship(lower(vb), "remove"))
	assert.False(t, s.RemoveSponsorship(vb, "remove again"))
	left := s.Snapshot().Accounts.SponsorAccounts
	require.Len(t, left, 1)
	assert.Equal(t, dai, left[0].Address)

	require.True(t, s.SetAccountLists([]WalletAccount{{Address: vb}}, nil, "lists"))
	assert.Len(t, s.Snapshot().Accounts.RecipientAccounts, 1)
}

func TestResetKeepsNetwork(t *testing.T) {
	s, _ := newTestStore(t)
	require.True(t, s.SetAppChainID(137, "switch"))
	require.True(t, s.SetConnected(true, "conn"))
	require.True(t, s.SetSellTokenContract(token(dai, 137), "sell"))
	require.True(t, s.OpenPanel(panels.SettingsPanel, "settings"))

	require.True(t, s.Reset("reset"))
	snap := s.Snapshot()
	assert.Equal(t, int64(137), snap.Network.AppChainID)
	assert.True(t, snap.Network.Connected)
	assert.Nil(t, snap.TradeData.SellTokenContract)
	assert.True(t, snap.Settings.PanelTree.Equal(panels.Defaults()))
}

func TestPanelOperations(t *testing.T) {
	s, _ := newTestStore(t)

	require.True(t, s.OpenPanel(panels.TokenListSelectPanel, "tokens"))
	require.True(t, s.OpenPanel(panels.RecipientListSelectPanel, "recipients"))
	assert.True(t, s.IsPanelVisible(panels.RecipientListSelectPanel))
	assert.False(t, s.IsPanelVisible(panels.TokenListSelectPanel))
	assert.False(t, s.OpenPanel(panels.RecipientListSelectPanel, "again"))

	require.True(t, s.OpenOverlay(panels.SettingsPanel, "settings"))
	assert.False(t, s.IsPanelVisible(panels.RecipientListSelectPanel))
	require.True(t, s.ClosePanel(panels.SettingsPanel, "close"))
	_, open := s.PanelTree().VisibleIn(panels.MainOverlays)
	assert.False(t, open)

	require.True(t, s.TogglePanel(panels.LogPanel, "log"))
	assert.True(t, s.IsPanelVisible(panels.LogPanel))
	require.True(t, s.TogglePanel(panels.LogPanel, "log"))
	assert.False(t, s.IsPanelVisible(panels.LogPanel))
}

func TestConcurrentWritesStayConsistent(t *testing.T) {
	s, _ := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(bps int) {
			defer wg.Done()
			s.SetSlippageBps(bps, "concurrent")
			s.TogglePanel(panels.LogPanel, "concurrent")
		}(i + 1)
	}
	wg.Wait()
	snap := s.Snapshot()
	assert.Equal(t, float64(snap.TradeData.Slippage.BPS)/100, snap.TradeData.Slippage.Percentage)
}

func TestHydrateAccount(t *testing.T) {
	h := HydratorFunc(func(_ context.Context, addr string) (*WalletAccount, error) {
		return &WalletAccount{Address: addr, Name: "Vitalik", Status: StatusSuccess}, nil
	})

	t.Run("applies when still connected", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.True(t, s.SetConnectedAccount(MakeWalletFallback(vb, StatusPending, "loading"), "pending"))

		applied, err := s.HydrateAccount(context.Background(), h, vb)
		require.NoError(t, err)
		assert.True(t, applied)
		assert.Equal(t, "Vitalik", s.Snapshot().Accounts.ConnectedAccount.Name)
	})

	t.Run("stale result is discarded", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.True(t, s.SetConnectedAccount(&WalletAccount{Address: vb}, "first"))

		slow := HydratorFunc(func(ctx context.Context, addr string) (*WalletAccount, error) {
			// The user switches accounts while this lookup is in flight.
			s.SetConnectedAccount(&WalletAccount{Address: dai}, "second")
			return h(ctx, addr)
		})
		applied, err := s.HydrateAccount(context.Background(), slow, vb)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, dai, s.Snapshot().Accounts.ConnectedAccount.Address)
		assert.Empty(t, s.Snapshot().Accounts.ConnectedAccount.Name)
	})

	t.Run("failure installs fallback", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.True(t, s.SetConnectedAccount(&WalletAccount{Address: vb, Status: StatusPending}, "pending"))
		failing := HydratorFunc(func(context.Context, string) (*WalletAccount, error) {
			return nil, errors.New("rpc down")
		})

		applied, err := s.HydrateAccount(context.Background(), failing, vb)
		require.NoError(t, err)
		assert.True(t, applied)
		acct := s.Snapshot().Accounts.ConnectedAccount
		assert.Equal(t, StatusMessageError, acct.Status)
		assert.Contains(t, acct.Description, "rpc down")
	})

	t.Run("cancelled context writes nothing", func(t *testing.T) {
		s, _ := newTestStore(t)
		require.True(t, s.SetConnectedAccount(&WalletAccount{Address: vb}, "pending"))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		applied, err := s.HydrateAccount(ctx, h, vb)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, applied)
	})

	t.Run("nil store", func(t *testing.T) {
		var s *Store
		_, err := s.HydrateAccount(context.Background(), h, vb)
		assert.ErrorIs(t, err, ErrNoStore)
	})
}

func TestMakeWalletFallback(t *testing.T) {
	w := MakeWalletFallback(lower(vb), StatusMissingAccountAddress, "missing")
	assert.Equal(t, vb, w.Address)
	assert.Equal(t, "0xAb58…eC9B", w.Name)
	assert.Equal(t, StatusMissingAccountAddress, w.Status)
	assert.Equal(t, "missing", w.Description)
}

func lower(s string) string { return strings.ToLower(s) }
