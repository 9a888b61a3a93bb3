package main

import (
	"context"
	"fmt"
	"time"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/rpc"
	"charm-exchange-tui/session"
	"charm-exchange-tui/views/trade"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

const chainTimeout = 10 * time.Second

// initLogViewport initializes the log viewport
func initLogViewport() tea.Cmd {
	return func() tea.Msg {
		return logInitMsg{}
	}
}

// waitForEvent blocks until the session reports a change. The handler
// re-arms it.
func waitForEvent(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return sessionEventMsg{ev: <-sess.Events()}
	}
}

// bootSession dials the active endpoint and reconciles the restored state
func bootSession(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		return bootedMsg{err: sess.Boot(ctx)}
	}
}

// useRPC moves the wallet to another endpoint
func useRPC(sess *session.Session, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		return rpcSwitchedMsg{url: url, err: sess.UseRPC(ctx, url)}
	}
}

// probeRPC asks a new endpoint which chain it serves
func probeRPC(url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		res := rpc.ConnectContext(ctx, url)
		if res.Error != nil {
			return rpcProbedMsg{url: url, err: res.Error}
		}
		defer res.Client.Close()
		return rpcProbedMsg{url: url, chainID: res.Client.ChainID}
	}
}

// selectChain switches the app network
func selectChain(sess *session.Session, chainID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		return chainSelectedMsg{chainID: chainID, err: sess.SelectChain(ctx, chainID)}
	}
}

// useAccount connects a read-only account
func useAccount(sess *session.Session, address string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		return accountUsedMsg{address: address, err: sess.UseAccount(ctx, address)}
	}
}

// fetchQuote prices the selected pair from its pool
func fetchQuote(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		q, err := sess.RefreshQuote(ctx)
		return quoteMsg{quote: q, err: err}
	}
}

// refreshTradeBalances reads the connected account's balance of both sides
func refreshTradeBalances(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		return tradeBalancesMsg{err: sess.RefreshBalances(ctx)}
	}
}

// loadAccountBalances fetches the native balance and the bundled tokens the
// account holds
func loadAccountBalances(sess *session.Session, address string, chainID int64) tea.Cmd {
	var watch []rpc.WatchedToken
	for _, t := range sess.Feeds().Tokens(chainID) {
		watch = append(watch, rpc.WatchedToken{
			Symbol:   t.Symbol,
			Decimals: t.Decimals,
			Address:  common.HexToAddress(t.Address),
		})
	}
	b := sess.Backend()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), chainTimeout)
		defer cancel()
		return accountBalancesMsg{balances: rpc.LoadBalances(ctx, b, common.HexToAddress(address), watch)}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		err := clipboard.WriteAll(text)
		if err == nil {
			return clipboardCopiedMsg{}
		}
		return nil
	}
}

// clearClipboardFeedback waits 2 seconds then clears clipboard feedback
func clearClipboardFeedback() tea.Cmd {
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return clearClipboardMsg{}
	})
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	m.updateLogViewport()
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if !m.logEnabled || !m.logReady || m.logBuffer == nil {
		return
	}

	m.logViewport.SetContent(m.logBuffer.String())
	// Scroll to bottom to show latest entries
	m.logViewport.GotoBottom()
}

// textInputActive returns true if any text input is currently active
func (m model) textInputActive() bool {
	return m.typing || m.editingAmount || m.addingWallet || m.form != nil || m.confirmForm != nil
}

// activeOverlay is the visible main view.
func (m model) activeOverlay() panels.PanelID {
	if id, ok := m.snap.Settings.PanelTree.VisibleIn(panels.MainOverlays); ok {
		return id
	}
	return panels.TradingStationPanel
}

// listPanel maps an input machine to the overlay it drives.
func listPanel(instance string) panels.PanelID {
	switch instance {
	case session.Recipient:
		return panels.RecipientListSelectPanel
	case session.Agent:
		return panels.AgentListSelectPanel
	}
	return panels.TokenListSelectPanel
}

// instanceFor maps a list overlay back to its machine. A restored token
// list reopens for the sell side.
func instanceFor(id panels.PanelID) string {
	switch id {
	case panels.RecipientListSelectPanel:
		return session.Recipient
	case panels.AgentListSelectPanel:
		return session.Agent
	}
	return session.Sell
}

// openList shows the list overlay for instance with a fresh machine.
func (m *model) openList(instance string) {
	m.listInstance = instance
	m.listIdx = 0
	m.typing = false
	m.addrInput.SetValue("")
	m.addrInput.Blur()
	m.sess.Machine(instance).Reset()
	if instance == session.Sell || instance == session.Buy {
		m.sess.Machine(session.Preview).Reset()
	}
	m.sess.Store().OpenPanel(listPanel(instance), "open "+instance+" select")
}

// closeList returns to the trading station without committing.
func (m *model) closeList() {
	if mc := m.sess.Machine(m.listInstance); mc != nil {
		mc.Reset()
	}
	m.sess.Machine(session.Preview).Reset()
	m.typing = false
	m.confirmForm = nil
	m.addrInput.Blur()
	m.sess.Store().OpenPanel(panels.TradingStationPanel, "close "+m.listInstance+" select")
}

// feedInput passes the typed address to the list's machine and, for
// tokens, the preview machine.
func (m *model) feedInput() {
	text := m.addrInput.Value()
	m.sess.Machine(m.listInstance).SetInput(text)
	if m.listInstance == session.Sell || m.listInstance == session.Buy {
		m.sess.Machine(session.Preview).SetInput(text)
	}
}

// listAssets returns what the open list offers.
func (m model) listAssets() []exchange.ValidatedAsset {
	var out []exchange.ValidatedAsset
	switch m.listInstance {
	case session.Recipient:
		for _, a := range m.snap.Accounts.RecipientAccounts {
			out = append(out, a.Clone())
		}
	case session.Agent:
		for _, a := range m.snap.Accounts.AgentAccounts {
			out = append(out, a.Clone())
		}
	default:
		for _, t := range m.sess.Feeds().Tokens(m.snap.Network.AppChainID) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// selectedAddress is the address the focused element refers to.
func (m model) selectedAddress() string {
	switch m.activeOverlay() {
	case panels.TokenListSelectPanel, panels.RecipientListSelectPanel, panels.AgentListSelectPanel:
		assets := m.listAssets()
		if m.listIdx >= 0 && m.listIdx < len(assets) {
			return assets[m.listIdx].AssetAddress()
		}
	case panels.ManageSponsorshipsPanel:
		sp := m.snap.Accounts.SponsorAccounts
		if m.sponsorIdx >= 0 && m.sponsorIdx < len(sp) {
			return sp[m.sponsorIdx].Address
		}
	}
	if a := m.snap.Accounts.ConnectedAccount; a != nil {
		return a.Address
	}
	return ""
}

// refreshAccountPanel loads balances for the connected account
func (m *model) refreshAccountPanel() tea.Cmd {
	a := m.snap.Accounts.ConnectedAccount
	if a == nil || !helpers.IsValidEthAddress(a.Address) {
		return nil
	}
	m.loadingBalances = true
	m.balances = rpc.Balances{Address: a.Address}
	return loadAccountBalances(m.sess, a.Address, m.snap.Network.AppChainID)
}

// sideOf names the token side for the focused trade field.
func sideOf(field int) string {
	if field == trade.FieldBuy {
		return session.Buy
	}
	return session.Sell
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("`%s`", err.Error())
}
