package main

import (
	"fmt"
	"strings"
	"time"

	"charm-exchange-tui/config"
	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/inputfsm"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/rpc"
	"charm-exchange-tui/session"
	"charm-exchange-tui/views/chains"
	"charm-exchange-tui/views/trade"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempRPCFormName string
	tempRPCFormURL  string
	tempSlippage    string
	tempConfirm     bool
)

func (m *model) createAddRPCForm() {
	tempRPCFormName = ""
	tempRPCFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Description("A friendly name for this RPC endpoint").
				Value(&tempRPCFormName).
				Placeholder("My Base Node"),

			huh.NewInput().
				Title("RPC URL").
				Description("The complete RPC URL (https://...). Its chain is detected.").
				Value(&tempRPCFormURL).
				Placeholder("https://base-rpc.publicnode.com").
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") &&
						!strings.HasPrefix(s, "ws://") && !strings.HasPrefix(s, "wss://") {
						return fmt.Errorf("url must start with http(s):// or ws(s)://")
					}
					for _, r := range m.cfg.RPCURLs {
						if r.URL == s {
							return fmt.Errorf("endpoint already configured")
						}
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

func (m *model) createSlippageForm() {
	tempSlippage = fmt.Sprintf("%.2f", m.snap.TradeData.Slippage.Percentage)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Slippage Tolerance (%)").
				Description("Applied to the minimum received on a price quote").
				Value(&tempSlippage).
				Placeholder("0.5").
				Validate(func(s string) error {
					_, err := helpers.PercentToBps(s)
					return err
				}),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

// createConfirmForm asks before a typed address is committed
func (m *model) createConfirmForm(asset exchange.ValidatedAsset) {
	tempConfirm = true

	title := "Use " + asset.AssetSymbol() + "?"
	if asset.AssetSymbol() == "" {
		title = "Use this account?"
	}

	m.confirmForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(asset.AssetAddress() + "\nThis address was typed, not picked from a list.").
				Affirmative("Use it").
				Negative("Discard").
				Value(&tempConfirm),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.confirmForm.Init()
}

// refreshSnapshot re-reads the store and reacts to what changed
func (m *model) refreshSnapshot() {
	prev := m.snap
	m.snap = m.sess.Store().Snapshot()
	m.cfg = m.sess.Config()

	// Surface new wallet errors as the error overlay
	if prev.ErrorMessage == nil && m.snap.ErrorMessage != nil && m.activeOverlay() != panels.ErrorMessagePanel {
		m.addLog("error", fmt.Sprintf("%s: %s", m.snap.ErrorMessage.Source, m.snap.ErrorMessage.Message))
		m.sess.Store().OpenOverlay(panels.ErrorMessagePanel, "show error")
		m.snap = m.sess.Store().Snapshot()
	}

	switch overlay := m.activeOverlay(); overlay {
	case panels.TokenListSelectPanel, panels.RecipientListSelectPanel, panels.AgentListSelectPanel:
		if m.listInstance == "" {
			m.listInstance = instanceFor(overlay)
		}
	default:
		if m.typing || m.confirmForm != nil {
			m.typing = false
			m.confirmForm = nil
			m.addrInput.Blur()
		}
	}
	if m.form != nil && m.activeOverlay() != panels.SettingsPanel {
		m.form = nil
		m.settingsMode = "list"
	}
}

// handleEvent reacts to one session change
func (m *model) handleEvent(ev session.Event) tea.Cmd {
	m.refreshSnapshot()
	if ev.Reason != "" {
		m.lastReason = ev.Reason
		m.eventCount++
	}

	var cmds []tea.Cmd
	if t := ev.Transition; t != nil {
		if t.Instance == m.listInstance && t.To == inputfsm.UpdateValidatedAsset && m.confirmForm == nil {
			snap := m.sess.Machine(t.Instance).Snapshot()
			if snap.AwaitingConfirm && snap.Asset != nil {
				m.typing = false
				m.addrInput.Blur()
				m.createConfirmForm(snap.Asset)
			}
		}
	}

	switch ev.Reason {
	case "sell token selected", "buy token selected":
		m.lastQuote = nil
		cmds = append(cmds, refreshTradeBalances(m.sess))
	}

	m.updateLogViewport()
	cmds = append(cmds, waitForEvent(m.sess))
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	_, isKey := msg.(tea.KeyMsg)
	var formCmd tea.Cmd

	// Manual entry confirmation first (before message switching)
	if m.confirmForm != nil {
		if isKey && msg.(tea.KeyMsg).String() == "esc" {
			m.confirmForm = nil
			m.sess.Machine(m.listInstance).Reset()
			m.addrInput.SetValue("")
			return m, nil
		}

		form, cmd := m.confirmForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.confirmForm = f

			if m.confirmForm.State == huh.StateCompleted {
				m.confirmForm = nil
				if tempConfirm {
					m.addLog("info", fmt.Sprintf("Confirmed typed address for %s", m.listInstance))
					m.sess.Machine(m.listInstance).Confirm()
				} else {
					m.addLog("info", fmt.Sprintf("Discarded typed address for %s", m.listInstance))
					m.sess.Machine(m.listInstance).Reset()
					m.sess.Machine(session.Preview).Reset()
					m.addrInput.SetValue("")
				}
				if isKey {
					return m, nil
				}
			} else if m.confirmForm.State == huh.StateAborted {
				m.confirmForm = nil
				m.sess.Machine(m.listInstance).Reset()
				if isKey {
					return m, nil
				}
			}
		}
		if isKey {
			return m, cmd
		}
		formCmd = cmd
	}

	if m.activeOverlay() == panels.SettingsPanel && m.form != nil {
		// Intercept ESC key to cancel form
		if isKey && msg.(tea.KeyMsg).String() == "esc" {
			m.settingsMode = "list"
			m.form = nil
			return m, nil
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f

			if m.form.State == huh.StateCompleted {
				mode := m.settingsMode
				m.settingsMode = "list"
				m.form = nil
				done := m.completeSettingsForm(mode)
				if isKey {
					return m, done
				}
				formCmd = tea.Batch(formCmd, done)
			} else if m.form.State == huh.StateAborted {
				m.settingsMode = "list"
				m.form = nil
				if isKey {
					return m, nil
				}
			} else {
				if isKey {
					return m, cmd
				}
				formCmd = tea.Batch(formCmd, cmd)
			}
		}
	}

	next, cmd := m.update(msg)
	return next, tea.Batch(formCmd, cmd)
}

func (m *model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case logInitMsg:
		if !m.logEnabled {
			return m, nil
		}
		m.logReady = true
		m.updateLogViewport()
		m.addLog("info", "Logger enabled")
		return m, nil

	case sessionEventMsg:
		return m, m.handleEvent(msg.ev)

	case bootedMsg:
		m.booting = false
		m.refreshSnapshot()
		if msg.err != nil {
			m.addLog("error", "Boot: "+errText(msg.err))
		} else if url, chainID, ok := m.sess.Connection(); ok {
			m.addLog("success", fmt.Sprintf("Connected to `%s` (chain %d)", url, chainID))
		} else {
			m.addLog("warning", "No RPC connected, working offline")
		}
		if m.sess.Restored() {
			m.addLog("info", "Restored previous session")
		}
		return m, refreshTradeBalances(m.sess)

	case rpcSwitchedMsg:
		m.rpcConnecting = false
		m.refreshSnapshot()
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("RPC connection failed: %s", errText(msg.err)))
			return m, nil
		}
		m.addLog("success", fmt.Sprintf("RPC connected to `%s`", msg.url))
		return m, refreshTradeBalances(m.sess)

	case rpcProbedMsg:
		if msg.err != nil {
			m.addLog("warning", fmt.Sprintf("Could not reach `%s`: %s", msg.url, errText(msg.err)))
			return m, nil
		}
		if err := m.sess.UpdateConfig(func(c *config.Config) { c.SetChainID(msg.url, msg.chainID) }); err != nil {
			m.addLog("error", "Save config: "+errText(err))
		}
		m.cfg = m.sess.Config()
		m.addLog("info", fmt.Sprintf("`%s` serves chain %d", msg.url, msg.chainID))
		return m, nil

	case chainSelectedMsg:
		m.rpcConnecting = false
		m.refreshSnapshot()
		m.lastQuote = nil
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Network switch to %d failed: %s", msg.chainID, errText(msg.err)))
			return m, nil
		}
		m.addLog("success", fmt.Sprintf("Switched to %s", m.snap.Network.Name))
		return m, refreshTradeBalances(m.sess)

	case accountUsedMsg:
		m.refreshSnapshot()
		if msg.err != nil {
			m.addLog("error", fmt.Sprintf("Account `%s`: %s", helpers.ShortenAddr(msg.address), errText(msg.err)))
			return m, nil
		}
		m.addLog("success", fmt.Sprintf("Activated account: %s", helpers.ShortenAddr(msg.address)))
		cmds := []tea.Cmd{refreshTradeBalances(m.sess)}
		if m.activeOverlay() == panels.QRCodePanel {
			cmds = append(cmds, m.refreshAccountPanel())
		}
		return m, tea.Batch(cmds...)

	case quoteMsg:
		m.quoting = false
		m.refreshSnapshot()
		if msg.err != nil {
			m.lastQuote = nil
			m.addLog("error", "Quote failed: "+errText(msg.err))
			return m, nil
		}
		m.lastQuote = msg.quote
		if td := m.snap.TradeData; td.SellTokenContract != nil && td.BuyTokenContract != nil {
			m.addLog("success", msg.quote.Format(td.SellTokenContract.Symbol, td.BuyTokenContract.Symbol,
				td.SellTokenContract.Decimals, td.BuyTokenContract.Decimals))
		}
		return m, nil

	case tradeBalancesMsg:
		if msg.err != nil {
			m.addLog("warning", "Balances: "+errText(msg.err))
		}
		return m, nil

	case accountBalancesMsg:
		m.loadingBalances = false
		m.balances = msg.balances
		if m.balances.ErrMessage != "" {
			m.addLog("error", fmt.Sprintf("Account `%s`: %s", helpers.ShortenAddr(m.balances.Address), m.balances.ErrMessage))
		} else {
			m.addLog("success", fmt.Sprintf("Loaded balances for `%s`", helpers.ShortenAddr(m.balances.Address)))
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "✓ Copied!"
		m.copiedMsgTime = time.Now()
		return m, clearClipboardFeedback()

	case clearClipboardMsg:
		if time.Since(m.copiedMsgTime) >= 2*time.Second {
			m.copiedMsg = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.logViewport.Width = max(0, msg.Width-6)
		m.updateLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		var cmds []tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
		if m.logEnabled && !m.logReady {
			m.logSpinner, cmd = m.logSpinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case tea.MouseMsg:
		if m.logEnabled && m.logReady && tea.MouseEvent(msg).IsWheel() {
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dialog != "" {
		return m.handleDialogKey(msg)
	}
	if m.showAccountListPopup {
		return m.handleAccountPopupKey(msg)
	}

	// global keys
	if !m.textInputActive() {
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "l", "L":
			m.logEnabled = !m.logEnabled
			if m.snap.Settings.PanelTree.IsVisible(panels.LogPanel) != m.logEnabled {
				m.sess.Store().TogglePanel(panels.LogPanel, "toggle debug log")
			}
			if err := m.sess.UpdateConfig(func(c *config.Config) { c.Logger = m.logEnabled }); err != nil {
				m.addLog("error", "Save config: "+errText(err))
			}
			m.refreshSnapshot()
			if m.logEnabled {
				if m.w > 0 {
					m.logViewport.Width = m.w - 6
				}
				m.logReady = false
				return m, tea.Batch(initLogViewport(), m.logSpinner.Tick)
			}
			m.logReady = false
			return m, nil

		case "pageup", "pagedown":
			if m.logEnabled && m.logReady {
				var cmd tea.Cmd
				m.logViewport, cmd = m.logViewport.Update(msg)
				return m, cmd
			}
		}
	} else if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.activeOverlay() {
	case panels.TokenListSelectPanel, panels.RecipientListSelectPanel, panels.AgentListSelectPanel:
		return m.handleListKey(msg)
	case panels.ErrorMessagePanel:
		switch msg.String() {
		case "enter", "esc":
			m.sess.DismissError()
			m.refreshSnapshot()
		}
		return m, nil
	case panels.ManageSponsorshipsPanel:
		return m.handleSponsorshipsKey(msg)
	case panels.SettingsPanel:
		return m.handleSettingsKey(msg)
	case panels.QRCodePanel:
		return m.handleAccountKey(msg)
	}
	return m.handleTradeKey(msg)
}

// -------------------- TRADING STATION --------------------

func (m *model) handleTradeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editingAmount {
		switch msg.String() {
		case "esc":
			m.editingAmount = false
			m.amountInput.Blur()
			return m, nil
		case "enter":
			m.editingAmount = false
			m.amountInput.Blur()
			side := sideOf(m.focused)
			if err := m.sess.SetAmountText(side, m.amountInput.Value()); err != nil {
				m.addLog("warning", fmt.Sprintf("Amount for %s: %s", side, errText(err)))
				return m, nil
			}
			m.refreshSnapshot()
			m.quoting = true
			return m, fetchQuote(m.sess)
		}
		var cmd tea.Cmd
		m.amountInput, cmd = m.amountInput.Update(msg)
		return m, cmd
	}

	showPrice := m.snap.Settings.PanelTree.IsVisible(panels.PriceButton)
	fields := trade.FieldCount
	if !showPrice {
		fields = trade.FieldPrice
	}

	switch msg.String() {
	case "tab", "down":
		m.focused = (m.focused + 1) % fields
	case "shift+tab", "up":
		m.focused = (m.focused - 1 + fields) % fields
	case "enter":
		switch m.focused {
		case trade.FieldSell:
			m.openList(session.Sell)
		case trade.FieldBuy:
			m.openList(session.Buy)
		case trade.FieldRecipient:
			m.openList(session.Recipient)
		case trade.FieldAgent:
			m.openList(session.Agent)
		case trade.FieldPrice:
			if m.quoting {
				return m, nil
			}
			m.quoting = true
			m.addLog("debug", "Requesting price quote")
			return m, fetchQuote(m.sess)
		}
		m.refreshSnapshot()
	case "e":
		if m.focused != trade.FieldSell && m.focused != trade.FieldBuy {
			return m, nil
		}
		tok := m.snap.TradeData.SellTokenContract
		if m.focused == trade.FieldBuy {
			tok = m.snap.TradeData.BuyTokenContract
		}
		if tok == nil {
			m.addLog("warning", "Select a token first")
			return m, nil
		}
		m.editingAmount = true
		m.amountInput.SetValue("")
		if !tok.Amount.IsZero() {
			m.amountInput.SetValue(helpers.FormatUnits(tok.Amount.Int(), tok.Decimals, int32(tok.Decimals)))
		}
		m.amountInput.Focus()
	case "x":
		if m.sess.SwapSides() {
			m.lastQuote = nil
			m.addLog("info", "Swapped sell and buy")
		}
		m.refreshSnapshot()
	case "m":
		m.sponsorIdx = 0
		m.sess.Store().OpenPanel(panels.ManageSponsorshipsPanel, "manage sponsorships")
		m.refreshSnapshot()
	case "n":
		m.sess.Store().OpenPanel(panels.SettingsPanel, "open settings")
		m.refreshSnapshot()
		m.openNetworkForm()
	case "w":
		m.openAccountPopup()
	case "k":
		m.sess.Store().OpenPanel(panels.QRCodePanel, "open account")
		m.refreshSnapshot()
		return m, m.refreshAccountPanel()
	case "s":
		m.settingsMode = "list"
		m.sess.Store().OpenPanel(panels.SettingsPanel, "open settings")
		m.refreshSnapshot()
	case "c":
		if addr := m.selectedAddress(); addr != "" {
			return m, copyToClipboard(addr)
		}
	}
	return m, nil
}

// -------------------- ASSET LISTS --------------------

func (m *model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		switch msg.String() {
		case "esc":
			m.typing = false
			m.addrInput.Blur()
			return m, nil
		case "enter":
			snap := m.sess.Machine(m.listInstance).Snapshot()
			if snap.AwaitingConfirm && snap.Asset != nil {
				m.typing = false
				m.addrInput.Blur()
				m.createConfirmForm(snap.Asset)
			}
			return m, nil
		case "ctrl+v":
			text, err := clipboard.ReadAll()
			if err == nil {
				m.addrInput.SetValue(strings.TrimSpace(text))
				m.feedInput()
			}
			return m, nil
		}
		before := m.addrInput.Value()
		var cmd tea.Cmd
		m.addrInput, cmd = m.addrInput.Update(msg)
		if m.addrInput.Value() != before {
			m.feedInput()
		}
		return m, cmd
	}

	assets := m.listAssets()
	switch msg.String() {
	case "up", "k":
		if m.listIdx > 0 {
			m.listIdx--
		}
	case "down", "j":
		if m.listIdx < len(assets)-1 {
			m.listIdx++
		}
	case "/":
		m.typing = true
		m.addrInput.Focus()
	case "enter":
		if m.listIdx >= 0 && m.listIdx < len(assets) {
			a := assets[m.listIdx]
			m.addLog("info", fmt.Sprintf("Selected %s for %s", a.AssetSymbol(), m.listInstance))
			m.sess.Machine(m.listInstance).Select(a)
		}
	case "c":
		if addr := m.selectedAddress(); addr != "" {
			return m, copyToClipboard(addr)
		}
	case "esc":
		m.closeList()
		m.refreshSnapshot()
	}
	return m, nil
}

// -------------------- SPONSORSHIPS --------------------

func (m *model) handleSponsorshipsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sponsored := m.snap.Accounts.SponsorAccounts
	switch msg.String() {
	case "tab", "right", "down":
		if len(sponsored) > 0 {
			m.sponsorIdx = (m.sponsorIdx + 1) % len(sponsored)
		}
	case "shift+tab", "left", "up":
		if len(sponsored) > 0 {
			m.sponsorIdx = (m.sponsorIdx - 1 + len(sponsored)) % len(sponsored)
		}
	case "a":
		if m.sess.SponsorRecipient() {
			m.addLog("success", "Sponsored "+m.snap.Accounts.RecipientAccount.Name)
		} else if m.snap.Accounts.RecipientAccount == nil {
			m.addLog("warning", "Select a recipient on the trading station first")
		}
		m.refreshSnapshot()
	case "d":
		if m.sponsorIdx >= 0 && m.sponsorIdx < len(sponsored) {
			addr := sponsored[m.sponsorIdx].Address
			if m.sess.Store().RemoveSponsorship(addr, "remove sponsorship") {
				m.addLog("warning", fmt.Sprintf("Removed sponsorship `%s`", helpers.ShortenAddr(addr)))
			}
			m.refreshSnapshot()
			if m.sponsorIdx >= len(m.snap.Accounts.SponsorAccounts) && m.sponsorIdx > 0 {
				m.sponsorIdx--
			}
		}
	case "c":
		if addr := m.selectedAddress(); addr != "" {
			return m, copyToClipboard(addr)
		}
	case "esc":
		m.sess.Store().OpenPanel(panels.TradingStationPanel, "close sponsorships")
		m.refreshSnapshot()
	}
	return m, nil
}

// -------------------- SETTINGS --------------------

func (m *model) openNetworkForm() {
	m.settingsMode = "network"
	cfg := m.cfg
	m.form = chains.CreateForm(m.snap.Network.AppChainID, func(chainID int64) bool {
		_, ok := cfg.RPCForChain(chainID)
		return ok
	})
}

func (m *model) completeSettingsForm(mode string) tea.Cmd {
	switch mode {
	case "add":
		name := strings.TrimSpace(tempRPCFormName)
		url := strings.TrimSpace(tempRPCFormURL)
		if url == "" {
			return nil
		}
		if name == "" {
			name = url
		}
		err := m.sess.UpdateConfig(func(c *config.Config) {
			c.RPCURLs = append(c.RPCURLs, config.RPCUrl{Name: name, URL: url})
		})
		if err != nil {
			m.addLog("error", "Save config: "+errText(err))
		}
		m.cfg = m.sess.Config()
		m.addLog("success", fmt.Sprintf("Added RPC endpoint: `%s` (%s)", name, url))
		return probeRPC(url)

	case "slippage":
		if err := m.sess.SetSlippageText(tempSlippage); err != nil {
			m.addLog("warning", "Slippage: "+errText(err))
			return nil
		}
		m.refreshSnapshot()
		m.addLog("success", fmt.Sprintf("Slippage set to %.2f%%", m.snap.TradeData.Slippage.Percentage))

	case "network":
		chainID := chains.TempSelection
		if chainID == m.snap.Network.AppChainID {
			return nil
		}
		m.rpcConnecting = true
		m.addLog("info", fmt.Sprintf("Switching network to %d", chainID))
		return selectChain(m.sess, chainID)
	}
	return nil
}

func (m *model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rpcs := m.cfg.RPCURLs
	switch msg.String() {
	case "up", "k":
		if m.selectedRPCIdx > 0 {
			m.selectedRPCIdx--
		}
	case "down", "j":
		if m.selectedRPCIdx < len(rpcs)-1 {
			m.selectedRPCIdx++
		}
	case "enter", " ":
		if m.selectedRPCIdx >= 0 && m.selectedRPCIdx < len(rpcs) {
			r := rpcs[m.selectedRPCIdx]
			m.rpcConnecting = true
			m.addLog("info", fmt.Sprintf("Activating RPC `%s`", r.Name))
			return m, useRPC(m.sess, r.URL)
		}
	case "a":
		m.settingsMode = "add"
		m.createAddRPCForm()
	case "t":
		m.settingsMode = "slippage"
		m.createSlippageForm()
	case "n":
		m.openNetworkForm()
	case "d":
		if m.selectedRPCIdx >= 0 && m.selectedRPCIdx < len(rpcs) {
			m.dialog = "delete-rpc"
			m.deleteRPCIdx = m.selectedRPCIdx
			m.dialogYesSelected = false
		}
	case "r":
		m.dialog = "reset"
		m.dialogYesSelected = false
	case "esc":
		m.sess.Store().OpenPanel(panels.TradingStationPanel, "close settings")
		m.refreshSnapshot()
	}
	return m, nil
}

func (m *model) handleDialogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "tab":
		m.dialogYesSelected = !m.dialogYesSelected
		return m, nil
	case "esc":
		m.dialog = ""
		return m, nil
	case "enter":
	default:
		return m, nil
	}

	kind := m.dialog
	m.dialog = ""
	if !m.dialogYesSelected {
		return m, nil
	}

	switch kind {
	case "delete-rpc":
		idx := m.deleteRPCIdx
		if idx < 0 || idx >= len(m.cfg.RPCURLs) {
			return m, nil
		}
		removed := m.cfg.RPCURLs[idx]
		if url, _, ok := m.sess.Connection(); ok && url == removed.URL {
			m.sess.Disconnect()
		}
		err := m.sess.UpdateConfig(func(c *config.Config) {
			c.RPCURLs = append(c.RPCURLs[:idx:idx], c.RPCURLs[idx+1:]...)
		})
		if err != nil {
			m.addLog("error", "Save config: "+errText(err))
		}
		m.cfg = m.sess.Config()
		if m.selectedRPCIdx >= len(m.cfg.RPCURLs) && m.selectedRPCIdx > 0 {
			m.selectedRPCIdx--
		}
		m.addLog("warning", fmt.Sprintf("Deleted RPC endpoint `%s`", removed.Name))
		m.refreshSnapshot()

	case "reset":
		m.sess.Reset("user reset")
		m.lastQuote = nil
		m.balances = rpc.Balances{}
		m.refreshSnapshot()
		m.addLog("warning", "Session reset to defaults")
	}
	return m, nil
}

// -------------------- ACCOUNTS --------------------

func (m *model) openAccountPopup() {
	m.showAccountListPopup = true
	m.accountListSelectedIdx = 0
	if a := m.snap.Accounts.ConnectedAccount; a != nil {
		for i, w := range m.cfg.Wallets {
			if helpers.SameAddress(w.Address, a.Address) {
				m.accountListSelectedIdx = i
				break
			}
		}
	}
}

func (m *model) handleAccountPopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.addingWallet {
		switch msg.String() {
		case "esc":
			m.addingWallet = false
			m.addError = ""
			m.walletInput.Blur()
			return m, nil
		case "enter":
			addr := strings.TrimSpace(m.walletInput.Value())
			if !helpers.IsValidEthAddress(addr) {
				m.addError = "Invalid address format. Must be 0x followed by 40 hex characters."
				return m, nil
			}
			m.addingWallet = false
			m.addError = ""
			m.walletInput.Blur()
			m.showAccountListPopup = false
			return m, useAccount(m.sess, addr)
		case "ctrl+v":
			text, err := clipboard.ReadAll()
			if err == nil {
				m.walletInput.SetValue(strings.TrimSpace(text))
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.walletInput, cmd = m.walletInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if m.accountListSelectedIdx > 0 {
			m.accountListSelectedIdx--
		}
	case "down", "j":
		if m.accountListSelectedIdx < len(m.cfg.Wallets)-1 {
			m.accountListSelectedIdx++
		}
	case "enter":
		if m.accountListSelectedIdx >= 0 && m.accountListSelectedIdx < len(m.cfg.Wallets) {
			addr := m.cfg.Wallets[m.accountListSelectedIdx].Address
			m.showAccountListPopup = false
			return m, useAccount(m.sess, addr)
		}
	case "a":
		m.addingWallet = true
		m.walletInput.SetValue("")
		m.walletInput.Focus()
	case "esc":
		m.showAccountListPopup = false
	}
	return m, nil
}

func (m *model) handleAccountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		if a := m.snap.Accounts.ConnectedAccount; a != nil {
			m.addLog("info", "Copied address to clipboard")
			return m, copyToClipboard(a.Address)
		}
	case "k":
		m.showQR = !m.showQR
	case "r":
		return m, m.refreshAccountPanel()
	case "w":
		m.openAccountPopup()
	case "esc":
		m.sess.Store().OpenPanel(panels.TradingStationPanel, "close account")
		m.refreshSnapshot()
	}
	return m, nil
}
