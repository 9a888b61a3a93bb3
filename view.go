package main

import (
	"fmt"
	"strings"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/inputfsm"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/session"
	"charm-exchange-tui/styles"
	"charm-exchange-tui/views/chains"
	"charm-exchange-tui/views/details"
	logview "charm-exchange-tui/views/log"
	"charm-exchange-tui/views/selector"
	"charm-exchange-tui/views/settings"
	"charm-exchange-tui/views/sponsorships"
	"charm-exchange-tui/views/trade"
	"charm-exchange-tui/views/wallets"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

func (m model) renderDialog(question string) string {
	var (
		dialogBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#874BFD")).
				Padding(1, 0).
				BorderTop(true).
				BorderLeft(true).
				BorderRight(true).
				BorderBottom(true)

		buttonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFF7DB")).
				Background(lipgloss.Color("#888B7E")).
				Padding(0, 3).
				MarginTop(1)

		activeButtonStyle = buttonStyle.
					Foreground(lipgloss.Color("#FFF7DB")).
					Background(lipgloss.Color("#F25D94")).
					MarginRight(2).
					Underline(true)
	)
	msg := helpers.FadeString(question, "#F25D94", "#EDFF82")
	q := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	// Apply active style to the selected button
	var okButton, cancelButton string
	if m.dialogYesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, q, buttons)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

func (m model) dialogQuestion() string {
	switch m.dialog {
	case "delete-rpc":
		if m.deleteRPCIdx >= 0 && m.deleteRPCIdx < len(m.cfg.RPCURLs) {
			return "Are you sure you want to delete the RPC endpoint " + m.cfg.RPCURLs[m.deleteRPCIdx].Name + "?"
		}
	case "reset":
		return "Reset the session? Tokens, amounts, accounts and panels return to defaults."
	}
	return ""
}

func (m model) renderAccountListPopup() string {
	dialogBoxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 2).
		Background(cPanel)

	connected := ""
	if a := m.snap.Accounts.ConnectedAccount; a != nil {
		connected = a.Address
	}
	addInput := ""
	if m.addingWallet {
		addInput = m.walletInput.View()
	}
	body := wallets.Render(m.cfg.Wallets, m.accountListSelectedIdx, connected, addInput, m.addError)

	help := lipgloss.NewStyle().
		Foreground(cMuted).
		Align(lipgloss.Center).
		Width(70).
		MarginTop(1).
		Render(wallets.Nav(70, m.addingWallet))

	ui := lipgloss.JoinVertical(lipgloss.Left, body, help)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

func (m model) globalHeader() string {
	availableWidth := max(0, m.w-8) // Account for panel padding

	var addrDisplay string
	if a := m.snap.Accounts.ConnectedAccount; a != nil && a.Address != "" {
		label := helpers.FadeString(helpers.ShortenAddr(a.Address), "#F25D94", "#EDFF82")
		if a.Name != "" && !strings.HasPrefix(a.Name, "0x") {
			label = a.Name + " " + label
		}
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: " + label)
	} else {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: not connected")
	}

	// Network status with dot
	var statusIcon, statusText string
	var statusColor lipgloss.Color
	url, chainID, connected := m.sess.Connection()
	n := m.snap.Network

	switch {
	case m.booting || m.rpcConnecting:
		statusIcon = "○"
		statusColor = lipgloss.Color("#c01c28")
		statusText = "Connecting..."
	case m.sess.PendingChain() != 0:
		statusIcon = "◐"
		statusColor = cWarn
		statusText = fmt.Sprintf("Switching to %d...", m.sess.PendingChain())
	case !connected:
		statusIcon = "○"
		statusColor = lipgloss.Color("#c01c28")
		statusText = n.Name + " · No RPC"
	case chainID != n.AppChainID:
		statusIcon = "●"
		statusColor = cWarn
		statusText = fmt.Sprintf("%s · wallet on %d", n.Name, chainID)
	default:
		statusIcon = "●"
		statusColor = cAccent
		statusText = n.Name
		for _, r := range m.cfg.RPCURLs {
			if r.URL == url {
				statusText += " · " + r.Name
				break
			}
		}
	}

	rpcDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("charm exchange", "#7EE787", "#82CFFD"))

	addrWidth := lipgloss.Width(addrDisplay)
	rpcWidth := lipgloss.Width(rpcDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := addrWidth + rpcWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = addrDisplay + "\n" + titleText + "\n" + rpcDisplay
	} else {
		// Three-column layout: Account | Title (centered) | Network
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		headerLine = addrDisplay + strings.Repeat(" ", max(1, leftPadding)) +
			titleText + strings.Repeat(" ", max(1, rightPadding)) + rpcDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

func (m model) quoteLine() string {
	td := m.snap.TradeData
	if m.lastQuote == nil || td.SellTokenContract == nil || td.BuyTokenContract == nil {
		return ""
	}
	line := m.lastQuote.Format(td.SellTokenContract.Symbol, td.BuyTokenContract.Symbol,
		td.SellTokenContract.Decimals, td.BuyTokenContract.Decimals)
	if td.TradeDirection == exchange.SellExactOut && td.Slippage.BPS > 0 {
		minOut := m.lastQuote.MinimumOut(td.Slippage.BPS)
		line += "   min " + helpers.FormatToken(minOut, td.BuyTokenContract.Decimals, td.BuyTokenContract.Symbol)
	}
	return line
}

func (m model) renderTrade() (string, string) {
	amountView := ""
	if m.editingAmount {
		amountView = m.amountInput.View()
	}
	content := trade.Render(trade.Props{
		Width:       max(0, m.w-4),
		Trade:       m.snap.TradeData,
		Recipient:   m.snap.Accounts.RecipientAccount,
		Agent:       m.snap.Accounts.AgentAccount,
		Focused:     m.focused,
		ShowPrice:   m.snap.Settings.PanelTree.IsVisible(panels.PriceButton),
		Quoting:     m.quoting,
		QuoteLine:   m.quoteLine(),
		APIError:    m.snap.APIErrorMessage,
		AmountInput: amountView,
		SpinnerView: m.spin.View(),
	})
	return panelStyle.Width(max(0, m.w-2)).Render(content), trade.Nav(m.w-2, m.editingAmount)
}

func (m model) listTitle() string {
	switch m.listInstance {
	case session.Sell:
		return "Select a token to sell"
	case session.Buy:
		return "Select a token to buy"
	case session.Recipient:
		return "Select a recipient"
	case session.Agent:
		return "Select an agent"
	}
	return "Select"
}

func (m model) renderList(height int) (string, string) {
	var items []selector.Item
	for _, a := range m.listAssets() {
		switch v := a.(type) {
		case *exchange.TokenContract:
			items = append(items, selector.Item{Title: v.Symbol, Subtitle: v.Name, Address: v.Address})
		case *exchange.WalletAccount:
			items = append(items, selector.Item{Title: v.Name, Subtitle: v.Symbol, Address: v.Address, Detail: v.Website})
		}
	}

	status := ""
	if mc := m.sess.Machine(m.listInstance); mc != nil {
		snap := mc.Snapshot()
		status = selector.StatusLine(snap, m.spin.View())
		if m.listInstance == session.Sell || m.listInstance == session.Buy {
			if p := m.snap.TradeData.PreviewTokenContract; p != nil && snap.State != inputfsm.UpdateValidatedAsset {
				status += "\n" + lipgloss.NewStyle().Foreground(cMuted).Render("preview: "+p.Symbol+" "+p.Name)
			}
		}
	}
	if m.confirmForm != nil {
		status += "\n\n" + m.confirmForm.View()
	}

	input := hotkeyStyle.Render("press / to type an address")
	if m.typing || m.addrInput.Value() != "" {
		input = m.addrInput.View()
	}

	content := selector.Render(m.w-2, height, m.listTitle(), items, m.listIdx, input, status)
	return content, selector.Nav(m.w-2, m.typing)
}

func (m model) renderError() (string, string) {
	e := m.snap.ErrorMessage
	body := "Something went wrong."
	source := ""
	if e != nil {
		body = e.Message
		source = fmt.Sprintf("%s · %s", e.Source, e.Status)
	}
	status := ""
	if e != nil {
		status = string(e.Status)
	}
	warn := styles.StatusStyle(status).Render("⚠ " + body)
	sub := lipgloss.NewStyle().Foreground(cMuted).Render(source)
	content := styles.TitleStyle.Render("Error") + "\n\n" + warn + "\n" + sub
	nav := styles.NavStyle.Width(m.w - 2).Render(styles.Key("Enter") + " dismiss   " + styles.Key("Esc") + " back")
	return panelStyle.Width(max(0, m.w-2)).Render(content), nav
}

func (m model) renderSettings() (string, string) {
	var content string
	switch {
	case m.form != nil && m.settingsMode == "network":
		content = chains.Render(m.form)
	case m.form != nil:
		content = styles.TitleStyle.Render("Settings") + "\n\n" + m.form.View()
	default:
		content = settings.Render(m.cfg.RPCURLs, m.selectedRPCIdx, m.snap.TradeData.Slippage.Percentage)
	}

	nav := settings.Nav(m.w-2, m.settingsMode)
	if m.settingsMode == "network" {
		nav = chains.Nav(m.w - 2)
	}
	return panelStyle.Width(max(0, m.w-2)).Render(content), nav
}

func (m model) renderAccount() (string, string) {
	content := details.Render(details.Props{
		Account:     m.snap.Accounts.ConnectedAccount,
		Network:     m.snap.Network,
		Balances:    m.balances,
		Loading:     m.loadingBalances,
		ShowQR:      m.showQR,
		CopiedMsg:   m.copiedMsg,
		SpinnerView: m.spin.View(),
	})
	return panelStyle.Width(max(0, m.w-2)).Render(content), details.Nav(m.w - 2)
}

func (m *model) View() string {
	if m.dialog != "" {
		return m.renderDialog(m.dialogQuestion())
	}
	if m.showAccountListPopup {
		return m.renderAccountListPopup()
	}

	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(m.globalHeader())

	var pageContent, nav string
	switch m.activeOverlay() {
	case panels.TokenListSelectPanel, panels.RecipientListSelectPanel, panels.AgentListSelectPanel:
		pageContent, nav = m.renderList(max(10, m.h-lipgloss.Height(headerPanel)-4))
	case panels.ErrorMessagePanel:
		pageContent, nav = m.renderError()
	case panels.ManageSponsorshipsPanel:
		content := sponsorships.Render(m.snap.Accounts.SponsorAccounts, m.sponsorIdx, m.snap.Accounts.RecipientAccount)
		pageContent = panelStyle.Width(max(0, m.w-2)).Render(content)
		nav = sponsorships.Nav(m.w - 2)
	case panels.SettingsPanel:
		pageContent, nav = m.renderSettings()
	case panels.QRCodePanel:
		pageContent, nav = m.renderAccount()
	default:
		pageContent, nav = m.renderTrade()
	}

	sections := []string{headerPanel, pageContent, nav}

	// Render log panel only if enabled
	if m.logEnabled {
		m.logViewport.Height = logview.Height(m.h)
		sections = append(sections, logview.Render(logview.Props{
			Width:       m.w,
			Height:      m.h,
			Ready:       m.logReady,
			SpinnerView: m.logSpinner.View(),
			Viewport:    m.logViewport,
			LastReason:  m.lastReason,
			Events:      m.eventCount,
		}))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
