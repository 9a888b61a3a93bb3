package details

import (
	"fmt"
	"strings"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/rpc"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/mdp/qrterminal/v3"
)

// Props is what the account panel shows.
type Props struct {
	Account     *exchange.WalletAccount
	Network     exchange.Network
	Balances    rpc.Balances
	Loading     bool
	ShowQR      bool
	CopiedMsg   string
	SpinnerView string
}

// Nav returns the navigation bar for the account panel
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("c") + " copy address",
		styles.Key("k") + " toggle QR",
		styles.Key("r") + " refresh",
		styles.Key("w") + " accounts",
		styles.Key("l") + " debug log",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

// QRCode renders text as a half-block terminal QR code.
func QRCode(text string) string {
	var b strings.Builder
	qrterminal.GenerateHalfBlock(text, qrterminal.L, &b)
	return b.String()
}

// ExplorerLink wraps address in an OSC 8 hyperlink to the chain's explorer.
func ExplorerLink(n exchange.Network, address string) string {
	addrStyle := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true)
	if n.URL == "" {
		return addrStyle.Render(address)
	}
	url := fmt.Sprintf("%s/address/%s", strings.TrimRight(n.URL, "/"), address)
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", url, addrStyle.Render(address))
}

// Render renders the connected account panel
func Render(p Props) string {
	h := styles.TitleStyle.Render("Account")

	if p.Account == nil || p.Account.Address == "" {
		msg := lipgloss.NewStyle().Foreground(styles.CMuted).Render("No account connected. Press ")
		return h + "\n\n" + msg + styles.Key("w") + lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to pick one.")
	}

	a := p.Account
	sub := ExplorerLink(p.Network, a.Address)
	if a.Name != "" {
		nameStyle := lipgloss.NewStyle().Foreground(styles.CAccent2).Italic(true)
		sub = nameStyle.Render("\""+a.Name+"\"") + "  " + sub
	}
	if p.CopiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(p.CopiedMsg)
	}

	netLine := lipgloss.NewStyle().Foreground(styles.CMuted).Render(
		fmt.Sprintf("%s · chain %d", p.Network.Name, p.Network.ChainID))

	lines := []string{h, sub, netLine, ""}

	if a.Status == exchange.StatusMessageError || a.Status == exchange.StatusMissingAccountAddress {
		lines = append(lines, styles.StatusStyle(string(a.Status)).Render("⚠ account status "+string(a.Status)), "")
	}

	switch {
	case p.Loading:
		lines = append(lines, p.SpinnerView+" fetching balances…")
	case p.Balances.ErrMessage != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.CWarn).Render("⚠ "+p.Balances.ErrMessage))
	default:
		symbol := p.Network.Symbol
		if symbol == "" {
			symbol = "ETH"
		}
		lines = append(lines, fmt.Sprintf("%s  %s",
			lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render(symbol),
			lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatUnits(p.Balances.Native, 18, 6)),
		))
		for _, t := range p.Balances.Tokens {
			lines = append(lines, fmt.Sprintf("%-6s  %s",
				lipgloss.NewStyle().Foreground(styles.CAccent).Render(t.Symbol),
				lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatToken(t.Balance, t.Decimals, t.Symbol)),
			))
		}
		if !p.Balances.LoadedAt.IsZero() {
			lines = append(lines, "", lipgloss.NewStyle().Foreground(styles.CMuted).Render(helpers.LoadedAt(p.Balances.LoadedAt, false)))
		}
	}

	if p.ShowQR {
		lines = append(lines, "", QRCode(a.Address))
	}

	return strings.Join(lines, "\n")
}
