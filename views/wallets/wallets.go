package wallets

import (
	"fmt"
	"strings"

	"charm-exchange-tui/config"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the account picker
func Nav(width int, adding bool) string {
	var left string
	if adding {
		left = strings.Join([]string{
			styles.Key("Enter") + " connect",
			styles.Key("Ctrl+v") + " paste",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " move",
			styles.Key("Enter") + " connect",
			styles.Key("a") + " add",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// RenderList renders the configured wallets, marking the connected one.
func RenderList(wallets []config.WalletEntry, selectedIdx int, connected string) string {
	if len(wallets) == 0 {
		return lipgloss.NewStyle().Foreground(styles.CMuted).Render("No wallets added yet. Press 'a' to add one.")
	}

	var listItems []string
	for i, wallet := range wallets {
		var itemStyle lipgloss.Style
		var marker string
		var fullAddr, shortAddr string

		if i == selectedIdx {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
			itemStyle = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true)
			fullAddr = lipgloss.NewStyle().Foreground(styles.CText).Render(wallet.Address)
			shortAddr = helpers.ShortenAddr(wallet.Address)
		} else {
			marker = "  "
			itemStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e1a2aa"))
			fullAddr = helpers.FadeString(wallet.Address, "#7D5AFC", "#FF87D7")
			shortAddr = helpers.FadeString(helpers.ShortenAddr(wallet.Address), "#F25D94", "#EDFF82")
		}

		if wallet.Name != "" {
			shortAddr = wallet.Name + " - " + shortAddr
		}
		if helpers.SameAddress(wallet.Address, connected) {
			shortAddr = "✓ " + shortAddr
		}
		listItems = append(listItems, marker+itemStyle.Render(shortAddr)+"\n  "+fullAddr)
	}

	return strings.Join(listItems, "\n\n")
}

// Render renders the account picker popup body
func Render(wallets []config.WalletEntry, selectedIdx int, connected string, addInput string, addError string) string {
	header := styles.TitleStyle.Render("Select Account")
	subtitle := lipgloss.NewStyle().Foreground(styles.CMuted).Render("Read-only accounts from your config")

	body := RenderList(wallets, selectedIdx, connected)
	if addInput != "" {
		body += "\n\n" + styles.PanelStyle.BorderForeground(styles.CAccent2).Render(addInput)
	}
	if addError != "" {
		body += "\n" + lipgloss.NewStyle().Foreground(styles.CWarn).Bold(true).Render(addError)
	}

	statusBar := lipgloss.NewStyle().Foreground(styles.CMuted).Render(fmt.Sprintf("%d wallets", len(wallets)))

	return header + "\n" + subtitle + "\n\n" + body + "\n\n" + statusBar
}
