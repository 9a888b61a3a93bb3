package settings

import (
	"fmt"
	"strings"

	"charm-exchange-tui/config"
	"charm-exchange-tui/exchange"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "add" {
		left = strings.Join([]string{
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " activate",
			styles.Key("a") + " add",
			styles.Key("d") + " delete",
			styles.Key("t") + " slippage",
			styles.Key("n") + " network",
			styles.Key("r") + " reset session",
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

func chainLabel(chainID int64) string {
	if chainID == 0 {
		return "chain unknown"
	}
	if info, ok := exchange.LookupChain(chainID); ok {
		return fmt.Sprintf("%s (%d)", info.Name, chainID)
	}
	return fmt.Sprintf("chain %d", chainID)
}

// Render renders the RPC settings view
func Render(rpcURLs []config.RPCUrl, selectedIdx int, slippagePct float64) string {
	h := styles.TitleStyle.Render("Settings")

	lines := []string{h, ""}
	lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).Render(fmt.Sprintf("Slippage tolerance: %.2f%%", slippagePct)), "")

	if len(rpcURLs) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).Render("No RPC URLs configured."))
		lines = append(lines, "")
		lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).Render("Press ")+styles.Key("a")+lipgloss.NewStyle().Foreground(styles.CMuted).Render(" to add your first RPC URL."))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, lipgloss.NewStyle().Foreground(styles.CMuted).Render("Configured RPC Endpoints:"))
	lines = append(lines, "")

	for i, rpc := range rpcURLs {
		var marker string
		if rpc.Active {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
		} else {
			marker = lipgloss.NewStyle().Foreground(styles.CMuted).Render("○ ")
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
		urlStyle := lipgloss.NewStyle().Foreground(styles.CMuted)

		if i == selectedIdx {
			nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
			urlStyle = urlStyle.Background(styles.CPanel)
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
		}

		line := marker + nameStyle.Render(rpc.Name) + "  " + urlStyle.Render(chainLabel(rpc.ChainID))
		lines = append(lines, line)
		lines = append(lines, "  "+urlStyle.Render(rpc.URL))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
