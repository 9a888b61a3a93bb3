package sponsorships

import (
	"strings"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the sponsorship manager
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("Tab") + " select next",
		styles.Key("a") + " sponsor recipient",
		styles.Key("d") + " remove",
		styles.Key("l") + " debug log",
		styles.Key("Esc") + " back",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}

func cardStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Width(28).
		Height(6).
		Align(lipgloss.Center, lipgloss.Center).
		Background(styles.CPanel).
		Padding(1, 2).
		BorderStyle(lipgloss.HiddenBorder())
}

func cardFocusedStyle() lipgloss.Style {
	return cardStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("69"))
}

func renderCard(a exchange.WalletAccount, focused bool) string {
	name := lipgloss.NewStyle().
		Foreground(styles.CText).
		Bold(true).
		Align(lipgloss.Center).
		Render(a.Name)

	content := "🤝\n\n" + name + "\n" +
		helpers.FadeString(helpers.ShortenAddr(a.Address), "#F25D94", "#EDFF82")

	if a.Website != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(styles.CAccent).Render(a.Website)
	}

	if focused {
		return cardFocusedStyle().Render(content)
	}
	return cardStyle().Render(content)
}

// Render renders sponsored accounts as a grid of cards
func Render(accounts []exchange.WalletAccount, selectedIdx int, recipient *exchange.WalletAccount) string {
	h := styles.TitleStyle.Render("Manage Sponsorships")

	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	sub := muted.Render("No recipient selected on the trading station.")
	if recipient != nil {
		sub = muted.Render("Press ") + styles.Key("a") + muted.Render(" to sponsor "+recipient.Name+".")
	}

	if len(accounts) == 0 {
		return h + "\n\n" + muted.Render("No sponsorships yet.") + "\n\n" + sub
	}

	const columnsPerRow = 3
	const horizontalSpacing = "  "
	var rows []string

	for i := 0; i < len(accounts); i += columnsPerRow {
		var rowCards []string
		for j := 0; j < columnsPerRow && i+j < len(accounts); j++ {
			idx := i + j
			rowCards = append(rowCards, renderCard(accounts[idx], idx == selectedIdx))
			if j < columnsPerRow-1 && i+j+1 < len(accounts) {
				rowCards = append(rowCards, horizontalSpacing)
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rowCards...))
	}

	return h + "\n\n" + strings.Join(rows, "\n") + "\n\n" + sub
}
