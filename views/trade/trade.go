package trade

import (
	"fmt"
	"strings"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Focusable fields of the trading station, in tab order.
const (
	FieldSell = iota
	FieldBuy
	FieldRecipient
	FieldAgent
	FieldPrice
	FieldCount
)

// Props is what the trading station shows.
type Props struct {
	Width       int
	Trade       exchange.TradeData
	Recipient   *exchange.WalletAccount
	Agent       *exchange.WalletAccount
	Focused     int
	ShowPrice   bool
	Quoting     bool
	QuoteLine   string
	APIError    *exchange.ErrorMessage
	AmountInput string // rendered amount editor, empty when not editing
	SpinnerView string
}

// Nav returns the navigation bar for the trading station
func Nav(width int, editing bool) string {
	var left string
	if editing {
		left = strings.Join([]string{
			styles.Key("Enter") + " apply",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("Tab") + " next",
			styles.Key("Enter") + " select/price",
			styles.Key("e") + " amount",
			styles.Key("x") + " flip",
			styles.Key("m") + " sponsorships",
			styles.Key("n") + " network",
			styles.Key("w") + " accounts",
			styles.Key("k") + " QR",
			styles.Key("s") + " settings",
			styles.Key("l") + " debug log",
			styles.Key("q") + " quit",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

func tokenBox(width int, label string, t *exchange.TokenContract, focused bool, fixed bool, editor string) string {
	boxStyle := lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder)
	if focused {
		boxStyle = boxStyle.
			BorderForeground(styles.CAccent).
			BorderStyle(lipgloss.ThickBorder())
	}

	if fixed {
		label += " (fixed)"
	}
	labelView := lipgloss.NewStyle().Foreground(styles.CMuted).Render(label)

	if t == nil {
		hint := lipgloss.NewStyle().Foreground(styles.CMuted).Render("Select a token…")
		return boxStyle.Render(labelView + "\n" + hint)
	}

	symbol := lipgloss.NewStyle().Foreground(styles.CText).Bold(true).Render(t.Symbol)
	addr := helpers.FadeString(helpers.ShortenAddr(t.Address), "#F25D94", "#EDFF82")
	balance := lipgloss.NewStyle().
		Foreground(styles.CMuted).
		Render("Balance: " + helpers.FormatUnits(t.Balance.Int(), t.Decimals, 6))

	amount := lipgloss.NewStyle().Foreground(styles.CAccent2).Render(helpers.FormatUnits(t.Amount.Int(), t.Decimals, 6))
	if t.Amount.IsZero() {
		amount = lipgloss.NewStyle().Foreground(styles.CMuted).Render("0.0")
	}
	if editor != "" {
		amount = editor
	}

	return boxStyle.Render(labelView + "\n" + symbol + "  " + addr + "   " + balance + "\n" + amount)
}

func accountLine(label string, a *exchange.WalletAccount, focused bool) string {
	marker := "  "
	style := lipgloss.NewStyle().Foreground(styles.CText)
	if focused {
		marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("▶ ")
		style = style.Foreground(styles.CAccent2).Bold(true)
	}
	value := lipgloss.NewStyle().Foreground(styles.CMuted).Render("none")
	if a != nil {
		value = style.Render(a.Name) + " " + helpers.FadeString(helpers.ShortenAddr(a.Address), "#7D5AFC", "#FF87D7")
	}
	return marker + lipgloss.NewStyle().Foreground(styles.CMuted).Width(11).Render(label) + value
}

// Render renders the trading station
func Render(p Props) string {
	containerWidth := helpers.Min(80, p.Width-4)
	boxWidth := helpers.Max(20, containerWidth-4)

	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Align(lipgloss.Center).
		Width(containerWidth).
		Render("Trading Station")

	td := p.Trade
	sellEditor, buyEditor := "", ""
	if p.AmountInput != "" {
		if p.Focused == FieldBuy {
			buyEditor = p.AmountInput
		} else {
			sellEditor = p.AmountInput
		}
	}
	sellBox := tokenBox(boxWidth, "Sell", td.SellTokenContract, p.Focused == FieldSell, td.TradeDirection == exchange.SellExactOut, sellEditor)
	buyBox := tokenBox(boxWidth, "Buy", td.BuyTokenContract, p.Focused == FieldBuy, td.TradeDirection == exchange.BuyExactIn, buyEditor)

	arrow := lipgloss.NewStyle().
		Foreground(styles.CAccent).
		Width(containerWidth).
		Align(lipgloss.Center).
		Render("⬇")

	rate := "—"
	if td.RateRatio > 0 && td.SellTokenContract != nil && td.BuyTokenContract != nil {
		rate = fmt.Sprintf("1 %s ≈ %.6f %s", td.SellTokenContract.Symbol, td.RateRatio, td.BuyTokenContract.Symbol)
	}
	info := lipgloss.NewStyle().Foreground(styles.CMuted).Render(
		fmt.Sprintf("Rate: %s   Slippage: %.2f%%", rate, td.Slippage.Percentage))

	parts := []string{
		title, "",
		sellBox, arrow, buyBox, "",
		info, "",
		accountLine("Recipient", p.Recipient, p.Focused == FieldRecipient),
		accountLine("Agent", p.Agent, p.Focused == FieldAgent),
	}

	if p.ShowPrice {
		btn := lipgloss.NewStyle().
			Width(boxWidth).
			Padding(0, 1).
			Align(lipgloss.Center).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(styles.CBorder).
			Foreground(styles.CText)
		if p.Focused == FieldPrice {
			btn = btn.
				BorderForeground(styles.CAccent).
				BorderStyle(lipgloss.ThickBorder()).
				Background(styles.CAccent).
				Foreground(lipgloss.Color("#000000")).
				Bold(true)
		}
		label := "Get Price"
		if p.Quoting {
			label = p.SpinnerView + " Estimating…"
		}
		parts = append(parts, "", btn.Render(label))
	}

	if p.QuoteLine != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.CText).Render(p.QuoteLine))
	}
	if p.APIError != nil {
		warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C00")).Width(containerWidth).Align(lipgloss.Center)
		parts = append(parts, warn.Render("⚠ "+p.APIError.Message))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	return lipgloss.NewStyle().
		Width(p.Width).
		Align(lipgloss.Center).
		Render(content)
}
