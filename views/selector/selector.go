package selector

import (
	"fmt"
	"strings"

	"charm-exchange-tui/helpers"
	"charm-exchange-tui/inputfsm"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Item is one selectable asset.
type Item struct {
	Title    string // symbol or name
	Subtitle string
	Address  string
	Detail   string
}

// Nav returns the navigation bar for an asset list
func Nav(width int, typing bool) string {
	var left string
	if typing {
		left = strings.Join([]string{
			styles.Key("Ctrl+v") + " paste",
			styles.Key("Enter") + " confirm",
			styles.Key("Esc") + " stop typing",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " move",
			styles.Key("Enter") + " select",
			styles.Key("/") + " type address",
			styles.Key("c") + " copy address",
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// StatusLine describes where validation of the typed address stands.
func StatusLine(snap inputfsm.Snapshot, spinnerView string) string {
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	warn := lipgloss.NewStyle().Foreground(styles.CWarn)
	ok := lipgloss.NewStyle().Foreground(styles.CAccent)

	switch snap.State {
	case inputfsm.EmptyInput:
		return muted.Render("Paste or type a 0x address to look it up.")
	case inputfsm.ResolveAsset:
		return muted.Render("waiting for input to settle…")
	case inputfsm.Validate:
		return spinnerView + muted.Render(" looking up "+helpers.ShortenAddr(snap.Input)+"…")
	case inputfsm.InvalidHexInput, inputfsm.TokenNotResolvedError, inputfsm.ResolveAssetError:
		msg := snap.State.String()
		if snap.Err != nil {
			msg = snap.Err.Error()
		}
		if snap.FailedHexCount > 1 {
			msg += fmt.Sprintf(" (%d attempts)", snap.FailedHexCount)
		}
		return warn.Render("⚠ " + msg)
	case inputfsm.UpdateValidatedAsset:
		if snap.Asset == nil {
			return ""
		}
		line := ok.Render("✓ " + snap.Asset.AssetSymbol() + " " + helpers.ShortenAddr(snap.Asset.AssetAddress()))
		if snap.AwaitingConfirm {
			line += muted.Render("  awaiting confirmation")
		}
		return line
	}
	return ""
}

// Render renders an asset list overlay
func Render(width, height int, title string, items []Item, selectedIdx int, input string, status string) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Align(lipgloss.Center).
		Width(60)

	var list []string
	if len(items) == 0 {
		list = append(list, lipgloss.NewStyle().Foreground(styles.CMuted).Render("Nothing bundled for this network. Type an address instead."))
	}
	for i, it := range items {
		marker := "  "
		style := lipgloss.NewStyle().Foreground(styles.CText)
		addr := helpers.FadeString(helpers.ShortenAddr(it.Address), "#F25D94", "#EDFF82")

		if i == selectedIdx {
			marker = "▸ "
			style = lipgloss.NewStyle().
				Foreground(styles.CAccent).
				Bold(true)
		}

		line := style.Render(fmt.Sprintf("%s%-8s %s", marker, it.Title, it.Subtitle)) + "  " + addr
		if it.Detail != "" {
			line += "  " + lipgloss.NewStyle().Foreground(styles.CMuted).Render(it.Detail)
		}
		list = append(list, line)
	}

	boxStyle := lipgloss.NewStyle().
		Width(helpers.Min(72, helpers.Max(40, width-4))).
		Padding(1, 3).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CAccent).
		Background(styles.CPanel)

	content := titleStyle.Render(title) + "\n\n" +
		strings.Join(list, "\n") + "\n\n" +
		input + "\n" + status

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		boxStyle.Render(content),
	)
}
