package chains

import (
	"fmt"
	"strings"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/huh"
)

// TempSelection stores the chain picked in the form
var TempSelection int64

// CreateForm creates the network picker, preselecting current. hasRPC
// marks chains with a configured endpoint.
func CreateForm(current int64, hasRPC func(chainID int64) bool) *huh.Form {
	TempSelection = current

	var options []huh.Option[int64]
	for _, id := range exchange.KnownChains() {
		info, _ := exchange.LookupChain(id)
		label := fmt.Sprintf("%s (%d)", info.Name, id)
		if hasRPC != nil && !hasRPC(id) {
			label += " · no RPC"
		}
		options = append(options, huh.NewOption(label, id))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int64]().
				Options(options...).
				Title("Select Network").
				Description("The app moves first; the connection follows").
				Value(&TempSelection),
		),
	).WithTheme(huh.ThemeCatppuccin())

	form.Init()
	return form
}

// Render renders the network picker
func Render(form *huh.Form) string {
	if form != nil {
		return styles.TitleStyle.Render("Network") + "\n\n" + form.View()
	}
	return "Loading networks..."
}

// Nav returns the navigation bar for the network picker
func Nav(width int) string {
	left := strings.Join([]string{
		styles.Key("↑/↓") + " select",
		styles.Key("Enter") + " switch",
		styles.Key("Esc") + " cancel",
	}, "   ")

	return styles.NavStyle.Width(width).Render(left)
}
