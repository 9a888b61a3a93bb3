package log

import (
	"fmt"

	"charm-exchange-tui/helpers"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Props is what the debug log panel shows.
type Props struct {
	Width, Height int
	Ready         bool
	SpinnerView   string
	Viewport      viewport.Model
	// LastReason is the reason string of the latest session change.
	LastReason string
	Events     int
}

// Height is the number of viewport rows the panel gets for a terminal of
// height h: at most a third of the screen, never more than 15 rows.
func Height(h int) int {
	available := helpers.Max(5, h-10)
	return helpers.Min(available, helpers.Min(h/3, 15))
}

// Render renders the log panel
func Render(p Props) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Log")

	vp := p.Viewport
	vp.Height = Height(p.Height)

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, p.Width-2)).
		Height(vp.Height + 2)

	if !p.Ready {
		return border.Render(title + "\n\n" + "initializing...\n" + p.SpinnerView)
	}

	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	if vp.TotalLineCount() > vp.Height {
		title += muted.Render(fmt.Sprintf(" [%d%%]", int(vp.ScrollPercent()*100)))
	}
	if p.Events > 0 {
		title += muted.Render(fmt.Sprintf("  %d session changes", p.Events))
	}
	if p.LastReason != "" {
		title += muted.Render("  last: ") + lipgloss.NewStyle().Foreground(styles.CText).Render(p.LastReason)
	}

	return border.Render(title + "\n\n" + vp.View())
}
