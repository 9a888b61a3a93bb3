package main

import (
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- THEME (Lip Gloss) --------------------
// Styles come from the styles package

var (
	cPanel   = styles.CPanel
	cBorder  = styles.CBorder
	cMuted   = styles.CMuted
	cText    = styles.CText
	cAccent  = styles.CAccent
	cAccent2 = styles.CAccent2
	cWarn    = styles.CWarn

	appStyle    = styles.AppStyle
	panelStyle  = styles.PanelStyle
	hotkeyStyle = lipgloss.NewStyle().Foreground(styles.CMuted)
)
