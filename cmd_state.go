package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// stateCmd inspects the stored session
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset the stored session",
}

// stateShowCmd prints the stored session document
var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored session as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		codec := persist.NewCodec(storage(loadConfig()), persist.DefaultKey, nil)
		raw, ok, err := codec.Raw()
		if err != nil {
			return fmt.Errorf("read state: %w", err)
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "no stored session")
			return nil
		}
		var out bytes.Buffer
		if err := json.Indent(&out, raw, "", "  "); err != nil {
			return fmt.Errorf("stored session is not JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.String())
		return nil
	},
}

// stateResetCmd deletes the stored session
var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		codec := persist.NewCodec(storage(loadConfig()), persist.DefaultKey, nil)
		if err := codec.Clear(); err != nil {
			return fmt.Errorf("reset state: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "stored session deleted")
		return nil
	},
}

// panelsCmd lists the panel registry with the stored visibility
var panelsCmd = &cobra.Command{
	Use:   "panels",
	Short: "List panels and whether the stored session shows them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		codec := persist.NewCodec(storage(loadConfig()), persist.DefaultKey, log.New(cmd.ErrOrStderr()))
		state, restored := exchange.Load(codec, exchange.DefaultChainID)
		fmt.Fprintln(cmd.OutOrStdout(), renderPanels(state.Settings.PanelTree, restored))
		return nil
	},
}

func renderPanels(tree panels.Tree, restored bool) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(cBorder)).
		Headers("ID", "PANEL", "PARENT", "GROUP", "VISIBLE")

	for _, id := range panels.All() {
		parent := ""
		if p, ok := panels.Parent(id); ok {
			parent = panels.Name(p)
		}
		group := ""
		if g, ok := panels.RadioGroupOf(id); ok {
			group = string(g)
		}
		visible := "no"
		if tree.IsVisible(id) {
			visible = "yes"
		}
		t.Row(strconv.Itoa(int(id)), panels.Name(id), parent, group, visible)
	}

	source := "defaults"
	if restored {
		source = "stored session"
	}
	return t.String() + "\n" + lipgloss.NewStyle().Foreground(cMuted).Render("visibility from "+source)
}
