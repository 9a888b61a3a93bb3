package main

import (
	"fmt"
	"os"

	"charm-exchange-tui/config"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"
	"charm-exchange-tui/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// -------------------- MAIN --------------------

var (
	configPath string
	statePath  string
	ephemeral  bool
)

// rootCmd runs the terminal exchange
var rootCmd = &cobra.Command{
	Use:   "charm-exchange",
	Short: "Terminal token exchange session",
	Long: `A terminal front end for a token exchange session.

Pick the tokens to sell and buy, a recipient and an agent, price the pair
from its pool and manage sponsorships. The session survives restarts in a
state file next to your config.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "session state file (default from config)")
	rootCmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory only")

	stateCmd.AddCommand(stateShowCmd, stateResetCmd)
	rootCmd.AddCommand(stateCmd, panelsCmd)
}

// loadConfig reads the config file and applies the environment
func loadConfig() config.Config {
	cfg := config.LoadOrCreate(configPath)
	cfg.ApplyEnv()
	return cfg
}

// storage returns the state file selected by flags and config
func storage(cfg config.Config) persist.Storage {
	if ephemeral {
		return persist.NewMemoryStorage()
	}
	if statePath != "" {
		return persist.NewFileStorage(statePath)
	}
	return persist.NewFileStorage(cfg.ResolvedStatePath())
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()

	logBuf := &syncBuffer{}
	logger := newLogger(logBuf)
	panels.SetLogger(logger.WithPrefix("panels"))

	sess, err := session.New(cfg,
		session.WithLogger(logger),
		session.WithStorage(storage(cfg)),
		session.WithConfigPath(configPath))
	if err != nil {
		return err
	}
	defer sess.Close()

	m := newModel(sess, logger, logBuf)
	p := tea.NewProgram(&m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
