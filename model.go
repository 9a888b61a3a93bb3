package main

import (
	"bytes"
	"io"
	"sync"
	"time"

	"charm-exchange-tui/config"
	"charm-exchange-tui/exchange"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/quote"
	"charm-exchange-tui/rpc"
	"charm-exchange-tui/session"
	"charm-exchange-tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// -------------------- LOG BUFFER --------------------

// syncBuffer is the log sink. Engine goroutines write to it while the UI
// reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// newLogger creates the app logger with the debug log panel's styles
func newLogger(w io.Writer) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           log.DebugLevel,
	})
	logger.SetStyles(&log.Styles{
		Timestamp: lipgloss.NewStyle().Foreground(cMuted),
		Caller:    lipgloss.NewStyle().Faint(true),
		Prefix:    lipgloss.NewStyle().Bold(true).Foreground(cAccent2),
		Message:   lipgloss.NewStyle().Foreground(cText),
		Key:       lipgloss.NewStyle().Foreground(cAccent),
		Value:     lipgloss.NewStyle().Foreground(cText),
		Separator: lipgloss.NewStyle().Faint(true),
		Levels: map[log.Level]lipgloss.Style{
			log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
			log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
			log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
			log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("ERROR"),
		},
	})
	return logger
}

// -------------------- MODEL --------------------

// model represents the application state following The Elm Architecture.
// Everything the exchange needs lives in the session store; the model only
// keeps what the terminal needs to draw it.
type model struct {
	w, h int

	sess *session.Session
	cfg  config.Config
	snap *exchange.ExchangeContext

	spin          spinner.Model
	booting       bool
	rpcConnecting bool

	// trading station
	focused       int
	editingAmount bool
	amountInput   textinput.Model
	quoting       bool
	lastQuote     *quote.Quote

	// asset list overlays
	listInstance string
	listIdx      int
	typing       bool
	addrInput    textinput.Model
	confirmForm  *huh.Form

	// sponsorships
	sponsorIdx int

	// settings state
	settingsMode   string // "list", "add", "slippage", "network"
	selectedRPCIdx int
	form           *huh.Form

	// yes/no dialog
	dialog            string // "", "delete-rpc", "reset"
	dialogYesSelected bool
	deleteRPCIdx      int

	// account popup
	showAccountListPopup   bool
	accountListSelectedIdx int
	addingWallet           bool
	walletInput            textinput.Model
	addError               string

	// account panel
	balances        rpc.Balances
	loadingBalances bool
	showQR          bool
	copiedMsg       string
	copiedMsgTime   time.Time

	// logger panel
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *syncBuffer
	logViewport viewport.Model
	logReady    bool
	logSpinner  spinner.Model
	lastReason  string
	eventCount  int
}

// -------------------- INIT --------------------

// newModel creates the terminal host around a built session
func newModel(sess *session.Session, logger *log.Logger, logBuf *syncBuffer) model {
	cfg := sess.Config()
	if cfg.Logger && !sess.Store().IsPanelVisible(panels.LogPanel) {
		sess.Store().OpenPanel(panels.LogPanel, "logger enabled in config")
	}
	snap := sess.Store().Snapshot()

	// pasted addresses
	in := textinput.New()
	in.Placeholder = "Paste Address 0x…"
	in.Prompt = "Address: "
	in.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	in.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	in.CharLimit = 42
	in.Width = 48

	amount := textinput.New()
	amount.Placeholder = "0.0"
	amount.Prompt = "Amount: "
	amount.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	amount.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	amount.CharLimit = 40
	amount.Width = 30

	wallet := in
	wallet.Placeholder = "Public Address 0x…"

	// spinner
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	// Initialize log viewport
	vp := viewport.New(0, 20) // Will be resized in Update on first WindowSizeMsg
	vp.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	logSpin := spinner.New()
	logSpin.Spinner = spinner.Dot
	logSpin.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	m := model{
		sess:         sess,
		cfg:          cfg,
		snap:         snap,
		spin:         sp,
		booting:      true,
		amountInput:  amount,
		addrInput:    in,
		walletInput:  wallet,
		settingsMode: "list",
		logEnabled:   cfg.Logger || snap.Settings.PanelTree.IsVisible(panels.LogPanel),
		logger:       logger,
		logBuffer:    logBuf,
		logViewport:  vp,
		logSpinner:   logSpin,
	}
	if id := m.activeOverlay(); id == panels.TokenListSelectPanel || id == panels.RecipientListSelectPanel || id == panels.AgentListSelectPanel {
		m.listInstance = instanceFor(id)
	}
	return m
}

// Init implements tea.Model interface and returns initial commands
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, bootSession(m.sess), waitForEvent(m.sess)}
	if m.logEnabled {
		cmds = append(cmds, initLogViewport(), m.logSpinner.Tick)
	}
	return tea.Batch(cmds...)
}
