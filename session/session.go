// Package session assembles the exchange engine for a host: storage, the
// store, the resolver, the network reconciler and one input machine per
// select field. It also stands in for the wallet, backed by the configured
// RPC endpoints.
package session

import (
	"fmt"
	"io"
	"sync"

	"charm-exchange-tui/config"
	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
	"charm-exchange-tui/inputfsm"
	"charm-exchange-tui/network"
	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"
	"charm-exchange-tui/resolver"

	"github.com/charmbracelet/log"
)

// Input machine instance ids.
const (
	Sell      = "sell"
	Buy       = "buy"
	Recipient = "recipient"
	Agent     = "agent"
	Preview   = "preview"
)

// Instances lists every input machine a session runs.
var Instances = []string{Sell, Buy, Recipient, Agent, Preview}

// Event tells the host that something it renders changed. Transition is
// set for input machine moves, Reason for store writes.
type Event struct {
	Reason     string
	Transition *inputfsm.Transition
}

// Option configures a Session.
type Option func(*Session)

// WithStorage replaces the state file, e.g. with persist.NewMemoryStorage
// for an ephemeral session.
func WithStorage(st persist.Storage) Option {
	return func(s *Session) { s.storage = st }
}

// WithLogger sets the logger shared by every engine part.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDialer replaces how RPC endpoints are dialed.
func WithDialer(d Dialer) Option {
	return func(s *Session) {
		if d != nil {
			s.dial = d
		}
	}
}

// WithConfigPath makes endpoint and wallet changes persist to path.
func WithConfigPath(path string) Option {
	return func(s *Session) { s.configPath = path }
}

// Session is one running exchange session.
type Session struct {
	logger     *log.Logger
	storage    persist.Storage
	configPath string
	dial       Dialer

	cfgMu sync.Mutex
	cfg   config.Config

	feeds      *resolver.Feeds
	codec      *persist.Codec
	store      *exchange.Store
	resolver   *resolver.Resolver
	reconciler *network.Reconciler
	machines   map[string]*inputfsm.Machine
	restored   bool

	unsubscribe func()
	events      chan Event

	connMu    sync.RWMutex
	conn      Conn
	connURL   string
	connChain int64
}

// New builds a session from cfg and restores any stored state.
func New(cfg config.Config, opts ...Option) (*Session, error) {
	s := &Session{
		cfg:    cfg,
		dial:   dialRPC,
		logger: log.New(io.Discard),
		events: make(chan Event, 64),
	}
	for _, o := range opts {
		o(s)
	}
	if s.storage == nil {
		s.storage = persist.NewFileStorage(cfg.ResolvedStatePath())
	}

	feeds, err := resolver.LoadFeeds()
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	s.feeds = feeds

	s.codec = persist.NewCodec(s.storage, persist.DefaultKey, s.logger.WithPrefix("persist"))
	initial, restored := exchange.Load(s.codec, exchange.DefaultChainID)
	s.restored = restored
	s.store = exchange.NewStore(initial,
		exchange.WithCodec(s.codec),
		exchange.WithLogger(s.logger.WithPrefix("store")))

	s.resolver = resolver.New(feeds,
		resolver.WithBackend(s.backendFor),
		resolver.WithOwner(s.owner),
		resolver.WithLogger(s.logger.WithPrefix("resolver")))

	hydrator := &resolver.Hydrator{
		Feeds:   feeds,
		Backend: s.Backend,
		Known:   func() []exchange.WalletAccount { return knownAccounts(s.Config().Wallets) },
		Logger:  s.logger.WithPrefix("hydrate"),
	}
	s.reconciler = network.New(s.store, s,
		network.WithLogger(s.logger.WithPrefix("network")),
		network.WithHydrator(hydrator))

	s.unsubscribe = s.store.Subscribe(func(_, _ *exchange.ExchangeContext, reason string) {
		s.emit(Event{Reason: reason})
	})

	s.machines = make(map[string]*inputfsm.Machine, len(Instances))
	for _, id := range Instances {
		s.machines[id] = s.newMachine(id)
	}

	snap := s.store.Snapshot()
	if len(snap.Accounts.RecipientAccounts) == 0 && len(snap.Accounts.AgentAccounts) == 0 {
		s.store.SetAccountLists(
			feeds.Accounts(inputfsm.RecipientAccountFeed),
			feeds.Accounts(inputfsm.AgentAccountFeed),
			"seed bundled accounts")
	}
	return s, nil
}

func knownAccounts(wallets []config.WalletEntry) []exchange.WalletAccount {
	var out []exchange.WalletAccount
	for _, w := range wallets {
		if !helpers.IsValidEthAddress(w.Address) {
			continue
		}
		addr := helpers.NormalizeAddress(w.Address)
		name := w.Name
		if name == "" {
			name = helpers.ShortenAddr(addr)
		}
		out = append(out, exchange.WalletAccount{Address: addr, Name: name, Status: exchange.StatusInfo})
	}
	return out
}

func (s *Session) newMachine(instance string) *inputfsm.Machine {
	cfg := inputfsm.Config{
		InstanceID:       instance,
		Debounce:         s.cfg.Debounce(instance),
		AutoCommitManual: s.cfg.AutoCommitManual,
		ChainID:          s.appChain,
		Resolver:         s.resolver,
		Logger:           s.logger.WithPrefix("input"),
	}

	backToStation := func() {
		s.store.OpenPanel(panels.TradingStationPanel, "close "+instance+" select")
	}

	switch instance {
	case Sell, Buy:
		cfg.Feed = inputfsm.TokenListFeed
		cfg.OnClose = backToStation
		cfg.OnCommit = func(a exchange.ValidatedAsset) {
			tok, ok := a.(*exchange.TokenContract)
			if !ok {
				return
			}
			if instance == Sell {
				s.store.SetSellTokenContract(tok, "sell token selected")
			} else {
				s.store.SetBuyTokenContract(tok, "buy token selected")
			}
		}
	case Recipient:
		cfg.Feed = inputfsm.RecipientAccountFeed
		cfg.OnClose = backToStation
		cfg.OnCommit = func(a exchange.ValidatedAsset) {
			if acct, ok := a.(*exchange.WalletAccount); ok {
				s.store.SetRecipientAccount(acct, "recipient selected")
			}
		}
	case Agent:
		cfg.Feed = inputfsm.AgentAccountFeed
		cfg.OnClose = backToStation
		cfg.OnCommit = func(a exchange.ValidatedAsset) {
			if acct, ok := a.(*exchange.WalletAccount); ok {
				s.store.SetAgentAccount(acct, "agent selected")
			}
		}
	case Preview:
		cfg.Feed = inputfsm.TokenListFeed
		cfg.Bypass = true
	}

	cfg.OnTransition = func(t inputfsm.Transition) {
		if instance == Preview {
			s.mirrorPreview(t)
		}
		s.emit(Event{Transition: &t})
	}
	return inputfsm.New(cfg)
}

// mirrorPreview copies what the preview machine validated into the store.
func (s *Session) mirrorPreview(t inputfsm.Transition) {
	switch t.To {
	case inputfsm.UpdateValidatedAsset:
		if tok, ok := s.machines[Preview].Snapshot().Asset.(*exchange.TokenContract); ok {
			s.store.SetPreviewTokenContract(tok, "preview validated")
		}
	case inputfsm.EmptyInput:
		s.store.SetPreviewTokenContract(nil, "preview cleared")
	}
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// Events delivers change notifications. It is never closed; slow readers
// miss events, not state.
func (s *Session) Events() <-chan Event { return s.events }

// Store returns the session store.
func (s *Session) Store() *exchange.Store { return s.store }

// Feeds returns the bundled asset feeds.
func (s *Session) Feeds() *resolver.Feeds { return s.feeds }

// Codec returns the codec the store persists through.
func (s *Session) Codec() *persist.Codec { return s.codec }

// Restored reports whether the session started from stored state.
func (s *Session) Restored() bool { return s.restored }

// Machine returns the input machine for instance, or nil.
func (s *Session) Machine(instance string) *inputfsm.Machine { return s.machines[instance] }

// Config returns a copy of the current configuration.
func (s *Session) Config() config.Config {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	cfg := s.cfg
	cfg.RPCURLs = append([]config.RPCUrl(nil), s.cfg.RPCURLs...)
	cfg.Wallets = append([]config.WalletEntry(nil), s.cfg.Wallets...)
	return cfg
}

// UpdateConfig applies fn to the configuration and saves it.
func (s *Session) UpdateConfig(fn func(cfg *config.Config)) error {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	fn(&s.cfg)
	return s.saveConfigLocked()
}

func (s *Session) saveConfigLocked() error {
	if s.configPath == "" {
		return nil
	}
	return config.Save(s.configPath, s.cfg)
}

func (s *Session) appChain() int64 {
	return s.store.Snapshot().Network.AppChainID
}

func (s *Session) owner() string {
	if a := s.store.Snapshot().Accounts.ConnectedAccount; a != nil {
		return a.Address
	}
	return ""
}

// Reset replaces the session state with defaults for the current chain and
// clears every input machine.
func (s *Session) Reset(reason string) {
	for _, m := range s.machines {
		m.Reset()
	}
	s.store.Reset(reason)
}

// Close stops the input machines and drops the chain connection.
func (s *Session) Close() {
	for _, m := range s.machines {
		m.Close()
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}
