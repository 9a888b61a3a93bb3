package exchange

import (
	"errors"
	"io"
	"sync"

	"charm-exchange-tui/panels"
	"charm-exchange-tui/persist"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// ErrNoStore is returned by helpers handed a nil *Store.
var ErrNoStore = errors.New("exchange: nil store")

// Updater receives a private deep copy of the current context. It may mutate
// and return that copy, or return any other context. It runs under the store
// lock and must not call back into the store.
type Updater func(draft *ExchangeContext) *ExchangeContext

// Listener observes accepted writes. prev and next are read-only.
type Listener func(prev, next *ExchangeContext, reason string)

// diffOptions decide whether a write changed anything. Panel children are
// ignored through panels.Tree.Equal and BigInt compares through its Equal.
var diffOptions = cmp.Options{
	cmpopts.EquateEmpty(),
}

// Store owns the ExchangeContext. Every change goes through
// SetExchangeContext, which drops writes that change nothing.
type Store struct {
	mu      sync.Mutex
	current *ExchangeContext
	version uint64

	codec  *persist.Codec
	logger *log.Logger

	subMu     sync.Mutex
	listeners map[int]Listener
	order     []int
	nextSub   int
	watchers  []Listener
}

// Option configures a Store.
type Option func(*Store)

// WithCodec persists every accepted write through c.
func WithCodec(c *persist.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithLogger sets the store logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithoutWatchers disables the built-in consistency watchers.
func WithoutWatchers() Option {
	return func(s *Store) { s.watchers = nil }
}

// NewStore wraps initial. A nil initial starts from the defaults for
// DefaultChainID.
func NewStore(initial *ExchangeContext, opts ...Option) *Store {
	if initial == nil {
		initial = NewExchangeContext(DefaultChainID)
	}
	s := &Store{
		current:   initial.Clone(),
		logger:    log.New(io.Discard),
		listeners: map[int]Listener{},
	}
	s.watchers = []Listener{s.watchTokenCollision, s.watchTokenCommitOverlay}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a deep copy of the current context.
func (s *Store) Snapshot() *ExchangeContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Version counts accepted writes.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// read runs fn against the live context under the lock. fn must not retain
// or mutate it.
func (s *Store) read(fn func(cur *ExchangeContext)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.current)
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = l
	s.order = append(s.order, id)
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.listeners, id)
	}
}

// SetExchangeContext applies update to a copy of the current context. When
// the result is structurally equal to the current context the write is
// dropped: nothing is persisted and no listener runs. It reports whether the
// write was accepted.
func (s *Store) SetExchangeContext(update Updater, reason string) bool {
	s.mu.Lock()
	prev := s.current
	next := update(prev.Clone())
	if next == nil {
		s.mu.Unlock()
		s.logger.Warn("updater returned nil context", "reason", reason)
		return false
	}
	if cmp.Equal(prev, next, diffOptions) {
		s.mu.Unlock()
		s.logger.Debug("dropping no-op write", "reason", reason)
		return false
	}

	next = next.Clone()
	stored := next.Clone()
	stored.Settings.PanelTree = stored.Settings.PanelTree.Flatten()
	if s.codec != nil {
		// Failure leaves the in-memory state authoritative.
		_ = s.codec.Save(stored)
	}
	s.current = next
	s.version++
	s.mu.Unlock()

	s.logger.Debug("exchange context updated", "reason", reason)
	s.notify(prev, next, reason)
	return true
}

func (s *Store) notify(prev, next *ExchangeContext, reason string) {
	s.subMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, id := range s.order {
		if l, ok := s.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	watchers := s.watchers
	s.subMu.Unlock()

	for _, l := range ls {
		l(prev, next, reason)
	}
	// Watchers run last so their corrective writes reach listeners after the
	// write that triggered them.
	for _, w := range watchers {
		w(prev, next, reason)
	}
}

// Reset replaces everything except the network with fresh defaults.
func (s *Store) Reset(reason string) bool {
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		fresh := NewExchangeContext(d.Network.AppChainID)
		fresh.Network = d.Network
		return fresh
	}, reason)
}

// Panel operations.

// IsPanelVisible reports whether id is visible in the current tree.
func (s *Store) IsPanelVisible(id panels.PanelID) bool {
	visible := false
	s.read(func(cur *ExchangeContext) { visible = cur.Settings.PanelTree.IsVisible(id) })
	return visible
}

// PanelTree returns a copy of the current tree.
func (s *Store) PanelTree() panels.Tree {
	var t panels.Tree
	s.read(func(cur *ExchangeContext) { t = cur.Settings.PanelTree.Clone() })
	return t
}

func (s *Store) OpenPanel(id panels.PanelID, reason string, parent ...panels.PanelID) bool {
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		d.Settings.PanelTree = d.Settings.PanelTree.Open(id, reason, parent...)
		return d
	}, reason)
}

func (s *Store) ClosePanel(id panels.PanelID, reason string) bool {
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		d.Settings.PanelTree = d.Settings.PanelTree.Close(id, reason)
		return d
	}, reason)
}

func (s *Store) OpenOverlay(id panels.PanelID, reason string) bool {
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		d.Settings.PanelTree = d.Settings.PanelTree.OpenOverlay(id, reason)
		return d
	}, reason)
}

func (s *Store) TogglePanel(id panels.PanelID, reason string) bool {
	return s.SetExchangeContext(func(d *ExchangeContext) *ExchangeContext {
		d.Settings.PanelTree = d.Settings.PanelTree.Toggle(id, reason)
		return d
	}, reason)
}
