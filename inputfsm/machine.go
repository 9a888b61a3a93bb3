package inputfsm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"charm-exchange-tui/exchange"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const defaultResolveTimeout = 10 * time.Second

var defaultDebounce = map[string]time.Duration{
	"sell":      300 * time.Millisecond,
	"buy":       300 * time.Millisecond,
	"recipient": 450 * time.Millisecond,
	"agent":     450 * time.Millisecond,
	"preview":   250 * time.Millisecond,
}

// DefaultDebounce returns the keystroke debounce for an instance id.
func DefaultDebounce(instanceID string) time.Duration {
	if d, ok := defaultDebounce[instanceID]; ok {
		return d
	}
	return 300 * time.Millisecond
}

// Transition is one observed state change.
type Transition struct {
	Instance string
	From, To State
	Event    string
}

// Config wires a Machine to its owner.
type Config struct {
	InstanceID string
	Feed       FeedType
	// Debounce between the last keystroke and validation. Zero picks the
	// instance default.
	Debounce time.Duration
	// ResolveTimeout bounds one lookup. Zero means 10s.
	ResolveTimeout time.Duration
	// Bypass mutes commit and close: the machine still validates, for
	// read-only previews.
	Bypass bool
	// AutoCommitManual commits typed assets without waiting for Confirm.
	AutoCommitManual bool

	ChainID  func() int64
	Resolver Resolver

	OnCommit     func(asset exchange.ValidatedAsset)
	OnClose      func()
	OnTransition func(Transition)

	Logger *log.Logger
}

// Snapshot is a point-in-time copy of a machine.
type Snapshot struct {
	Instance        string
	State           State
	Input           string
	Asset           exchange.ValidatedAsset
	ManualEntry     bool
	AwaitingConfirm bool
	FailedHexCount  int
	Err             error
	RequestID       string
}

// Machine runs one validation instance. All methods are safe for concurrent
// use. Callbacks run outside the machine lock, in the order they happened,
// and may call back into the machine.
type Machine struct {
	cfg    Config
	rules  rules
	logger *log.Logger

	mu     sync.Mutex
	m      model
	timer  *time.Timer
	cancel context.CancelFunc
	closed bool

	// queue holds callbacks in reduction order. One goroutine at a time
	// drains it, outside mu.
	queue      []func()
	delivering bool

	base     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup
}

// New returns an idle machine in EMPTY_INPUT.
func New(cfg Config) *Machine {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce(cfg.InstanceID)
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = defaultResolveTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	base, shutdown := context.WithCancel(context.Background())
	return &Machine{
		cfg: cfg,
		rules: rules{
			bypass:           cfg.Bypass,
			autoCommitManual: cfg.AutoCommitManual,
			feed:             cfg.Feed,
		},
		logger:   logger.With("instance", cfg.InstanceID),
		base:     base,
		shutdown: shutdown,
	}
}

// SetInput feeds the current text of the input field.
func (mc *Machine) SetInput(text string) { mc.dispatch(inputChanged{text: text}) }

// Select hands the machine an asset picked from a list. It skips
// validation and commits immediately.
func (mc *Machine) Select(asset exchange.ValidatedAsset) { mc.dispatch(assetSelected{asset: asset}) }

// Confirm releases a typed asset held for confirmation.
func (mc *Machine) Confirm() { mc.dispatch(confirmed{}) }

// Sync is safe to call on every render; it never commits twice.
func (mc *Machine) Sync() { mc.dispatch(resync{}) }

// Reset cancels pending work and returns to EMPTY_INPUT.
func (mc *Machine) Reset() { mc.dispatch(reset{}) }

// Close resets the machine and waits for in-flight lookups to return.
// Later events are ignored.
func (mc *Machine) Close() {
	mc.dispatch(reset{})
	mc.mu.Lock()
	mc.closed = true
	mc.mu.Unlock()
	mc.shutdown()
	mc.wg.Wait()
}

// State returns the current state.
func (mc *Machine) State() State {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.m.state
}

// Snapshot returns a copy of the machine's state.
func (mc *Machine) Snapshot() Snapshot {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return Snapshot{
		Instance:        mc.cfg.InstanceID,
		State:           mc.m.state,
		Input:           mc.m.input,
		Asset:           mc.m.asset,
		ManualEntry:     mc.m.manual,
		AwaitingConfirm: mc.m.awaiting,
		FailedHexCount:  mc.m.failed,
		Err:             mc.m.err,
		RequestID:       mc.m.reqID,
	}
}

func (mc *Machine) dispatch(ev event) {
	mc.mu.Lock()
	if mc.closed {
		mc.mu.Unlock()
		return
	}
	next, effects := reduce(mc.m, ev, mc.rules)
	mc.m = next

	var deliver []func()
	for _, e := range effects {
		switch e := e.(type) {
		case stopDebounce:
			mc.stopTimer()
		case startDebounce:
			mc.stopTimer()
			gen := e.gen
			mc.timer = time.AfterFunc(mc.cfg.Debounce, func() {
				mc.dispatch(debounceElapsed{gen: gen, reqID: uuid.NewString()})
			})
		case cancelResolve:
			if mc.cancel != nil {
				mc.cancel()
				mc.cancel = nil
			}
		case startResolve:
			ctx, cancel := context.WithTimeout(mc.base, mc.cfg.ResolveTimeout)
			mc.cancel = cancel
			mc.wg.Add(1)
			go mc.resolve(ctx, cancel, e)
		case commitAsset:
			if mc.cfg.OnCommit != nil {
				asset := e.asset
				deliver = append(deliver, func() { mc.cfg.OnCommit(asset) })
			}
		case closePanel:
			if mc.cfg.OnClose != nil {
				deliver = append(deliver, mc.cfg.OnClose)
			}
		case transitioned:
			t := Transition{Instance: mc.cfg.InstanceID, From: e.from, To: e.to, Event: ev.eventName()}
			deliver = append(deliver, func() { mc.observe(t) })
		}
	}

	mc.queue = append(mc.queue, deliver...)
	if mc.delivering {
		mc.mu.Unlock()
		return
	}
	mc.delivering = true
	for len(mc.queue) > 0 {
		fn := mc.queue[0]
		mc.queue = mc.queue[1:]
		mc.mu.Unlock()
		fn()
		mc.mu.Lock()
	}
	mc.delivering = false
	mc.mu.Unlock()
}

func (mc *Machine) observe(t Transition) {
	mc.logger.Debug("transition", "from", t.From, "to", t.To, "event", t.Event)
	if mc.cfg.OnTransition != nil {
		mc.cfg.OnTransition(t)
	}
}

func (mc *Machine) stopTimer() {
	if mc.timer != nil {
		mc.timer.Stop()
		mc.timer = nil
	}
}

func (mc *Machine) resolve(ctx context.Context, cancel context.CancelFunc, req startResolve) {
	defer mc.wg.Done()
	defer cancel()

	chainID := exchange.DefaultChainID
	if mc.cfg.ChainID != nil {
		chainID = mc.cfg.ChainID()
	}

	var (
		asset exchange.ValidatedAsset
		err   error
	)
	if mc.cfg.Resolver == nil {
		err = ErrNoResolver
	} else {
		mc.logger.Debug("resolving", "input", req.input, "request", req.reqID, "chain", chainID, "feed", mc.cfg.Feed)
		asset, err = mc.cfg.Resolver.Resolve(ctx, req.input, mc.cfg.Feed, chainID)
	}
	if err != nil {
		if mc.base.Err() != nil {
			err = ErrMachineShutdown
		}
		err = fmt.Errorf("resolve %s: %w", req.input, err)
	}
	mc.dispatch(assetResolved{gen: req.gen, asset: asset, err: err})
}
