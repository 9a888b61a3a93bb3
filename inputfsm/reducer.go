package inputfsm

import (
	"strings"

	"charm-exchange-tui/exchange"
	"charm-exchange-tui/helpers"
)

// model is everything the reducer owns. gen moves on every event that makes
// outstanding timers or lookups obsolete.
type model struct {
	state    State
	input    string
	asset    exchange.ValidatedAsset
	manual   bool
	awaiting bool
	failed   int
	err      error
	gen      uint64
	reqID    string
}

type rules struct {
	bypass           bool
	autoCommitManual bool
	feed             FeedType
}

type event interface{ eventName() string }

type (
	inputChanged    struct{ text string }
	debounceElapsed struct {
		gen   uint64
		reqID string
	}
	assetResolved struct {
		gen   uint64
		asset exchange.ValidatedAsset
		err   error
	}
	assetSelected struct{ asset exchange.ValidatedAsset }
	confirmed     struct{}
	resync        struct{}
	reset         struct{}
)

func (inputChanged) eventName() string    { return "input" }
func (debounceElapsed) eventName() string { return "debounce" }
func (assetResolved) eventName() string   { return "resolved" }
func (assetSelected) eventName() string   { return "select" }
func (confirmed) eventName() string       { return "confirm" }
func (resync) eventName() string          { return "sync" }
func (reset) eventName() string           { return "reset" }

// Effects are applied by the Machine in order.
type effect interface{ isEffect() }

type (
	startDebounce struct{ gen uint64 }
	stopDebounce  struct{}
	startResolve  struct {
		gen   uint64
		input string
		reqID string
	}
	cancelResolve struct{}
	commitAsset   struct{ asset exchange.ValidatedAsset }
	closePanel    struct{}
	transitioned  struct{ from, to State }
)

func (startDebounce) isEffect() {}
func (stopDebounce) isEffect()  {}
func (startResolve) isEffect()  {}
func (cancelResolve) isEffect() {}
func (commitAsset) isEffect()   {}
func (closePanel) isEffect()    {}
func (transitioned) isEffect()  {}

// step accumulates one reduction.
type step struct {
	m       model
	effects []effect
}

func (s *step) emit(e ...effect) { s.effects = append(s.effects, e...) }

func (s *step) moveTo(to State) {
	if s.m.state == to {
		return
	}
	s.emit(transitioned{from: s.m.state, to: to})
	s.m.state = to
}

// reduce is the whole state machine. It never blocks and never calls out;
// everything observable comes back as effects.
func reduce(m model, ev event, r rules) (model, []effect) {
	s := &step{m: m}

	switch ev := ev.(type) {
	case inputChanged:
		text := strings.TrimSpace(ev.text)
		if text == s.m.input && s.m.manual && s.m.state != EmptyInput {
			break
		}
		s.m.gen++
		s.emit(stopDebounce{}, cancelResolve{})
		s.m.asset, s.m.awaiting, s.m.err, s.m.reqID = nil, false, nil, ""
		s.m.input = text
		if text == "" {
			s.m.manual = false
			s.moveTo(EmptyInput)
			break
		}
		s.m.manual = true
		s.moveTo(ResolveAsset)
		s.emit(startDebounce{gen: s.m.gen})

	case debounceElapsed:
		if ev.gen != s.m.gen || s.m.state != ResolveAsset {
			break
		}
		if !helpers.IsValidEthAddress(s.m.input) {
			s.m.failed++
			s.m.err = ErrInvalidHex
			s.moveTo(InvalidHexInput)
			break
		}
		s.m.reqID = ev.reqID
		s.moveTo(Validate)
		s.emit(startResolve{gen: s.m.gen, input: s.m.input, reqID: ev.reqID})

	case assetResolved:
		if ev.gen != s.m.gen || s.m.state != Validate {
			break
		}
		switch {
		case ev.err != nil:
			s.m.failed++
			s.m.err = ev.err
			s.moveTo(ResolveAssetError)
		case isNilAsset(ev.asset):
			s.m.failed++
			s.m.err = ErrNotResolved
			s.moveTo(TokenNotResolvedError)
		case !matchesFeed(ev.asset, r.feed):
			s.m.failed++
			s.m.err = ErrWrongAssetKind
			s.moveTo(ResolveAssetError)
		default:
			s.arrive(ev.asset, true, false, r)
		}

	case assetSelected:
		if isNilAsset(ev.asset) || !matchesFeed(ev.asset, r.feed) {
			break
		}
		s.m.gen++
		s.emit(stopDebounce{}, cancelResolve{})
		s.m.input = ev.asset.AssetAddress()
		s.m.err = nil
		s.arrive(ev.asset, false, false, r)

	case confirmed:
		if s.m.state != UpdateValidatedAsset || !s.m.awaiting {
			break
		}
		s.arrive(s.m.asset, s.m.manual, true, r)

	case resync:
		// Terminal arrivals are settled inside the step that reached them,
		// so there is never anything left to re-run.

	case reset:
		s.m.gen++
		s.emit(stopDebounce{}, cancelResolve{})
		s.clear()
	}

	return s.m, s.effects
}

// arrive handles UPDATE_VALIDATED_ASSET. Unless muted or held for
// confirmation it commits, closes and returns to EMPTY_INPUT in this same
// step.
func (s *step) arrive(asset exchange.ValidatedAsset, manual, userConfirmed bool, r rules) {
	s.m.asset = asset
	s.m.manual = manual
	s.m.awaiting = false
	s.moveTo(UpdateValidatedAsset)

	if r.bypass {
		return
	}
	if manual && !userConfirmed && !r.autoCommitManual {
		s.m.awaiting = true
		return
	}

	s.emit(commitAsset{asset: asset})
	s.moveTo(CloseSelectPanel)
	s.emit(closePanel{})
	s.m.gen++
	s.clear()
}

func (s *step) clear() {
	s.m.input = ""
	s.m.asset = nil
	s.m.manual = false
	s.m.awaiting = false
	s.m.failed = 0
	s.m.err = nil
	s.m.reqID = ""
	s.moveTo(EmptyInput)
}
