// Package inputfsm validates what a user types or picks in an asset select
// panel and hands the resolved asset to its owner exactly once.
package inputfsm

import (
	"context"
	"errors"

	"charm-exchange-tui/exchange"
)

// State is where a machine is in the validation flow.
type State int

const (
	EmptyInput State = iota
	InvalidHexInput
	ResolveAsset
	Validate
	TokenNotResolvedError
	ResolveAssetError
	UpdateValidatedAsset
	CloseSelectPanel
)

var stateNames = map[State]string{
	EmptyInput:            "EMPTY_INPUT",
	InvalidHexInput:       "INVALID_HEX_INPUT",
	ResolveAsset:          "RESOLVE_ASSET",
	Validate:              "VALIDATE",
	TokenNotResolvedError: "TOKEN_NOT_RESOLVED_ERROR",
	ResolveAssetError:     "RESOLVE_ASSET_ERROR",
	UpdateValidatedAsset:  "UPDATE_VALIDATED_ASSET",
	CloseSelectPanel:      "CLOSE_SELECT_PANEL",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "UNKNOWN"
}

// IsError reports whether s is one of the failure states.
func (s State) IsError() bool {
	return s == InvalidHexInput || s == TokenNotResolvedError || s == ResolveAssetError
}

// FeedType selects what kind of asset an instance resolves.
type FeedType int

const (
	TokenListFeed FeedType = iota
	RecipientAccountFeed
	AgentAccountFeed
)

func (f FeedType) String() string {
	switch f {
	case RecipientAccountFeed:
		return "recipients"
	case AgentAccountFeed:
		return "agents"
	default:
		return "tokens"
	}
}

// WantsToken reports whether the feed resolves to token contracts.
func (f FeedType) WantsToken() bool { return f == TokenListFeed }

var (
	ErrInvalidHex      = errors.New("input is not a 0x address")
	ErrNotResolved     = errors.New("no asset found at address")
	ErrWrongAssetKind  = errors.New("resolved asset does not match feed")
	ErrNoResolver      = errors.New("no resolver configured")
	ErrMachineShutdown = errors.New("input machine closed")
)

// Resolver turns an address into a token or wallet. A nil asset with a nil
// error means nothing lives at that address; an error is a transport
// failure.
type Resolver interface {
	Resolve(ctx context.Context, input string, feed FeedType, chainID int64) (exchange.ValidatedAsset, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, input string, feed FeedType, chainID int64) (exchange.ValidatedAsset, error)

func (f ResolverFunc) Resolve(ctx context.Context, input string, feed FeedType, chainID int64) (exchange.ValidatedAsset, error) {
	return f(ctx, input, feed, chainID)
}

// isNilAsset catches typed nil pointers hiding in the interface.
func isNilAsset(a exchange.ValidatedAsset) bool {
	switch v := a.(type) {
	case nil:
		return true
	case *exchange.TokenContract:
		return v == nil
	case *exchange.WalletAccount:
		return v == nil
	}
	return false
}

func matchesFeed(a exchange.ValidatedAsset, feed FeedType) bool {
	_, isToken := a.(*exchange.TokenContract)
	return isToken == feed.WantsToken()
}
