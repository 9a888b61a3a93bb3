package inputfsm

import (
	"errors"
	"testing"

	"charm-exchange-tui/exchange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const daiAddr = "0x6B175474E89094C44Da98b954EedeAC495271d0F"

var dai = &exchange.TokenContract{Address: daiAddr, ChainID: 1, Decimals: 18, Symbol: "DAI", Name: "Dai Stablecoin"}

func countEffects[T effect](effects []effect) int {
	n := 0
	for _, e := range effects {
		if _, ok := e.(T); ok {
			n++
		}
	}
	return n
}

func states(effects []effect) []State {
	var out []State
	for _, e := range effects {
		if t, ok := e.(transitioned); ok {
			out = append(out, t.to)
		}
	}
	return out
}

func TestReduceTypedInputFlow(t *testing.T) {
	r := rules{feed: TokenListFeed, autoCommitManual: true}
	m := model{}

	m, eff := reduce(m, inputChanged{text: " " + daiAddr + " "}, r)
	assert.Equal(t, ResolveAsset, m.state)
	assert.Equal(t, daiAddr, m.input)
	assert.True(t, m.manual)
	assert.Equal(t, 1, countEffects[startDebounce](eff))

	m, eff = reduce(m, debounceElapsed{gen: m.gen, reqID: "req-1"}, r)
	assert.Equal(t, Validate, m.state)
	assert.Equal(t, "req-1", m.reqID)
	require.Equal(t, 1, countEffects[startResolve](eff))

	m, eff = reduce(m, assetResolved{gen: m.gen, asset: dai}, r)
	assert.Equal(t, []State{UpdateValidatedAsset, CloseSelectPanel, EmptyInput}, states(eff))
	assert.Equal(t, 1, countEffects[commitAsset](eff))
	assert.Equal(t, 1, countEffects[closePanel](eff))
	assert.Equal(t, EmptyInput, m.state)
	assert.Nil(t, m.asset)
	assert.Empty(t, m.input)
}

func TestReduceCommitPrecedesClose(t *testing.T) {
	m, eff := reduce(model{}, assetSelected{asset: dai}, rules{feed: TokenListFeed})
	var order []string
	for _, e := range eff {
		switch e.(type) {
		case commitAsset:
			order = append(order, "commit")
		case closePanel:
			order = append(order, "close")
		}
	}
	assert.Equal(t, []string{"commit", "close"}, order)
	assert.Equal(t, EmptyInput, m.state)
}

func TestReduceInvalidHex(t *testing.T) {
	r := rules{feed: TokenListFeed}
	tests := []string{"0x123", "6B175474E89094C44Da98b954EedeAC495271d0F", "0xZZ175474E89094C44Da98b954EedeAC495271d0F", "dai"}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			m, _ := reduce(model{failed: 2}, inputChanged{text: in}, r)
			m, eff := reduce(m, debounceElapsed{gen: m.gen}, r)
			assert.Equal(t, InvalidHexInput, m.state)
			assert.Equal(t, 3, m.failed)
			assert.ErrorIs(t, m.err, ErrInvalidHex)
			assert.Zero(t, countEffects[startResolve](eff))
		})
	}
}

func TestReduceResolveFailures(t *testing.T) {
	r := rules{feed: TokenListFeed}
	validating := func() model {
		m, _ := reduce(model{}, inputChanged{text: daiAddr}, r)
		m, _ = reduce(m, debounceElapsed{gen: m.gen}, r)
		require.Equal(t, Validate, m.state)
		return m
	}

	t.Run("not found", func(t *testing.T) {
		m, _ := reduce(validating(), assetResolved{gen: 1}, r)
		assert.Equal(t, TokenNotResolvedError, m.state)
		assert.Equal(t, 1, m.failed)
		assert.ErrorIs(t, m.err, ErrNotResolved)
	})

	t.Run("typed nil", func(t *testing.T) {
		var missing *exchange.TokenContract
		m, _ := reduce(validating(), assetResolved{gen: 1, asset: missing}, r)
		assert.Equal(t, TokenNotResolvedError, m.state)
	})

	t.Run("transport error", func(t *testing.T) {
		boom := errors.New("boom")
		m, _ := reduce(validating(), assetResolved{gen: 1, err: boom}, r)
		assert.Equal(t, ResolveAssetError, m.state)
		assert.ErrorIs(t, m.err, boom)
	})

	t.Run("wrong kind", func(t *testing.T) {
		m, _ := reduce(validating(), assetResolved{gen: 1, asset: &exchange.WalletAccount{Address: daiAddr}}, r)
		assert.Equal(t, ResolveAssetError, m.state)
		assert.ErrorIs(t, m.err, ErrWrongAssetKind)
	})
}

func TestReduceDropsStaleEvents(t *testing.T) {
	r := rules{feed: TokenListFeed, autoCommitManual: true}
	m, _ := reduce(model{}, inputChanged{text: daiAddr}, r)
	m, _ = reduce(m, debounceElapsed{gen: m.gen}, r)
	staleGen := m.gen

	// The user keeps typing while the lookup runs.
	m, _ = reduce(m, inputChanged{text: daiAddr + "0"}, r)
	m2, eff := reduce(m, assetResolved{gen: staleGen, asset: dai}, r)
	assert.Equal(t, m, m2)
	assert.Empty(t, eff)

	m3, eff := reduce(m, debounceElapsed{gen: staleGen}, r)
	assert.Equal(t, m, m3)
	assert.Empty(t, eff)
}

func TestReduceEmptyInputCancelsWork(t *testing.T) {
	r := rules{feed: TokenListFeed}
	m, _ := reduce(model{}, inputChanged{text: daiAddr}, r)
	m, _ = reduce(m, debounceElapsed{gen: m.gen}, r)

	m, eff := reduce(m, inputChanged{text: ""}, r)
	assert.Equal(t, EmptyInput, m.state)
	assert.Equal(t, 1, countEffects[stopDebounce](eff))
	assert.Equal(t, 1, countEffects[cancelResolve](eff))
}

func TestReduceManualGate(t *testing.T) {
	r := rules{feed: TokenListFeed}
	m, _ := reduce(model{}, inputChanged{text: daiAddr}, r)
	m, _ = reduce(m, debounceElapsed{gen: m.gen}, r)
	m, eff := reduce(m, assetResolved{gen: m.gen, asset: dai}, r)

	assert.Equal(t, UpdateValidatedAsset, m.state)
	assert.True(t, m.awaiting)
	assert.Zero(t, countEffects[commitAsset](eff))

	m, eff = reduce(m, resync{}, r)
	assert.Empty(t, eff)
	assert.Equal(t, UpdateValidatedAsset, m.state)

	m, eff = reduce(m, confirmed{}, r)
	assert.Equal(t, 1, countEffects[commitAsset](eff))
	assert.Equal(t, EmptyInput, m.state)

	_, eff = reduce(m, confirmed{}, r)
	assert.Empty(t, eff)
}

func TestReduceBypassMutesTerminalEffects(t *testing.T) {
	r := rules{feed: TokenListFeed, bypass: true}
	m, eff := reduce(model{}, assetSelected{asset: dai}, r)
	assert.Equal(t, UpdateValidatedAsset, m.state)
	assert.Equal(t, dai, m.asset)
	assert.Zero(t, countEffects[commitAsset](eff))
	assert.Zero(t, countEffects[closePanel](eff))
}

func TestReduceSelectIgnoresMismatchedAsset(t *testing.T) {
	m, eff := reduce(model{}, assetSelected{asset: dai}, rules{feed: RecipientAccountFeed})
	assert.Equal(t, EmptyInput, m.state)
	assert.Empty(t, eff)

	m, eff = reduce(model{}, assetSelected{}, rules{feed: TokenListFeed})
	assert.Equal(t, EmptyInput, m.state)
	assert.Empty(t, eff)
}

func TestReduceResetClearsTracker(t *testing.T) {
	m := model{state: InvalidHexInput, input: "0x1", failed: 4, err: ErrInvalidHex, manual: true}
	m, eff := reduce(m, reset{}, rules{})
	assert.Equal(t, EmptyInput, m.state)
	assert.Zero(t, m.failed)
	assert.NoError(t, m.err)
	assert.Equal(t, []State{EmptyInput}, states(eff))
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "UPDATE_VALIDATED_ASSET", UpdateValidatedAsset.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
	assert.True(t, TokenNotResolvedError.IsError())
	assert.False(t, Validate.IsError())
}
