package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oetools/oequery/pkg/selectors"
)

func fastTiming(stableChecks int) timing {
	return timing{
		stableChecks: stableChecks,
		pollInterval: time.Millisecond,
	}
}

func TestPolicyForUnknownMode(t *testing.T) {
	_, err := PolicyFor(Mode("warp"), selectors.Default())
	assert.Error(t, err)
}

func TestPolicyNames(t *testing.T) {
	reg := selectors.Default()
	for mode, want := range map[Mode]string{
		ModeNormal: "normal",
		ModeFast:   "fast",
		ModeTurbo:  "turbo",
	} {
		p, err := PolicyFor(mode, reg)
		require.NoError(t, err)
		assert.Equal(t, want, p.Name())
	}
}

func TestKeystrokeTypingPreservesQuestion(t *testing.T) {
	p, err := PolicyFor(ModeFast, selectors.Default())
	require.NoError(t, err)

	input := &fakeElement{}
	question := "Does aspirin help?"
	require.NoError(t, p.TypeQuestion(context.Background(), input, question))

	value, err := input.Value()
	require.NoError(t, err)
	assert.Equal(t, question, value)
	assert.Equal(t, 1, input.clicks, "input is focused before typing")
}

func TestTurboFillPreservesQuestion(t *testing.T) {
	p, err := PolicyFor(ModeTurbo, selectors.Default())
	require.NoError(t, err)

	input := &fakeElement{}
	question := "Does aspirin help with headaches in adults?"
	require.NoError(t, p.TypeQuestion(context.Background(), input, question))

	value, err := input.Value()
	require.NoError(t, err)
	assert.Equal(t, question, value)
}

func TestTypingStopsOnCancel(t *testing.T) {
	p, err := PolicyFor(ModeNormal, selectors.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := &fakeElement{}
	err = p.TypeQuestion(ctx, input, "long question that would take a while to type")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSubmitPrefersButton(t *testing.T) {
	reg := selectors.Default()
	button := &fakeElement{}
	page := &fakePage{elements: map[string]Element{
		`button[type="submit"]`: button,
	}}
	input := &fakeElement{}

	require.NoError(t, submit(context.Background(), page, input, reg, fastTiming(1)))
	assert.Equal(t, 1, button.clicks)
	assert.Empty(t, input.pressed)
}

func TestSubmitFallsBackToEnter(t *testing.T) {
	reg := selectors.Default()
	page := &fakePage{elements: map[string]Element{}}
	input := &fakeElement{}

	require.NoError(t, submit(context.Background(), page, input, reg, fastTiming(1)))
	assert.Equal(t, []string{"Enter"}, input.pressed)
}

func TestAwaitStableRequiresConsecutiveChecks(t *testing.T) {
	probe := &scriptProbe{steps: []probeStep{
		{length: 10},
		{length: 25},
		{length: 40},
		{length: 40},
		{length: 40},
		{length: 40},
	}}

	_, err := awaitStable(context.Background(), probe, fastTiming(3), time.Second)
	require.NoError(t, err)
	// Three unchanged reads after the last growth: 40 seen four times total.
	assert.Equal(t, 6, probe.i)
}

func TestAwaitStableIgnoresGeneratingIndicator(t *testing.T) {
	// An unchanged length while the generating indicator is up must not
	// count toward stability.
	probe := &scriptProbe{steps: []probeStep{
		{length: 30},
		{generating: true},
		{generating: true},
		{length: 30},
		{length: 30},
	}}

	_, err := awaitStable(context.Background(), probe, fastTiming(2), time.Second)
	require.NoError(t, err)
}

func TestAwaitStableTimesOut(t *testing.T) {
	// Content grows every poll; the deadline has to fire.
	steps := make([]probeStep, 0, 256)
	for i := 1; i <= 256; i++ {
		steps = append(steps, probeStep{length: i * 10})
	}
	probe := &scriptProbe{steps: steps}

	waited, err := awaitStable(context.Background(), probe, fastTiming(1), 25*time.Millisecond)
	var timeoutErr *ResponseTimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.GreaterOrEqual(t, waited, 25*time.Millisecond)
}

func TestAwaitStableEmptyContentNeverStabilizes(t *testing.T) {
	probe := &scriptProbe{steps: []probeStep{{length: 0}}}

	_, err := awaitStable(context.Background(), probe, fastTiming(1), 20*time.Millisecond)
	var timeoutErr *ResponseTimeoutError
	assert.True(t, errors.As(err, &timeoutErr), "zero-length content must not count as a stable answer")
}

func TestHumanKeyDelayBands(t *testing.T) {
	// Sampled delays stay inside the scaled band around the WPM-derived
	// base; the exact values are random.
	for i := 0; i < 50; i++ {
		d := humanKeyDelay('a')
		assert.Greater(t, d, time.Duration(0))
		assert.Less(t, d, 200*time.Millisecond)
	}
	punct := humanKeyDelay('.')
	space := humanKeyDelay(' ')
	assert.Greater(t, punct, time.Duration(0))
	assert.Greater(t, space, time.Duration(0))
}
