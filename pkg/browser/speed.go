package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oetools/oequery/pkg/selectors"
)

// ResponseProbe observes the response container while an answer renders.
// Implemented over a live page by pageProbe; tests script it directly.
type ResponseProbe interface {
	// ContentLength is the current length of the rendered response text.
	// Monotonically non-decreasing while generation is in progress, which
	// is why readiness is "unchanged for K checks" rather than a target
	// length.
	ContentLength(ctx context.Context) (int, error)

	// Generating reports whether an active generation indicator is
	// visible.
	Generating(ctx context.Context) (bool, error)
}

// Policy is the strategy a query uses for typing, submission, and
// completion detection. Selected once per request; the driver's state
// machine is mode-agnostic.
type Policy interface {
	Name() string
	TypeQuestion(ctx context.Context, input Element, text string) error
	Submit(ctx context.Context, page Page, input Element) error
	AwaitCompletion(ctx context.Context, probe ResponseProbe, timeout time.Duration) (time.Duration, error)

	// pacing exposes the mode's timing table to the driver's settle
	// phases. The policy set is deliberately closed.
	pacing() timing
}

// timing bundles a mode's pacing parameters.
type timing struct {
	afterLoadMin, afterLoadMax     time.Duration
	afterPopupMin, afterPopupMax   time.Duration
	afterSubmitMin, afterSubmitMax time.Duration
	stableChecks                   int
	pollInterval                   time.Duration
}

// Typing speed band for the human-like keystroke model, in words per
// minute. 5 chars per word is the usual convention.
const (
	typingWPMMin = 160
	typingWPMMax = 240
)

// PolicyFor returns the policy for a mode. The registry is needed for the
// submit-button fallback chain.
func PolicyFor(mode Mode, reg *selectors.Registry) (Policy, error) {
	switch mode {
	case ModeNormal:
		return &keystrokePolicy{
			name: "normal",
			reg:  reg,
			timing: timing{
				afterLoadMin: 2 * time.Second, afterLoadMax: 3 * time.Second,
				afterPopupMin: 500 * time.Millisecond, afterPopupMax: time.Second,
				afterSubmitMin: time.Second, afterSubmitMax: 2 * time.Second,
				stableChecks: 3,
				pollInterval: time.Second,
			},
			keyDelay: humanKeyDelay,
		}, nil
	case ModeFast:
		return &keystrokePolicy{
			name: "fast",
			reg:  reg,
			timing: timing{
				afterLoadMin: 300 * time.Millisecond, afterLoadMax: 500 * time.Millisecond,
				afterPopupMin: 100 * time.Millisecond, afterPopupMax: 200 * time.Millisecond,
				afterSubmitMin: 200 * time.Millisecond, afterSubmitMax: 400 * time.Millisecond,
				stableChecks: 1,
				pollInterval: 500 * time.Millisecond,
			},
			keyDelay: fastKeyDelay,
		}, nil
	case ModeTurbo:
		return &turboPolicy{
			reg: reg,
			timing: timing{
				afterLoadMin: 100 * time.Millisecond, afterLoadMax: 200 * time.Millisecond,
				afterPopupMin: 50 * time.Millisecond, afterPopupMax: 100 * time.Millisecond,
				afterSubmitMin: 100 * time.Millisecond, afterSubmitMax: 200 * time.Millisecond,
				stableChecks: 1,
				pollInterval: 300 * time.Millisecond,
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// keystrokePolicy types character by character with a per-key delay
// function. Normal and fast modes differ only in pacing.
type keystrokePolicy struct {
	name     string
	reg      *selectors.Registry
	timing   timing
	keyDelay func(r rune) time.Duration
}

func (p *keystrokePolicy) Name() string   { return p.name }
func (p *keystrokePolicy) pacing() timing { return p.timing }

func (p *keystrokePolicy) TypeQuestion(ctx context.Context, input Element, text string) error {
	if err := input.Click(); err != nil {
		return fmt.Errorf("failed to focus input: %w", err)
	}
	if err := sleepCtx(ctx, jitter(50*time.Millisecond, 150*time.Millisecond)); err != nil {
		return err
	}
	for _, r := range text {
		if err := input.Type(string(r)); err != nil {
			return fmt.Errorf("failed to type question: %w", err)
		}
		if err := sleepCtx(ctx, p.keyDelay(r)); err != nil {
			return err
		}
	}
	return nil
}

func (p *keystrokePolicy) Submit(ctx context.Context, page Page, input Element) error {
	return submit(ctx, page, input, p.reg, p.timing)
}

func (p *keystrokePolicy) AwaitCompletion(ctx context.Context, probe ResponseProbe, timeout time.Duration) (time.Duration, error) {
	return awaitStable(ctx, probe, p.timing, timeout)
}

// turboPolicy replaces keystroke simulation with a single bulk fill. Fast
// but empirically less reliable: reactive input surfaces may not observe
// synthetic bulk insertion the way they observe key events. The trade-off
// is deliberate; do not try to unify this with the keystroke model.
type turboPolicy struct {
	reg    *selectors.Registry
	timing timing
}

func (p *turboPolicy) Name() string   { return "turbo" }
func (p *turboPolicy) pacing() timing { return p.timing }

func (p *turboPolicy) TypeQuestion(ctx context.Context, input Element, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := input.Click(); err != nil {
		return fmt.Errorf("failed to focus input: %w", err)
	}
	if err := input.Fill(text); err != nil {
		return fmt.Errorf("failed to fill question: %w", err)
	}
	return nil
}

func (p *turboPolicy) Submit(ctx context.Context, page Page, input Element) error {
	return submit(ctx, page, input, p.reg, p.timing)
}

func (p *turboPolicy) AwaitCompletion(ctx context.Context, probe ResponseProbe, timeout time.Duration) (time.Duration, error) {
	return awaitStable(ctx, probe, p.timing, timeout)
}

// submit clicks the first visible submit control, falling back to Enter on
// the input itself, then settles for the mode's post-submit window.
func submit(ctx context.Context, page Page, input Element, reg *selectors.Registry, t timing) error {
	clicked := false
	for _, sel := range reg.Candidates(selectors.SubmitButton) {
		if el, ok := page.Find(sel); ok {
			if err := el.Click(); err == nil {
				clicked = true
				break
			}
		}
	}
	if !clicked {
		if err := input.Press("Enter"); err != nil {
			return fmt.Errorf("failed to submit question: %w", err)
		}
	}
	return sleepCtx(ctx, jitter(t.afterSubmitMin, t.afterSubmitMax))
}

// awaitStable polls until the content length is unchanged for
// timing.stableChecks consecutive checks with no generation indicator, or
// the deadline passes.
func awaitStable(ctx context.Context, probe ResponseProbe, t timing, timeout time.Duration) (time.Duration, error) {
	start := time.Now()
	deadline := start.Add(timeout)
	stable := 0
	last := -1

	for {
		if err := ctx.Err(); err != nil {
			return time.Since(start), err
		}
		if time.Now().After(deadline) {
			return time.Since(start), &ResponseTimeoutError{Waited: timeout}
		}

		generating, err := probe.Generating(ctx)
		if err != nil {
			return time.Since(start), err
		}
		if generating {
			stable = 0
		} else {
			n, err := probe.ContentLength(ctx)
			if err != nil {
				return time.Since(start), err
			}
			if n > 0 && n == last {
				stable++
				if stable >= t.stableChecks {
					return time.Since(start), nil
				}
			} else {
				stable = 0
				last = n
			}
		}

		if err := sleepCtx(ctx, t.pollInterval); err != nil {
			return time.Since(start), err
		}
	}
}

// humanKeyDelay derives a per-character delay from the WPM band, varied by
// character class: brief on whitespace, a beat after punctuation.
func humanKeyDelay(r rune) time.Duration {
	avgWPM := float64(typingWPMMin+typingWPMMax) / 2
	base := time.Duration(60000/(avgWPM*5)) * time.Millisecond

	switch {
	case r == ' ' || r == '\n':
		return scale(base, 0.5, 1.0)
	case r == '.' || r == ',' || r == '!' || r == '?':
		return scale(base, 1.2, 2.0)
	default:
		return scale(base, 0.8, 1.2)
	}
}

// fastKeyDelay keeps discrete key events but with minimal spacing.
func fastKeyDelay(rune) time.Duration {
	return jitter(5*time.Millisecond, 15*time.Millisecond)
}

func scale(d time.Duration, lo, hi float64) time.Duration {
	f := lo + rand.Float64()*(hi-lo)
	return time.Duration(float64(d) * f)
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
