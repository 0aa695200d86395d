// Package browser drives one question/answer exchange against the
// OpenEvidence chat page: navigate, locate the input surface, submit the
// question under a speed-mode policy, wait for the rendered answer to
// stabilize, and extract a normalized result from the DOM.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oetools/oequery/pkg/config"
	"github.com/oetools/oequery/pkg/selectors"
)

// state names the driver's position in the exchange, for logs and error
// wrapping.
type state string

const (
	stateNavigate state = "navigate"
	stateLocate   state = "locate input"
	stateSubmit   state = "submit question"
	stateAwait    state = "await response"
	stateExtract  state = "extract result"
)

// Driver runs the per-query state machine. One Driver serves many queries;
// all per-query state lives on the stack.
type Driver struct {
	cfg *config.Config
	reg *selectors.Registry
	ext *Extractor
	log *zap.Logger
}

// NewDriver wires a Driver from its collaborators.
func NewDriver(cfg *config.Config, reg *selectors.Registry, log *zap.Logger) *Driver {
	return &Driver{
		cfg: cfg,
		reg: reg,
		ext: NewExtractor(reg, log),
		log: log,
	}
}

// Ask performs one exchange on an already-authenticated page.
//
// On response timeout the driver still attempts extraction against
// whatever content rendered: a partial result is returned alongside the
// ResponseTimeoutError so the caller can surface both.
func (d *Driver) Ask(ctx context.Context, page Page, req QueryRequest) (*QueryResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	policy, err := PolicyFor(req.Mode, d.reg)
	if err != nil {
		return nil, err
	}

	log := d.log.With(zap.String("query_id", uuid.NewString()[:8]), zap.String("mode", policy.Name()))
	log.Info("asking question", zap.Int("question_len", len(req.Question)))
	start := time.Now()

	// NavigatePage
	if err := page.Navigate(ctx, d.cfg.BaseURL, d.cfg.PageLoadTimeout); err != nil {
		return nil, d.fault(page, stateNavigate, &NavigationError{URL: d.cfg.BaseURL, Err: err})
	}
	if err := d.settle(ctx, page, policy, log); err != nil {
		return nil, err
	}

	// LocateInput
	input, sel, err := resolve(page, d.reg, selectors.QuestionInput, d.cfg.ElementTimeout)
	if err != nil {
		return nil, d.fault(page, stateLocate, err)
	}
	log.Debug("located question input", zap.String("selector", sel))

	// SubmitQuestion
	if err := policy.TypeQuestion(ctx, input, req.Question); err != nil {
		return nil, d.fault(page, stateSubmit, err)
	}
	if err := policy.Submit(ctx, page, input); err != nil {
		return nil, d.fault(page, stateSubmit, err)
	}
	dismissPopups(page, d.reg)

	// AwaitResponse
	probe := newPageProbe(page, d.reg)
	waited, waitErr := policy.AwaitCompletion(ctx, probe, d.cfg.QueryTimeout)
	var timeoutErr *ResponseTimeoutError
	switch {
	case waitErr == nil:
		log.Debug("response stabilized", zap.Duration("waited", waited))
	case errors.As(waitErr, &timeoutErr):
		// Degrade to partial extraction rather than discarding the work.
		log.Warn("response did not stabilize; extracting partial content",
			zap.Duration("waited", waited))
	default:
		return nil, d.fault(page, stateAwait, waitErr)
	}

	// ExtractResult
	container, ok := probe.container()
	if !ok {
		if waitErr != nil {
			return nil, waitErr
		}
		return nil, d.fault(page, stateExtract, &ElementNotFoundError{
			Target: selectors.ResponseContainer,
			Tried:  d.reg.Candidates(selectors.ResponseContainer),
		})
	}
	rawHTML, err := container.HTML()
	if err != nil {
		return nil, d.fault(page, stateExtract, fmt.Errorf("failed to read response container: %w", err))
	}
	extraction, err := d.ext.Extract(rawHTML)
	if err != nil {
		return nil, d.fault(page, stateExtract, err)
	}
	if extraction.Answer == "" && waitErr != nil {
		return nil, waitErr
	}

	result := newResult(extraction.Answer, extraction.Citations, time.Since(start))
	if req.WantImages {
		paths, err := d.ext.SaveImages(page, extraction.Figures, req.OutputDir)
		if err != nil {
			log.Warn("image capture failed", zap.Error(err))
		}
		result.ImagePaths = paths
	}

	log.Info("query complete",
		zap.Int("answer_len", len(result.AnswerText)),
		zap.Int("citations", len(result.Citations)),
		zap.Int64("elapsed_ms", result.ElapsedMs))
	return result, waitErr
}

// settle gives the page its post-load beat and clears any consent popups,
// mirroring what a human would sit through before typing.
func (d *Driver) settle(ctx context.Context, page Page, policy Policy, log *zap.Logger) error {
	t := policy.pacing()
	if err := sleepCtx(ctx, jitter(t.afterLoadMin, t.afterLoadMax)); err != nil {
		return err
	}
	if n := dismissPopups(page, d.reg); n > 0 {
		log.Debug("dismissed popups", zap.Int("count", n))
	}
	return sleepCtx(ctx, jitter(t.afterPopupMin, t.afterPopupMax))
}

// fault classifies a step failure: a dead page is a session crash no matter
// which step tripped over it; anything else is wrapped with the step name.
func (d *Driver) fault(page Page, st state, err error) error {
	if page.Closed() || isClosedErr(err) {
		return &SessionCrashedError{Op: string(st), Err: err}
	}
	var nf *ElementNotFoundError
	var nav *NavigationError
	if errors.As(err, &nf) || errors.As(err, &nav) {
		return err
	}
	return fmt.Errorf("%s: %w", st, err)
}

// pageProbe adapts a live page to the ResponseProbe interface, caching the
// selector that last matched the response container so completion polling
// does not rewalk the whole fallback chain every tick.
type pageProbe struct {
	page    Page
	reg     *selectors.Registry
	lastSel string
	lastEl  Element
}

func newPageProbe(page Page, reg *selectors.Registry) *pageProbe {
	return &pageProbe{page: page, reg: reg}
}

func (p *pageProbe) ContentLength(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	el, ok := p.locate()
	if !ok {
		return 0, nil
	}
	text, err := el.Text()
	if err != nil {
		if isClosedErr(err) {
			return 0, &SessionCrashedError{Op: string(stateAwait), Err: err}
		}
		// The container re-rendered out from under the handle; rediscover
		// it next tick.
		p.lastEl = nil
		return 0, nil
	}
	return len(text), nil
}

func (p *pageProbe) Generating(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	// Consent popups can appear mid-generation and cover the container.
	dismissPopups(p.page, p.reg)

	for _, sel := range p.reg.Candidates(selectors.LoadingIndicator) {
		if _, ok := p.page.Find(sel); ok {
			return true, nil
		}
	}
	return false, nil
}

// container returns the most recently located response container.
func (p *pageProbe) container() (Element, bool) {
	return p.locate()
}

func (p *pageProbe) locate() (Element, bool) {
	if p.lastSel != "" {
		if el, ok := p.page.Find(p.lastSel); ok {
			p.lastEl = el
			return el, true
		}
	}
	for _, sel := range p.reg.Candidates(selectors.ResponseContainer) {
		if el, ok := p.page.Find(sel); ok {
			p.lastSel = sel
			p.lastEl = el
			return el, true
		}
	}
	return p.lastEl, p.lastEl != nil
}
