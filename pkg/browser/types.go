package browser

import (
	"fmt"
	"time"

	"github.com/oetools/oequery/pkg/config"
)

// Mode selects the speed/fidelity trade-off for one query.
type Mode string

const (
	// ModeNormal simulates human typing with randomized delays. Slowest,
	// least likely to trip bot detection (~15-20s end to end).
	ModeNormal Mode = "normal"

	// ModeFast keeps the keystroke model but shrinks the delays (~5-8s).
	ModeFast Mode = "fast"

	// ModeTurbo injects the question as a single bulk fill (~3-5s). Less
	// reliable: some input surfaces react differently to programmatic
	// bulk insertion than to discrete key events.
	ModeTurbo Mode = "turbo"
)

// QueryRequest describes one question/answer exchange. Immutable once
// constructed; validate before dispatch.
type QueryRequest struct {
	Question    string
	Mode        Mode
	WantImages  bool
	OutputDir   string
	ShowBrowser bool
	Debug       bool
}

// Validate rejects requests that would fail mid-exchange anyway.
func (r QueryRequest) Validate() error {
	if r.Question == "" {
		return fmt.Errorf("question must not be empty")
	}
	switch r.Mode {
	case ModeNormal, ModeFast, ModeTurbo:
		return nil
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
}

// Citation is one (label, reference) pair extracted from the answer, in
// document order. Order reflects how citations are referenced inline and
// must be preserved.
type Citation struct {
	Label     string `json:"label"`
	Reference string `json:"reference"`
}

// QueryResult is the normalized outcome of one exchange. Produced once per
// request; there is no streaming variant.
type QueryResult struct {
	AnswerText string     `json:"answer_text"`
	Citations  []Citation `json:"citations"`
	ImagePaths []string   `json:"image_paths,omitempty"`
	ElapsedMs  int64      `json:"elapsed_ms"`
	SourceTag  string     `json:"source_tag"`
}

func newResult(answer string, citations []Citation, elapsed time.Duration) *QueryResult {
	return &QueryResult{
		AnswerText: answer,
		Citations:  citations,
		ElapsedMs:  elapsed.Milliseconds(),
		SourceTag:  config.SourceTag,
	}
}
