package browser

import (
	"context"
	"os"
	"time"
)

// fakeElement records the interactions a policy performs against an input
// surface and answers reads from scripted content.
type fakeElement struct {
	value   string
	text    string
	html    string
	clicks  int
	pressed []string

	clickErr error
	textErr  error
}

func (e *fakeElement) Click() error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicks++
	return nil
}

func (e *fakeElement) Type(text string) error {
	e.value += text
	return nil
}

func (e *fakeElement) Fill(text string) error {
	e.value = text
	return nil
}

func (e *fakeElement) Press(key string) error {
	e.pressed = append(e.pressed, key)
	return nil
}

func (e *fakeElement) Value() (string, error) { return e.value, nil }

func (e *fakeElement) Text() (string, error) {
	if e.textErr != nil {
		return "", e.textErr
	}
	return e.text, nil
}

func (e *fakeElement) HTML() (string, error) { return e.html, nil }

// fakePage serves elements from a selector map with no waiting and no
// network.
type fakePage struct {
	elements  map[string]Element
	navErr    error
	closed    bool
	navigated []string
}

func (p *fakePage) Navigate(_ context.Context, url string, _ time.Duration) error {
	if p.navErr != nil {
		return p.navErr
	}
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Find(selector string) (Element, bool) {
	el, ok := p.elements[selector]
	return el, ok
}

func (p *fakePage) WaitFor(selector string, _ time.Duration) (Element, bool) {
	return p.Find(selector)
}

func (p *fakePage) Screenshot(path string, _ bool) error {
	return os.WriteFile(path, []byte("png"), 0o644)
}

func (p *fakePage) Closed() bool { return p.closed }

// probeStep is one poll's worth of scripted probe state.
type probeStep struct {
	generating bool
	length     int
}

// scriptProbe replays a fixed sequence of poll observations, holding the
// final step once exhausted.
type scriptProbe struct {
	steps []probeStep
	i     int
}

func (p *scriptProbe) current() probeStep {
	if p.i < len(p.steps) {
		return p.steps[p.i]
	}
	return p.steps[len(p.steps)-1]
}

func (p *scriptProbe) Generating(context.Context) (bool, error) {
	s := p.current()
	if s.generating {
		p.i++
	}
	return s.generating, nil
}

func (p *scriptProbe) ContentLength(context.Context) (int, error) {
	s := p.current()
	p.i++
	return s.length, nil
}
