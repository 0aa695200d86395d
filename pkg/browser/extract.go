package browser

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/oetools/oequery/pkg/selectors"
)

// Extraction is the normalized content of the response container: the
// answer text with UI chrome stripped, citation markers in document order,
// and any embedded figures.
type Extraction struct {
	Answer    string
	Citations []Citation
	Figures   []Figure
}

// Figure is an image embedded in the answer.
type Figure struct {
	Src string
	Alt string
}

// Extractor converts the response container's rendered subtree into an
// Extraction, using the registry's extraction rules.
type Extractor struct {
	reg *selectors.Registry
	log *zap.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(reg *selectors.Registry, log *zap.Logger) *Extractor {
	return &Extractor{reg: reg, log: log}
}

// alwaysSkipped are removed regardless of registry rules.
var alwaysSkipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"head":     true,
}

// blockTags end a text block; blocks are the unit of chrome filtering.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "table": true, "tr": true,
	"blockquote": true, "pre": true, "br": true,
}

// Extract parses the container's inner HTML and walks it once, collecting
// text blocks, citation markers, and figures in document order.
func (e *Extractor) Extract(rawHTML string) (*Extraction, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse response HTML: %w", err)
	}

	rules := e.reg.Rules()
	w := &walker{reg: e.reg, rules: rules}
	w.walk(doc, false)
	w.flush()

	return &Extraction{
		Answer:    strings.TrimSpace(strings.Join(w.blocks, "\n")),
		Citations: w.citations,
		Figures:   w.figures,
	}, nil
}

type walker struct {
	reg   *selectors.Registry
	rules selectors.ExtractionRules

	blocks    []string
	buf       strings.Builder
	citations []Citation
	figures   []Figure
}

// flush closes the current text block, dropping it when it matches a
// chrome pattern (consent banners restate themselves inside the response
// container).
func (w *walker) flush() {
	text := collapseSpace(w.buf.String())
	w.buf.Reset()
	if text == "" {
		return
	}
	if w.reg.MatchesChrome(text) {
		return
	}
	w.blocks = append(w.blocks, text)
}

func (w *walker) walk(n *html.Node, inCitation bool) {
	switch n.Type {
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			if w.buf.Len() > 0 {
				w.buf.WriteByte(' ')
			}
			w.buf.WriteString(s)
		}
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if alwaysSkipped[tag] || w.excludedTag(tag) || w.excludedClass(n) {
			return
		}

		if tag == "img" {
			if src := attrVal(n, "src"); src != "" {
				w.figures = append(w.figures, Figure{Src: src, Alt: attrVal(n, "alt")})
			}
			return
		}

		if !inCitation && w.isCitationMarker(n, tag) {
			w.citations = append(w.citations, Citation{
				Label:     collapseSpace(textOf(n)),
				Reference: citationRef(n),
			})
			inCitation = true
		}

		if blockTags[tag] {
			w.flush()
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				w.walk(c, inCitation)
			}
			w.flush()
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inCitation)
	}
}

func (w *walker) excludedTag(tag string) bool {
	for _, t := range w.rules.ExcludeTags {
		if tag == t {
			return true
		}
	}
	return false
}

func (w *walker) excludedClass(n *html.Node) bool {
	class := strings.ToLower(attrVal(n, "class"))
	if class == "" {
		return false
	}
	for _, c := range w.rules.ExcludeClasses {
		if strings.Contains(class, c) {
			return true
		}
	}
	return false
}

// isCitationMarker recognizes citation elements by class substring, an
// explicit data-citation attribute, or the common sup>a footnote shape.
func (w *walker) isCitationMarker(n *html.Node, tag string) bool {
	class := strings.ToLower(attrVal(n, "class"))
	for _, c := range w.rules.CitationClasses {
		if strings.Contains(class, c) {
			return true
		}
	}
	if attrVal(n, "data-citation") != "" {
		return true
	}
	if tag == "sup" {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && strings.EqualFold(c.Data, "a") && attrVal(c, "href") != "" {
				return true
			}
		}
	}
	return false
}

// citationRef resolves the marker's reference: its own href or
// data-citation, the first linked descendant, falling back to the label.
func citationRef(n *html.Node) string {
	if href := attrVal(n, "href"); href != "" {
		return href
	}
	if ref := attrVal(n, "data-citation"); ref != "" {
		return ref
	}
	var href string
	var find func(*html.Node)
	find = func(c *html.Node) {
		if href != "" {
			return
		}
		if c.Type == html.ElementNode && strings.EqualFold(c.Data, "a") {
			if h := attrVal(c, "href"); h != "" {
				href = h
				return
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			find(cc)
		}
	}
	find(n)
	if href != "" {
		return href
	}
	return collapseSpace(textOf(n))
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return b.String()
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
