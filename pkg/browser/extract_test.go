package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oetools/oequery/pkg/selectors"
)

func testExtractor() *Extractor {
	return NewExtractor(selectors.Default(), zap.NewNop())
}

func TestExtractAnswerAndCitations(t *testing.T) {
	raw := `
<div>
  <p>Aspirin reduces cardiovascular events in high-risk adults.</p>
  <p>Benefit outweighs bleeding risk above a threshold
     <span class="citation-marker"><a href="https://pubmed.ncbi.nlm.nih.gov/111">1</a></span>
     in most cohorts<sup><a href="#ref-2">2</a></sup>.</p>
  <p>Low-dose regimens performed similarly <span data-citation="Smith 2023, JAMA">3</span>.</p>
</div>`

	got, err := testExtractor().Extract(raw)
	require.NoError(t, err)

	assert.Contains(t, got.Answer, "Aspirin reduces cardiovascular events")
	assert.Contains(t, got.Answer, "Low-dose regimens")

	require.Len(t, got.Citations, 3)
	// Document order is the contract; inline markers are referenced by
	// position.
	assert.Equal(t, "https://pubmed.ncbi.nlm.nih.gov/111", got.Citations[0].Reference)
	assert.Equal(t, "#ref-2", got.Citations[1].Reference)
	assert.Equal(t, "Smith 2023, JAMA", got.Citations[2].Reference)
	assert.Equal(t, "1", got.Citations[0].Label)
}

func TestExtractNestedCitationCountedOnce(t *testing.T) {
	raw := `<p>Claim<span class="citation"><span class="citation-inner"><a href="#r1">1</a></span></span>.</p>`

	got, err := testExtractor().Extract(raw)
	require.NoError(t, err)
	assert.Len(t, got.Citations, 1)
}

func TestExtractStripsChromeAndExcludedNodes(t *testing.T) {
	raw := `
<div>
  <nav>Home About</nav>
  <p>Actual answer content here.</p>
  <div class="feedback-toolbar"><button>Helpful?</button></div>
  <p>This site uses cookies to improve your experience.</p>
  <footer>Terms of use</footer>
  <script>window.track()</script>
</div>`

	got, err := testExtractor().Extract(raw)
	require.NoError(t, err)

	assert.Equal(t, "Actual answer content here.", got.Answer)
	assert.Empty(t, got.Citations)
}

func TestExtractCollectsFigures(t *testing.T) {
	raw := `
<div>
  <p>Dosing curve shown below.</p>
  <img src="https://cdn.example.com/fig1.png" alt="dosing curve">
  <img src="" alt="empty src is skipped">
</div>`

	got, err := testExtractor().Extract(raw)
	require.NoError(t, err)

	require.Len(t, got.Figures, 1)
	assert.Equal(t, "https://cdn.example.com/fig1.png", got.Figures[0].Src)
	assert.Equal(t, "dosing curve", got.Figures[0].Alt)
}

func TestExtractEmptyContainer(t *testing.T) {
	got, err := testExtractor().Extract("<div></div>")
	require.NoError(t, err)
	assert.Empty(t, got.Answer)
	assert.Empty(t, got.Citations)
}

func TestExtractCollapsesWhitespace(t *testing.T) {
	got, err := testExtractor().Extract("<p>spread   \n\t out    text</p>")
	require.NoError(t, err)
	assert.Equal(t, "spread out text", got.Answer)
}
