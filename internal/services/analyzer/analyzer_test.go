package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

func newTestService() *Service {
	return NewService(common.NewDefaultConfig(), arbor.NewLogger())
}

func spaSampleHTML() string {
	var b strings.Builder
	b.WriteString("<html><head>")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, `<script src="/chunk-%d.js"></script>`, i)
	}
	b.WriteString(`<script id="__NEXT_DATA__" type="application/json">{"props":{}}</script>`)
	b.WriteString("</head><body><div id='root'></div></body></html>")
	return b.String()
}

func TestAnalyzeComplexSPA(t *testing.T) {
	s := newTestService()

	analysis, err := s.Analyze(context.Background(), "https://app.example.com", spaSampleHTML())
	require.NoError(t, err)

	assert.Equal(t, models.SiteTypeComplexSPA, analysis.SiteType)
	assert.GreaterOrEqual(t, analysis.SPAScore, 70)
	assert.True(t, analysis.RequiresJS)
	assert.Contains(t, analysis.Frameworks, "react")
	assert.Equal(t, 0.9, analysis.Confidence)
}

func TestAnalyzeAntiBotHeavy(t *testing.T) {
	s := newTestService()

	html := `<html><head></head><body>
	<div class="cf-ray">cf-ray: 8a1</div>
	<div class="g-recaptcha" data-sitekey="key"></div>
	<p>Please verify you are human.</p>
	</body></html>`

	analysis, err := s.Analyze(context.Background(), "https://secure.example.com", html)
	require.NoError(t, err)

	assert.Equal(t, models.SiteTypeAntiBotHeavy, analysis.SiteType)
	assert.Equal(t, 50, analysis.AntiBotScore)
	assert.Equal(t, "high", analysis.AntiBotRisk)
	assert.ElementsMatch(t, []string{"cloudflare", "recaptcha"}, analysis.AntiBotIndicators)
	assert.Equal(t, 0.9, analysis.Confidence)
}

func TestAnalyzeSimpleStatic(t *testing.T) {
	s := newTestService()

	html := `<html><head><title>Blog</title></head><body>
	<h1>Hello</h1>
	<p>` + strings.Repeat("Plenty of visible prose content here. ", 20) + `</p>
	</body></html>`

	analysis, err := s.Analyze(context.Background(), "https://blog.example.com", html)
	require.NoError(t, err)

	assert.Equal(t, models.SiteTypeSimpleStatic, analysis.SiteType)
	assert.Equal(t, "low", analysis.JSComplexity)
	assert.Equal(t, "low", analysis.AntiBotRisk)
	assert.False(t, analysis.RequiresJS)
	assert.Equal(t, "standard", analysis.ContentLoading)
	assert.Equal(t, 0.5, analysis.Confidence)
}

func TestAnalyzeJSComplexity(t *testing.T) {
	s := newTestService()

	var b strings.Builder
	b.WriteString("<html><body><script>")
	for i := 0; i < 30; i++ {
		b.WriteString("fetch('/api'); document.body.addEventListener('x', noop); ")
	}
	b.WriteString("</script></body></html>")

	analysis, err := s.Analyze(context.Background(), "https://example.com", b.String())
	require.NoError(t, err)

	assert.Greater(t, analysis.JSComplexityScore, 100)
	assert.Equal(t, "very_high", analysis.JSComplexity)
	assert.True(t, analysis.RequiresJS)
}

func TestAnalyzeContentLoading(t *testing.T) {
	s := newTestService()

	tests := []struct {
		name     string
		html     string
		expected string
	}{
		{
			"infinite scroll",
			`<html><body><script>new IntersectionObserver(cb)</script></body></html>`,
			"infinite_scroll",
		},
		{
			"pagination",
			`<html><body><a href="/list?page=2">next</a></body></html>`,
			"pagination",
		},
		{
			"requires interaction",
			`<html><body><button onclick="open()">more</button></body></html>`,
			"requires_interaction",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := s.Analyze(context.Background(), "https://example.com", tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, analysis.ContentLoading)
		})
	}
}

// stubProber returns canned rendered HTML and records invocations
type stubProber struct {
	html  string
	err   error
	calls int
}

func (p *stubProber) Probe(ctx context.Context, url string, strategy *models.CrawlStrategy) (string, error) {
	p.calls++
	return p.html, p.err
}

// dynamicSampleHTML scores in the standard_dynamic band: framework
// fingerprint only, visible text kept short
func dynamicSampleHTML() string {
	return `<html><head><script src="/react.min.js"></script></head>
	<body><div id="root"><p>loading shell</p></div></body></html>`
}

func TestAnalyzeDynamicProbeUpgradesToSPA(t *testing.T) {
	s := newTestService()

	rendered := "<html><body><article>" +
		strings.Repeat("<p>Client-rendered paragraph with plenty of prose. </p>", 30) +
		"</article></body></html>"
	prober := &stubProber{html: rendered}
	s.UseProber(prober)

	analysis, err := s.Analyze(context.Background(), "https://app.example.com", dynamicSampleHTML())
	require.NoError(t, err)

	assert.Equal(t, 1, prober.calls)
	assert.Equal(t, models.SiteTypeComplexSPA, analysis.SiteType)
	assert.GreaterOrEqual(t, analysis.SPAScore, 70)
	assert.Equal(t, 0.9, analysis.Confidence)
}

func TestAnalyzeDynamicProbeFailureKeepsStatic(t *testing.T) {
	s := newTestService()

	prober := &stubProber{err: fmt.Errorf("browser runtime not initialized")}
	s.UseProber(prober)

	analysis, err := s.Analyze(context.Background(), "https://app.example.com", dynamicSampleHTML())
	require.NoError(t, err)

	assert.Equal(t, 1, prober.calls)
	assert.Equal(t, models.SiteTypeStandardDynamic, analysis.SiteType)
	assert.Equal(t, 0.7, analysis.Confidence)
}

func TestAnalyzeDynamicProbeSimilarContentKeepsStatic(t *testing.T) {
	s := newTestService()

	// Rendered output matches the static shell; nothing arrived client-side
	prober := &stubProber{html: dynamicSampleHTML()}
	s.UseProber(prober)

	analysis, err := s.Analyze(context.Background(), "https://app.example.com", dynamicSampleHTML())
	require.NoError(t, err)

	assert.Equal(t, models.SiteTypeStandardDynamic, analysis.SiteType)
}

func TestAnalyzeProbeSkippedForStaticSites(t *testing.T) {
	s := newTestService()

	prober := &stubProber{html: "<html><body>unused</body></html>"}
	s.UseProber(prober)

	html := `<html><head><title>Blog</title></head><body>
	<h1>Hello</h1>
	<p>` + strings.Repeat("Plenty of visible prose content here. ", 20) + `</p>
	</body></html>`

	analysis, err := s.Analyze(context.Background(), "https://blog.example.com", html)
	require.NoError(t, err)

	assert.Equal(t, 0, prober.calls)
	assert.Equal(t, models.SiteTypeSimpleStatic, analysis.SiteType)
}

func TestAnalyzeFetchesSample(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><h1>Served</h1><p>static page content</p></body></html>`)
	}))
	defer srv.Close()

	s := newTestService()

	analysis, err := s.Analyze(context.Background(), srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, models.SiteTypeSimpleStatic, analysis.SiteType)
}

func TestAnalyzeFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestService()

	_, err := s.Analyze(context.Background(), srv.URL, "")
	assert.Error(t, err)
}
