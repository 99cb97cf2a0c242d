package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/bylines/article"
	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/crawl"
	"github.com/pevans/bylines/export"
)

// fixtureSite serves a two-page author listing with five articles, each
// article page carrying og: metadata attributed to John Doe.
func fixtureSite(t *testing.T) *httptest.Server {
	t.Helper()

	articlePage := func(title string) string {
		return fmt.Sprintf(`<html><head>
<meta property="og:title" content="%s"/>
<meta name="author" content="John Doe"/>
<meta property="article:published_time" content="2024-01-15T09:00:00Z"/>
</head><body></body></html>`, title)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/autor/john-doe-527.html", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><head><link rel="next" href="/autor/john-doe-527/2.html"/></head><body>
<article><h2><a href="/politica/uno.html">Primer titular del autor</a></h2></article>
<article><h2><a href="/politica/dos.html">Segundo titular del autor</a></h2></article>
<article><h2><a href="/politica/tres.html">Tercer titular del autor</a></h2></article>
</body></html>`)
	})
	mux.HandleFunc("/autor/john-doe-527/2.html", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
<article><h2><a href="/cultura/cuatro.html">Cuarto titular del autor</a></h2></article>
<article><h2><a href="/cultura/cinco.html">Quinto titular del autor</a></h2></article>
</body></html>`)
	})
	for i, path := range []string{"/politica/uno.html", "/politica/dos.html", "/politica/tres.html", "/cultura/cuatro.html", "/cultura/cinco.html"} {
		title := fmt.Sprintf("Titular enriquecido %d", i+1)
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, articlePage(title))
		})
	}
	mux.HandleFunc("/", http.NotFound)

	return httptest.NewServer(mux)
}

func testPipeline(t *testing.T, server *httptest.Server) *Pipeline {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	resolver := author.NewResolver([]string{u.Hostname()})
	config := &crawl.Config{MaxPages: 10, MaxArticles: 60, MaxSeedPages: 2, FrontierLimit: 200}
	return New(resolver, crawl.NewCrawler(config, nil, nil), nil, nil)
}

// TestExport_JSONScenario covers the canonical scenario: five articles over
// two listing pages, exported as a JSON document of exactly five objects.
func TestExport_JSONScenario(t *testing.T) {
	server := fixtureSite(t)
	defer server.Close()

	p := testPipeline(t, server)
	payload, stats, err := p.Export(context.Background(), server.URL+"/autor/john-doe-527.html", "json")

	require.NoError(t, err)
	assert.Equal(t, "application/json", payload.ContentType)

	var decoded []article.Article
	require.NoError(t, json.Unmarshal(payload.Body, &decoded))
	require.Len(t, decoded, 5)
	assert.Equal(t, "Titular enriquecido 1", decoded[0].Title)
	assert.Equal(t, "John Doe", decoded[0].Author)

	assert.Equal(t, "john-doe", stats.AuthorSlug)
	assert.Equal(t, 5, stats.ArticlesFound)
	assert.Equal(t, 5, stats.ArticlesEnriched)
	assert.GreaterOrEqual(t, stats.PagesVisited, 2)
}

// TestExport_CSVScenario verifies the same crawl as CSV: a header line plus
// five data lines.
func TestExport_CSVScenario(t *testing.T) {
	server := fixtureSite(t)
	defer server.Close()

	p := testPipeline(t, server)
	payload, _, err := p.Export(context.Background(), server.URL+"/autor/john-doe-527.html", "csv")

	require.NoError(t, err)
	lines := strings.Split(string(payload.Body), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], `"title",`))
}

// TestExport_ValidationErrorsPassThrough verifies resolution and format
// errors surface unchanged, before any network work.
func TestExport_ValidationErrorsPassThrough(t *testing.T) {
	server := fixtureSite(t)
	defer server.Close()
	p := testPipeline(t, server)

	_, _, err := p.Export(context.Background(), "https://example.org/autor/x.html", "json")
	assert.ErrorIs(t, err, author.ErrDomainNotAllowed)

	_, _, err = p.Export(context.Background(), server.URL+"/deportes/partido.html", "json")
	assert.ErrorIs(t, err, author.ErrNotAuthorPage)

	_, _, err = p.Export(context.Background(), server.URL+"/autor/john-doe-527.html", "docx")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

// TestExport_NoArticles verifies the empty-crawl failure carries stats for
// the run record.
func TestExport_NoArticles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/autor/jane-smith.html" {
			fmt.Fprint(w, `<html><body><p>Sin artículos.</p></body></html>`)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	p := testPipeline(t, server)
	_, stats, err := p.Export(context.Background(), server.URL+"/autor/jane-smith.html", "json")

	assert.ErrorIs(t, err, ErrNoArticles)
	require.NotNil(t, stats)
	assert.Equal(t, 0, stats.ArticlesFound)
}

// TestExport_NoEnriched verifies the all-articles-filtered failure is
// distinct from the empty-crawl one.
func TestExport_NoEnriched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/autor/jane-smith.html":
			if r.URL.RawQuery != "" {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, `<html><body><article><h2><a href="/x/uno.html">Titular de otra persona</a></h2></article></body></html>`)
		case "/x/uno.html":
			fmt.Fprint(w, `<html><head><meta name="author" content="Pedro Ruiz"/></head><body></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	p := testPipeline(t, server)
	_, stats, err := p.Export(context.Background(), server.URL+"/autor/jane-smith.html", "json")

	assert.ErrorIs(t, err, ErrNoEnriched)
	assert.NotErrorIs(t, err, ErrNoArticles)
	require.NotNil(t, stats)
	assert.Equal(t, 1, stats.ArticlesFound)
	assert.Equal(t, 0, stats.ArticlesEnriched)
}
