package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/bylines/article"
	"github.com/pevans/bylines/author"
)

func contextFor(t *testing.T, server *httptest.Server, path string) *author.Context {
	t.Helper()
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	actx, err := author.NewResolver([]string{u.Hostname()}).Resolve(server.URL + path)
	require.NoError(t, err)
	return actx
}

const articleWithJSONLD = `<html><head>
<meta property="og:title" content="Meta title loses to structured data"/>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebSite", "name": "El Correo"},
    {
      "@type": "NewsArticle",
      "headline": "Crisis de presupuesto: el pleno rechaza las cuentas",
      "description": "El gobierno local queda en minoría",
      "articleSection": "Política",
      "datePublished": "2024-01-15T09:30:00+01:00",
      "author": [{"@type": "Person", "name": "John Doe"}]
    }
  ]
}
</script>
</head><body><h1>Heading loses too</h1></body></html>`

// TestEnrich_StructuredDataWins verifies the structured-data source beats
// every fallback, including @graph unwrapping and author-object handling.
func TestEnrich_StructuredDataWins(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, articleWithJSONLD)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	previews := []article.Article{{Title: "Preview title", URL: server.URL + "/politica/crisis.html"}}

	enriched, err := NewEnricher(nil, nil, nil).Enrich(context.Background(), previews, "John Doe", actx)

	require.NoError(t, err)
	require.Len(t, enriched, 1)
	a := enriched[0]
	assert.Equal(t, "Crisis de presupuesto: el pleno rechaza las cuentas", a.Title)
	assert.Equal(t, "El gobierno local queda en minoría", a.Subtitle)
	assert.Equal(t, "Política", a.Descriptor)
	assert.Equal(t, "2024-01-15T09:30:00+01:00", a.PublishedAt)
	assert.Equal(t, "John Doe", a.Author)
	assert.Equal(t, server.URL+"/politica/crisis.html", a.URL, "URL never changes")
}

// TestEnrich_MetaFallback verifies the chain falls through to page metadata
// and heuristic markup when no structured data exists.
func TestEnrich_MetaFallback(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Titular desde og:title"/>
<meta name="description" content="Sumario desde meta description"/>
<meta property="article:section" content="Cultura"/>
<meta property="article:published_time" content="2024-02-01T08:00:00Z"/>
</head><body>
<span class="firma-autor">John Doe</span>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	previews := []article.Article{{Title: "Preview title", URL: server.URL + "/cultura/pieza.html"}}

	enriched, err := NewEnricher(nil, nil, nil).Enrich(context.Background(), previews, "", actx)

	require.NoError(t, err)
	require.Len(t, enriched, 1)
	a := enriched[0]
	assert.Equal(t, "Titular desde og:title", a.Title)
	assert.Equal(t, "Sumario desde meta description", a.Subtitle)
	assert.Equal(t, "Cultura", a.Descriptor)
	assert.Equal(t, "2024-02-01T08:00:00Z", a.PublishedAt)
	assert.Equal(t, "John Doe", a.Author)
}

// TestEnrich_PreviewFallback verifies a page with nothing extractable keeps
// the preview fields, with the fallback author name filling the byline.
func TestEnrich_PreviewFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><div>nada</div></body></html>`)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	previews := []article.Article{{
		Title:       "Preview title survives",
		Subtitle:    "Preview subtitle",
		PublishedAt: "ayer",
		URL:         server.URL + "/x/y.html",
	}}

	enriched, err := NewEnricher(nil, nil, nil).Enrich(context.Background(), previews, "John Doe", actx)

	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, "Preview title survives", enriched[0].Title)
	assert.Equal(t, "Preview subtitle", enriched[0].Subtitle)
	assert.Equal(t, "ayer", enriched[0].PublishedAt)
	assert.Equal(t, "John Doe", enriched[0].Author, "fallback author name is the last resort")
}

// TestEnrich_FetchFailureKeepsPreview verifies one failing article of five
// keeps its original preview fields unchanged while the rest enrich.
func TestEnrich_FetchFailureKeepsPreview(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/x/roto.html" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `<html><head><meta property="og:title" content="Enriquecido"/></head><body></body></html>`)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	previews := make([]article.Article, 5)
	for i := range previews {
		previews[i] = article.Article{
			Title: fmt.Sprintf("Preview %d", i),
			URL:   fmt.Sprintf("%s/x/articulo-%d.html", server.URL, i),
		}
	}
	previews[2].URL = server.URL + "/x/roto.html"
	previews[2].PublishedAt = "12 mar"

	enriched, err := NewEnricher(nil, nil, nil).Enrich(context.Background(), previews, "John Doe", actx)

	require.NoError(t, err)
	require.Len(t, enriched, 5)
	assert.Equal(t, article.Article{
		Title:       "Preview 2",
		URL:         server.URL + "/x/roto.html",
		PublishedAt: "12 mar",
	}, enriched[2], "failed fetch keeps the preview byte for byte")
	assert.Equal(t, "Enriquecido", enriched[0].Title)
	assert.Equal(t, "Enriquecido", enriched[4].Title)
}

// TestEnrich_AuthorMismatchDropped verifies the identity filter: unrelated
// bylines drop, the exact slug and containing bylines keep.
func TestEnrich_AuthorMismatchDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var byline string
		switch r.URL.Path {
		case "/x/propio.html":
			byline = "John Doe"
		case "/x/ajeno.html":
			byline = "Ana García"
		case "/x/compartido.html":
			byline = "John Doe y Ana García"
		}
		fmt.Fprintf(w, `<html><head><meta name="author" content="%s"/></head><body></body></html>`, byline)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	previews := []article.Article{
		{Title: "propio", URL: server.URL + "/x/propio.html"},
		{Title: "ajeno", URL: server.URL + "/x/ajeno.html"},
		{Title: "compartido", URL: server.URL + "/x/compartido.html"},
	}

	enriched, err := NewEnricher(nil, nil, nil).Enrich(context.Background(), previews, "", actx)

	require.NoError(t, err)
	require.Len(t, enriched, 2)
	assert.Equal(t, "propio", enriched[0].Title)
	assert.Equal(t, "compartido", enriched[1].Title, "co-authored byline containing the slug survives")
}

// TestEnrich_BatchConcurrencyBound verifies no more than Concurrency fetches
// are ever in flight.
func TestEnrich_BatchConcurrencyBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		fmt.Fprint(w, `<html><body></body></html>`)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	previews := make([]article.Article, 20)
	for i := range previews {
		previews[i] = article.Article{URL: fmt.Sprintf("%s/x/a-%d.html", server.URL, i)}
	}

	config := &Config{Concurrency: 3}
	_, err := NewEnricher(config, nil, nil).Enrich(context.Background(), previews, "John Doe", actx)

	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

// TestEnrich_Cancellation verifies a cancelled context aborts the run.
func TestEnrich_Cancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html></html>`)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEnricher(nil, nil, nil).Enrich(ctx, []article.Article{{URL: server.URL + "/x.html"}}, "", actx)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestFindStructuredData_TypeArray verifies @type arrays and top-level
// arrays are handled.
func TestFindStructuredData_TypeArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><script type="application/ld+json">
[{"@type": ["NewsArticle", "Thing"], "headline": "Desde un array", "author": "John Doe"}]
</script></head><body></body></html>`)
	}))
	defer server.Close()

	actx := contextFor(t, server, "/autor/john-doe-527.html")
	previews := []article.Article{{URL: server.URL + "/x/a.html"}}

	enriched, err := NewEnricher(nil, nil, nil).Enrich(context.Background(), previews, "", actx)

	require.NoError(t, err)
	require.Len(t, enriched, 1)
	assert.Equal(t, "Desde un array", enriched[0].Title)
	assert.Equal(t, "John Doe", enriched[0].Author)
}
