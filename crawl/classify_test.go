package crawl

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/bylines/author"
)

func testContext(t *testing.T) *author.Context {
	t.Helper()
	ctx, err := author.NewResolver(nil).Resolve("https://www.elcorreo.com/autor/john-doe-527.html")
	require.NoError(t, err)
	return ctx
}

// TestLooksLikePagination verifies the token heuristic.
func TestLooksLikePagination(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"/autor/john-doe-527.html?page=2", true},
		{"/autor/john-doe-527.html?pagina=3", true},
		{"/servicios/autor/ajax?offset=20", true},
		{"/autor/john-doe/siguiente", true},
		{"/autor/john-doe-527.html", false},
		{"/deportes/partido.html?page=2", false},
		{"/AUTOR/JOHN?PAGE=2", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, looksLikePagination(tt.raw), "looksLikePagination(%q)", tt.raw)
	}
}

// TestLooksLikeFeed verifies feed-URL detection.
func TestLooksLikeFeed(t *testing.T) {
	assert.True(t, looksLikeFeed("https://www.elcorreo.com/rss/autor/527.xml"))
	assert.True(t, looksLikeFeed("https://www.elcorreo.com/feeds/portada"))
	assert.True(t, looksLikeFeed("https://www.elcorreo.com/sindicacion/autor.xml"))
	assert.False(t, looksLikeFeed("https://www.elcorreo.com/autor/john-doe-527.html"))
}

// TestRelevantListing verifies the pagination-relevance filter: family host,
// /autor/ path, and author identity.
func TestRelevantListing(t *testing.T) {
	actx := testContext(t)

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"canonical path variant", "https://www.elcorreo.com/autor/john-doe-527/2.html", true},
		{"query variant", "https://www.elcorreo.com/autor/john-doe-527.html?pagina=4", true},
		{"slug without id", "https://www.elcorreo.com/servicios/autor/john-doe/ajax", true},
		{"other family host", "https://www.ideal.es/autor/john-doe-527.html", true},
		{"foreign host", "https://example.org/autor/john-doe-527.html", false},
		{"no autor segment", "https://www.elcorreo.com/deportes/john-doe.html", false},
		{"different author", "https://www.elcorreo.com/autor/ana-garcia-9.html", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relevantListing(tt.raw, actx))
		})
	}
}

// TestPlausibleArticle verifies feed/JSON link filtering.
func TestPlausibleArticle(t *testing.T) {
	actx := testContext(t)

	assert.True(t, plausibleArticle("https://www.elcorreo.com/politica/crisis-texto.html", actx))
	assert.True(t, plausibleArticle("https://www.elcorreo.com/cultura/musica/entrevista", actx))
	assert.False(t, plausibleArticle("https://www.elcorreo.com/autor/john-doe-527.html", actx), "listings are not articles")
	assert.False(t, plausibleArticle("https://example.org/politica/crisis.html", actx), "foreign host")
	assert.False(t, plausibleArticle("https://www.elcorreo.com/", actx), "bare root")
}

// TestSeedPages verifies every pagination convention appears for every page
// number up to the cap.
func TestSeedPages(t *testing.T) {
	actx := testContext(t)

	seeds := seedPages(actx, 3)

	// Pages 2 and 3, six variants each.
	require.Len(t, seeds, 12)
	assert.Contains(t, seeds, "https://www.elcorreo.com/autor/john-doe-527.html?page=2")
	assert.Contains(t, seeds, "https://www.elcorreo.com/autor/john-doe-527.html?pagina=2")
	assert.Contains(t, seeds, "https://www.elcorreo.com/autor/john-doe-527.html?_page=3")
	assert.Contains(t, seeds, "https://www.elcorreo.com/autor/john-doe-527.html?offset=20")
	assert.Contains(t, seeds, "https://www.elcorreo.com/autor/john-doe-527/2.html")
	assert.Contains(t, seeds, "https://www.elcorreo.com/autor/john-doe-527/pagina-3.html")

	// Every seed must survive its own relevance filter.
	for _, seed := range seeds {
		assert.True(t, relevantListing(seed, actx), "seed %s must be relevant", seed)
	}
}

// TestFeedGuesses verifies feed guesses exist only with a numeric author id.
func TestFeedGuesses(t *testing.T) {
	actx := testContext(t)

	guesses := feedGuesses(actx)
	require.NotEmpty(t, guesses)
	for _, g := range guesses {
		assert.True(t, looksLikeFeed(g), "guess %s must look like a feed", g)
		assert.Contains(t, g, "527")
	}

	noID, err := author.NewResolver(nil).Resolve("https://www.elcorreo.com/autor/jane-smith.html")
	require.NoError(t, err)
	assert.Empty(t, feedGuesses(noID))
}

// TestAbsolutize verifies reference resolution and scheme filtering.
func TestAbsolutize(t *testing.T) {
	base, _ := url.Parse("https://www.elcorreo.com/autor/john-doe-527.html")

	assert.Equal(t, "https://www.elcorreo.com/politica/uno.html", absolutize(base, "/politica/uno.html"))
	assert.Equal(t, "https://www.elcorreo.com/autor/uno.html", absolutize(base, "uno.html"))
	assert.Equal(t, "https://other.example/x.html", absolutize(base, "https://other.example/x.html"))
	assert.Empty(t, absolutize(base, "mailto:someone@example.com"))
	assert.Empty(t, absolutize(base, "javascript:void(0)"))
	assert.Equal(t, "https://www.elcorreo.com/a.html", absolutize(base, "/a.html#section"), "fragment dropped")
}
