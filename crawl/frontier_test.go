package crawl

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/bylines/article"
)

// TestFrontier_EnqueueOnce verifies a URL enters the queue at most once per
// crawl, even when several heuristics surface it in different spellings.
func TestFrontier_EnqueueOnce(t *testing.T) {
	f := newFrontier(100)

	assert.True(t, f.enqueue("https://www.elcorreo.com/autor/john-doe-527.html?page=2"))
	assert.False(t, f.enqueue("https://www.elcorreo.com/autor/john-doe-527.html?page=2"), "exact duplicate")
	assert.False(t, f.enqueue("https://elcorreo.com/autor/john-doe-527.html?page=2"), "www-stripped duplicate")
	assert.False(t, f.enqueue("https://ELCORREO.com/autor/john-doe-527.html?page=2"), "host case duplicate")

	got, ok := f.next()
	require.True(t, ok)
	assert.Equal(t, "https://www.elcorreo.com/autor/john-doe-527.html?page=2", got)

	_, ok = f.next()
	assert.False(t, ok, "queue drained")

	// Dequeuing does not reopen the slot.
	assert.False(t, f.enqueue("https://www.elcorreo.com/autor/john-doe-527.html?page=2"))
}

// TestFrontier_SizeBound verifies the aggregate frontier limit.
func TestFrontier_SizeBound(t *testing.T) {
	f := newFrontier(3)

	for i := 0; i < 3; i++ {
		assert.True(t, f.enqueue(fmt.Sprintf("https://www.elcorreo.com/autor/a.html?page=%d", i+2)))
	}
	assert.False(t, f.enqueue("https://www.elcorreo.com/autor/a.html?page=9"), "limit reached")
}

// TestFrontier_VisitOnce verifies visit marks and rejects repeats.
func TestFrontier_VisitOnce(t *testing.T) {
	f := newFrontier(10)

	assert.True(t, f.visit("https://www.elcorreo.com/autor/a.html"))
	assert.False(t, f.visit("https://elcorreo.com/autor/a.html"), "normalized repeat")
	assert.Equal(t, 1, f.visitedCount())
}

// TestCollection_DedupAndCap verifies first-discovered wins and the article
// cap holds.
func TestCollection_DedupAndCap(t *testing.T) {
	c := newCollection(2)

	assert.True(t, c.add(article.Article{Title: "first", URL: "https://www.elcorreo.com/a/uno.html"}))
	assert.False(t, c.add(article.Article{Title: "repeat", URL: "https://elcorreo.com/a/uno.html"}), "www duplicate")
	assert.True(t, c.add(article.Article{Title: "second", URL: "https://www.elcorreo.com/a/dos.html"}))
	assert.False(t, c.add(article.Article{Title: "over cap", URL: "https://www.elcorreo.com/a/tres.html"}))

	got := c.articles()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Title, "first discovery wins the URL key")
	assert.Equal(t, "second", got[1].Title)
}

// TestNormalizeKey covers the dedup key shape.
func TestNormalizeKey(t *testing.T) {
	assert.Equal(t,
		normalizeKey("https://www.elcorreo.com/a/uno.html?x=1"),
		normalizeKey("http://elcorreo.com/a/uno.html?x=1#frag"),
		"scheme, www, and fragment are ignored")
	assert.Empty(t, normalizeKey("not a url at all %"), "unusable URLs have no key")
	assert.Empty(t, normalizeKey("/relative/path.html"), "relative URLs have no key")
}
