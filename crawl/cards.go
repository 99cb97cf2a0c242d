package crawl

import (
	"net/url"
	"strings"

	"github.com/pevans/bylines/article"
	"github.com/pevans/bylines/markup"
)

// Class-name fragments that mark field blocks inside a listing card. The
// sites are Spanish so the native vocabulary comes first.
var (
	containerHints  = []string{"noticia", "news", "story", "item"}
	subtitleHints   = []string{"subtitle", "entradilla", "resumen", "sumario"}
	descriptorHints = []string{"descriptor", "antetitulo", "kicker", "volanta", "seccion"}
	authorHints     = []string{"author", "autor", "firma"}
)

// minLooseAnchorTitle is the minimum link-text length for the loose-anchor
// fallback. Shorter anchors are navigation, not headlines.
const minLooseAnchorTitle = 12

// extractCards pulls article preview records out of a listing-page document
// and hands each to add. Extraction is tiered: semantic <article> blocks
// first, then containers whose class hints at a news card, and only when
// both find nothing, loose .html anchors with headline-length text.
func extractCards(doc *markup.Document, base *url.URL, add func(article.Article)) {
	found := 0
	for _, block := range doc.Blocks("article") {
		if a, ok := cardFromBlock(block, base); ok {
			add(a)
			found++
		}
	}
	if found > 0 {
		return
	}

	for _, block := range doc.BlocksByClassHint(containerHints...) {
		if a, ok := cardFromBlock(block, base); ok {
			add(a)
			found++
		}
	}
	if found > 0 {
		return
	}

	for _, block := range doc.Blocks("a[href]") {
		href := block.Attr("href")
		text := block.Text()
		if !strings.HasSuffix(strings.ToLower(hrefPath(href)), ".html") {
			continue
		}
		if len([]rune(text)) < minLooseAnchorTitle {
			continue
		}
		abs := absolutize(base, href)
		if abs == "" {
			continue
		}
		add(article.Article{Title: text, URL: abs})
	}
}

// cardFromBlock extracts one preview from a card block. The URL is required;
// a card without a usable article link is skipped.
func cardFromBlock(b *markup.Block, base *url.URL) (article.Article, bool) {
	href, anchorText := cardLink(b)
	if href == "" {
		return article.Article{}, false
	}
	abs := absolutize(base, href)
	if abs == "" {
		return article.Article{}, false
	}

	title := b.FirstText("h2")
	if title == "" {
		title = b.FirstText("h3")
	}
	if title == "" {
		title = b.FirstText("h1")
	}
	if title == "" {
		title = anchorText
	}

	return article.Article{
		Title:       markup.StripTags(title),
		Subtitle:    b.ClassHintText(subtitleHints...),
		Descriptor:  b.ClassHintText(descriptorHints...),
		URL:         abs,
		PublishedAt: b.FirstAttr("time", "datetime"),
		Author:      b.ClassHintText(authorHints...),
	}, true
}

// cardLink picks the card's article link: the first anchor pointing at an
// .html path wins, otherwise the first anchor at all.
func cardLink(b *markup.Block) (href, text string) {
	var firstHref, firstText string
	b.Anchors(func(h, t string) {
		if firstHref == "" {
			firstHref, firstText = h, t
		}
		if href == "" && strings.HasSuffix(strings.ToLower(hrefPath(h)), ".html") {
			href, text = h, t
		}
	})
	if href == "" {
		return firstHref, firstText
	}
	return href, text
}

// hrefPath returns the path part of an href so suffix checks ignore query
// strings and fragments.
func hrefPath(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return u.Path
}
