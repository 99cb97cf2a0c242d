// Package markup is a small tag/attribute scanner over parsed HTML. It
// exposes the handful of capabilities the crawl and enrichment stages need --
// blocks by tag, blocks by class hint, meta and attribute lookup, tag
// stripping with entity decoding -- so call sites never touch the underlying
// parser directly.
package markup

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document wraps a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Block is one element subtree within a Document (an <article>, a news card
// container, a heading).
type Block struct {
	sel *goquery.Selection
}

// Parse parses an HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML document from a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Blocks returns every element matching the given tag, in document order.
func (d *Document) Blocks(tag string) []*Block {
	return collect(d.doc.Find(tag))
}

// BlocksByClassHint returns elements whose class attribute contains any of
// the given hints as a substring, in document order. Hint matching is
// case-insensitive.
func (d *Document) BlocksByClassHint(hints ...string) []*Block {
	var blocks []*Block
	d.doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		if classMatchesHint(class, hints) {
			blocks = append(blocks, &Block{sel: s})
		}
	})
	return blocks
}

// Meta returns the content of the first <meta> whose property or name
// attribute equals key, entity-decoded and whitespace-cleaned.
func (d *Document) Meta(key string) string {
	sel := d.doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	content, _ := sel.Attr("content")
	return CleanText(html.UnescapeString(content))
}

// FirstText returns the cleaned text of the first element matching the
// selector-like tag, or "".
func (d *Document) FirstText(tag string) string {
	return CleanText(d.doc.Find(tag).First().Text())
}

// FirstAttr returns the value of attr on the first element matching tag that
// carries it, or "".
func (d *Document) FirstAttr(tag, attr string) string {
	var value string
	d.doc.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			value = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return value
}

// EachAttr calls fn with every non-empty value of attr across the document,
// in document order.
func (d *Document) EachAttr(attr string, fn func(value string)) {
	d.doc.Find(fmt.Sprintf("[%s]", attr)).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			fn(strings.TrimSpace(v))
		}
	})
}

// EachBlockWithAttr calls fn with every block carrying attr.
func (d *Document) EachBlockWithAttr(attr string, fn func(b *Block)) {
	d.doc.Find(fmt.Sprintf("[%s]", attr)).Each(func(_ int, s *goquery.Selection) {
		fn(&Block{sel: s})
	})
}

// ScriptTexts returns the raw text of every <script> block, in document
// order. When typeFilter is non-empty only scripts with that exact type
// attribute are returned.
func (d *Document) ScriptTexts(typeFilter string) []string {
	selector := "script"
	if typeFilter != "" {
		selector = fmt.Sprintf(`script[type=%q]`, typeFilter)
	}
	var texts []string
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); strings.TrimSpace(text) != "" {
			texts = append(texts, text)
		}
	})
	return texts
}

// Links returns href values of elements matching tag filtered by an optional
// attribute equality, e.g. Links("link", "rel", "next").
func (d *Document) Links(tag, filterAttr, filterValue string) []string {
	var hrefs []string
	d.doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
		if filterAttr != "" {
			v, _ := s.Attr(filterAttr)
			if !strings.EqualFold(strings.TrimSpace(v), filterValue) {
				return
			}
		}
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			hrefs = append(hrefs, strings.TrimSpace(href))
		}
	})
	return hrefs
}

// Text returns the cleaned text content of the block.
func (b *Block) Text() string {
	return CleanText(b.sel.Text())
}

// Attr returns the named attribute of the block itself, or "".
func (b *Block) Attr(name string) string {
	v, _ := b.sel.Attr(name)
	return strings.TrimSpace(v)
}

// FirstText returns the cleaned text of the first descendant matching tag.
func (b *Block) FirstText(tag string) string {
	return CleanText(b.sel.Find(tag).First().Text())
}

// FirstAttr returns the value of attr on the first descendant matching tag
// that carries a non-empty value.
func (b *Block) FirstAttr(tag, attr string) string {
	var value string
	b.sel.Find(tag).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			value = strings.TrimSpace(v)
			return false
		}
		return true
	})
	return value
}

// ClassHintText returns the cleaned text of the first descendant whose class
// contains any hint, searching the block's own subtree only.
func (b *Block) ClassHintText(hints ...string) string {
	var text string
	b.sel.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if classMatchesHint(class, hints) {
			if t := CleanText(s.Text()); t != "" {
				text = t
				return false
			}
		}
		return true
	})
	return text
}

// Anchors calls fn with (href, cleaned link text) for every <a href> in the
// block.
func (b *Block) Anchors(fn func(href, text string)) {
	b.sel.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		fn(href, CleanText(s.Text()))
	})
}

// tagPattern matches HTML tags for StripTags. Entity decoding happens after
// stripping so a literal &lt;b&gt; in text survives.
var tagPattern = regexp.MustCompile(`(?s)<[^>]*>`)

// StripTags removes markup from an HTML fragment, decodes entities, and
// collapses whitespace. Every extracted field value passes through here
// before comparison or output.
func StripTags(fragment string) string {
	return CleanText(html.UnescapeString(tagPattern.ReplaceAllString(fragment, " ")))
}

// CleanText collapses all whitespace runs to single spaces and trims the
// edges.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LooksLikeHTML reports whether a string value plausibly holds an HTML
// fragment. Used when walking JSON listing responses whose values embed
// rendered cards.
func LooksLikeHTML(s string) bool {
	open := strings.IndexByte(s, '<')
	return open >= 0 && strings.IndexByte(s[open:], '>') > 0
}

func classMatchesHint(class string, hints []string) bool {
	class = strings.ToLower(class)
	for _, hint := range hints {
		if hint != "" && strings.Contains(class, strings.ToLower(hint)) {
			return true
		}
	}
	return false
}

func collect(sel *goquery.Selection) []*Block {
	blocks := make([]*Block, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, &Block{sel: s})
	})
	return blocks
}
