package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pevans/bylines/article"
)

// PDF layout constants: A4 pages, one per article, a single built-in
// Helvetica font.
const (
	pdfPageWidth  = 595
	pdfPageHeight = 842
	pdfMargin     = 50
	pdfFontSize   = 11
	pdfLeading    = 14
	// Greedy wrap width per text line
	pdfWrapColumns = 90
	// Hard cap on lines per article page, bounding output size
	pdfMaxLines = 40
)

// encodePDF hand-assembles a minimal paginated PDF: catalog, page tree, one
// content stream and one page object per article, and a shared font object,
// followed by a cross-reference table built from the recorded byte offsets.
// Object numbers are fixed by position so the page tree can reference pages
// written after it: catalog 1, tree 2, article i gets stream 3+2i and page
// 4+2i, and the font closes the sequence.
func encodePDF(articles []article.Article) []byte {
	b := newPDFBuilder()

	fontNum := 3 + 2*len(articles)

	b.addObject("<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(articles))
	for i := range articles {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	b.addObject(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(articles)))

	for _, a := range articles {
		stream := contentStream(articleLines(a))
		streamNum := b.addObject(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
		b.addObject(fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pdfPageWidth, pdfPageHeight, fontNum, streamNum))
	}

	b.addObject("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	return b.finish(1)
}

// pdfBuilder appends numbered objects to the output buffer while recording
// the byte offset of each, so the cross-reference table can be emitted in
// one pass at the end with no offset recomputation.
type pdfBuilder struct {
	buf     bytes.Buffer
	offsets []int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

// addObject appends one numbered object and returns its object number.
func (b *pdfBuilder) addObject(body string) int {
	num := len(b.offsets) + 1
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, body)
	return num
}

// finish emits the cross-reference table, the trailer pointing at the root
// object, and the startxref marker, then returns the complete document.
func (b *pdfBuilder) finish(rootNum int) []byte {
	xrefOffset := b.buf.Len()

	fmt.Fprintf(&b.buf, "xref\n0 %d\n", len(b.offsets)+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for _, offset := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d 00000 n \n", offset)
	}

	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root %d 0 R >>\n", len(b.offsets)+1, rootNum)
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	return b.buf.Bytes()
}

// articleLines renders one article's page text: each field wrapped greedily
// to the column width, truncated at the per-page line cap.
func articleLines(a article.Article) []string {
	var lines []string
	for _, field := range []string{a.Title, a.Subtitle, a.Descriptor, a.URL, a.PublishedAt, a.Author} {
		if field == "" {
			continue
		}
		lines = append(lines, wrapText(field, pdfWrapColumns)...)
	}
	if len(lines) > pdfMaxLines {
		lines = lines[:pdfMaxLines]
	}
	return lines
}

// contentStream builds the page's text-drawing stream: one Tj per line with
// the leading advancing between them.
func contentStream(lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d TL\n%d %d Td\n", pdfFontSize, pdfLeading, pdfMargin, pdfPageHeight-pdfMargin)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", escapePDFText(toLatin1(line)))
	}
	b.WriteString("ET")
	return b.String()
}

// wrapText greedily packs words into lines of at most width characters. A
// single word longer than the width gets a line of its own rather than being
// split.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if len(current)+1+len(word) <= width {
			current += " " + word
			continue
		}
		lines = append(lines, current)
		current = word
	}
	return append(lines, current)
}

// typographicReplacements normalizes smart punctuation to plain-ASCII
// equivalents before the Latin-1 substitution pass, so quotes and dashes
// survive instead of degrading to placeholders.
var typographicReplacements = map[rune]string{
	'‘': "'", '’': "'", '‚': "'",
	'“': `"`, '”': `"`, '„': `"`,
	'–': "-", '—': "--",
	'…': "...",
	' ': " ",
}

// toLatin1 re-encodes text for the PDF's single-byte charset: typographic
// punctuation is normalized first and any rune still outside Latin-1 is
// substituted with a placeholder glyph.
func toLatin1(text string) string {
	var b strings.Builder
	for _, r := range text {
		if replacement, ok := typographicReplacements[r]; ok {
			b.WriteString(replacement)
			continue
		}
		if r <= 0xFF {
			b.WriteByte(byte(r))
			continue
		}
		b.WriteByte('?')
	}
	return b.String()
}

// escapePDFText escapes the three characters with meaning inside a PDF
// string literal.
func escapePDFText(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, "(", `\(`)
	return strings.ReplaceAll(text, ")", `\)`)
}
