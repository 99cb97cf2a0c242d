// Package export renders a final article list into one of four payloads:
// CSV, pretty-printed JSON, Markdown, or a minimal hand-assembled PDF. All
// encoders are pure functions over the record list; nothing here touches the
// network.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pevans/bylines/article"
)

// ErrUnknownFormat marks an unrecognized format token. Surfaced to callers
// as a validation error.
var ErrUnknownFormat = errors.New("unknown export format")

// Format selects an export encoder.
type Format string

// The four supported formats.
const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// ParseFormat validates a request token. Matching is case-insensitive and
// accepts "md" as an alias for markdown.
func ParseFormat(token string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, token)
	}
}

// Payload is a rendered export: the bytes plus what a delivery layer needs
// to serve them as an attachment.
type Payload struct {
	ContentType string
	// Extension is the attachment filename extension, without the dot.
	Extension string
	Body      []byte
}

// Encode renders articles in the requested format.
func Encode(articles []article.Article, format Format) (*Payload, error) {
	switch format {
	case FormatCSV:
		return &Payload{ContentType: "text/csv", Extension: "csv", Body: encodeCSV(articles)}, nil
	case FormatJSON:
		body, err := json.MarshalIndent(articles, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal articles: %w", err)
		}
		return &Payload{ContentType: "application/json", Extension: "json", Body: body}, nil
	case FormatMarkdown:
		return &Payload{ContentType: "text/markdown", Extension: "md", Body: encodeMarkdown(articles)}, nil
	case FormatPDF:
		return &Payload{ContentType: "application/pdf", Extension: "pdf", Body: encodePDF(articles)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// csvColumns is the fixed column order of the tabular export.
var csvColumns = []string{"title", "subtitle", "descriptor", "url", "publishedAt", "author"}

// encodeCSV renders the tabular export. Every value is double-quoted with
// embedded quotes doubled, unconditionally, so consumers can split rows on
// the fixed column count without sniffing.
func encodeCSV(articles []article.Article) []byte {
	var b strings.Builder
	b.WriteString(csvRow(csvColumns))
	for _, a := range articles {
		b.WriteByte('\n')
		b.WriteString(csvRow([]string{a.Title, a.Subtitle, a.Descriptor, a.URL, a.PublishedAt, a.Author}))
	}
	return []byte(b.String())
}

func csvRow(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// encodeMarkdown renders one heading block per article, blocks separated by
// a horizontal rule.
func encodeMarkdown(articles []article.Article) []byte {
	blocks := make([]string, 0, len(articles))
	for _, a := range articles {
		var b strings.Builder
		fmt.Fprintf(&b, "# %s\n", a.Title)
		if a.Subtitle != "" {
			fmt.Fprintf(&b, "\n> %s\n", a.Subtitle)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "- URL: %s\n", a.URL)
		if a.PublishedAt != "" {
			fmt.Fprintf(&b, "- Published: %s\n", a.PublishedAt)
		}
		if a.Author != "" {
			fmt.Fprintf(&b, "- Author: %s\n", a.Author)
		}
		if a.Descriptor != "" {
			fmt.Fprintf(&b, "- Section: %s\n", a.Descriptor)
		}
		blocks = append(blocks, b.String())
	}
	return []byte(strings.Join(blocks, "\n---\n\n"))
}
