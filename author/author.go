// Package author validates author-listing URLs against the supported site
// family and derives the canonical author identity (slug, display name,
// optional numeric id) used for matching throughout the pipeline.
package author

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Custom errors for author URL validation
var (
	ErrInvalidURL       = errors.New("invalid author URL")
	ErrDomainNotAllowed = errors.New("domain is not part of the supported site family")
	ErrNotAuthorPage    = errors.New("URL does not point to an author page")
)

// DefaultDomains is the Vocento regional daily family the resolver accepts
// when no explicit domain list is configured.
var DefaultDomains = []string{
	"elcorreo.com",
	"elcomercio.es",
	"eldiariomontanes.es",
	"diariosur.es",
	"diariovasco.com",
	"elnortedecastilla.es",
	"hoy.es",
	"ideal.es",
	"larioja.com",
	"lasprovincias.es",
	"laverdad.es",
	"lavozdigital.es",
	"burgosconecta.es",
	"leonoticias.com",
	"canarias7.es",
}

// Context is the canonical author identity derived from a validated listing
// URL. It is built once per request and passed by pointer downstream; nothing
// mutates it after construction.
type Context struct {
	// ListingURL is the validated listing-page URL, as given.
	ListingURL string
	// Slug is the normalized identity used for matching (see Normalize).
	// Non-empty whenever resolution succeeded.
	Slug string
	// Name is the human-readable author name, title-cased from the URL slug.
	Name string
	// ID is the numeric author id from a trailing -<digits> path segment,
	// empty when the URL carries none.
	ID string

	domains []string
}

// AllowsHost reports whether a hostname belongs to the same allowed site
// family as the listing URL. A leading www. is ignored and subdomains of an
// allowed domain are accepted.
func (c *Context) AllowsHost(host string) bool {
	return hostAllowed(host, c.domains)
}

// Resolver validates author URLs against an allowed domain family.
type Resolver struct {
	domains []string
}

// NewResolver creates a resolver for the given domain family. A nil or empty
// list falls back to DefaultDomains.
func NewResolver(domains []string) *Resolver {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	return &Resolver{domains: domains}
}

// authorIDPattern captures a trailing numeric author id, e.g. john-doe-527.
var authorIDPattern = regexp.MustCompile(`-(\d+)$`)

// Resolve validates rawURL and derives the author context. Validation order:
// well-formed http(s) URL, allowed domain family, then an /autor/ path
// segment. Each failure wraps the matching sentinel error so callers can
// classify with errors.Is.
func (r *Resolver) Resolve(rawURL string) (*Context, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	if !hostAllowed(parsed.Hostname(), r.domains) {
		return nil, fmt.Errorf("%w: %s", ErrDomainNotAllowed, parsed.Hostname())
	}

	segment := authorSegment(parsed.Path)
	if segment == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotAuthorPage, parsed.Path)
	}

	// Strip the .html suffix and capture a trailing -<digits> as the numeric
	// author id before deriving name and slug from what remains.
	base := strings.TrimSuffix(segment, ".html")
	id := ""
	if m := authorIDPattern.FindStringSubmatch(base); m != nil {
		id = m[1]
		base = strings.TrimSuffix(base, m[0])
	}

	ctx := &Context{
		ListingURL: rawURL,
		Slug:       Normalize(base),
		Name:       displayName(base),
		ID:         id,
		domains:    r.domains,
	}
	if ctx.Slug == "" {
		return nil, fmt.Errorf("%w: empty author segment", ErrNotAuthorPage)
	}
	return ctx, nil
}

// authorSegment returns the path segment following /autor/, or "" when the
// path has no author segment.
func authorSegment(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "autor" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}

// displayName title-cases the hyphen-separated tokens of an author slug:
// "john-doe" becomes "John Doe".
func displayName(base string) string {
	tokens := strings.Split(base, "-")
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == "" {
			continue
		}
		runes := []rune(token)
		runes[0] = unicode.ToUpper(runes[0])
		out = append(out, string(runes))
	}
	return strings.Join(out, " ")
}

// slugCleanPattern collapses anything outside [a-z0-9] into hyphens.
var slugCleanPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases s, strips diacritical marks via canonical
// decomposition, collapses every non-alphanumeric run into a single hyphen,
// and trims edge hyphens. Author-identity comparisons happen exclusively on
// this form so "José María" and "jose-maria" match.
func Normalize(s string) string {
	s = strings.ToLower(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = slugCleanPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// hostAllowed checks host (leading www. stripped, case-insensitive) against
// the domain family: exact match or subdomain of an allowed domain.
func hostAllowed(host string, domains []string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, domain := range domains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
