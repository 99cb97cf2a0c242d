package enrich

import (
	"encoding/json"
	"strings"

	"github.com/pevans/bylines/markup"
)

// articleTypes are the schema.org types accepted as "the article node" when
// searching embedded structured data.
var articleTypes = []string{
	"NewsArticle", "Article", "BlogPosting", "ScholarlyArticle", "Report",
}

// structuredData is the first article-like node found in a page's JSON-LD
// scripts, or nil when the page embeds none.
type structuredData map[string]any

// findStructuredData parses every ld+json script in the page and searches
// each payload depth-first for an article-like node, unwrapping @graph
// containers and arrays along the way. The first hit wins.
func findStructuredData(doc *markup.Document) structuredData {
	for _, script := range doc.ScriptTexts("application/ld+json") {
		var payload any
		if err := json.Unmarshal([]byte(script), &payload); err != nil {
			continue
		}
		if node := findArticleNode(payload); node != nil {
			return node
		}
	}
	return nil
}

// findArticleNode walks a decoded JSON-LD value depth-first looking for the
// first node whose @type is an article type. @graph containers and plain
// arrays are unwrapped; other nesting is not followed, matching how the
// sites embed their metadata.
func findArticleNode(value any) structuredData {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if node := findArticleNode(item); node != nil {
				return node
			}
		}
	case map[string]any:
		if isArticleNode(v) {
			return v
		}
		if graph, ok := v["@graph"].([]any); ok {
			return findArticleNode(graph)
		}
	}
	return nil
}

// isArticleNode checks a node's @type, which may be a string or an array of
// strings, against the accepted article types.
func isArticleNode(node map[string]any) bool {
	switch t := node["@type"].(type) {
	case string:
		return isArticleType(t)
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && isArticleType(s) {
				return true
			}
		}
	}
	return false
}

func isArticleType(t string) bool {
	for _, want := range articleTypes {
		if t == want {
			return true
		}
	}
	return false
}

// str returns the first non-empty string value among the given keys,
// tag-stripped and entity-decoded.
func (sd structuredData) str(keys ...string) string {
	if sd == nil {
		return ""
	}
	for _, key := range keys {
		if s, ok := sd[key].(string); ok {
			if cleaned := markup.StripTags(s); cleaned != "" {
				return cleaned
			}
		}
	}
	return ""
}

// authorName resolves the structured author field, which the sites emit as a
// plain string, a person object with a name, or a list of either. Multiple
// names are joined with ", ".
func (sd structuredData) authorName() string {
	if sd == nil {
		return ""
	}
	return authorValue(sd["author"])
}

func authorValue(value any) string {
	switch v := value.(type) {
	case string:
		return markup.StripTags(v)
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return markup.StripTags(name)
		}
	case []any:
		var names []string
		for _, item := range v {
			if name := authorValue(item); name != "" {
				names = append(names, name)
			}
		}
		return strings.Join(names, ", ")
	}
	return ""
}
