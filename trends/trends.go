// Package trends ranks trending-feed topics by token overlap against the
// titles of an author's collected articles. Unlike the crawl stage it
// applies an explicit abort-after-timeout around its single feed fetch.
package trends

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pevans/bylines/article"
	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/fetch"
)

// minTokenLength excludes stopword-length tokens from overlap scoring.
const minTokenLength = 3

// Suggestion is one scored trending topic.
type Suggestion struct {
	Topic string `json:"topic"`
	// Score is matched topic tokens over total topic tokens, in (0, 1].
	Score float64 `json:"score"`
	// Matched counts the topic tokens found in the article titles.
	Matched int `json:"matched"`
}

// Scorer fetches a trending-topics feed and scores its entries.
type Scorer struct {
	FeedURL string
	Timeout time.Duration
	Client  *http.Client
}

// NewScorer creates a scorer for the given feed with a default 8 second
// timeout.
func NewScorer(feedURL string) *Scorer {
	return &Scorer{
		FeedURL: feedURL,
		Timeout: 8 * time.Second,
		Client:  &http.Client{},
	}
}

// Suggest fetches the trends feed under the scorer's timeout and returns up
// to limit topics that overlap the article titles, highest score first,
// feed order breaking ties. Zero-score topics are dropped.
func (s *Scorer) Suggest(ctx context.Context, articles []article.Article, limit int) ([]Suggestion, error) {
	if s.FeedURL == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	feed, err := s.fetchFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trends feed: %w", err)
	}

	titleTokens := tokenSet(articleTitles(articles))

	var suggestions []Suggestion
	for _, item := range feed.Items {
		topic := strings.TrimSpace(item.Title)
		if topic == "" {
			continue
		}
		matched, total := overlap(topic, titleTokens)
		if matched == 0 || total == 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Topic:   topic,
			Score:   float64(matched) / float64(total),
			Matched: matched,
		})
	}

	// Stable sort keeps feed order as the tie break.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

func (s *Scorer) timeout() time.Duration {
	if s.Timeout <= 0 {
		return 8 * time.Second
	}
	return s.Timeout
}

func (s *Scorer) fetchFeed(ctx context.Context) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.FeedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetch.UserAgent)

	client := s.Client
	if client == nil {
		client = &http.Client{}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return gofeed.NewParser().ParseString(string(body))
}

func articleTitles(articles []article.Article) []string {
	titles := make([]string, 0, len(articles))
	for _, a := range articles {
		titles = append(titles, a.Title)
	}
	return titles
}

// tokenSet normalizes every string and collects its scoring-eligible tokens.
func tokenSet(values []string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, v := range values {
		for _, token := range tokens(v) {
			set[token] = struct{}{}
		}
	}
	return set
}

// tokens splits a value into normalized tokens, skipping those shorter than
// the minimum scoring length.
func tokens(v string) []string {
	var out []string
	for _, token := range strings.Split(author.Normalize(v), "-") {
		if len(token) >= minTokenLength {
			out = append(out, token)
		}
	}
	return out
}

// overlap counts how many of the topic's tokens appear in the title token
// set, returning the matched and total counts.
func overlap(topic string, titleTokens map[string]struct{}) (matched, total int) {
	for _, token := range tokens(topic) {
		total++
		if _, ok := titleTokens[token]; ok {
			matched++
		}
	}
	return matched, total
}
