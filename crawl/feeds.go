package crawl

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pevans/bylines/article"
	"github.com/pevans/bylines/author"
)

// collectFeed fetches and parses one syndication feed and adds previews for
// its items. The gofeed parser detects RSS and Atom transparently. Item
// links must still pass the same-family and article-path checks; per-author
// feed guesses can land on generic site feeds full of other desks' work.
func (c *Crawler) collectFeed(ctx context.Context, feedURL string, actx *author.Context, collected *collection) error {
	body, err := c.client.Get(ctx, feedURL)
	if err != nil {
		return err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	for _, item := range feed.Items {
		if collected.full() {
			break
		}
		if item.Link == "" || !plausibleArticle(item.Link, actx) {
			continue
		}
		collected.add(feedItemPreview(item))
	}
	return nil
}

// feedItemPreview maps a feed item onto a preview record. The published
// date is kept as the feed carried it; enrichment replaces it with the
// article page's own value when one exists.
func feedItemPreview(item *gofeed.Item) article.Article {
	published := item.Published
	if published == "" {
		published = item.Updated
	}

	return article.Article{
		Title:       strings.TrimSpace(item.Title),
		Subtitle:    strings.TrimSpace(item.Description),
		URL:         item.Link,
		PublishedAt: published,
		Author:      feedItemAuthor(item),
	}
}

// feedItemAuthor joins the item's author names, checking the structured
// authors list first and the Dublin Core creator extension second.
func feedItemAuthor(item *gofeed.Item) string {
	var names []string
	if item.Author != nil && item.Author.Name != "" {
		names = append(names, item.Author.Name)
	}
	for _, a := range item.Authors {
		if a.Name != "" && !containsFold(names, a.Name) {
			names = append(names, a.Name)
		}
	}
	if item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			if creator != "" && !containsFold(names, creator) {
				names = append(names, creator)
			}
		}
	}
	return strings.Join(names, ", ")
}

func containsFold(slice []string, s string) bool {
	for _, v := range slice {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
