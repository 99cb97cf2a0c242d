package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/pevans/bylines/config"
)

func handlePreview(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	rawURL := fs.String("url", "", "Author listing URL")
	fs.Parse(args)

	if *rawURL == "" {
		fmt.Fprintf(os.Stderr, "Error: --url is required\n")
		fs.Usage()
		os.Exit(1)
	}

	p := buildPipeline(cfg)
	result, actx, err := p.Previews(context.Background(), *rawURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: crawl failed: %v\n", err)
		os.Exit(1)
	}

	if len(result.Previews) == 0 {
		fmt.Printf("No articles found for %s.\n", actx.Name)
		return
	}

	fmt.Printf("Found %d articles for %s over %d pages\n\n", len(result.Previews), actx.Name, result.PagesVisited)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Published", "URL"})
	for i, preview := range result.Previews {
		t.AppendRow(table.Row{
			i + 1,
			runewidth.Truncate(preview.Title, 60, "..."),
			preview.PublishedAt,
			runewidth.Truncate(preview.URL, 60, "..."),
		})
	}
	t.Render()
}
