package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pevans/bylines/config"
)

func handleExport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	rawURL := fs.String("url", "", "Author listing URL")
	format := fs.String("format", "csv", "Export format (csv, json, markdown, pdf)")
	out := fs.String("out", "", "Output file (default: <slug>.<ext> in the working directory)")
	fs.Parse(args)

	if *rawURL == "" {
		fmt.Fprintf(os.Stderr, "Error: --url is required\n")
		fs.Usage()
		os.Exit(1)
	}

	p := buildPipeline(cfg)
	payload, stats, err := p.Export(context.Background(), *rawURL, *format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: export failed: %v\n", err)
		os.Exit(1)
	}

	path := *out
	if path == "" {
		path = fmt.Sprintf("%s.%s", stats.AuthorSlug, payload.Extension)
	}
	if path == "-" {
		os.Stdout.Write(payload.Body)
		return
	}

	if err := os.WriteFile(path, payload.Body, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", path, err)
		os.Exit(1)
	}

	fmt.Printf("✓ Exported %d articles for %s\n", stats.ArticlesEnriched, stats.AuthorName)
	fmt.Printf("  Pages visited: %d\n", stats.PagesVisited)
	fmt.Printf("  Format: %s\n", stats.Format)
	fmt.Printf("  File: %s\n", path)
}
