package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/config"
	"github.com/pevans/bylines/crawl"
	"github.com/pevans/bylines/enrich"
	"github.com/pevans/bylines/pipeline"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(getEnv("BYLINES_CONFIG", "bylines.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	subcommand := os.Args[1]

	switch subcommand {
	case "export":
		handleExport(cfg, os.Args[2:])
	case "preview":
		handlePreview(cfg, os.Args[2:])
	case "runs":
		handleRuns(cfg, os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

// buildPipeline assembles the crawl and enrichment stages from the loaded
// configuration. Progress logging goes to stderr so exported bytes on
// stdout stay clean.
func buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	resolver := author.NewResolver(cfg.Domains)
	crawlConfig := &crawl.Config{
		MaxPages:      cfg.Crawl.MaxPages,
		MaxArticles:   cfg.Crawl.MaxArticles,
		MaxSeedPages:  cfg.Crawl.MaxSeedPages,
		FrontierLimit: cfg.Crawl.FrontierLimit,
		FetchTimeout:  cfg.Crawl.FetchTimeout.Std(),
	}
	enrichConfig := &enrich.Config{
		Concurrency:  cfg.Enrich.Concurrency,
		FetchTimeout: cfg.Enrich.FetchTimeout.Std(),
	}

	return pipeline.New(
		resolver,
		crawl.NewCrawler(crawlConfig, nil, logger),
		enrich.NewEnricher(enrichConfig, nil, logger),
		logger,
	)
}

func printUsage() {
	fmt.Println("bylines - Author article collector for the Vocento site family")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bylines <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  export     Crawl an author page and export the articles")
	fmt.Println("  preview    Crawl an author page and list preview records")
	fmt.Println("  runs       List recorded export runs")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  BYLINES_CONFIG     Path to config file (default: bylines.yaml)")
	fmt.Println("  BYLINES_ADMIN_DSN  Path to the run database (overrides config)")
}
