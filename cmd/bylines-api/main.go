package main

import (
	"log"
	"os"

	"github.com/pevans/bylines/admin"
	"github.com/pevans/bylines/api"
	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/config"
	"github.com/pevans/bylines/crawl"
	"github.com/pevans/bylines/enrich"
	"github.com/pevans/bylines/pipeline"
	"github.com/pevans/bylines/trends"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg, err := config.Load(getEnv("BYLINES_CONFIG", "bylines.yaml"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := admin.NewRunStore(getEnv("BYLINES_ADMIN_DSN", cfg.Admin.DSN))
	if err != nil {
		log.Fatalf("Failed to open run store: %v", err)
	}
	defer store.Close()

	logger := log.Default()
	resolver := author.NewResolver(cfg.Domains)
	crawler := crawl.NewCrawler(&crawl.Config{
		MaxPages:      cfg.Crawl.MaxPages,
		MaxArticles:   cfg.Crawl.MaxArticles,
		MaxSeedPages:  cfg.Crawl.MaxSeedPages,
		FrontierLimit: cfg.Crawl.FrontierLimit,
		FetchTimeout:  cfg.Crawl.FetchTimeout.Std(),
	}, nil, logger)
	enricher := enrich.NewEnricher(&enrich.Config{
		Concurrency:  cfg.Enrich.Concurrency,
		FetchTimeout: cfg.Enrich.FetchTimeout.Std(),
	}, nil, logger)
	p := pipeline.New(resolver, crawler, enricher, logger)

	var scorer *trends.Scorer
	if cfg.Trends.FeedURL != "" {
		scorer = trends.NewScorer(cfg.Trends.FeedURL)
		scorer.Timeout = cfg.Trends.Timeout.Std()
	}

	server := api.NewServer(p, store, scorer, logger)

	addr := getEnv("BYLINES_ADDR", cfg.Server.Addr)
	if err := server.Start(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
