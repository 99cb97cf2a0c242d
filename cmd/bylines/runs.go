package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/pevans/bylines/admin"
	"github.com/pevans/bylines/config"
)

func handleRuns(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Maximum number of runs to show")
	fs.Parse(args)

	dsn := getEnv("BYLINES_ADMIN_DSN", cfg.Admin.DSN)
	store, err := admin.NewRunStore(dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open run store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	runs, err := store.List(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Started", "Author", "Format", "Pages", "Found", "Enriched", "Status"})
	for _, run := range runs {
		status := run.Status
		if run.Error != "" {
			status = fmt.Sprintf("%s: %s", run.Status, runewidth.Truncate(run.Error, 40, "..."))
		}
		t.AppendRow(table.Row{
			run.StartedAt.Format("2006-01-02 15:04"),
			run.AuthorSlug,
			run.Format,
			run.PagesVisited,
			run.ArticlesFound,
			run.ArticlesEnriched,
			status,
		})
	}
	t.Render()
}
