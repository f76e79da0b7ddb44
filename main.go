package main

import (
	"fmt"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"boxoffice-pulse/app"
	"boxoffice-pulse/config"
	"boxoffice-pulse/ingest"
)

func main() {
	var (
		dryRun      = flag.Bool("dry-run", false, "report statistics without writing anything")
		sinceStr    = flag.String("since", "", "only process documents dated on or after this date (YYYY-MM-DD)")
		performance = flag.String("performance", "", "process only this performance code")
		limit       = flag.Int("limit", 0, "maximum number of documents to process (0 = all)")
		force       = flag.Bool("force", false, "reprocess documents even if data already exists for their keys")
		reportDir   = flag.String("source", "", "report directory (overrides REPORT_DIR)")
	)
	flag.Parse()

	// Load config from .env file
	cfg := config.LoadFromEnv()
	if *reportDir != "" {
		cfg.ReportDir = *reportDir
	}

	opts := ingest.Options{
		Performance: *performance,
		Limit:       *limit,
		DryRun:      *dryRun,
		Force:       *force,
	}
	if *sinceStr != "" {
		since, err := time.Parse("2006-01-02", *sinceStr)
		if err != nil {
			log.Fatalf("invalid --since date %q: %v", *sinceStr, err)
		}
		opts.Since = since
	}

	application := app.New(cfg)
	stats, err := application.Run(opts)
	if err != nil {
		// Startup failure: source or store unreachable. Per-document and
		// per-record failures never reach here.
		log.Printf("❌ Run aborted: %v", err)
		os.Exit(1)
	}

	fmt.Println("✅ Run complete")
	fmt.Println(stats.Summary())
}
