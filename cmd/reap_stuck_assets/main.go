package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/assets-backend/internal/app"
	"github.com/yungbote/assets-backend/internal/modules/assets"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		olderThan  time.Duration
		limit      int
		dryRun     bool
		purgeFiles bool
		reason     string
	)
	flag.DurationVar(&olderThan, "older-than", 15*time.Minute, "reap uploads stuck in PROCESSING for longer than this")
	flag.IntVar(&limit, "limit", 500, "max assets examined in one run")
	flag.BoolVar(&dryRun, "dry-run", false, "list candidates without changing anything")
	flag.BoolVar(&purgeFiles, "purge-files", false, "also remove stored files of reaped assets")
	flag.StringVar(&reason, "reason", "", "reason recorded in the audit log (default names the cutoff)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		return 1
	}
	defer application.Close()

	res, err := application.Services.Assets.ReapStuck(ctx, assets.ReapInput{
		OlderThan:  olderThan,
		Limit:      limit,
		DryRun:     dryRun,
		PurgeFiles: purgeFiles,
		Reason:     reason,
	})
	if err != nil {
		application.Log.Error("reap failed", "error", err)
		return 1
	}

	if dryRun {
		for _, id := range res.Found {
			fmt.Printf("[dry-run] would reap asset=%s\n", id)
		}
	}
	fmt.Printf("found=%d reaped=%d purged=%d skipped=%d failed=%d\n",
		len(res.Found), res.Reaped, res.Purged, res.Skipped, res.Failed)
	if res.Failed > 0 {
		return 1
	}
	return 0
}
