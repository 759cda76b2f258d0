// Command collect runs one aggregation and writes combined/latest.json.
// It exits non-zero only when every channel source failed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	app "github.com/shopdash/backend/internal/application/dashboard"
	"github.com/shopdash/backend/internal/bootstrap"
	"github.com/shopdash/backend/internal/infrastructure/config"
	"github.com/shopdash/backend/internal/infrastructure/logger"
)

func main() {
	var (
		mode      string
		dataDir   string
		printJSON bool
	)
	flag.StringVar(&mode, "mode", "", "Data source mode override (live, fixture, file)")
	flag.StringVar(&dataDir, "data-dir", "", "Data directory override")
	flag.BoolVar(&printJSON, "json", false, "Print the dashboard payload instead of the summary")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if mode != "" {
		cfg.Collector.Mode = mode
	}
	if dataDir != "" {
		cfg.Collector.DataDir = dataDir
	}
	cfg.Collector.WriteLatestFile = true

	log, err := bootstrap.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	os.Exit(run(cfg, log, printJSON))
}

func run(cfg *config.Config, log *zap.Logger, printJSON bool) int {
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stack, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to build collector", zap.Error(err))
		return 1
	}
	defer func() {
		if err := stack.Close(context.Background()); err != nil {
			log.Warn("Error releasing resources", zap.Error(err))
		}
	}()

	result, err := stack.Collector.Run(ctx)
	if err != nil {
		log.Error("Aggregation failed", zap.Error(err))
		return 1
	}

	if printJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Payload); err != nil {
			log.Error("Failed to print payload", zap.Error(err))
			return 1
		}
	} else {
		printSummary(os.Stdout, result)
	}

	if result.AllFailed() {
		log.Error("Every channel source failed")
		return 2
	}
	return 0
}

// printSummary writes a human readable run report with won amounts
func printSummary(w io.Writer, run *app.Run) {
	p := message.NewPrinter(language.Korean)
	s := run.Payload.Summary

	p.Fprintf(w, "Run %s (%s)\n", run.ID, s.Date)
	p.Fprintf(w, "  Orders:            %d\n", s.TotalOrders)
	p.Fprintf(w, "  Revenue:           %d원\n", s.TotalRevenue)
	p.Fprintf(w, "  Pending shipments: %d\n", s.PendingShipments)
	p.Fprintf(w, "  Low stock alerts:  %d\n", s.LowStockAlerts)

	fmt.Fprintln(w, "Channels:")
	for _, b := range run.Payload.ChannelBreakdown {
		p.Fprintf(w, "  %-8s %5d orders %14d원 %5.1f%%\n", b.Channel, b.OrderCount, b.Revenue, b.Percentage)
	}

	fmt.Fprintln(w, "Sources:")
	for _, o := range run.Outcomes {
		line := p.Sprintf("  %-8s %-18s %-8s %d orders", o.Channel, o.Source, o.Status, o.Orders)
		if o.Error != "" {
			line += " (" + o.Error + ")"
		}
		fmt.Fprintln(w, line)
	}
	for _, warning := range run.Warnings {
		fmt.Fprintln(w, "warning:", warning)
	}
	for sink, err := range run.SinkErrors {
		fmt.Fprintf(w, "sink %s: %s\n", sink, err)
	}
}
