package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/archive"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/fetcher/headless"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/harvester"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/progress"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/progress/sinks"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/provider/ytdlp"
	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/resolver"
)

// newHarvestCmd creates and configures the 'harvest' subcommand.
func newHarvestCmd() *cobra.Command {
	var (
		maxItems int
		debug    bool
	)

	cmd := &cobra.Command{
		Use:   "harvest <channel-handle>",
		Short: "Harvests video metadata into the channel's archive file",
		Long: `Enumerates the channel's streams, videos, and shorts, resolves each
video through the metadata tiers, and merges the results into
docs/src/archives_<handle>.json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(cmd, args[0], maxItems, debug)
		},
	}

	cmd.Flags().IntVar(&maxItems, "max", 0, "maximum videos per category (0 = no limit)")
	cmd.Flags().BoolVar(&debug, "debug", false, "write a diagnostics dump at end of run")

	return cmd
}

func runHarvest(cmd *cobra.Command, handle string, maxItems int, debug bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()

	extractor := ytdlp.New(logger,
		ytdlp.WithBinary(cfg.Extractor.Binary),
		ytdlp.WithSleepInterval(cfg.Extractor.SleepIntervalSeconds, cfg.Extractor.MaxSleepSeconds),
	)
	version, err := extractor.CheckBinary(ctx)
	if err != nil {
		return fmt.Errorf("extractor unavailable: %w", err)
	}
	logger.Info("extractor ready", zap.String("version", version))

	probe, err := headless.New(headless.Config{
		Selectors:         cfg.Headless.Selectors,
		Attempts:          cfg.Headless.Attempts,
		RetryDelay:        cfg.Headless.RetryDelay(),
		NavigationTimeout: cfg.Headless.NavTimeout(),
		UserAgent:         cfg.Headless.UserAgent,
	}, logger)
	if err != nil {
		return fmt.Errorf("init page probe: %w", err)
	}
	defer probe.Close()

	res := resolver.New(extractor, probe, resolver.Config{
		DetailAttempts:           cfg.Extractor.DetailAttempts,
		DetailRetryDelay:         cfg.Extractor.DetailRetryDelay(),
		TrustListingAvailability: cfg.Harvester.TrustListingAvailability,
	}, logger)

	sinkList := []progress.Sink{sinks.NewLog(logger)}
	if debug || cfg.Diagnostics.DumpEnabled {
		sinkList = append(sinkList, sinks.NewDump(cfg.Diagnostics.DumpPath))
	}
	fanout := progress.NewFanout(logger, sinkList...)
	defer func() {
		if cerr := fanout.Close(context.Background()); cerr != nil {
			logger.Warn("diagnostics sink close failed", zap.Error(cerr))
		}
	}()

	if maxItems <= 0 {
		maxItems = cfg.Harvester.MaxItems
	}
	h := harvester.New(extractor, res, harvester.Config{
		Categories:    cfg.Harvester.Categories,
		MaxItems:      maxItems,
		BaseDelay:     cfg.Harvester.BaseDelay(),
		MaxExtraDelay: cfg.Harvester.MaxExtraDelay(),
	}, fanout, logger)

	channelURL := strings.TrimSuffix(cfg.Channel.BaseURL, "/") + "/" + handle
	logger.Info("harvest starting",
		zap.String("channel", channelURL),
		zap.String("run_id", h.RunID().String()),
	)

	items, results, err := h.Run(ctx, channelURL)
	if err != nil {
		// The archive on disk is untouched at this point; nothing partial
		// has been written.
		var fatalErr *resolver.FatalError
		if errors.As(err, &fatalErr) {
			fmt.Fprintln(os.Stderr, "offending listing entry:")
			fmt.Fprintln(os.Stderr, fatalErr.EntryJSON())
		}
		return fmt.Errorf("harvest aborted: %w", err)
	}
	if len(items) == 0 {
		return errors.New("no videos could be resolved")
	}

	outPath := filepath.Join(cfg.Output.Dir, "archives_"+handle+".json")
	collection, err := archive.NewStore(logger).Save(outPath, items)
	if err != nil {
		return fmt.Errorf("save archive: %w", err)
	}

	printHarvestSummary(results, collection, outPath)
	printSampleItems(items, 3)
	logger.Info("harvest finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("resolved", len(items)),
		zap.Int("total_videos", collection.TotalVideos),
	)
	return nil
}

func printHarvestSummary(results []harvester.CategoryResult, collection archive.Collection, outPath string) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Category", "Listed", "Resolved", "Fell back", "Status"})
	for _, result := range results {
		status := "ok"
		if result.Err != nil {
			status = "enumeration failed"
		}
		tw.AppendRow(table.Row{
			result.Category,
			strconv.Itoa(result.Listed),
			strconv.Itoa(result.Resolved),
			strconv.Itoa(result.FellBack),
			status,
		})
	}
	tw.AppendFooter(table.Row{"archive", "", "", strconv.Itoa(collection.TotalVideos) + " total", outPath})
	tw.Render()
}

func printSampleItems(items []archive.Item, count int) {
	if count > len(items) {
		count = len(items)
	}
	for i := 0; i < count; i++ {
		item := items[i]
		fmt.Printf("%d. %s\n   ID: %s\n   %s\n", i+1, item.Title, item.VideoID, item.Description)
	}
	if rest := len(items) - count; rest > 0 {
		fmt.Printf("... and %d more videos updated\n", rest)
	}
}
