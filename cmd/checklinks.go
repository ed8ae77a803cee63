package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kita-kara-kita-kocha/nanahapi-history/internal/linkcheck"
)

// newCheckLinksCmd creates and configures the 'checklinks' subcommand.
func newCheckLinksCmd() *cobra.Command {
	var (
		delaySeconds float64
		archivesDir  string
	)

	cmd := &cobra.Command{
		Use:   "checklinks",
		Short: "Probes every archived video URL for dead links",
		Long: `Reads every archives_*.json collection under the archives directory,
probes each video URL, classifies unavailable videos, and writes a report
file listing the broken links when any are found.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheckLinks(cmd, delaySeconds, archivesDir)
		},
	}

	cmd.Flags().Float64Var(&delaySeconds, "delay", 0, "seconds between requests (default from config)")
	cmd.Flags().StringVar(&archivesDir, "dir", "", "archives directory (default from config)")

	return cmd
}

func runCheckLinks(cmd *cobra.Command, delaySeconds float64, archivesDir string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	delay := cfg.LinkCheck.Delay()
	if delaySeconds > 0 {
		delay = time.Duration(delaySeconds * float64(time.Second))
	}
	if archivesDir == "" {
		archivesDir = cfg.LinkCheck.ArchivesDir
	}

	checker := linkcheck.New(linkcheck.Config{
		ArchivesDir: archivesDir,
		Delay:       delay,
	}, logger)

	report, err := checker.Run(ctx)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return fmt.Errorf("link check: %w", err)
	}
	if interrupted {
		logger.Warn("link check interrupted, printing partial results")
	}

	printCheckSummary(report)

	path, err := linkcheck.WriteReport(cfg.LinkCheck.ReportPath, report)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if path != "" {
		logger.Info("report written", zap.String("path", path))
	}
	return nil
}

func printCheckSummary(report linkcheck.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Checked", "OK", "Broken"})
	tw.AppendRow(table.Row{
		strconv.Itoa(report.TotalChecked),
		strconv.Itoa(report.TotalChecked - report.BrokenCount),
		strconv.Itoa(report.BrokenCount),
	})
	tw.Render()

	for i, link := range report.BrokenLinks {
		fmt.Printf("%3d. [%s] %s\n     URL: %s\n     Uploaded: %s\n     Error: %s\n",
			i+1, link.File, link.Title, link.VideoURL, link.UploadDate, link.Error)
	}
}
