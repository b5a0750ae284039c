package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwygoda/stitcher/internal/adapter/sqlite"
	"github.com/cwygoda/stitcher/internal/batch"
	"github.com/cwygoda/stitcher/internal/config"
	"github.com/cwygoda/stitcher/internal/download"
	"github.com/cwygoda/stitcher/internal/httpx"
	"github.com/cwygoda/stitcher/internal/join"
	xlog "github.com/cwygoda/stitcher/internal/log"
	"github.com/cwygoda/stitcher/internal/manifest"
	"github.com/cwygoda/stitcher/internal/orchestrator"
)

// errAllJobsFailed distinguishes "jobs ran and every one failed" (exit 1)
// from "could not attempt anything" (exit 2).
var errAllJobsFailed = errors.New("all jobs failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errAllJobsFailed) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "stitcher",
		Short:         "Download segmented media streams and stitch them into single files",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			xlog.Configure(xlog.Config{Level: logLevel})
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "stitcher.toml", "Path to TOML configuration")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newHistoryCmd(&configPath))
	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run all configured video jobs in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runBatch(cmd.Context(), cfg)
		},
	}
}

func runBatch(ctx context.Context, cfg *config.Config) error {
	logger := xlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := httpx.NewClient(cfg.HTTP.Timeout.Duration, cfg.HTTP.UserAgent, cfg.HTTP.Headers)

	orch := orchestrator.New(
		orchestrator.Config{
			DownloadsDir: cfg.Paths.Downloads,
			TempDir:      cfg.Paths.Temp,
			ForceExt:     cfg.Download.ForceExt,
			OutputExt:    cfg.Join.OutputExt,
			Workers:      cfg.Download.Workers,
		},
		manifest.NewFetcher(client),
		download.New(client, cfg.Download.MaxAttempts, cfg.Download.RetryDelay.Duration),
		join.New(cfg.Join.FFmpeg),
	)

	// History is best-effort: a broken database must not block downloads.
	runner := batch.New(orch, nil)
	history, err := sqlite.New(cfg.History.Path)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("run history disabled")
	} else {
		defer history.Close()
		runner = batch.New(orch, history)
	}

	results := runner.RunAll(ctx, cfg.Jobs())
	if len(results) == 0 {
		return fmt.Errorf("no jobs were attempted")
	}

	succeeded := 0
	for _, res := range results {
		if !res.Failed() {
			succeeded++
		}
	}
	if succeeded == 0 {
		return errAllJobsFailed
	}
	return nil
}

func newHistoryCmd(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent job runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			history, err := sqlite.New(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer history.Close()

			records, err := history.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSEGMENTS\tREUSED\tFINISHED\tERROR")
			for _, rec := range records {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
					rec.ID, rec.Name, rec.Status, rec.SegmentsTotal, rec.SegmentsReused,
					rec.FinishedAt.Format("2006-01-02 15:04:05"), rec.Error)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}
