package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcpdir/ingest-server/internal/batch"
)

var importCmd = &cobra.Command{
	Use:   "import <file | url...>",
	Short: "Bulk import repositories",
	Long: `Run the extraction pipeline over many GitHub repository URLs.

URLs are read either from a newline-delimited file (lines starting with '#'
and blank lines are ignored) or passed directly as arguments. Repositories
already present in the datastore are skipped; one failing repository never
stops the batch. Requests are throttled to respect the host rate limit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Bool("dry-run", false, "Process URLs without persisting entries")
	importCmd.Flags().Duration("interval", 0, "Minimum delay between repositories (overrides config)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to read dry-run flag: %w", err)
	}
	intervalFlag, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("failed to read interval flag: %w", err)
	}

	urls, err := collectURLs(args)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no valid repository URLs found")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	st, err := buildStore(ctx, cfg, dryRun)
	if err != nil {
		return err
	}
	defer st.Close()

	interval := cfg.Import.GetInterval()
	if intervalFlag > 0 {
		interval = intervalFlag
	}

	slog.Info("Starting batch import", "urls", len(urls), "dryRun", dryRun)
	start := time.Now()

	runner := batch.NewRunner(pipeline, st, interval)
	summary, runErr := runner.Run(ctx, urls)

	fmt.Print(summary.Render())
	slog.Info("Batch import finished",
		"succeeded", summary.Succeeded,
		"skipped", summary.Skipped,
		"errors", summary.Errored,
		"duration", time.Since(start))

	if runErr != nil {
		return runErr
	}
	return nil
}

// collectURLs interprets the arguments either as a single URL-list file or
// as explicit repository URLs.
func collectURLs(args []string) ([]string, error) {
	if len(args) == 1 && !strings.HasPrefix(args[0], "http") {
		f, err := os.Open(filepath.Clean(args[0]))
		if err != nil {
			return nil, fmt.Errorf("failed to open URL list file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		return batch.ReadURLList(f)
	}
	return batch.FilterURLArgs(args), nil
}
