package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcpdir/ingest-server/internal/store"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <repository-url>",
	Short: "Ingest a single repository",
	Long: `Run the extraction pipeline for one GitHub repository URL and persist
the resulting server entry. Prints the canonical record as JSON on success.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().Bool("dry-run", false, "Extract and print the entry without persisting it")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to read dry-run flag: %w", err)
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

	rawURL := args[0]

	entry, err := pipeline.Ingest(ctx, rawURL)
	if err != nil {
		return fmt.Errorf("failed to process repository %s: %w", rawURL, err)
	}

	if err := st.Insert(ctx, entry); err != nil {
		if errors.Is(err, store.ErrDuplicateEntry) {
			return fmt.Errorf("this repository has already been submitted: %s", entry.GithubURL)
		}
		return fmt.Errorf("failed to persist entry: %w", err)
	}

	output, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format entry: %w", err)
	}
	fmt.Println(string(output))

	return nil
}
