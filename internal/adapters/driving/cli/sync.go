package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync <repo-id>",
	Short: "Synchronise a repository's index",
	Long: `Fetches the repository tree, indexes and embeds its files, and
updates the stored progress record. With --generate, documentation is
generated as the final sync stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

var syncGenerate bool

func init() {
	syncCmd.Flags().BoolVar(&syncGenerate, "generate", false, "Generate documentation after indexing")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	repoID := args[0]
	ctx := context.Background()

	cmd.Printf("Synchronising %s...\n", repoID)

	if err := syncWithProgress(ctx, cmd, repoID); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if syncGenerate {
		if docGenerator == nil {
			return errors.New("doc generator not configured")
		}
		cmd.Println("Generating documentation...")
		result, err := docGenerator.Generate(ctx, repoID)
		if err != nil {
			return fmt.Errorf("generation failed: %w", err)
		}
		printGenerationResult(cmd, result)
	}

	cmd.Println("Done.")
	return nil
}

// syncWithProgress runs sync while polling the stored progress record.
func syncWithProgress(ctx context.Context, cmd *cobra.Command, repoID string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- syncOrchestrator.Sync(ctx, repoID)
	}()

	// Poll progress every 500ms
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	var lastStage domain.SyncStage
	lastCount := 0
	for {
		select {
		case err := <-errCh:
			if lastCount > 0 {
				cmd.Println()
			}
			return err
		case <-ticker.C:
			// Best effort; progress display only
			repo, err := repoService.Get(ctx, repoID)
			if err != nil {
				continue
			}
			p := repo.Progress
			if p.Stage != lastStage || p.ProcessedCount > lastCount {
				cmd.Printf("\r%s: %d/%d files", p.Stage, p.ProcessedCount, p.TotalCount)
				lastStage = p.Stage
				lastCount = p.ProcessedCount
			}
		}
	}
}

func printGenerationResult(cmd *cobra.Command, result *domain.GenerationResult) {
	cmd.Printf("Generated %d pages.\n", len(result.Pages))
	for _, page := range result.Pages {
		cmd.Printf("  %-12s %s\n", page.Category, page.Slug)
	}
	for _, warning := range result.Warnings {
		cmd.Printf("Warning: %s\n", warning)
	}
	for _, path := range result.NeedsMoreFiles {
		cmd.Printf("Model requested file: %s\n", path)
	}
}
