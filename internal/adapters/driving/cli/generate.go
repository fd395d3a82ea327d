package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <repo-id>",
	Short: "Generate documentation for a synced repository",
	Long: `Runs the documentation model over a repository's indexed files and
stores the resulting pages. The repository must have been synced first.

The model backend is chosen from configuration: a configured CLI path
runs a local agent binary, an API key streams from the hosted API, and
with neither a deterministic fixture backend is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if docGenerator == nil {
		return errors.New("doc generator not configured")
	}

	result, err := docGenerator.Generate(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if result.Summary != "" {
		cmd.Println(result.Summary)
		cmd.Println()
	}
	printGenerationResult(cmd, result)
	return nil
}
