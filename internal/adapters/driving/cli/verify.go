package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <repo-id>",
	Short: "Verify generated documentation against the index",
	Long: `Checks every evidence excerpt cited by the repository's
documentation pages against the indexed file contents and prints a
per-page score. Pages with fabricated or drifted evidence are flagged
for review.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	if pageVerifier == nil {
		return errors.New("page verifier not configured")
	}

	summary, err := pageVerifier.Verify(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	for _, result := range summary.Results {
		flag := ""
		if result.NeedsReview {
			flag = "  NEEDS REVIEW"
		}
		cmd.Printf("%-40s %5.1f  (%d/%d evidence verified)%s\n",
			result.Slug, result.Score, result.VerifiedCount, result.EvidenceCount, flag)
		for _, issue := range result.Issues {
			cmd.Printf("    [%s] %s\n", issue.Severity, issue.Message)
		}
	}

	cmd.Printf("\nOverall: %.1f across %d pages (%d need review)\n",
		summary.OverallScore, summary.TotalPages, summary.PagesNeedingReview)

	return nil
}
