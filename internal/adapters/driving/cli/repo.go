package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage registered repositories",
	Long: `Register, list, and inspect repositories tracked for documentation.

Examples:
  gitscribe repo add octocat/hello-world
  gitscribe repo add octocat/hello-world --branch develop
  gitscribe repo list`,
}

var repoAddCmd = &cobra.Command{
	Use:   "add <owner/name>",
	Short: "Register a repository for indexing",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoAdd,
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	RunE:  runRepoList,
}

var repoAddBranch string

func init() {
	repoAddCmd.Flags().StringVar(
		&repoAddBranch, "branch", "", "Branch to track (defaults to the repository's default branch)")

	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoListCmd)
	rootCmd.AddCommand(repoCmd)
}

func runRepoAdd(cmd *cobra.Command, args []string) error {
	if repoService == nil {
		return errors.New("repository service not configured")
	}

	owner, name, ok := strings.Cut(args[0], "/")
	if !ok || owner == "" || name == "" {
		return fmt.Errorf("expected owner/name, got %q", args[0])
	}

	repo, err := repoService.Register(context.Background(), owner, name, repoAddBranch)
	if err != nil {
		return fmt.Errorf("registering repository: %w", err)
	}

	cmd.Printf("Registered %s (branch %s)\n", repo.FullName(), repo.Branch)
	cmd.Printf("ID: %s\n", repo.ID)
	return nil
}

func runRepoList(cmd *cobra.Command, _ []string) error {
	if repoService == nil {
		return errors.New("repository service not configured")
	}

	repos, err := repoService.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}

	if len(repos) == 0 {
		cmd.Println("No repositories registered. Use 'gitscribe repo add <owner/name>'.")
		return nil
	}

	for _, repo := range repos {
		line := fmt.Sprintf("%-36s  %-30s  %-8s  %s", repo.ID, repo.FullName(), repo.Branch, repo.Status)
		if repo.Status == domain.StatusSyncing && repo.Progress.TotalCount > 0 {
			line += fmt.Sprintf("  (%s %d/%d)", repo.Progress.Stage,
				repo.Progress.ProcessedCount, repo.Progress.TotalCount)
		}
		if repo.Progress.LastError != "" {
			line += "  " + repo.Progress.LastError
		}
		cmd.Println(line)
	}
	return nil
}
