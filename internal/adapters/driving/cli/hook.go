package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage GitHub push webhooks",
	Long: `Install or remove the push webhook that triggers automatic syncs.

The callback URL must point at a running 'gitscribe serve' instance,
and the secret must match its --webhook-secret.

Examples:
  gitscribe hook add <repo-id> --url https://ci.example.com/webhook/github --secret s3cret
  gitscribe hook remove <repo-id> <hook-id>`,
}

var hookAddCmd = &cobra.Command{
	Use:   "add <repo-id>",
	Short: "Install a push webhook on GitHub",
	Args:  cobra.ExactArgs(1),
	RunE:  runHookAdd,
}

var hookRemoveCmd = &cobra.Command{
	Use:   "remove <repo-id> <hook-id>",
	Short: "Remove a push webhook from GitHub",
	Args:  cobra.ExactArgs(2),
	RunE:  runHookRemove,
}

var (
	hookAddURL    string
	hookAddSecret string
)

func init() {
	hookAddCmd.Flags().StringVar(&hookAddURL, "url", "", "Webhook callback URL (required)")
	hookAddCmd.Flags().StringVar(&hookAddSecret, "secret", "", "Shared webhook secret (required)")
	hookAddCmd.MarkFlagRequired("url")    //nolint:errcheck
	hookAddCmd.MarkFlagRequired("secret") //nolint:errcheck

	hookCmd.AddCommand(hookAddCmd)
	hookCmd.AddCommand(hookRemoveCmd)
	rootCmd.AddCommand(hookCmd)
}

func runHookAdd(cmd *cobra.Command, args []string) error {
	if repoService == nil {
		return errors.New("repository service not configured")
	}

	hookID, err := repoService.InstallHook(context.Background(), args[0], hookAddURL, hookAddSecret)
	if err != nil {
		return fmt.Errorf("installing webhook: %w", err)
	}

	cmd.Printf("Installed webhook %d\n", hookID)
	return nil
}

func runHookRemove(cmd *cobra.Command, args []string) error {
	if repoService == nil {
		return errors.New("repository service not configured")
	}

	hookID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid hook ID %q", args[1])
	}

	if err := repoService.RemoveHook(context.Background(), args[0], hookID); err != nil {
		return fmt.Errorf("removing webhook: %w", err)
	}

	cmd.Printf("Removed webhook %d\n", hookID)
	return nil
}
