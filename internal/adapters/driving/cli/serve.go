package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshlevylabs/gitscribe/internal/adapters/driving/webhook"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Starts the HTTP server that receives GitHub push webhooks and
triggers background syncs for registered repositories.

The secret must match the one passed to 'gitscribe hook add'.`,
	RunE: runServe,
}

var (
	serveAddr   string
	serveSecret string
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8700", "Listen address")
	serveCmd.Flags().StringVar(&serveSecret, "webhook-secret", "", "Shared webhook secret (falls back to config key webhook.secret)")
	rootCmd.AddCommand(serveCmd)
}

// serveRepoStore is set by ConfigureServe so the webhook server can
// resolve pushed repositories.
var serveRepoStore driven.RepositoryStore

// ConfigureServe provides the repository store the webhook server needs.
func ConfigureServe(repoStore driven.RepositoryStore) {
	serveRepoStore = repoStore
}

// webhookSecret resolves the shared secret: the flag wins, then the
// config key webhook.secret.
func webhookSecret() string {
	if serveSecret != "" {
		return serveSecret
	}
	if configStore != nil {
		return configStore.GetString("webhook.secret")
	}
	return ""
}

func runServe(cmd *cobra.Command, _ []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}
	if serveRepoStore == nil {
		return errors.New("repository store not configured")
	}

	secret := webhookSecret()
	if secret == "" {
		return errors.New("webhook secret required (--webhook-secret or config key webhook.secret)")
	}

	srv := webhook.NewServer(serveAddr, secret, serveRepoStore, syncOrchestrator)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		cmd.Printf("Received %s, shutting down\n", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
