package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity of the configured services",
	Long: `Validates the GitHub credentials and the embedding backend with
lightweight API calls, and reports which documentation runner strategy
the current configuration selects. Run this before the first sync.`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// credentialValidator checks host API credentials with a live call.
type credentialValidator interface {
	ValidateCredentials(ctx context.Context) error
}

// Doctor check targets, set by ConfigureDoctor.
var (
	doctorGitHost  credentialValidator
	doctorEmbedder driven.EmbeddingService
	doctorRunner   string
)

// ConfigureDoctor provides the services the doctor command probes.
// The embedder may be nil when no provider is configured.
func ConfigureDoctor(gitHost credentialValidator, embedder driven.EmbeddingService, runnerName string) {
	doctorGitHost = gitHost
	doctorEmbedder = embedder
	doctorRunner = runnerName
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ok := true

	if doctorGitHost == nil {
		cmd.Println("GitHub:    not configured")
		ok = false
	} else if err := doctorGitHost.ValidateCredentials(ctx); err != nil {
		cmd.Printf("GitHub:    FAILED (%v)\n", err)
		ok = false
	} else {
		cmd.Println("GitHub:    ok")
	}

	if doctorEmbedder == nil {
		cmd.Println("Embedding: not configured (chunks will be stored without vectors)")
	} else if err := doctorEmbedder.Ping(ctx); err != nil {
		cmd.Printf("Embedding: FAILED (%s: %v)\n", doctorEmbedder.ModelName(), err)
		ok = false
	} else {
		cmd.Printf("Embedding: ok (%s, %d dimensions)\n",
			doctorEmbedder.ModelName(), doctorEmbedder.Dimensions())
	}

	cmd.Printf("Runner:    %s\n", doctorRunner)

	if !ok {
		cmd.Println("\nSome checks failed. Fix the configuration before syncing.")
	}
	return nil
}
