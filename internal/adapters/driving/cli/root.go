// Package cli implements the gitscribe command line interface using
// cobra. Commands are registered on the root command in init funcs and
// wired to services through Configure before Execute runs.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driving"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services the commands call. Set by Configure.
var (
	repoService      driving.RepositoryService
	syncOrchestrator driving.SyncOrchestrator
	docGenerator     driving.DocGenerator
	pageVerifier     driving.PageVerifier
	configStore      driven.ConfigStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gitscribe",
	Short: "Generate verified documentation from GitHub repositories",
	Long: `gitscribe indexes GitHub repositories and generates documentation
pages with an LLM, grounding every page in verbatim evidence from the
repository's files.

Typical workflow:
  gitscribe repo add octocat/hello-world
  gitscribe sync <repo-id> --generate
  gitscribe verify <repo-id>`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}

// Deps holds everything the CLI commands need.
type Deps struct {
	RepoService      driving.RepositoryService
	SyncOrchestrator driving.SyncOrchestrator
	DocGenerator     driving.DocGenerator
	PageVerifier     driving.PageVerifier
	ConfigStore      driven.ConfigStore
	Version          string
}

// Configure wires services into the command tree.
func Configure(deps Deps) {
	repoService = deps.RepoService
	syncOrchestrator = deps.SyncOrchestrator
	docGenerator = deps.DocGenerator
	pageVerifier = deps.PageVerifier
	configStore = deps.ConfigStore
	if deps.Version != "" {
		version = deps.Version
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
