// Command gitscribe indexes GitHub repositories and generates
// evidence-backed documentation for them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/config/file"
	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/embedding/ollama"
	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/embedding/openai"
	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/storage/sqlite"
	"github.com/joshlevylabs/gitscribe/internal/adapters/driving/cli"
	"github.com/joshlevylabs/gitscribe/internal/chunker"
	"github.com/joshlevylabs/gitscribe/internal/connectors/github"
	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
	"github.com/joshlevylabs/gitscribe/internal/core/services"
	"github.com/joshlevylabs/gitscribe/internal/docgen"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := file.NewConfigStore(os.Getenv("GITSCRIBE_CONFIG_DIR"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	store, err := sqlite.NewStore(cfg.GetString("storage.data_dir"))
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer store.Close()

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		token = cfg.GetString("github.token")
	}
	gitHost := github.NewClient(ctx, token)

	embedder := buildEmbedder(cfg)
	if embedder != nil {
		defer embedder.Close()
	}

	splitter := chunker.New()

	repoStore := store.RepositoryStore()
	fileStore := store.FileStore()
	chunkStore := store.ChunkStore()
	pageStore := store.PageStore()

	runner := docgen.NewRunner(mustStrategy(cfg), runnerConfig(cfg), progressPrinter())

	generator := services.NewDocGenerator(repoStore, fileStore, chunkStore, pageStore, runner)
	verifier := services.NewPageVerifier(repoStore, fileStore, chunkStore, pageStore)
	repoService := services.NewRepositoryService(repoStore, gitHost)

	orchestrator := services.NewSyncOrchestrator(repoStore, fileStore, chunkStore, gitHost, splitter, embedder)
	orchestrator.SetDocGenerator(generator)

	cli.Configure(cli.Deps{
		RepoService:      repoService,
		SyncOrchestrator: orchestrator,
		DocGenerator:     generator,
		PageVerifier:     verifier,
		ConfigStore:      cfg,
		Version:          version,
	})
	cli.ConfigureServe(repoStore)
	cli.ConfigureDoctor(gitHost, embedder, docgen.SelectStrategyName(runnerConfig(cfg)))

	return cli.Execute()
}

// buildEmbedder picks the embedding backend from configuration. With
// no provider configured syncs still run, storing vector-less chunks.
func buildEmbedder(cfg driven.ConfigStore) driven.EmbeddingService {
	provider := cfg.GetString("embedding.provider")
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = cfg.GetString("embedding.api_key")
	}

	switch provider {
	case "openai":
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
		if err != nil {
			logger.Warn("OpenAI embedding unavailable: %v", err)
			return nil
		}
		return svc
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	case "":
		if apiKey != "" {
			svc, err := openai.NewEmbeddingService(openai.Config{APIKey: apiKey})
			if err == nil {
				return svc
			}
		}
		return nil
	default:
		logger.Warn("Unknown embedding provider %q, continuing without embeddings", provider)
		return nil
	}
}

// runnerConfig reads the documentation runner settings.
func runnerConfig(cfg driven.ConfigStore) docgen.RunnerConfig {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		apiKey = cfg.GetString("docs.api_key")
	}

	rc := docgen.RunnerConfig{
		Strategy:  cfg.GetString("docs.runner"),
		CLIPath:   cfg.GetString("docs.cli_path"),
		CLIArgs:   cfg.GetStringSlice("docs.cli_args"),
		APIKey:    apiKey,
		BaseURL:   cfg.GetString("docs.base_url"),
		Model:     cfg.GetString("docs.model"),
		MaxTokens: cfg.GetInt("docs.max_tokens"),
	}
	if secs := cfg.GetInt("docs.timeout_seconds"); secs > 0 {
		rc.Timeout = time.Duration(secs) * time.Second
	}
	return rc
}

func mustStrategy(cfg driven.ConfigStore) docgen.Strategy {
	rc := runnerConfig(cfg)
	strategy, err := docgen.NewStrategy(rc)
	if err != nil {
		// Misconfiguration surfaces immediately rather than at first use
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	return strategy
}

// progressPrinter reports runner progress through the verbose logger.
func progressPrinter() docgen.ProgressFunc {
	return func(p domain.RunnerProgress) {
		logger.Debug("Runner %s: %s (%d pages, %s elapsed)",
			p.Stage, p.Message, p.PagesSoFar, p.Elapsed.Round(time.Second))
	}
}
