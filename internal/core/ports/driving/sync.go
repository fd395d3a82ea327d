package driving

import (
	"context"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

// SyncOrchestrator coordinates repository synchronisation: file
// discovery, chunking, embedding, and progress tracking.
type SyncOrchestrator interface {
	// Sync runs a full synchronisation for the repository and blocks
	// until it completes or fails. A second concurrent sync on the same
	// repository returns domain.ErrSyncInProgress.
	Sync(ctx context.Context, repoID string) error

	// StartSync marks the repository SYNCING and launches the work in
	// the background, returning immediately. Callers poll progress via
	// the persisted repository record.
	StartSync(ctx context.Context, repoID string) error
}

// DocGenerator drives the LLM documentation runner for a repository
// whose index has been synced.
type DocGenerator interface {
	// Generate produces and persists a documentation bundle.
	Generate(ctx context.Context, repoID string) (*domain.GenerationResult, error)
}
