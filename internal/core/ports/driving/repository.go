package driving

import (
	"context"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

// RepositoryService manages repository registrations and their GitHub
// webhooks.
type RepositoryService interface {
	// Register adds a repository for indexing. Branch defaults to the
	// repository's default branch when empty.
	Register(ctx context.Context, owner, name, branch string) (*domain.Repository, error)

	// Get retrieves a repository by ID.
	Get(ctx context.Context, id string) (*domain.Repository, error)

	// List returns all registered repositories.
	List(ctx context.Context) ([]domain.Repository, error)

	// InstallHook registers a push webhook on GitHub pointing at
	// callbackURL and returns the hook ID.
	InstallHook(ctx context.Context, repoID, callbackURL, secret string) (int64, error)

	// RemoveHook deletes a previously installed webhook.
	RemoveHook(ctx context.Context, repoID string, hookID int64) error
}

// PageVerifier scores a repository's generated pages against the
// indexed file contents they cite.
type PageVerifier interface {
	// Verify checks every stored page and returns the aggregate.
	Verify(ctx context.Context, repoID string) (*domain.VerificationSummary, error)
}
