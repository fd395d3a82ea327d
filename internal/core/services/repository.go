package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driving"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// Ensure RepositoryService implements the driving port.
var _ driving.RepositoryService = (*RepositoryService)(nil)

// RepositoryService manages repository registrations and webhooks.
type RepositoryService struct {
	repoStore driven.RepositoryStore
	gitHost   driven.GitHostClient
}

// NewRepositoryService wires the service to its store and git host.
func NewRepositoryService(repoStore driven.RepositoryStore, gitHost driven.GitHostClient) *RepositoryService {
	return &RepositoryService{repoStore: repoStore, gitHost: gitHost}
}

// Register adds a repository for indexing. When branch is empty the
// repository's default branch is looked up on the host.
func (s *RepositoryService) Register(ctx context.Context, owner, name, branch string) (*domain.Repository, error) {
	if owner == "" || name == "" {
		return nil, fmt.Errorf("owner and name are required: %w", domain.ErrInvalidInput)
	}

	if existing, err := s.repoStore.GetByFullName(ctx, owner, name); err == nil {
		return nil, fmt.Errorf("repository %s already registered: %w",
			existing.FullName(), domain.ErrAlreadyExists)
	}

	if branch == "" {
		def, err := s.gitHost.GetDefaultBranch(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("resolving default branch: %w", err)
		}
		branch = def
	}

	repo := &domain.Repository{
		ID:     uuid.NewString(),
		Owner:  owner,
		Name:   name,
		Branch: branch,
		Status: domain.StatusPending,
	}
	if err := repo.Validate(); err != nil {
		return nil, err
	}

	if err := s.repoStore.Save(ctx, repo); err != nil {
		return nil, fmt.Errorf("saving repository: %w", err)
	}

	logger.Info("Registered repository %s (branch %s)", repo.FullName(), branch)
	return repo, nil
}

// Get retrieves a repository by ID.
func (s *RepositoryService) Get(ctx context.Context, id string) (*domain.Repository, error) {
	return s.repoStore.Get(ctx, id)
}

// List returns all registered repositories.
func (s *RepositoryService) List(ctx context.Context) ([]domain.Repository, error) {
	return s.repoStore.List(ctx)
}

// InstallHook registers a push webhook on the host.
func (s *RepositoryService) InstallHook(ctx context.Context, repoID, callbackURL, secret string) (int64, error) {
	if callbackURL == "" || secret == "" {
		return 0, fmt.Errorf("callback URL and secret are required: %w", domain.ErrInvalidInput)
	}

	repo, err := s.repoStore.Get(ctx, repoID)
	if err != nil {
		return 0, fmt.Errorf("loading repository: %w", err)
	}

	hookID, err := s.gitHost.CreateWebhook(ctx, repo.Owner, repo.Name, callbackURL, secret)
	if err != nil {
		return 0, fmt.Errorf("creating webhook: %w", err)
	}

	logger.Info("Installed webhook %d on %s", hookID, repo.FullName())
	return hookID, nil
}

// RemoveHook deletes a previously installed webhook.
func (s *RepositoryService) RemoveHook(ctx context.Context, repoID string, hookID int64) error {
	repo, err := s.repoStore.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("loading repository: %w", err)
	}

	if err := s.gitHost.DeleteWebhook(ctx, repo.Owner, repo.Name, hookID); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}

	logger.Info("Removed webhook %d from %s", hookID, repo.FullName())
	return nil
}
