// Package memory provides in-memory implementations of the driven
// store ports, used in tests and as a lightweight backend.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

// Ensure RepositoryStore implements the interface.
var _ driven.RepositoryStore = (*RepositoryStore)(nil)

// RepositoryStore is an in-memory implementation of driven.RepositoryStore.
type RepositoryStore struct {
	mu    sync.RWMutex
	repos map[string]domain.Repository
}

// NewRepositoryStore creates a new in-memory repository store.
func NewRepositoryStore() *RepositoryStore {
	return &RepositoryStore{
		repos: make(map[string]domain.Repository),
	}
}

// Save stores or updates a repository.
func (s *RepositoryStore) Save(_ context.Context, repo *domain.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = now
	}
	repo.UpdatedAt = now
	s.repos[repo.ID] = *repo
	return nil
}

// Get retrieves a repository by ID.
func (s *RepositoryStore) Get(_ context.Context, id string) (*domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	repo, ok := s.repos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &repo, nil
}

// GetByFullName retrieves a repository by owner and name.
func (s *RepositoryStore) GetByFullName(_ context.Context, owner, name string) (*domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, repo := range s.repos {
		if repo.Owner == owner && repo.Name == name {
			return &repo, nil
		}
	}
	return nil, domain.ErrNotFound
}

// List returns all registered repositories.
func (s *RepositoryStore) List(_ context.Context) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Repository, 0, len(s.repos))
	for _, repo := range s.repos {
		result = append(result, repo)
	}
	return result, nil
}
