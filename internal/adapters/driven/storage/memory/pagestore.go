package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

// Ensure PageStore implements the interface.
var _ driven.PageStore = (*PageStore)(nil)

// PageStore is an in-memory implementation of driven.PageStore.
type PageStore struct {
	mu sync.RWMutex
	// pages is keyed by repo ID, then by slug.
	pages map[string]map[string]domain.DocumentationPage
}

// NewPageStore creates a new in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{
		pages: make(map[string]map[string]domain.DocumentationPage),
	}
}

// SavePages stores or updates pages for a repository.
func (s *PageStore) SavePages(_ context.Context, repoID string, pages []domain.DocumentationPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages[repoID] == nil {
		s.pages[repoID] = make(map[string]domain.DocumentationPage)
	}
	for _, page := range pages {
		s.pages[repoID][page.Slug] = page
	}
	return nil
}

// ListPages returns all pages for a repository, sorted by slug.
func (s *PageStore) ListPages(_ context.Context, repoID string) ([]domain.DocumentationPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bySlug := s.pages[repoID]
	result := make([]domain.DocumentationPage, 0, len(bySlug))
	for _, page := range bySlug {
		result = append(result, page)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Slug < result[j].Slug })
	return result, nil
}

// DeletePages removes all pages for a repository.
func (s *PageStore) DeletePages(_ context.Context, repoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pages, repoID)
	return nil
}
