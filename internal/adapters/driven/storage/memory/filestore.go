package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

// Ensure FileStore implements the interface.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore is an in-memory implementation of driven.FileStore.
type FileStore struct {
	mu sync.RWMutex
	// files is keyed by repo ID, then by path.
	files map[string]map[string]domain.FileRecord
}

// NewFileStore creates a new in-memory file store.
func NewFileStore() *FileStore {
	return &FileStore{
		files: make(map[string]map[string]domain.FileRecord),
	}
}

// UpsertFile stores or replaces a file record.
func (s *FileStore) UpsertFile(_ context.Context, rec *domain.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files[rec.RepoID] == nil {
		s.files[rec.RepoID] = make(map[string]domain.FileRecord)
	}
	s.files[rec.RepoID][rec.Path] = *rec
	return nil
}

// ListFiles returns all file records for a repository, sorted by path.
func (s *FileStore) ListFiles(_ context.Context, repoID string) ([]domain.FileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byPath := s.files[repoID]
	result := make([]domain.FileRecord, 0, len(byPath))
	for _, rec := range byPath {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// DeleteFiles removes all file records for a repository.
func (s *FileStore) DeleteFiles(_ context.Context, repoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, repoID)
	return nil
}
