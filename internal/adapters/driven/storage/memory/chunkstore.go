package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu sync.RWMutex
	// chunks is keyed by repo ID.
	chunks map[string][]domain.Chunk
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[string][]domain.Chunk),
	}
}

// SaveChunks stores a batch of chunks.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		s.chunks[chunk.RepoID] = append(s.chunks[chunk.RepoID], chunk)
	}
	return nil
}

// ListChunks returns all chunks for a repository, ordered by
// (file_path, chunk_index).
func (s *ChunkStore) ListChunks(_ context.Context, repoID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := append([]domain.Chunk(nil), s.chunks[repoID]...)
	sortChunks(result)
	return result, nil
}

// ListFileChunks returns the chunks of one file, ordered by chunk_index.
func (s *ChunkStore) ListFileChunks(_ context.Context, repoID, filePath string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.Chunk
	for _, chunk := range s.chunks[repoID] {
		if chunk.FilePath == filePath {
			result = append(result, chunk)
		}
	}
	sortChunks(result)
	return result, nil
}

// DeleteChunks removes all chunks for a repository.
func (s *ChunkStore) DeleteChunks(_ context.Context, repoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, repoID)
	return nil
}

func sortChunks(chunks []domain.Chunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].FilePath != chunks[j].FilePath {
			return chunks[i].FilePath < chunks[j].FilePath
		}
		return chunks[i].Index < chunks[j].Index
	})
}
