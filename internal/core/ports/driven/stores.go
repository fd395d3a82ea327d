package driven

import (
	"context"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

// RepositoryStore persists registered repositories and their sync
// progress records.
type RepositoryStore interface {
	// Save stores or updates a repository.
	Save(ctx context.Context, repo *domain.Repository) error

	// Get retrieves a repository by ID.
	Get(ctx context.Context, id string) (*domain.Repository, error)

	// GetByFullName retrieves a repository by "owner/name".
	GetByFullName(ctx context.Context, owner, name string) (*domain.Repository, error)

	// List returns all registered repositories.
	List(ctx context.Context) ([]domain.Repository, error)
}

// FileStore persists file records, keyed on (repo_id, path).
type FileStore interface {
	// UpsertFile stores or replaces a file record.
	UpsertFile(ctx context.Context, rec *domain.FileRecord) error

	// ListFiles returns all file records for a repository.
	ListFiles(ctx context.Context, repoID string) ([]domain.FileRecord, error)

	// DeleteFiles removes all file records for a repository.
	DeleteFiles(ctx context.Context, repoID string) error
}

// ChunkStore persists chunks, keyed on (repo_id, file_path, chunk_index).
type ChunkStore interface {
	// SaveChunks stores a batch of chunks atomically.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// ListChunks returns all chunks for a repository, ordered by
	// (file_path, chunk_index).
	ListChunks(ctx context.Context, repoID string) ([]domain.Chunk, error)

	// ListFileChunks returns the chunks of one file, ordered by
	// chunk_index.
	ListFileChunks(ctx context.Context, repoID, filePath string) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks for a repository.
	DeleteChunks(ctx context.Context, repoID string) error
}

// PageStore persists generated documentation pages, keyed on
// (repo_id, slug).
type PageStore interface {
	// SavePages replaces the stored pages for a repository.
	SavePages(ctx context.Context, repoID string, pages []domain.DocumentationPage) error

	// ListPages returns all pages for a repository.
	ListPages(ctx context.Context, repoID string) ([]domain.DocumentationPage, error)

	// DeletePages removes all pages for a repository.
	DeletePages(ctx context.Context, repoID string) error
}
