package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.gitscribe/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".gitscribe", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RepositoryStore returns a RepositoryStore interface backed by this store.
func (s *Store) RepositoryStore() driven.RepositoryStore {
	return &repositoryStore{store: s}
}

// FileStore returns a FileStore interface backed by this store.
func (s *Store) FileStore() driven.FileStore {
	return &fileStore{store: s}
}

// ChunkStore returns a ChunkStore interface backed by this store.
func (s *Store) ChunkStore() driven.ChunkStore {
	return &chunkStore{store: s}
}

// PageStore returns a PageStore interface backed by this store.
func (s *Store) PageStore() driven.PageStore {
	return &pageStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Repository Store ====================

// repositoryStore implements driven.RepositoryStore.
type repositoryStore struct {
	store *Store
}

var _ driven.RepositoryStore = (*repositoryStore)(nil)

// Save stores or updates a repository.
func (s *repositoryStore) Save(ctx context.Context, repo *domain.Repository) error {
	now := time.Now().UTC()
	if repo.CreatedAt.IsZero() {
		repo.CreatedAt = now
	}
	repo.UpdatedAt = now

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO repositories (id, owner, name, branch, status, stage,
			processed_count, total_count, last_error, last_commit_sha, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			branch = excluded.branch,
			status = excluded.status,
			stage = excluded.stage,
			processed_count = excluded.processed_count,
			total_count = excluded.total_count,
			last_error = excluded.last_error,
			last_commit_sha = excluded.last_commit_sha,
			updated_at = excluded.updated_at
	`, repo.ID, repo.Owner, repo.Name, repo.Branch, repo.Status, repo.Progress.Stage,
		repo.Progress.ProcessedCount, repo.Progress.TotalCount, repo.Progress.LastError,
		repo.LastCommitSHA, repo.CreatedAt, repo.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving repository: %w", err)
	}
	return nil
}

const repositoryColumns = `id, owner, name, branch, status, stage,
	processed_count, total_count, last_error, last_commit_sha, created_at, updated_at`

// Get retrieves a repository by ID.
func (s *repositoryStore) Get(ctx context.Context, id string) (*domain.Repository, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories WHERE id = ?", id)
	return scanRepository(row)
}

// GetByFullName retrieves a repository by owner and name.
func (s *repositoryStore) GetByFullName(ctx context.Context, owner, name string) (*domain.Repository, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories WHERE owner = ? AND name = ?", owner, name)
	return scanRepository(row)
}

// List returns all registered repositories.
func (s *repositoryStore) List(ctx context.Context) ([]domain.Repository, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+repositoryColumns+" FROM repositories ORDER BY owner, name")
	if err != nil {
		return nil, fmt.Errorf("querying repositories: %w", err)
	}
	defer rows.Close()

	var repos []domain.Repository //nolint:prealloc // size unknown from query
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, *repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repositories: %w", err)
	}

	return repos, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanRepository(row scanner) (*domain.Repository, error) {
	var repo domain.Repository
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&repo.ID, &repo.Owner, &repo.Name, &repo.Branch, &repo.Status,
		&repo.Progress.Stage, &repo.Progress.ProcessedCount, &repo.Progress.TotalCount,
		&repo.Progress.LastError, &repo.LastCommitSHA, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning repository: %w", err)
	}
	if createdAt.Valid {
		repo.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		repo.UpdatedAt = updatedAt.Time
	}
	return &repo, nil
}

// ==================== File Store ====================

// fileStore implements driven.FileStore.
type fileStore struct {
	store *Store
}

var _ driven.FileStore = (*fileStore)(nil)

// UpsertFile stores or replaces a file record.
func (s *fileStore) UpsertFile(ctx context.Context, rec *domain.FileRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO file_records (repo_id, path, content_hash, size, language, last_indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, path) DO UPDATE SET
			content_hash = excluded.content_hash,
			size = excluded.size,
			language = excluded.language,
			last_indexed_at = excluded.last_indexed_at
	`, rec.RepoID, rec.Path, rec.ContentHash, rec.Size, rec.Language, rec.LastIndexedAt)

	if err != nil {
		return fmt.Errorf("saving file record: %w", err)
	}
	return nil
}

// ListFiles returns all file records for a repository.
func (s *fileStore) ListFiles(ctx context.Context, repoID string) ([]domain.FileRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT repo_id, path, content_hash, size, language, last_indexed_at
		FROM file_records WHERE repo_id = ?
		ORDER BY path
	`, repoID)
	if err != nil {
		return nil, fmt.Errorf("querying file records: %w", err)
	}
	defer rows.Close()

	var records []domain.FileRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.FileRecord
		var indexedAt sql.NullTime
		if err := rows.Scan(&rec.RepoID, &rec.Path, &rec.ContentHash,
			&rec.Size, &rec.Language, &indexedAt); err != nil {
			return nil, fmt.Errorf("scanning file record: %w", err)
		}
		if indexedAt.Valid {
			rec.LastIndexedAt = indexedAt.Time
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file records: %w", err)
	}

	return records, nil
}

// DeleteFiles removes all file records for a repository.
func (s *fileStore) DeleteFiles(ctx context.Context, repoID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM file_records WHERE repo_id = ?", repoID)
	if err != nil {
		return fmt.Errorf("deleting file records: %w", err)
	}
	return nil
}

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

// SaveChunks stores a batch of chunks atomically.
func (s *chunkStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (repo_id, file_path, chunk_index, id, content, token_count, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, file_path, chunk_index) DO UPDATE SET
			id = excluded.id,
			content = excluded.content,
			token_count = excluded.token_count,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.RepoID, chunk.FilePath, chunk.Index,
			chunk.ID, chunk.Text, chunk.TokenCount, embeddingBlob, string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListChunks returns all chunks for a repository.
func (s *chunkStore) ListChunks(ctx context.Context, repoID string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT repo_id, file_path, chunk_index, id, content, token_count, embedding, metadata
		FROM chunks WHERE repo_id = ?
		ORDER BY file_path, chunk_index
	`, repoID)
}

// ListFileChunks returns the chunks of one file.
func (s *chunkStore) ListFileChunks(ctx context.Context, repoID, filePath string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT repo_id, file_path, chunk_index, id, content, token_count, embedding, metadata
		FROM chunks WHERE repo_id = ? AND file_path = ?
		ORDER BY chunk_index
	`, repoID, filePath)
}

// DeleteChunks removes all chunks for a repository.
func (s *chunkStore) DeleteChunks(ctx context.Context, repoID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE repo_id = ?", repoID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func (s *chunkStore) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON string
		if err := rows.Scan(&chunk.RepoID, &chunk.FilePath, &chunk.Index, &chunk.ID,
			&chunk.Text, &chunk.TokenCount, &embeddingBlob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		if metadataJSON != "" && metadataJSON != "null" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ==================== Page Store ====================

// pageStore implements driven.PageStore.
type pageStore struct {
	store *Store
}

var _ driven.PageStore = (*pageStore)(nil)

// SavePages replaces the stored pages for a repository.
func (s *pageStore) SavePages(ctx context.Context, repoID string, pages []domain.DocumentationPage) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (repo_id, slug, category, title, body, evidence)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, slug) DO UPDATE SET
			category = excluded.category,
			title = excluded.title,
			body = excluded.body,
			evidence = excluded.evidence
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, page := range pages {
		evidenceJSON, err := json.Marshal(page.Evidence)
		if err != nil {
			return fmt.Errorf("marshalling evidence: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, repoID, page.Slug, page.Category,
			page.Title, page.Body, string(evidenceJSON)); err != nil {
			return fmt.Errorf("saving page: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListPages returns all pages for a repository.
func (s *pageStore) ListPages(ctx context.Context, repoID string) ([]domain.DocumentationPage, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT slug, category, title, body, evidence
		FROM pages WHERE repo_id = ?
		ORDER BY slug
	`, repoID)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.DocumentationPage //nolint:prealloc // size unknown from query
	for rows.Next() {
		var page domain.DocumentationPage
		var evidenceJSON string
		if err := rows.Scan(&page.Slug, &page.Category, &page.Title,
			&page.Body, &evidenceJSON); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		if err := json.Unmarshal([]byte(evidenceJSON), &page.Evidence); err != nil {
			return nil, fmt.Errorf("unmarshaling evidence: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}

	return pages, nil
}

// DeletePages removes all pages for a repository.
func (s *pageStore) DeletePages(ctx context.Context, repoID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM pages WHERE repo_id = ?", repoID)
	if err != nil {
		return fmt.Errorf("deleting pages: %w", err)
	}
	return nil
}

// ==================== Embedding Encoding ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
