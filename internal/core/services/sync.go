package services

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/joshlevylabs/gitscribe/internal/chunker"
	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driving"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// FetchBatchSize is the number of concurrent blob fetches per batch.
const FetchBatchSize = 10

// EmbedBatchSize is the number of chunks sent per embedding call.
const EmbedBatchSize = 50

// SyncOrchestrator coordinates repository synchronisation: tree
// discovery, blob fetching, chunking, embedding, and progress tracking.
// Exclusivity is enforced at repository-id granularity only.
type SyncOrchestrator struct {
	repoStore  driven.RepositoryStore
	fileStore  driven.FileStore
	chunkStore driven.ChunkStore
	gitHost    driven.GitHostClient
	splitter   *chunker.Chunker
	embedder   driven.EmbeddingService // optional
	generator  driving.DocGenerator    // optional

	mu     sync.Mutex
	active map[string]bool
}

// NewSyncOrchestrator creates a new sync orchestrator.
// The embedder is optional - when nil, chunks are stored without vectors.
func NewSyncOrchestrator(
	repoStore driven.RepositoryStore,
	fileStore driven.FileStore,
	chunkStore driven.ChunkStore,
	gitHost driven.GitHostClient,
	splitter *chunker.Chunker,
	embedder driven.EmbeddingService,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		repoStore:  repoStore,
		fileStore:  fileStore,
		chunkStore: chunkStore,
		gitHost:    gitHost,
		splitter:   splitter,
		embedder:   embedder,
		active:     make(map[string]bool),
	}
}

// SetDocGenerator configures an optional documentation generation step
// run once indexing and embedding complete.
func (o *SyncOrchestrator) SetDocGenerator(g driving.DocGenerator) {
	o.generator = g
}

// Sync runs a full synchronisation for the repository and blocks until
// it completes or fails.
func (o *SyncOrchestrator) Sync(ctx context.Context, repoID string) error {
	repo, err := o.repoStore.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}

	if !o.acquire(repoID) {
		return fmt.Errorf("%w: repository %s", domain.ErrSyncInProgress, repoID)
	}
	defer o.release(repoID)

	return o.run(ctx, repo)
}

// StartSync marks the repository SYNCING and launches the work in the
// background. The caller polls progress via the persisted record.
func (o *SyncOrchestrator) StartSync(ctx context.Context, repoID string) error {
	repo, err := o.repoStore.Get(ctx, repoID)
	if err != nil {
		return fmt.Errorf("get repository: %w", err)
	}

	if !o.acquire(repoID) {
		return fmt.Errorf("%w: repository %s", domain.ErrSyncInProgress, repoID)
	}

	repo.Progress = domain.SyncProgress{Stage: domain.StageDiscovering}
	if err := o.markStatus(ctx, repo, domain.StatusSyncing); err != nil {
		o.release(repoID)
		return err
	}

	// Detach from the triggering request's lifetime.
	go func() {
		defer o.release(repoID)
		if err := o.run(context.Background(), repo); err != nil {
			logger.Warn("Background sync of %s failed: %v", repo.FullName(), err)
		}
	}()

	return nil
}

// run executes the sync pipeline. The caller must hold the repository's
// exclusivity slot. On any failure the repository is marked ERROR with
// the captured message and partial data is left in place.
func (o *SyncOrchestrator) run(ctx context.Context, repo *domain.Repository) error {
	repo.Progress = domain.SyncProgress{Stage: domain.StageDiscovering}
	if err := o.markStatus(ctx, repo, domain.StatusSyncing); err != nil {
		return err
	}

	logger.Info("Starting sync for %s (branch %s)", repo.FullName(), repo.Branch)

	sha, err := o.doSync(ctx, repo)
	if err != nil {
		repo.Progress.LastError = err.Error()
		if saveErr := o.markStatus(ctx, repo, domain.StatusError); saveErr != nil {
			logger.Warn("Failed to record sync error for %s: %v", repo.ID, saveErr)
		}
		return err
	}

	repo.LastCommitSHA = sha
	repo.Progress = domain.SyncProgress{}
	if err := o.markStatus(ctx, repo, domain.StatusSynced); err != nil {
		return err
	}

	logger.Info("Sync complete for %s at %s", repo.FullName(), sha)
	return nil
}

// markStatus persists a status change, enforcing the transition rules.
// A same-status write is allowed so StartSync and run can both mark
// SYNCING without tripping the machine.
func (o *SyncOrchestrator) markStatus(ctx context.Context, repo *domain.Repository, next domain.SyncStatus) error {
	if repo.Status != next && !repo.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: repository %s cannot move from %s to %s",
			domain.ErrInvalidInput, repo.ID, repo.Status, next)
	}
	repo.Status = next
	if err := o.repoStore.Save(ctx, repo); err != nil {
		return fmt.Errorf("save repository: %w", err)
	}
	return nil
}

// doSync performs the staged pipeline and returns the synced commit SHA.
func (o *SyncOrchestrator) doSync(ctx context.Context, repo *domain.Repository) (string, error) {
	// 1. Resolve branch head and full recursive tree
	sha, err := o.gitHost.GetBranchHead(ctx, repo.Owner, repo.Name, repo.Branch)
	if err != nil {
		return "", fmt.Errorf("get branch head: %w", err)
	}

	entries, err := o.gitHost.GetTree(ctx, repo.Owner, repo.Name, sha)
	if err != nil {
		return "", fmt.Errorf("get tree: %w", err)
	}

	// 2. Filter to indexable files
	indexable := make([]driven.TreeEntry, 0, len(entries))
	for _, entry := range entries {
		if Indexable(entry.Path, entry.Size) {
			indexable = append(indexable, entry)
		}
	}

	repo.Progress = domain.SyncProgress{
		Stage:      domain.StageIndexing,
		TotalCount: len(indexable),
	}
	if err := o.repoStore.Save(ctx, repo); err != nil {
		return "", fmt.Errorf("save progress: %w", err)
	}

	// 3. Full-replace semantics: wipe prior chunks and file records
	if err := o.chunkStore.DeleteChunks(ctx, repo.ID); err != nil {
		return "", fmt.Errorf("delete chunks: %w", err)
	}
	if err := o.fileStore.DeleteFiles(ctx, repo.ID); err != nil {
		return "", fmt.Errorf("delete file records: %w", err)
	}

	// 4. Fetch, decode, and chunk in bounded concurrent batches
	chunks, err := o.indexFiles(ctx, repo, indexable)
	if err != nil {
		return "", err
	}

	// 5. Embed; failures degrade to vector-less chunks
	repo.Progress.Stage = domain.StageEmbedding
	if err := o.repoStore.Save(ctx, repo); err != nil {
		return "", fmt.Errorf("save progress: %w", err)
	}
	o.embedChunks(ctx, chunks)

	for start := 0; start < len(chunks); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		if err := o.chunkStore.SaveChunks(ctx, chunks[start:end]); err != nil {
			return "", fmt.Errorf("save chunks: %w", err)
		}
	}

	// 6. Optional documentation generation
	if o.generator != nil {
		repo.Progress.Stage = domain.StageGeneratingDocs
		if err := o.repoStore.Save(ctx, repo); err != nil {
			return "", fmt.Errorf("save progress: %w", err)
		}
		if _, err := o.generator.Generate(ctx, repo.ID); err != nil {
			return "", fmt.Errorf("generate docs: %w", err)
		}
	}

	return sha, nil
}

// indexFiles fetches blobs in fixed-size concurrent batches, upserts
// file records, and returns the accumulated chunks. A single file's
// failure is logged and skipped; it never aborts the batch or the sync.
func (o *SyncOrchestrator) indexFiles(
	ctx context.Context,
	repo *domain.Repository,
	entries []driven.TreeEntry,
) ([]domain.Chunk, error) {
	var all []domain.Chunk

	for start := 0; start < len(entries); start += FetchBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + FetchBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		records := make([]*domain.FileRecord, 0, len(batch))
		batchChunks := make([]domain.Chunk, 0, len(batch))

		for _, entry := range batch {
			wg.Add(1)
			go func(entry driven.TreeEntry) {
				defer wg.Done()

				content, err := o.gitHost.GetBlob(ctx, repo.Owner, repo.Name, entry.SHA)
				if err != nil {
					logger.Warn("Skipping %s: fetch blob: %v", entry.Path, err)
					return
				}
				if !utf8.Valid(content) {
					logger.Debug("Skipping %s: not valid UTF-8", entry.Path)
					return
				}

				rec := &domain.FileRecord{
					RepoID:        repo.ID,
					Path:          entry.Path,
					ContentHash:   entry.SHA,
					Size:          entry.Size,
					Language:      DetectLanguage(entry.Path),
					LastIndexedAt: time.Now().UTC(),
				}
				split := o.splitter.Split(repo.ID, entry.Path, string(content))

				mu.Lock()
				records = append(records, rec)
				batchChunks = append(batchChunks, split...)
				mu.Unlock()
			}(entry)
		}
		wg.Wait()

		for _, rec := range records {
			if err := o.fileStore.UpsertFile(ctx, rec); err != nil {
				return nil, fmt.Errorf("upsert file record: %w", err)
			}
		}
		all = append(all, batchChunks...)

		// Batch boundaries are checkpoint boundaries
		repo.Progress.ProcessedCount += len(batch)
		if err := o.repoStore.Save(ctx, repo); err != nil {
			return nil, fmt.Errorf("save progress: %w", err)
		}
	}

	return all, nil
}

// embedChunks fills embedding vectors in place, batched. A failed batch
// leaves its chunks without vectors rather than discarding them.
func (o *SyncOrchestrator) embedChunks(ctx context.Context, chunks []domain.Chunk) {
	if o.embedder == nil || len(chunks) == 0 {
		return
	}

	for start := 0; start < len(chunks); start += EmbedBatchSize {
		end := start + EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Text
		}

		vectors, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			logger.Warn("Embedding batch failed, storing %d chunks without vectors: %v", len(batch), err)
			continue
		}

		for i := range batch {
			if i < len(vectors) {
				batch[i].Embedding = vectors[i]
			}
		}
	}
}

// acquire reserves the repository's exclusivity slot.
func (o *SyncOrchestrator) acquire(repoID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[repoID] {
		return false
	}
	o.active[repoID] = true
	return true
}

// release frees the repository's exclusivity slot.
func (o *SyncOrchestrator) release(repoID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, repoID)
}
