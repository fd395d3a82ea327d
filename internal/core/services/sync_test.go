package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/storage/memory"
	"github.com/joshlevylabs/gitscribe/internal/chunker"
	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
)

// --- Mock implementations for sync testing ---

// syncMockGitHost implements driven.GitHostClient for testing.
type syncMockGitHost struct {
	defaultBranch string
	headSHA       string
	headErr       error
	tree          []driven.TreeEntry
	treeErr       error
	blobs         map[string][]byte
	blobErrs      map[string]error

	// headBlock, when set, is received from inside GetBranchHead so a
	// test can hold a sync mid-flight. headEntered, when set, gets a
	// non-blocking send first so the test knows the sync is inside.
	headBlock   chan struct{}
	headEntered chan struct{}
}

func (m *syncMockGitHost) GetDefaultBranch(_ context.Context, _, _ string) (string, error) {
	if m.defaultBranch == "" {
		return "main", nil
	}
	return m.defaultBranch, nil
}

func (m *syncMockGitHost) GetBranchHead(_ context.Context, _, _, _ string) (string, error) {
	if m.headEntered != nil {
		select {
		case m.headEntered <- struct{}{}:
		default:
		}
	}
	if m.headBlock != nil {
		<-m.headBlock
	}
	if m.headErr != nil {
		return "", m.headErr
	}
	return m.headSHA, nil
}

func (m *syncMockGitHost) GetTree(_ context.Context, _, _, _ string) ([]driven.TreeEntry, error) {
	if m.treeErr != nil {
		return nil, m.treeErr
	}
	return m.tree, nil
}

func (m *syncMockGitHost) GetBlob(_ context.Context, _, _, sha string) ([]byte, error) {
	if err, ok := m.blobErrs[sha]; ok {
		return nil, err
	}
	content, ok := m.blobs[sha]
	if !ok {
		return nil, errors.New("blob not found")
	}
	return content, nil
}

func (m *syncMockGitHost) CreateWebhook(_ context.Context, _, _, _, _ string) (int64, error) {
	return 42, nil
}

func (m *syncMockGitHost) DeleteWebhook(_ context.Context, _, _ string, _ int64) error {
	return nil
}

// syncMockEmbedder implements driven.EmbeddingService for testing.
type syncMockEmbedder struct {
	err   error
	calls int
}

func (m *syncMockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{0.1, 0.2, 0.3}
	}
	return vectors, nil
}

func (m *syncMockEmbedder) Dimensions() int              { return 3 }
func (m *syncMockEmbedder) ModelName() string            { return "mock" }
func (m *syncMockEmbedder) Ping(_ context.Context) error { return nil }
func (m *syncMockEmbedder) Close() error                 { return nil }

// syncMockGenerator implements driving.DocGenerator for testing.
type syncMockGenerator struct {
	err   error
	calls int
}

func (m *syncMockGenerator) Generate(_ context.Context, _ string) (*domain.GenerationResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &domain.GenerationResult{Summary: "ok"}, nil
}

func newTestRepo(t *testing.T, store driven.RepositoryStore) *domain.Repository {
	t.Helper()
	repo := &domain.Repository{
		ID:     "repo-1",
		Owner:  "octocat",
		Name:   "hello-world",
		Branch: "main",
		Status: domain.StatusPending,
	}
	require.NoError(t, store.Save(context.Background(), repo))
	return repo
}

func TestSyncOrchestrator_Sync_Success(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	fileStore := memory.NewFileStore()
	chunkStore := memory.NewChunkStore()
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		tree: []driven.TreeEntry{
			{Path: "main.go", SHA: "blob-1", Size: 24},
			{Path: "README.md", SHA: "blob-2", Size: 18},
			{Path: "big.go", SHA: "blob-3", Size: 2 << 20},     // over size cap
			{Path: "logo.png", SHA: "blob-4", Size: 100},       // binary extension
			{Path: "vendor/lib.go", SHA: "blob-5", Size: 1024}, // vendored
		},
		blobs: map[string][]byte{
			"blob-1": []byte("package main\n\nfunc main() {}\n"),
			"blob-2": []byte("# hello-world\n\nDemo.\n"),
		},
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, fileStore, chunkStore, gitHost, chunker.New(), nil)
	require.NoError(t, orchestrator.Sync(ctx, repo.ID))

	// Repository marked SYNCED with the head SHA and cleared progress
	updated, err := repoStore.Get(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, updated.Status)
	assert.Equal(t, "abc123", updated.LastCommitSHA)
	assert.Empty(t, updated.Progress.LastError)
	assert.Zero(t, updated.Progress.TotalCount)

	// Only the two indexable files were recorded
	files, err := fileStore.ListFiles(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "README.md", files[0].Path)
	assert.Equal(t, "main.go", files[1].Path)
	assert.Equal(t, "go", files[1].Language)

	chunks, err := chunkStore.ListChunks(ctx, repo.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Nil(t, chunk.Embedding) // no embedder configured
	}
}

func TestSyncOrchestrator_Sync_WithEmbeddings(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	fileStore := memory.NewFileStore()
	chunkStore := memory.NewChunkStore()
	embedder := &syncMockEmbedder{}
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		tree:    []driven.TreeEntry{{Path: "main.go", SHA: "blob-1", Size: 24}},
		blobs:   map[string][]byte{"blob-1": []byte("package main\n")},
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, fileStore, chunkStore, gitHost, chunker.New(), embedder)
	require.NoError(t, orchestrator.Sync(ctx, repo.ID))

	chunks, err := chunkStore.ListChunks(ctx, repo.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, chunk.Embedding)
	}
	assert.Equal(t, 1, embedder.calls)
}

func TestSyncOrchestrator_Sync_EmbeddingFailureDegrades(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	fileStore := memory.NewFileStore()
	chunkStore := memory.NewChunkStore()
	embedder := &syncMockEmbedder{err: errors.New("embedding service down")}
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		tree:    []driven.TreeEntry{{Path: "main.go", SHA: "blob-1", Size: 24}},
		blobs:   map[string][]byte{"blob-1": []byte("package main\n")},
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, fileStore, chunkStore, gitHost, chunker.New(), embedder)
	require.NoError(t, orchestrator.Sync(ctx, repo.ID))

	// Sync succeeds, chunks are stored without vectors
	updated, err := repoStore.Get(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSynced, updated.Status)

	chunks, err := chunkStore.ListChunks(ctx, repo.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.Nil(t, chunk.Embedding)
	}
}

func TestSyncOrchestrator_Sync_TreeErrorMarksError(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		treeErr: errors.New("api unavailable"),
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, memory.NewFileStore(), memory.NewChunkStore(), gitHost, chunker.New(), nil)
	err := orchestrator.Sync(ctx, repo.ID)
	require.Error(t, err)

	updated, err := repoStore.Get(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, updated.Status)
	assert.Contains(t, updated.Progress.LastError, "api unavailable")
}

func TestSyncOrchestrator_Sync_SkipsUnfetchableFiles(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	fileStore := memory.NewFileStore()
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		tree: []driven.TreeEntry{
			{Path: "good.go", SHA: "blob-1", Size: 24},
			{Path: "bad.go", SHA: "blob-2", Size: 24},
			{Path: "binary.txt", SHA: "blob-3", Size: 4},
		},
		blobs: map[string][]byte{
			"blob-1": []byte("package main\n"),
			"blob-3": {0xff, 0xfe, 0x00, 0x01}, // invalid UTF-8
		},
		blobErrs: map[string]error{"blob-2": errors.New("fetch failed")},
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, fileStore, memory.NewChunkStore(), gitHost, chunker.New(), nil)
	require.NoError(t, orchestrator.Sync(ctx, repo.ID))

	files, err := fileStore.ListFiles(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "good.go", files[0].Path)
}

func TestSyncOrchestrator_Sync_ConcurrentRejected(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	block := make(chan struct{})
	entered := make(chan struct{}, 1)
	gitHost := &syncMockGitHost{
		headSHA:     "abc123",
		headBlock:   block,
		headEntered: entered,
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, memory.NewFileStore(), memory.NewChunkStore(), gitHost, chunker.New(), nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- orchestrator.Sync(ctx, repo.ID)
	}()

	// The first sync holds the slot by the time it reaches the git
	// host; waiting on the mock's signal never touches the lock.
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first sync never reached the git host")
	}

	err := orchestrator.Sync(ctx, repo.ID)
	require.ErrorIs(t, err, domain.ErrSyncInProgress)

	close(block)
	require.NoError(t, <-firstDone)

	// Slot is released after completion
	assert.True(t, orchestrator.acquire(repo.ID))
	orchestrator.release(repo.ID)
}

func TestSyncOrchestrator_Sync_RejectsInvalidStatus(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	ctx := context.Background()

	repo := newTestRepo(t, repoStore)
	repo.Status = domain.SyncStatus("CORRUPT")
	require.NoError(t, repoStore.Save(ctx, repo))

	orchestrator := NewSyncOrchestrator(repoStore, memory.NewFileStore(), memory.NewChunkStore(),
		&syncMockGitHost{headSHA: "abc123"}, chunker.New(), nil)

	err := orchestrator.Sync(ctx, repo.ID)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "CORRUPT")
}

func TestSyncOrchestrator_Sync_GenerationFailureMarksError(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	fileStore := memory.NewFileStore()
	generator := &syncMockGenerator{err: errors.New("model unavailable")}
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		tree:    []driven.TreeEntry{{Path: "main.go", SHA: "blob-1", Size: 24}},
		blobs:   map[string][]byte{"blob-1": []byte("package main\n")},
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, fileStore, memory.NewChunkStore(), gitHost, chunker.New(), nil)
	orchestrator.SetDocGenerator(generator)

	err := orchestrator.Sync(ctx, repo.ID)
	require.Error(t, err)

	// Indexed data survives; only the status reflects the failure
	updated, err := repoStore.Get(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, updated.Status)
	assert.Contains(t, updated.Progress.LastError, "model unavailable")

	files, err := fileStore.ListFiles(ctx, repo.ID)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestSyncOrchestrator_Sync_WithGeneration(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	generator := &syncMockGenerator{}
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		tree:    []driven.TreeEntry{{Path: "main.go", SHA: "blob-1", Size: 24}},
		blobs:   map[string][]byte{"blob-1": []byte("package main\n")},
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, memory.NewFileStore(), memory.NewChunkStore(), gitHost, chunker.New(), nil)
	orchestrator.SetDocGenerator(generator)

	require.NoError(t, orchestrator.Sync(ctx, repo.ID))
	assert.Equal(t, 1, generator.calls)
}

func TestSyncOrchestrator_Sync_RepoNotFound(t *testing.T) {
	orchestrator := NewSyncOrchestrator(
		memory.NewRepositoryStore(), memory.NewFileStore(), memory.NewChunkStore(),
		&syncMockGitHost{}, chunker.New(), nil)

	err := orchestrator.Sync(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncOrchestrator_StartSync_ReturnsImmediately(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	gitHost := &syncMockGitHost{
		headSHA: "abc123",
		tree:    []driven.TreeEntry{{Path: "main.go", SHA: "blob-1", Size: 24}},
		blobs:   map[string][]byte{"blob-1": []byte("package main\n")},
	}

	ctx := context.Background()
	repo := newTestRepo(t, repoStore)

	orchestrator := NewSyncOrchestrator(repoStore, memory.NewFileStore(), memory.NewChunkStore(), gitHost, chunker.New(), nil)
	require.NoError(t, orchestrator.StartSync(ctx, repo.ID))

	// Marked SYNCING synchronously
	updated, err := repoStore.Get(ctx, repo.ID)
	require.NoError(t, err)
	assert.Contains(t, []domain.SyncStatus{domain.StatusSyncing, domain.StatusSynced}, updated.Status)

	require.Eventually(t, func() bool {
		repo, err := repoStore.Get(ctx, repo.ID)
		return err == nil && repo.Status == domain.StatusSynced
	}, 2*time.Second, 10*time.Millisecond)
}
