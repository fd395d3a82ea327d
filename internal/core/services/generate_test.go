package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshlevylabs/gitscribe/internal/adapters/driven/storage/memory"
	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/docgen"
)

func TestReassembleFile_SingleChunk(t *testing.T) {
	content := "package main\n"
	chunks := []domain.Chunk{
		{FilePath: "main.go", Index: 0, Text: content, Metadata: map[string]any{"start_offset": 0}},
	}

	got, err := ReassembleFile(chunks, int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReassembleFile_OverlappingChunks(t *testing.T) {
	content := "abcdefghij"
	chunks := []domain.Chunk{
		{FilePath: "a.txt", Index: 0, Text: "abcdef", Metadata: map[string]any{"start_offset": 0}},
		{FilePath: "a.txt", Index: 1, Text: "defghij", Metadata: map[string]any{"start_offset": 3}},
	}

	got, err := ReassembleFile(chunks, int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReassembleFile_Float64OffsetFromStorage(t *testing.T) {
	// Metadata comes back from SQLite as JSON, so offsets are float64.
	content := "hello world"
	chunks := []domain.Chunk{
		{FilePath: "a.txt", Index: 0, Text: "hello ", Metadata: map[string]any{"start_offset": float64(0)}},
		{FilePath: "a.txt", Index: 1, Text: "world", Metadata: map[string]any{"start_offset": float64(6)}},
	}

	got, err := ReassembleFile(chunks, int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReassembleFile_MissingOffset(t *testing.T) {
	chunks := []domain.Chunk{{FilePath: "a.txt", Index: 0, Text: "abc"}}

	_, err := ReassembleFile(chunks, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start offset")
}

func TestReassembleFile_IncompleteCoverage(t *testing.T) {
	chunks := []domain.Chunk{
		{FilePath: "a.txt", Index: 0, Text: "abc", Metadata: map[string]any{"start_offset": 0}},
	}

	_, err := ReassembleFile(chunks, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cover")
}

func TestReassembleFile_ChunkBeyondFileSize(t *testing.T) {
	chunks := []domain.Chunk{
		{FilePath: "a.txt", Index: 0, Text: "abcdef", Metadata: map[string]any{"start_offset": 2}},
	}

	_, err := ReassembleFile(chunks, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestReassembleFile_NoChunks(t *testing.T) {
	_, err := ReassembleFile(nil, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSelectPromptFiles_SmallestFirst(t *testing.T) {
	records := []domain.FileRecord{
		{Path: "big.go", Size: 5000},
		{Path: "go.mod", Size: 100},
		{Path: "main.go", Size: 800},
	}

	selected := selectPromptFiles(records, 2)
	require.Len(t, selected, 2)
	assert.Equal(t, "go.mod", selected[0].Path)
	assert.Equal(t, "main.go", selected[1].Path)
}

// generateFixtures indexes one file into memory stores so Generate has
// a real context to build.
func generateFixtures(t *testing.T) (*memory.RepositoryStore, *memory.FileStore, *memory.ChunkStore, *memory.PageStore) {
	t.Helper()

	ctx := context.Background()
	repoStore := memory.NewRepositoryStore()
	fileStore := memory.NewFileStore()
	chunkStore := memory.NewChunkStore()
	pageStore := memory.NewPageStore()

	newTestRepo(t, repoStore)

	content := "package main\n\nfunc main() {}\n"
	require.NoError(t, fileStore.UpsertFile(ctx, &domain.FileRecord{
		RepoID: "repo-1", Path: "main.go", ContentHash: "sha-1", Size: int64(len(content)),
	}))
	require.NoError(t, chunkStore.SaveChunks(ctx, []domain.Chunk{
		{
			ID:       "chunk-1",
			RepoID:   "repo-1",
			FilePath: "main.go",
			Index:    0,
			Text:     content,
			Metadata: map[string]any{"start_offset": 0},
		},
	}))

	return repoStore, fileStore, chunkStore, pageStore
}

func TestDocGenerator_Generate_PersistsPages(t *testing.T) {
	repoStore, fileStore, chunkStore, pageStore := generateFixtures(t)

	bundle := `{
		"summary": "A hello-world program.",
		"warnings": [],
		"needs_more_files": [],
		"pages": [
			{
				"category": "ARCHITECTURE",
				"slug": "architecture/overview",
				"title": "Overview",
				"body": "A single entrypoint.",
				"evidence": [
					{"file_path": "main.go", "excerpt": "package main", "justification": "entrypoint"}
				]
			}
		],
		"tasks": []
	}`
	runner := docgen.NewRunner(
		docgen.NewFixtureStrategy(docgen.CompletionResult{Text: bundle, StopReason: docgen.StopEnd}),
		docgen.RunnerConfig{}, nil)

	gen := NewDocGenerator(repoStore, fileStore, chunkStore, pageStore, runner)
	result, err := gen.Generate(context.Background(), "repo-1")
	require.NoError(t, err)
	assert.Equal(t, "A hello-world program.", result.Summary)

	pages, err := pageStore.ListPages(context.Background(), "repo-1")
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "architecture/overview", pages[0].Slug)
}

func TestDocGenerator_Generate_ReplacesPreviousPages(t *testing.T) {
	repoStore, fileStore, chunkStore, pageStore := generateFixtures(t)
	ctx := context.Background()

	require.NoError(t, pageStore.SavePages(ctx, "repo-1", []domain.DocumentationPage{
		{Category: domain.CategoryFeature, Slug: "feature/old", Title: "Old", Body: "stale"},
	}))

	runner := docgen.NewRunner(docgen.NewFixtureStrategy(), docgen.RunnerConfig{}, nil)
	gen := NewDocGenerator(repoStore, fileStore, chunkStore, pageStore, runner)

	_, err := gen.Generate(ctx, "repo-1")
	require.NoError(t, err)

	pages, err := pageStore.ListPages(ctx, "repo-1")
	require.NoError(t, err)
	for _, p := range pages {
		assert.NotEqual(t, "feature/old", p.Slug, "stale pages are cleared")
	}
}

func TestDocGenerator_Generate_NoIndexedFiles(t *testing.T) {
	repoStore := memory.NewRepositoryStore()
	newTestRepo(t, repoStore)

	runner := docgen.NewRunner(docgen.NewFixtureStrategy(), docgen.RunnerConfig{}, nil)
	gen := NewDocGenerator(repoStore, memory.NewFileStore(), memory.NewChunkStore(), memory.NewPageStore(), runner)

	_, err := gen.Generate(context.Background(), "repo-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocGenerator_Generate_UnknownRepo(t *testing.T) {
	runner := docgen.NewRunner(docgen.NewFixtureStrategy(), docgen.RunnerConfig{}, nil)
	gen := NewDocGenerator(memory.NewRepositoryStore(), memory.NewFileStore(),
		memory.NewChunkStore(), memory.NewPageStore(), runner)

	_, err := gen.Generate(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
