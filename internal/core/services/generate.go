package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driving"
	"github.com/joshlevylabs/gitscribe/internal/docgen"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// MaxPromptFiles caps how many files are sent verbatim to the model.
// The full tree is always listed; beyond the cap only the listing
// orients the model.
const MaxPromptFiles = 40

// Ensure DocGenerator implements the driving port.
var _ driving.DocGenerator = (*DocGenerator)(nil)

// DocGenerator produces and persists a documentation bundle for an
// indexed repository.
type DocGenerator struct {
	repoStore  driven.RepositoryStore
	fileStore  driven.FileStore
	chunkStore driven.ChunkStore
	pageStore  driven.PageStore
	runner     *docgen.Runner
}

// NewDocGenerator wires the generator to its stores and runner.
func NewDocGenerator(
	repoStore driven.RepositoryStore,
	fileStore driven.FileStore,
	chunkStore driven.ChunkStore,
	pageStore driven.PageStore,
	runner *docgen.Runner,
) *DocGenerator {
	return &DocGenerator{
		repoStore:  repoStore,
		fileStore:  fileStore,
		chunkStore: chunkStore,
		pageStore:  pageStore,
		runner:     runner,
	}
}

// Generate builds the prompt context from the index, runs the model
// and replaces the repository's stored pages with the result.
func (g *DocGenerator) Generate(ctx context.Context, repoID string) (*domain.GenerationResult, error) {
	repo, err := g.repoStore.Get(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("loading repository: %w", err)
	}

	gc, err := g.buildContext(ctx, repo)
	if err != nil {
		return nil, err
	}
	if len(gc.FileTree) == 0 {
		return nil, fmt.Errorf("repository %s has no indexed files: %w", repo.FullName(), domain.ErrInvalidInput)
	}

	result, err := g.runner.Run(ctx, gc)
	if err != nil {
		return nil, fmt.Errorf("generating documentation: %w", err)
	}

	if err := g.pageStore.DeletePages(ctx, repoID); err != nil {
		return nil, fmt.Errorf("clearing previous pages: %w", err)
	}
	if err := g.pageStore.SavePages(ctx, repoID, result.Pages); err != nil {
		return nil, fmt.Errorf("saving pages: %w", err)
	}

	logger.Info("Generated %d documentation pages for %s", len(result.Pages), repo.FullName())
	return result, nil
}

// buildContext assembles the repository listing and file contents for
// the prompt. The smallest files are included in full up to the cap;
// small files tend to be manifests and entrypoints, which carry the
// most signal per byte.
func (g *DocGenerator) buildContext(ctx context.Context, repo *domain.Repository) (*docgen.GenerationContext, error) {
	records, err := g.fileStore.ListFiles(ctx, repo.ID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	gc := &docgen.GenerationContext{
		RepoFullName: repo.FullName(),
		Branch:       repo.Branch,
		FileTree:     make([]string, 0, len(records)),
		Files:        make(map[string]string),
	}

	selected := selectPromptFiles(records, MaxPromptFiles)
	for _, rec := range records {
		gc.FileTree = append(gc.FileTree, rec.Path)
	}
	for _, rec := range selected {
		content, err := g.fileContent(ctx, repo.ID, rec)
		if err != nil {
			logger.Warn("Skipping %s in prompt: %v", rec.Path, err)
			continue
		}
		gc.Files[rec.Path] = content
	}

	return gc, nil
}

// fileContent reassembles a file from its stored chunks.
func (g *DocGenerator) fileContent(ctx context.Context, repoID string, rec domain.FileRecord) (string, error) {
	chunks, err := g.chunkStore.ListFileChunks(ctx, repoID, rec.Path)
	if err != nil {
		return "", err
	}
	return ReassembleFile(chunks, rec.Size)
}

// selectPromptFiles picks up to max records, smallest first.
func selectPromptFiles(records []domain.FileRecord, max int) []domain.FileRecord {
	sorted := append([]domain.FileRecord(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Size < sorted[j].Size })
	if len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

// ReassembleFile rebuilds exact file content from overlapping chunks
// using each chunk's start offset. Chunk texts overlap; writing each
// at its recorded offset reproduces the original bytes.
func ReassembleFile(chunks []domain.Chunk, size int64) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("no chunks: %w", domain.ErrNotFound)
	}

	buf := make([]byte, size)
	covered := 0
	for _, chunk := range chunks {
		offset, ok := chunkStartOffset(chunk)
		if !ok {
			return "", fmt.Errorf("chunk %d of %s has no start offset", chunk.Index, chunk.FilePath)
		}
		end := offset + len(chunk.Text)
		if offset < 0 || end > len(buf) {
			return "", fmt.Errorf("chunk %d of %s exceeds file size %d", chunk.Index, chunk.FilePath, size)
		}
		copy(buf[offset:end], chunk.Text)
		if end > covered {
			covered = end
		}
	}
	if covered != len(buf) {
		return "", fmt.Errorf("chunks cover %d of %d bytes of %s", covered, size, chunks[0].FilePath)
	}

	return string(buf), nil
}

// chunkStartOffset reads the start offset from chunk metadata. The
// value is an int in memory but a float64 after a JSON round trip
// through storage.
func chunkStartOffset(chunk domain.Chunk) (int, bool) {
	raw, ok := chunk.Metadata["start_offset"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
