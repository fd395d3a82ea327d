package services

import (
	"context"
	"fmt"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driven"
	"github.com/joshlevylabs/gitscribe/internal/core/ports/driving"
	"github.com/joshlevylabs/gitscribe/internal/logger"
	"github.com/joshlevylabs/gitscribe/internal/verify"
)

// Ensure PageVerifier implements the driving port.
var _ driving.PageVerifier = (*PageVerifier)(nil)

// PageVerifier checks stored documentation pages against the indexed
// file contents they cite.
type PageVerifier struct {
	repoStore  driven.RepositoryStore
	fileStore  driven.FileStore
	chunkStore driven.ChunkStore
	pageStore  driven.PageStore
}

// NewPageVerifier wires the verifier to its stores.
func NewPageVerifier(
	repoStore driven.RepositoryStore,
	fileStore driven.FileStore,
	chunkStore driven.ChunkStore,
	pageStore driven.PageStore,
) *PageVerifier {
	return &PageVerifier{
		repoStore:  repoStore,
		fileStore:  fileStore,
		chunkStore: chunkStore,
		pageStore:  pageStore,
	}
}

// Verify scores every stored page of the repository and returns the
// aggregated summary.
func (v *PageVerifier) Verify(ctx context.Context, repoID string) (*domain.VerificationSummary, error) {
	if _, err := v.repoStore.Get(ctx, repoID); err != nil {
		return nil, fmt.Errorf("loading repository: %w", err)
	}

	pages, err := v.pageStore.ListPages(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no documentation pages to verify: %w", domain.ErrNotFound)
	}

	files, available, err := v.loadFiles(ctx, repoID, pages)
	if err != nil {
		return nil, err
	}

	results := make([]domain.PageVerificationResult, 0, len(pages))
	for i := range pages {
		results = append(results, verify.VerifyPage(&pages[i], files, available))
	}

	summary := verify.Summarize(results)
	logger.Info("Verified %d pages, overall score %.1f, %d need review",
		summary.TotalPages, summary.OverallScore, summary.PagesNeedingReview)
	return &summary, nil
}

// loadFiles reassembles the content of every file cited by any page and
// returns the set of all indexed paths alongside. A cited file that is
// indexed but cannot be reassembled stays in the available set only, so
// the verifier downgrades it to a warning instead of an error.
func (v *PageVerifier) loadFiles(ctx context.Context, repoID string, pages []domain.DocumentationPage) (map[string]string, map[string]struct{}, error) {
	records, err := v.fileStore.ListFiles(ctx, repoID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing files: %w", err)
	}

	byNormPath := make(map[string]domain.FileRecord, len(records))
	available := make(map[string]struct{}, len(records))
	for _, rec := range records {
		byNormPath[verify.NormalizePath(rec.Path)] = rec
		available[verify.NormalizePath(rec.Path)] = struct{}{}
	}

	cited := make(map[string]struct{})
	for _, page := range pages {
		for _, ev := range page.Evidence {
			cited[verify.NormalizePath(ev.FilePath)] = struct{}{}
		}
	}

	files := make(map[string]string, len(cited))
	for path := range cited {
		rec, ok := byNormPath[path]
		if !ok {
			continue
		}
		chunks, err := v.chunkStore.ListFileChunks(ctx, repoID, rec.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("loading chunks for %s: %w", rec.Path, err)
		}
		content, err := ReassembleFile(chunks, rec.Size)
		if err != nil {
			logger.Warn("Cannot reassemble %s for verification: %v", rec.Path, err)
			continue
		}
		files[rec.Path] = content
	}

	return files, available, nil
}
