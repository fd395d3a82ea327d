// Package verify scores documentation pages against repository file
// contents. Every evidence excerpt is checked for verbatim containment
// in its cited file, falling back to a sliding-window word similarity
// when the text drifted. All functions are pure; callers supply the
// file contents.
package verify

import (
	"fmt"
	"math"
	"strings"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

// Similarity thresholds for evidence scoring.
const (
	// VerifiedThreshold is the similarity at or above which an excerpt
	// counts as verified.
	VerifiedThreshold = 0.6

	// PartialThreshold is the similarity at or above which an excerpt
	// earns partial credit with a warning.
	PartialThreshold = 0.3

	// reviewScoreCutoff flags pages scoring below this percentage.
	reviewScoreCutoff = 50.0

	// unfetchedCredit is the neutral credit for a citation of a file
	// the index knows but whose content was not loaded.
	unfetchedCredit = 0.5
)

// VerifyPage scores one page against the given file contents, keyed by
// normalized path. The available set lists every path the index knows,
// so a citation of a known-but-unloaded file downgrades to a warning
// instead of counting as a hallucination.
func VerifyPage(page *domain.DocumentationPage, files map[string]string, available map[string]struct{}) domain.PageVerificationResult {
	result := domain.PageVerificationResult{
		Slug:          page.Slug,
		EvidenceCount: len(page.Evidence),
	}

	if len(page.Evidence) == 0 {
		result.Issues = append(result.Issues, domain.VerificationIssue{
			Type:          domain.IssueNoEvidence,
			Severity:      domain.SeverityError,
			Message:       "page cites no evidence",
			EvidenceIndex: -1,
		})
		result.NeedsReview = true
		return result
	}

	normalized := make(map[string]string, len(files))
	known := make(map[string]struct{}, len(available)+len(files))
	for path, content := range files {
		normalized[NormalizePath(path)] = content
		known[NormalizePath(path)] = struct{}{}
	}
	for path := range available {
		known[NormalizePath(path)] = struct{}{}
	}

	var total float64
	for i, ev := range page.Evidence {
		score, issue := scoreEvidence(i, &ev, normalized, known)
		total += score
		if score >= VerifiedThreshold {
			result.VerifiedCount++
		}
		if issue != nil {
			result.Issues = append(result.Issues, *issue)
		}
	}

	result.Score = math.Round(total / float64(len(page.Evidence)) * 100)

	result.NeedsReview = result.Score < reviewScoreCutoff ||
		hasErrorIssue(result.Issues) ||
		strings.Contains(strings.ToLower(page.Body), "needs review")

	return result
}

// scoreEvidence returns the 0..1 score for one evidence item plus an
// issue when the score is below the verified threshold.
func scoreEvidence(index int, ev *domain.EvidenceItem, files map[string]string, known map[string]struct{}) (float64, *domain.VerificationIssue) {
	path := NormalizePath(ev.FilePath)
	content, ok := files[path]
	if !ok {
		if _, indexed := known[path]; indexed {
			return unfetchedCredit, &domain.VerificationIssue{
				Type:          domain.IssueMissingFile,
				Severity:      domain.SeverityWarning,
				Message:       fmt.Sprintf("cited file %s is indexed but its content was not loaded", ev.FilePath),
				EvidenceIndex: index,
				FilePath:      ev.FilePath,
			}
		}
		return 0, &domain.VerificationIssue{
			Type:          domain.IssueMissingFile,
			Severity:      domain.SeverityError,
			Message:       fmt.Sprintf("cited file %s is not in the index", ev.FilePath),
			EvidenceIndex: index,
			FilePath:      ev.FilePath,
		}
	}

	if strings.Contains(normalizeText(content), normalizeText(ev.Excerpt)) {
		return 1.0, nil
	}

	similarity := BestWindowSimilarity(ev.Excerpt, content)
	switch {
	case similarity >= VerifiedThreshold:
		// Verified earns full credit; only the partial band keeps its
		// raw similarity as the score.
		return 1.0, nil
	case similarity >= PartialThreshold:
		return similarity, &domain.VerificationIssue{
			Type:          domain.IssueLowSimilarity,
			Severity:      domain.SeverityWarning,
			Message:       fmt.Sprintf("excerpt only loosely matches %s (similarity %.2f)", ev.FilePath, similarity),
			EvidenceIndex: index,
			FilePath:      ev.FilePath,
		}
	default:
		return 0, &domain.VerificationIssue{
			Type:          domain.IssueExcerptNotFound,
			Severity:      domain.SeverityError,
			Message:       fmt.Sprintf("excerpt not found in %s (similarity %.2f)", ev.FilePath, similarity),
			EvidenceIndex: index,
			FilePath:      ev.FilePath,
		}
	}
}

// Summarize aggregates per-page results into a bundle summary. The
// overall score weights each page by its evidence count so a thin page
// cannot mask a heavily cited one.
func Summarize(results []domain.PageVerificationResult) domain.VerificationSummary {
	summary := domain.VerificationSummary{
		TotalPages: len(results),
		Results:    results,
	}

	var weighted float64
	for _, r := range results {
		summary.TotalEvidence += r.EvidenceCount
		weighted += r.Score * float64(r.EvidenceCount)
		if r.NeedsReview {
			summary.PagesNeedingReview++
		}
	}

	if summary.TotalEvidence > 0 {
		summary.OverallScore = weighted / float64(summary.TotalEvidence)
	}

	return summary
}

// NormalizePath lowercases the path, converts backslashes and strips a
// leading "./" or "/" so model-cited paths match index paths.
func NormalizePath(path string) string {
	p := strings.ToLower(strings.TrimSpace(path))
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return p
}

// normalizeText collapses whitespace runs to single spaces and
// lowercases so formatting differences do not defeat containment.
func normalizeText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// BestWindowSimilarity slides a window of twice the excerpt's word
// count over the file in half-window steps and returns the best
// Jaccard similarity between the excerpt's word set and a window's.
func BestWindowSimilarity(excerpt, content string) float64 {
	excerptWords := strings.Fields(normalizeText(excerpt))
	contentWords := strings.Fields(normalizeText(content))
	if len(excerptWords) == 0 || len(contentWords) == 0 {
		return 0
	}

	excerptSet := wordSet(excerptWords)

	window := 2 * len(excerptWords)
	if window > len(contentWords) {
		window = len(contentWords)
	}
	step := window / 2
	if step < 1 {
		step = 1
	}

	best := 0.0
	for start := 0; ; start += step {
		end := start + window
		if end > len(contentWords) {
			end = len(contentWords)
			start = end - window
		}
		if sim := jaccard(excerptSet, wordSet(contentWords[start:end])); sim > best {
			best = sim
		}
		if end == len(contentWords) {
			break
		}
	}

	return best
}

func wordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func hasErrorIssue(issues []domain.VerificationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == domain.SeverityError {
			return true
		}
	}
	return false
}
