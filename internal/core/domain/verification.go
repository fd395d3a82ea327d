package domain

import "time"

// IssueType classifies a verification finding.
type IssueType string

// Verification issue types.
const (
	IssueMissingFile     IssueType = "missing_file"
	IssueExcerptNotFound IssueType = "excerpt_not_found"
	IssueLowSimilarity   IssueType = "low_similarity"
	IssueNoEvidence      IssueType = "no_evidence"
)

// IssueSeverity is the weight of a verification issue.
type IssueSeverity string

// Verification issue severities.
const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// VerificationIssue is a single finding against a page's evidence.
type VerificationIssue struct {
	// Type classifies the finding.
	Type IssueType

	// Severity is error or warning.
	Severity IssueSeverity

	// Message is the human-readable description.
	Message string

	// EvidenceIndex is the index of the offending evidence item, or -1
	// when the issue applies to the page as a whole.
	EvidenceIndex int

	// FilePath is the cited path, when relevant.
	FilePath string
}

// PageVerificationResult scores a single page's evidence against real
// file content. Derived data, recomputed on demand, never a source of truth.
type PageVerificationResult struct {
	// Slug identifies the verified page.
	Slug string

	// Score is 0-100: verified credit over total evidence items,
	// rounded to the nearest whole point.
	Score float64

	// VerifiedCount is the number of fully verified evidence items.
	VerifiedCount int

	// EvidenceCount is the total number of evidence items.
	EvidenceCount int

	// Issues lists all findings for the page.
	Issues []VerificationIssue

	// NeedsReview flags pages verification could not establish
	// sufficient confidence in.
	NeedsReview bool
}

// VerificationSummary aggregates page results for a whole bundle.
// Page scores are weighted by evidence count, not page count.
type VerificationSummary struct {
	// OverallScore is 0-100, evidence-weighted across pages.
	OverallScore float64

	// TotalPages is the number of pages verified.
	TotalPages int

	// PagesNeedingReview is the number of flagged pages.
	PagesNeedingReview int

	// TotalEvidence is the total evidence item count across pages.
	TotalEvidence int

	// Results holds the per-page breakdown.
	Results []PageVerificationResult
}

// RunnerProgress is an ephemeral generation progress event.
// It is a UI-facing side channel and is never persisted.
type RunnerProgress struct {
	Stage      string
	Message    string
	PagesSoFar int
	Elapsed    time.Duration
}
