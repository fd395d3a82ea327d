package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// PageCategory classifies a documentation page.
type PageCategory string

// Documentation page categories.
const (
	CategoryArchitecture PageCategory = "ARCHITECTURE"
	CategoryAPI          PageCategory = "API"
	CategoryFeature      PageCategory = "FEATURE"
	CategoryRunbook      PageCategory = "RUNBOOK"
)

// IsValid reports whether the category is one of the known values.
func (c PageCategory) IsValid() bool {
	switch c {
	case CategoryArchitecture, CategoryAPI, CategoryFeature, CategoryRunbook:
		return true
	}
	return false
}

// MaxExcerptLen is the maximum length of an evidence excerpt in characters.
const MaxExcerptLen = 1500

// slugPattern matches "category/name" slugs: a lowercase category segment
// followed by a lowercase kebab-case name.
var slugPattern = regexp.MustCompile(`^[a-z]+/[a-z0-9][a-z0-9-]*$`)

// EvidenceItem is a (file path, excerpt, justification) triple a page cites
// as support for a claim.
type EvidenceItem struct {
	// FilePath is the repository-relative path of the cited file.
	FilePath string

	// Excerpt is the quoted file content, at most MaxExcerptLen characters.
	Excerpt string

	// Justification explains what the excerpt supports.
	Justification string
}

// Validate checks the evidence item against the schema.
func (e *EvidenceItem) Validate() error {
	if e.FilePath == "" {
		return fmt.Errorf("%w: file_path is required", ErrInvalidInput)
	}
	if e.Excerpt == "" {
		return fmt.Errorf("%w: excerpt is required", ErrInvalidInput)
	}
	if len(e.Excerpt) > MaxExcerptLen {
		return fmt.Errorf("%w: excerpt exceeds %d characters", ErrInvalidInput, MaxExcerptLen)
	}
	return nil
}

// DocumentationPage is a single generated documentation page with its
// supporting evidence.
type DocumentationPage struct {
	// Category classifies the page.
	Category PageCategory

	// Slug is the unique "category/name" identifier within a run.
	Slug string

	// Title is the human-readable page title.
	Title string

	// Body is the page text.
	Body string

	// Evidence lists the file excerpts supporting the page's claims.
	Evidence []EvidenceItem
}

// Validate checks the page against the schema. Errors are qualified with
// the offending field path.
func (p *DocumentationPage) Validate() error {
	if !p.Category.IsValid() {
		return fmt.Errorf("%w: category: unknown value %q", ErrInvalidInput, p.Category)
	}
	if !slugPattern.MatchString(p.Slug) {
		return fmt.Errorf("%w: slug: %q does not match category/name", ErrInvalidInput, p.Slug)
	}
	if prefix := strings.ToLower(string(p.Category)) + "/"; !strings.HasPrefix(p.Slug, prefix) {
		return fmt.Errorf("%w: slug: %q does not start with %q", ErrInvalidInput, p.Slug, prefix)
	}
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if p.Body == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidInput)
	}
	for i := range p.Evidence {
		if err := p.Evidence[i].Validate(); err != nil {
			return fmt.Errorf("evidence[%d]: %w", i, err)
		}
	}
	return nil
}

// FollowUpTask is an optional task suggested by the generation run.
type FollowUpTask struct {
	Title  string
	Detail string
}

// GenerationResult is the validated output of a documentation run.
type GenerationResult struct {
	// Summary is the repository summary from the first successful parse.
	Summary string

	// Warnings are caveats attached to the run, including the partial
	// warning appended by salvage.
	Warnings []string

	// NeedsMoreFiles lists file paths the model asked to see.
	NeedsMoreFiles []string

	// Pages are the accumulated documentation pages, unique by slug.
	Pages []DocumentationPage

	// Tasks are optional follow-up tasks.
	Tasks []FollowUpTask
}

// Validate checks the full result against the schema. Page errors are
// qualified with their index.
func (r *GenerationResult) Validate() error {
	if len(r.Pages) == 0 {
		return fmt.Errorf("%w: pages: at least one page is required", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(r.Pages))
	for i := range r.Pages {
		if err := r.Pages[i].Validate(); err != nil {
			return fmt.Errorf("pages[%d]: %w", i, err)
		}
		if seen[r.Pages[i].Slug] {
			return fmt.Errorf("%w: pages[%d].slug: duplicate %q", ErrInvalidInput, i, r.Pages[i].Slug)
		}
		seen[r.Pages[i].Slug] = true
	}
	return nil
}
