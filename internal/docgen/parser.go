package docgen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// PartialWarning is appended to every salvaged result so downstream
// consumers can surface the caveat.
const PartialWarning = "output was truncated; documentation may be incomplete"

// Wire format for the documentation bundle. Field order in the prompt
// matches these declarations; salvage relies on evidence being the last
// page field.
type wireEvidence struct {
	FilePath      string `json:"file_path"`
	Excerpt       string `json:"excerpt"`
	Justification string `json:"justification"`
}

type wirePage struct {
	Category string         `json:"category"`
	Slug     string         `json:"slug"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Evidence []wireEvidence `json:"evidence"`
}

type wireTask struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type wireResult struct {
	Summary        string     `json:"summary"`
	Warnings       []string   `json:"warnings"`
	NeedsMoreFiles []string   `json:"needs_more_files"`
	Pages          []wirePage `json:"pages"`
	Tasks          []wireTask `json:"tasks"`
}

// ParseStrict validates a complete model response against the schema.
// It strips an optional code-fence wrapper, parses, and rejects on any
// schema violation with a field-path-qualified error. Never call this
// on known-truncated input; use Salvage instead.
func ParseStrict(raw string) (*domain.GenerationResult, error) {
	stripped := StripCodeFence(raw)
	if strings.TrimSpace(stripped) == "" {
		return nil, fmt.Errorf("parse: %w", domain.ErrEmptyOutput)
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(stripped), &wire); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	result := wireToResult(&wire)
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	return result, nil
}

// SalvageOutcome holds whatever structurally valid records could be
// recovered from truncated output.
type SalvageOutcome struct {
	// Summary is the recovered repo summary, valid when SummaryFound.
	Summary      string
	SummaryFound bool

	// Warnings are the model's own warnings plus PartialWarning.
	Warnings []string

	// Pages are the recovered pages, each independently validated.
	Pages []domain.DocumentationPage
}

var (
	// summaryPattern extracts the repo summary string value.
	summaryPattern = regexp.MustCompile(`"summary"\s*:\s*("(?:[^"\\]|\\.)*")`)

	// warningsPattern extracts the warnings array.
	warningsPattern = regexp.MustCompile(`"warnings"\s*:\s*(\[[^\]]*\])`)

	// pagePattern matches a complete page object. It requires the
	// category field to open the object and a properly closed evidence
	// array to end it, so malformed trailing objects never match.
	pagePattern = regexp.MustCompile(`(?s)\{\s*"category"\s*:.*?"evidence"\s*:\s*\[.*?\]\s*\}`)
)

// Salvage recovers partial structured records from truncated output.
// Pages that fail validation are silently dropped, not guessed at. The
// partial warning is always appended.
func Salvage(raw string) *SalvageOutcome {
	stripped := StripCodeFence(raw)
	out := &SalvageOutcome{}

	if m := summaryPattern.FindStringSubmatch(stripped); m != nil {
		var summary string
		if err := json.Unmarshal([]byte(m[1]), &summary); err == nil {
			out.Summary = summary
			out.SummaryFound = true
		}
	}

	if m := warningsPattern.FindStringSubmatch(stripped); m != nil {
		var warnings []string
		if err := json.Unmarshal([]byte(m[1]), &warnings); err == nil {
			out.Warnings = warnings
		}
	}

	out.Pages = extractPages(stripped)

	// Last resort: close unbalanced brackets and re-parse, keeping
	// every recovered page that validates on its own.
	if len(out.Pages) == 0 {
		out.Pages = repairAndExtract(stripped)
	}

	out.Warnings = append(out.Warnings, PartialWarning)
	return out
}

// extractPages regex-matches complete page objects and keeps those that
// unmarshal and validate independently.
func extractPages(text string) []domain.DocumentationPage {
	var pages []domain.DocumentationPage

	for _, match := range pagePattern.FindAllString(text, -1) {
		var wire wirePage
		if err := json.Unmarshal([]byte(match), &wire); err != nil {
			continue
		}
		// All five fields must be present; an absent evidence array
		// distinguishes a fragment from a page with zero citations.
		if wire.Evidence == nil {
			continue
		}
		page := wireToPage(&wire)
		if err := page.Validate(); err != nil {
			logger.Debug("Dropping salvaged page %q: %v", wire.Slug, err)
			continue
		}
		pages = append(pages, page)
	}

	return pages
}

// repairAndExtract appends the closers for any unbalanced braces and
// brackets, then re-parses, validating each page independently.
func repairAndExtract(text string) []domain.DocumentationPage {
	repaired := BalanceBrackets(text)

	var wire wireResult
	if err := json.Unmarshal([]byte(repaired), &wire); err != nil {
		return nil
	}

	var pages []domain.DocumentationPage
	for i := range wire.Pages {
		page := wireToPage(&wire.Pages[i])
		if err := page.Validate(); err != nil {
			logger.Debug("Dropping repaired page %q: %v", page.Slug, err)
			continue
		}
		pages = append(pages, page)
	}

	return pages
}

// BalanceBrackets closes an unterminated string and appends matching
// closers for every unmatched '{' and '[', in nesting order.
func BalanceBrackets(text string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(text)
	if inString {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}

	return b.String()
}

// StripCodeFence removes an optional markdown code-fence wrapper.
func StripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	// Drop a language tag like "json" on the opening fence
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, "{[") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// wireToResult converts the wire format to the domain result.
func wireToResult(wire *wireResult) *domain.GenerationResult {
	result := &domain.GenerationResult{
		Summary:        wire.Summary,
		Warnings:       wire.Warnings,
		NeedsMoreFiles: wire.NeedsMoreFiles,
		Pages:          make([]domain.DocumentationPage, 0, len(wire.Pages)),
	}
	for i := range wire.Pages {
		result.Pages = append(result.Pages, wireToPage(&wire.Pages[i]))
	}
	for _, task := range wire.Tasks {
		result.Tasks = append(result.Tasks, domain.FollowUpTask{Title: task.Title, Detail: task.Detail})
	}
	return result
}

// wireToPage converts a wire page to the domain page.
func wireToPage(wire *wirePage) domain.DocumentationPage {
	page := domain.DocumentationPage{
		Category: domain.PageCategory(wire.Category),
		Slug:     wire.Slug,
		Title:    wire.Title,
		Body:     wire.Body,
		Evidence: make([]domain.EvidenceItem, 0, len(wire.Evidence)),
	}
	for _, ev := range wire.Evidence {
		page.Evidence = append(page.Evidence, domain.EvidenceItem{
			FilePath:      ev.FilePath,
			Excerpt:       ev.Excerpt,
			Justification: ev.Justification,
		})
	}
	return page
}
