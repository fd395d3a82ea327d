// Package chunker splits file text into bounded, overlapping
// token-budgeted segments suitable for embedding and LLM context.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

// DefaultTokenBudget is the default number of tokens per chunk.
const DefaultTokenBudget = 400

// DefaultOverlap is the default number of overlapping tokens.
const DefaultOverlap = 80

// charsPerToken is the approximation used for token counting.
const charsPerToken = 4

// Chunker splits file content into fixed-budget chunks.
type Chunker struct {
	tokenBudget int
	overlap     int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithTokenBudget sets the chunk size in tokens.
func WithTokenBudget(budget int) Option {
	return func(c *Chunker) {
		if budget > 0 {
			c.tokenBudget = budget
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a new chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		tokenBudget: DefaultTokenBudget,
		overlap:     DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't swallow the whole budget
	if c.overlap >= c.tokenBudget {
		c.overlap = c.tokenBudget / 4
	}

	return c
}

// Split divides content into chunks for the given repository file.
// Splitting is deterministic: identical content yields identical chunk
// boundaries and counts. Chunk indices are stable and zero-based.
func (c *Chunker) Split(repoID, filePath, content string) []domain.Chunk {
	if content == "" {
		return nil
	}

	budgetChars := c.tokenBudget * charsPerToken
	stepChars := (c.tokenBudget - c.overlap) * charsPerToken
	contentLen := len(content)

	chunks := make([]domain.Chunk, 0, contentLen/stepChars+1)

	start := 0
	index := 0
	for start < contentLen {
		end := start + budgetChars
		if end >= contentLen {
			end = contentLen
		} else {
			// Never cut before the next chunk's start, or content
			// between the two would be lost.
			end = cutAtLineBoundary(content, start+stepChars, end)
		}

		text := content[start:end]
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			RepoID:     repoID,
			FilePath:   filePath,
			Index:      index,
			Text:       text,
			TokenCount: CountTokens(text),
			Metadata:   map[string]any{"start_offset": start},
		})
		index++

		if end == contentLen {
			break
		}

		next := start + stepChars
		if next <= start {
			break
		}
		start = next
	}

	return chunks
}

// CountTokens approximates the token count of text at 4 characters per
// token, rounding up.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}

// cutAtLineBoundary moves end back to the nearest newline at or after
// floor, so chunks break on whole lines when the content allows it.
func cutAtLineBoundary(content string, floor, end int) int {
	if floor >= end {
		return end
	}

	if idx := strings.LastIndexByte(content[floor:end], '\n'); idx >= 0 {
		return floor + idx + 1
	}
	return end
}
