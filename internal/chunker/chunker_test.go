package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_Empty(t *testing.T) {
	c := New()
	assert.Nil(t, c.Split("repo-1", "a.go", ""))
}

func TestSplit_SingleChunk(t *testing.T) {
	c := New()
	content := "package main\n\nfunc main() {}\n"

	chunks := c.Split("repo-1", "main.go", content)
	require.Len(t, chunks, 1)

	chunk := chunks[0]
	assert.Equal(t, "repo-1", chunk.RepoID)
	assert.Equal(t, "main.go", chunk.FilePath)
	assert.Equal(t, 0, chunk.Index)
	assert.Equal(t, content, chunk.Text)
	assert.Equal(t, CountTokens(content), chunk.TokenCount)
	assert.Equal(t, 0, chunk.Metadata["start_offset"])
	assert.NotEmpty(t, chunk.ID)
}

func TestSplit_MultipleChunksOverlap(t *testing.T) {
	c := New(WithTokenBudget(10), WithOverlap(2)) // 40 chars budget, 32 chars step
	content := strings.Repeat("0123456789\n", 12) // 132 chars

	chunks := c.Split("repo-1", "data.txt", content)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		offset := chunk.Metadata["start_offset"].(int)
		assert.Equal(t, chunk.Text, content[offset:offset+len(chunk.Text)])
	}

	// Consecutive chunks must cover content with no gaps
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		prevStart := prev.Metadata["start_offset"].(int)
		curStart := chunks[i].Metadata["start_offset"].(int)
		assert.LessOrEqual(t, curStart, prevStart+len(prev.Text),
			"gap between chunk %d and %d", i-1, i)
	}

	// Last chunk ends exactly at content end
	last := chunks[len(chunks)-1]
	lastStart := last.Metadata["start_offset"].(int)
	assert.Equal(t, len(content), lastStart+len(last.Text))
}

func TestSplit_Deterministic(t *testing.T) {
	c := New(WithTokenBudget(10), WithOverlap(2))
	content := strings.Repeat("some source code line here\n", 20)

	first := c.Split("repo-1", "a.txt", content)
	second := c.Split("repo-1", "a.txt", content)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Text, second[i].Text)
		assert.Equal(t, first[i].Metadata["start_offset"], second[i].Metadata["start_offset"])
	}
}

func TestSplit_BreaksOnLineBoundary(t *testing.T) {
	c := New(WithTokenBudget(10), WithOverlap(2)) // line cut between step and budget
	content := strings.Repeat("abcdefgh\n", 12)   // lines of 9 chars

	chunks := c.Split("repo-1", "a.txt", content)
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(chunk.Text, "\n"),
			"chunk %d should end on a line boundary", i)
	}
}

func TestSplit_NoNewlines(t *testing.T) {
	c := New(WithTokenBudget(10), WithOverlap(0))
	content := strings.Repeat("x", 100) // no newline to cut at

	chunks := c.Split("repo-1", "blob.txt", content)
	require.Len(t, chunks, 3) // 40 + 40 + 20

	var rebuilt strings.Builder
	for _, chunk := range chunks {
		rebuilt.WriteString(chunk.Text)
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestNew_OverlapClamped(t *testing.T) {
	c := New(WithTokenBudget(100), WithOverlap(100))
	assert.Equal(t, 25, c.overlap)
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 1, CountTokens("abc"))
	assert.Equal(t, 1, CountTokens("abcd"))
	assert.Equal(t, 2, CountTokens("abcde"))
	assert.Equal(t, 25, CountTokens(strings.Repeat("x", 100)))
}
