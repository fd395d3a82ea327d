package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPage() DocumentationPage {
	return DocumentationPage{
		Category: CategoryArchitecture,
		Slug:     "architecture/overview",
		Title:    "Overview",
		Body:     "The big picture.",
		Evidence: []EvidenceItem{
			{FilePath: "main.go", Excerpt: "package main", Justification: "entrypoint"},
		},
	}
}

func TestPageCategory_IsValid(t *testing.T) {
	assert.True(t, CategoryArchitecture.IsValid())
	assert.True(t, CategoryAPI.IsValid())
	assert.True(t, CategoryFeature.IsValid())
	assert.True(t, CategoryRunbook.IsValid())
	assert.False(t, PageCategory("GUIDE").IsValid())
	assert.False(t, PageCategory("").IsValid())
}

func TestEvidenceItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    EvidenceItem
		wantErr string
	}{
		{
			name: "valid",
			item: EvidenceItem{FilePath: "main.go", Excerpt: "package main"},
		},
		{
			name:    "missing file path",
			item:    EvidenceItem{Excerpt: "package main"},
			wantErr: "file_path",
		},
		{
			name:    "missing excerpt",
			item:    EvidenceItem{FilePath: "main.go"},
			wantErr: "excerpt",
		},
		{
			name:    "excerpt too long",
			item:    EvidenceItem{FilePath: "main.go", Excerpt: strings.Repeat("x", MaxExcerptLen+1)},
			wantErr: "exceeds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvidenceItem_Validate_ExcerptAtLimit(t *testing.T) {
	item := EvidenceItem{FilePath: "main.go", Excerpt: strings.Repeat("x", MaxExcerptLen)}
	assert.NoError(t, item.Validate())
}

func TestDocumentationPage_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		page := validPage()
		assert.NoError(t, page.Validate())
	})

	t.Run("valid without evidence", func(t *testing.T) {
		page := validPage()
		page.Evidence = nil
		assert.NoError(t, page.Validate(), "evidence presence is a verification concern")
	})

	t.Run("unknown category", func(t *testing.T) {
		page := validPage()
		page.Category = "GUIDE"
		err := page.Validate()
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "category")
	})

	t.Run("malformed slug", func(t *testing.T) {
		page := validPage()
		page.Slug = "Architecture/Overview"
		assert.ErrorIs(t, page.Validate(), ErrInvalidInput)
	})

	t.Run("slug missing category prefix", func(t *testing.T) {
		page := validPage()
		page.Slug = "api/overview"
		err := page.Validate()
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), `"architecture/"`)
	})

	t.Run("missing title", func(t *testing.T) {
		page := validPage()
		page.Title = ""
		assert.ErrorIs(t, page.Validate(), ErrInvalidInput)
	})

	t.Run("missing body", func(t *testing.T) {
		page := validPage()
		page.Body = ""
		assert.ErrorIs(t, page.Validate(), ErrInvalidInput)
	})

	t.Run("invalid evidence is indexed", func(t *testing.T) {
		page := validPage()
		page.Evidence = append(page.Evidence, EvidenceItem{FilePath: "x.go"})
		err := page.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "evidence[1]")
	})
}

func TestGenerationResult_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		result := GenerationResult{Summary: "s", Pages: []DocumentationPage{validPage()}}
		assert.NoError(t, result.Validate())
	})

	t.Run("no pages", func(t *testing.T) {
		result := GenerationResult{Summary: "s"}
		err := result.Validate()
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "at least one page")
	})

	t.Run("page errors carry their index", func(t *testing.T) {
		bad := validPage()
		bad.Title = ""
		result := GenerationResult{Pages: []DocumentationPage{validPage(), bad}}
		err := result.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pages[1]")
	})

	t.Run("duplicate slugs rejected", func(t *testing.T) {
		result := GenerationResult{Pages: []DocumentationPage{validPage(), validPage()}}
		err := result.Validate()
		require.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "duplicate")
	})
}

func TestSyncStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusSyncing))
	assert.True(t, StatusSyncing.CanTransitionTo(StatusSynced))
	assert.True(t, StatusSyncing.CanTransitionTo(StatusError))
	assert.True(t, StatusError.CanTransitionTo(StatusSyncing))
	assert.True(t, StatusSynced.CanTransitionTo(StatusSyncing))
	assert.False(t, StatusPending.CanTransitionTo(StatusSynced))
	assert.False(t, StatusSynced.CanTransitionTo(StatusError))
}

func TestRepository_Validate(t *testing.T) {
	repo := Repository{Owner: "octocat", Name: "hello-world"}
	assert.NoError(t, repo.Validate())

	repo.Owner = ""
	assert.ErrorIs(t, repo.Validate(), ErrInvalidInput)

	repo = Repository{Owner: "octocat"}
	assert.ErrorIs(t, repo.Validate(), ErrInvalidInput)
}
