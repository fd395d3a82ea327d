package docgen

import (
	"fmt"
	"sort"
	"strings"
)

// GenerationContext carries everything the model needs to document a
// repository: identity, layout, and the selected file contents.
type GenerationContext struct {
	RepoFullName string
	Branch       string

	// FileTree is every indexed path, one per line, for orientation.
	FileTree []string

	// Files maps path to full content for the files included verbatim.
	Files map[string]string
}

// systemPrompt instructs the model to emit the bundle schema and
// nothing else. Field order in the example matches the wire structs so
// partial output stays recoverable.
const systemPrompt = `You are a senior engineer writing internal documentation for a code repository.

Respond with a single JSON object and no other text. Do not wrap the JSON in a code fence. The object has this exact shape, with fields in this order:

{
  "summary": "two to four sentence overview of what this repository does",
  "warnings": ["anything the reader should know about gaps in this documentation"],
  "needs_more_files": ["paths you would need to see to document the repository properly"],
  "pages": [
    {
      "category": "ARCHITECTURE",
      "slug": "architecture/overview",
      "title": "Page title",
      "body": "Markdown body of the page",
      "evidence": [
        {
          "file_path": "path/to/file.go",
          "excerpt": "verbatim text copied from the file, at most 1500 characters",
          "justification": "why this excerpt supports the page"
        }
      ]
    }
  ],
  "tasks": [
    {"title": "short follow-up item", "detail": "what to do and why"}
  ]
}

Rules:
- category is one of ARCHITECTURE, API, FEATURE, RUNBOOK.
- slug is lowercase, starts with the category name (e.g. "api/..." for API pages), and uses only letters, digits and hyphens after the prefix.
- Every excerpt must be copied verbatim from a provided file. Never paraphrase inside an excerpt.
- Every page needs at least one evidence item. Pages without real supporting evidence should not be written.
- Produce at least one page. Prefer a small number of substantial pages over many thin ones.`

// SystemPrompt returns the instruction block sent with every request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildPrompt renders the initial user prompt from the repository
// context.
func BuildPrompt(gc *GenerationContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s (branch %s)\n\n", gc.RepoFullName, gc.Branch)

	b.WriteString("File tree:\n")
	tree := append([]string(nil), gc.FileTree...)
	sort.Strings(tree)
	for _, path := range tree {
		b.WriteString(path)
		b.WriteByte('\n')
	}

	b.WriteString("\nFile contents:\n")
	paths := make([]string, 0, len(gc.Files))
	for path := range gc.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(&b, "\n--- %s ---\n%s\n", path, gc.Files[path])
	}

	b.WriteString("\nWrite the documentation bundle now.")
	return b.String()
}

// BuildContinuationPrompt asks for the pages not yet delivered. The
// done slugs are listed so the model does not repeat them.
func BuildContinuationPrompt(gc *GenerationContext, doneSlugs []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s (branch %s)\n\n", gc.RepoFullName, gc.Branch)
	b.WriteString("Your previous response was cut off. These pages were already received and must NOT be produced again:\n")
	slugs := append([]string(nil), doneSlugs...)
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Fprintf(&b, "- %s\n", slug)
	}
	b.WriteString("\nProduce a complete JSON bundle in the same schema containing only the remaining pages.")
	return b.String()
}
