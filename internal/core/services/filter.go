package services

import (
	"path"
	"strings"
)

// MaxIndexableSize is the largest file the sync pipeline will fetch.
const MaxIndexableSize = 1024 * 1024 // 1MB

// indexableExtensions maps file extensions to their detected language.
// Extensions not listed here are skipped during sync.
var indexableExtensions = map[string]string{
	".go":       "go",
	".py":       "python",
	".js":       "javascript",
	".jsx":      "javascript",
	".ts":       "typescript",
	".tsx":      "typescript",
	".rs":       "rust",
	".rb":       "ruby",
	".java":     "java",
	".kt":       "kotlin",
	".c":        "c",
	".h":        "c",
	".cpp":      "cpp",
	".hpp":      "cpp",
	".cs":       "csharp",
	".php":      "php",
	".swift":    "swift",
	".sh":       "shell",
	".bash":     "shell",
	".sql":      "sql",
	".proto":    "protobuf",
	".md":       "markdown",
	".markdown": "markdown",
	".rst":      "restructuredtext",
	".txt":      "text",
	".json":     "json",
	".yaml":     "yaml",
	".yml":      "yaml",
	".toml":     "toml",
	".xml":      "xml",
	".html":     "html",
	".css":      "css",
	".vue":      "vue",
	".svelte":   "svelte",
	".tf":       "terraform",
	".graphql":  "graphql",
}

// indexableFilenames are extension-less files worth indexing.
var indexableFilenames = map[string]string{
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
	"rakefile":   "ruby",
	"gemfile":    "ruby",
	"go.mod":     "gomod",
	"go.sum":     "gomod",
	"license":    "text",
	"readme":     "text",
}

// skippedDirs are path segments whose contents are never indexed.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"third_party":  true,
}

// Indexable reports whether a file should be indexed, as a pure
// function of its path and size. Oversized files, unknown or binary
// extensions, and dependency or build directories are excluded.
func Indexable(filePath string, size int64) bool {
	if size > MaxIndexableSize {
		return false
	}

	dir, _ := path.Split(filePath)
	for _, segment := range strings.Split(strings.Trim(dir, "/"), "/") {
		if skippedDirs[strings.ToLower(segment)] {
			return false
		}
	}

	base := strings.ToLower(path.Base(filePath))
	if _, ok := indexableFilenames[base]; ok {
		return true
	}

	ext := strings.ToLower(path.Ext(base))
	if ext == "" {
		return false
	}
	_, ok := indexableExtensions[ext]
	return ok
}

// DetectLanguage returns the language for a file path, or empty when
// unknown.
func DetectLanguage(filePath string) string {
	base := strings.ToLower(path.Base(filePath))
	if lang, ok := indexableFilenames[base]; ok {
		return lang
	}
	if lang, ok := indexableExtensions[strings.ToLower(path.Ext(base))]; ok {
		return lang
	}
	return ""
}
