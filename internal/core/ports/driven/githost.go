package driven

import "context"

// TreeEntry is a single entry in a repository file tree.
type TreeEntry struct {
	// Path is the repository-relative path.
	Path string

	// SHA is the blob identifier.
	SHA string

	// Size is the blob size in bytes.
	Size int64
}

// GitHostClient retrieves file trees and byte content from a remote
// git-hosting API.
//
// Implementations may include:
//   - GitHub (REST v3 via go-github)
type GitHostClient interface {
	// GetDefaultBranch returns the repository's default branch name.
	GetDefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// GetBranchHead returns the latest commit SHA for a branch.
	GetBranchHead(ctx context.Context, owner, repo, branch string) (string, error)

	// GetTree returns all blob entries of the repository tree at the
	// given commit, recursively.
	GetTree(ctx context.Context, owner, repo, sha string) ([]TreeEntry, error)

	// GetBlob fetches and decodes a blob's content by SHA.
	// Base64 transport encoding is handled by the implementation.
	GetBlob(ctx context.Context, owner, repo, sha string) ([]byte, error)

	// CreateWebhook registers a push webhook pointing at callbackURL,
	// authenticated with the shared secret. Returns the hook ID.
	CreateWebhook(ctx context.Context, owner, repo, callbackURL, secret string) (int64, error)

	// DeleteWebhook removes a previously created push webhook.
	DeleteWebhook(ctx context.Context, owner, repo string, hookID int64) error
}
