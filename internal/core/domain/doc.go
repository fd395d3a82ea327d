// Package domain contains the core business entities for gitscribe:
// repositories and their sync lifecycle, indexed files and chunks,
// generated documentation pages with evidence, and verification results.
// The domain layer has no dependencies on adapters or external services.
package domain
