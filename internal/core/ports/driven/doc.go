// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the git-hosting API, the embedding API,
// and the persistence boundary.
package driven
