// Package driving provides interfaces for application entry points
// (primary/inbound ports): sync orchestration and documentation
// generation, consumed by the CLI and the webhook listener.
package driving
