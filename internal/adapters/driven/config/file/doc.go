// Package file provides a file-based implementation of the ConfigStore
// port, persisting configuration as TOML on the local filesystem.
package file
