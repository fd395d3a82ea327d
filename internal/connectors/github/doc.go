// Package github implements the driven.GitHostClient port against the
// GitHub REST API using go-github.
//
// The client wraps go-github with dual-strategy rate limiting (a
// proactive token bucket plus reactive header tracking) and typed
// errors. Blob content arrives base64-encoded and is decoded before it
// reaches the rest of the system.
package github
