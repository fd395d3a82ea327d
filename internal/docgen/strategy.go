package docgen

import (
	"context"
	"fmt"
	"time"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

// StopReason explains why a completion call ended.
type StopReason string

// Completion stop reasons.
const (
	// StopEnd means the model finished naturally.
	StopEnd StopReason = "end"

	// StopMaxTokens means the output-length budget was exhausted.
	StopMaxTokens StopReason = "max_tokens"

	// StopUnknown means the provider reported no recognisable reason.
	StopUnknown StopReason = "unknown"
)

// Truncated reports whether the stop reason indicates truncation.
func (s StopReason) Truncated() bool {
	return s == StopMaxTokens
}

// CompletionRequest is a single completion call.
type CompletionRequest struct {
	// System is the system prompt.
	System string

	// Prompt is the user prompt.
	Prompt string

	// MaxTokens is the output-length budget.
	MaxTokens int
}

// CompletionResult is the accumulated output of a completion call.
type CompletionResult struct {
	// Text is the full accumulated output.
	Text string

	// StopReason explains why the call ended.
	StopReason StopReason
}

// Strategy is a documentation completion backend. Implementations
// stream output through onDelta as it arrives and return the full
// accumulated result.
type Strategy interface {
	// Name identifies the strategy ("anthropic", "cli", "fixture").
	Name() string

	// Complete issues one completion call. onDelta may be nil.
	Complete(ctx context.Context, req CompletionRequest, onDelta func(string)) (*CompletionResult, error)
}

// Strategy names.
const (
	StrategyAnthropic = "anthropic"
	StrategyCLI       = "cli"
	StrategyFixture   = "fixture"
)

// RunnerConfig is the explicit configuration driving strategy selection
// and runner behaviour. No environment variables are read anywhere in
// this package.
type RunnerConfig struct {
	// Strategy is an explicit override; when set it wins outright.
	Strategy string

	// CLIPath is the path to a local completion CLI binary.
	CLIPath string

	// CLIArgs are extra arguments passed to the CLI.
	CLIArgs []string

	// APIKey is the Anthropic API key.
	APIKey string

	// BaseURL overrides the API base URL.
	BaseURL string

	// Model is the completion model to use.
	Model string

	// MaxTokens is the per-call output budget (default 8192).
	MaxTokens int

	// Timeout is the wall-clock limit per attempt (default 5m).
	Timeout time.Duration

	// MaxContinuations caps continuation rounds (default 2).
	MaxContinuations int
}

// Default runner configuration values.
const (
	DefaultMaxTokens        = 8192
	DefaultTimeout          = 5 * time.Minute
	DefaultMaxContinuations = 2
)

// ApplyDefaults fills zero-valued fields with the defaults. A negative
// MaxContinuations disables continuation entirely.
func (c *RunnerConfig) ApplyDefaults() {
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxContinuations == 0 {
		c.MaxContinuations = DefaultMaxContinuations
	}
	if c.MaxContinuations < 0 {
		c.MaxContinuations = 0
	}
}

// SelectStrategyName resolves which strategy a configuration asks for.
// Pure function: explicit override, then CLI path, then API key, then
// the fixture fallback.
func SelectStrategyName(cfg RunnerConfig) string {
	if cfg.Strategy != "" {
		return cfg.Strategy
	}
	if cfg.CLIPath != "" {
		return StrategyCLI
	}
	if cfg.APIKey != "" {
		return StrategyAnthropic
	}
	return StrategyFixture
}

// NewStrategy builds the strategy a configuration selects.
func NewStrategy(cfg RunnerConfig) (Strategy, error) {
	switch name := SelectStrategyName(cfg); name {
	case StrategyAnthropic:
		return NewAnthropicStrategy(cfg)
	case StrategyCLI:
		return NewCLIStrategy(cfg.CLIPath, cfg.CLIArgs...), nil
	case StrategyFixture:
		return NewFixtureStrategy(), nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", domain.ErrRunnerUnavailable, name)
	}
}
