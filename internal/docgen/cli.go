package docgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Ensure CLIStrategy implements the interface.
var _ Strategy = (*CLIStrategy)(nil)

// CLICause classifies a CLI subprocess failure so operators get an
// actionable error instead of a bare exit code.
type CLICause string

// CLI failure causes.
const (
	CauseNotFound         CLICause = "binary_not_found"
	CauseNotAuthenticated CLICause = "not_authenticated"
	CauseRateLimited      CLICause = "rate_limited"
	CauseUnknown          CLICause = "unknown"
)

// CLIError is a classified CLI subprocess failure.
type CLIError struct {
	Cause    CLICause
	ExitCode int
	Stderr   string
}

func (e *CLIError) Error() string {
	switch e.Cause {
	case CauseNotFound:
		return "cli: completion binary not found"
	case CauseNotAuthenticated:
		return fmt.Sprintf("cli: not authenticated (exit %d)", e.ExitCode)
	case CauseRateLimited:
		return fmt.Sprintf("cli: rate limited (exit %d)", e.ExitCode)
	default:
		return fmt.Sprintf("cli: exited with code %d: %s", e.ExitCode, firstLine(e.Stderr))
	}
}

// IsCLICause checks whether an error is a CLI failure with the given cause.
func IsCLICause(err error, cause CLICause) bool {
	var cliErr *CLIError
	return errors.As(err, &cliErr) && cliErr.Cause == cause
}

// CLIStrategy pipes the concatenated prompt through an external
// completion CLI and collects stdout to end-of-process.
type CLIStrategy struct {
	path string
	args []string
}

// NewCLIStrategy creates a CLI subprocess strategy.
func NewCLIStrategy(path string, args ...string) *CLIStrategy {
	return &CLIStrategy{path: path, args: args}
}

// Name identifies the strategy.
func (s *CLIStrategy) Name() string {
	return StrategyCLI
}

// Complete runs the CLI once, writing the prompt to stdin and reading
// stdout until the process exits. The CLI has no streaming stop-reason
// channel, so a clean exit always maps to StopEnd.
func (s *CLIStrategy) Complete(
	ctx context.Context, req CompletionRequest, onDelta func(string),
) (*CompletionResult, error) {
	cmd := exec.CommandContext(ctx, s.path, s.args...)
	cmd.Stdin = strings.NewReader(req.System + "\n\n" + req.Prompt)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) || errors.Is(err, fs.ErrNotExist) {
			return nil, &CLIError{Cause: CauseNotFound}
		}
		return nil, fmt.Errorf("start cli: %w", err)
	}

	var text strings.Builder
	buf := make([]byte, 4096)
	for {
		n, readErr := stdout.Read(buf)
		if n > 0 {
			piece := string(buf[:n])
			text.WriteString(piece)
			if onDelta != nil {
				onDelta(piece)
			}
		}
		if readErr != nil {
			break
		}
	}

	if err := cmd.Wait(); err != nil {
		return nil, s.classify(err, stderr.String())
	}

	return &CompletionResult{
		Text:       text.String(),
		StopReason: StopEnd,
	}, nil
}

// classify maps a non-zero exit to a specific cause using the exit code
// and stderr content.
func (s *CLIStrategy) classify(err error, stderrText string) error {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("wait cli: %w", err)
	}

	code := exitErr.ExitCode()
	lower := strings.ToLower(stderrText)

	cause := CauseUnknown
	switch {
	case code == 127:
		cause = CauseNotFound
	case strings.Contains(lower, "not authenticated"),
		strings.Contains(lower, "not logged in"),
		strings.Contains(lower, "invalid api key"):
		cause = CauseNotAuthenticated
	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "429"):
		cause = CauseRateLimited
	}

	return &CLIError{Cause: cause, ExitCode: code, Stderr: stderrText}
}

// firstLine returns the first non-empty line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
