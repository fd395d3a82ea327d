package docgen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shellStrategy builds a CLI strategy around a shell one-liner so the
// subprocess path is exercised without a real completion binary.
func shellStrategy(script string) *CLIStrategy {
	return NewCLIStrategy("/bin/sh", "-c", script)
}

func TestCLIStrategy_Complete_CollectsStdout(t *testing.T) {
	s := shellStrategy(`cat >/dev/null; printf '{"summary": "ok"}'`)

	var deltas strings.Builder
	result, err := s.Complete(context.Background(), CompletionRequest{Prompt: "hello"}, func(d string) {
		deltas.WriteString(d)
	})
	require.NoError(t, err)

	assert.Equal(t, `{"summary": "ok"}`, result.Text)
	assert.Equal(t, result.Text, deltas.String(), "streamed deltas equal final text")
	assert.Equal(t, StopEnd, result.StopReason)
}

func TestCLIStrategy_Complete_PromptReachesStdin(t *testing.T) {
	s := shellStrategy(`cat`)

	result, err := s.Complete(context.Background(), CompletionRequest{
		System: "SYSTEM",
		Prompt: "PROMPT",
	}, nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "SYSTEM")
	assert.Contains(t, result.Text, "PROMPT")
}

func TestCLIStrategy_Complete_BinaryMissing(t *testing.T) {
	s := NewCLIStrategy("/nonexistent/completion-cli")

	_, err := s.Complete(context.Background(), CompletionRequest{}, nil)
	require.Error(t, err)
	assert.True(t, IsCLICause(err, CauseNotFound))
}

func TestCLIStrategy_Complete_Exit127(t *testing.T) {
	s := shellStrategy(`cat >/dev/null; exit 127`)

	_, err := s.Complete(context.Background(), CompletionRequest{}, nil)
	require.Error(t, err)
	assert.True(t, IsCLICause(err, CauseNotFound))
}

func TestCLIStrategy_Complete_NotAuthenticated(t *testing.T) {
	s := shellStrategy(`cat >/dev/null; echo "error: not authenticated" >&2; exit 1`)

	_, err := s.Complete(context.Background(), CompletionRequest{}, nil)
	require.Error(t, err)
	assert.True(t, IsCLICause(err, CauseNotAuthenticated))
	assert.Contains(t, err.Error(), "not authenticated")
}

func TestCLIStrategy_Complete_RateLimited(t *testing.T) {
	s := shellStrategy(`cat >/dev/null; echo "Rate limit exceeded, retry later" >&2; exit 1`)

	_, err := s.Complete(context.Background(), CompletionRequest{}, nil)
	require.Error(t, err)
	assert.True(t, IsCLICause(err, CauseRateLimited))
}

func TestCLIStrategy_Complete_UnknownFailure(t *testing.T) {
	s := shellStrategy(`cat >/dev/null; echo "segmentation fault" >&2; exit 3`)

	_, err := s.Complete(context.Background(), CompletionRequest{}, nil)
	require.Error(t, err)
	assert.True(t, IsCLICause(err, CauseUnknown))
	assert.Contains(t, err.Error(), "code 3")
}

func TestCLIStrategy_Complete_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := shellStrategy(`sleep 10`)
	_, err := s.Complete(ctx, CompletionRequest{}, nil)
	require.Error(t, err)
}

func TestIsCLICause_NonCLIError(t *testing.T) {
	assert.False(t, IsCLICause(context.Canceled, CauseNotFound))
}
