package docgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
)

func TestSelectStrategyName(t *testing.T) {
	tests := []struct {
		name string
		cfg  RunnerConfig
		want string
	}{
		{
			name: "explicit override wins over everything",
			cfg:  RunnerConfig{Strategy: StrategyFixture, CLIPath: "/usr/bin/llm", APIKey: "sk-test"},
			want: StrategyFixture,
		},
		{
			name: "cli path beats api key",
			cfg:  RunnerConfig{CLIPath: "/usr/bin/llm", APIKey: "sk-test"},
			want: StrategyCLI,
		},
		{
			name: "api key selects anthropic",
			cfg:  RunnerConfig{APIKey: "sk-test"},
			want: StrategyAnthropic,
		},
		{
			name: "nothing configured falls back to fixture",
			cfg:  RunnerConfig{},
			want: StrategyFixture,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SelectStrategyName(tt.cfg))
		})
	}
}

func TestNewStrategy(t *testing.T) {
	s, err := NewStrategy(RunnerConfig{})
	require.NoError(t, err)
	assert.Equal(t, StrategyFixture, s.Name())

	s, err = NewStrategy(RunnerConfig{CLIPath: "/usr/bin/llm"})
	require.NoError(t, err)
	assert.Equal(t, StrategyCLI, s.Name())

	s, err = NewStrategy(RunnerConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, StrategyAnthropic, s.Name())

	_, err = NewStrategy(RunnerConfig{Strategy: "carrier-pigeon"})
	require.ErrorIs(t, err, domain.ErrRunnerUnavailable)
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestRunnerConfig_ApplyDefaults(t *testing.T) {
	cfg := RunnerConfig{}
	cfg.ApplyDefaults()
	assert.Equal(t, DefaultMaxTokens, cfg.MaxTokens)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultMaxContinuations, cfg.MaxContinuations)

	cfg = RunnerConfig{MaxTokens: 1024, Timeout: time.Minute, MaxContinuations: 5}
	cfg.ApplyDefaults()
	assert.Equal(t, 1024, cfg.MaxTokens)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, 5, cfg.MaxContinuations)

	cfg = RunnerConfig{MaxContinuations: -1}
	cfg.ApplyDefaults()
	assert.Equal(t, 0, cfg.MaxContinuations, "negative disables continuation")
}

func TestStopReason_Truncated(t *testing.T) {
	assert.True(t, StopMaxTokens.Truncated())
	assert.False(t, StopEnd.Truncated())
	assert.False(t, StopUnknown.Truncated())
}
