package docgen

import (
	"context"
	"fmt"
)

// Ensure FixtureStrategy implements the interface.
var _ Strategy = (*FixtureStrategy)(nil)

// defaultFixtureResponse is a minimal valid bundle returned when no
// scripted responses are supplied, so the fixture fallback still
// produces something inspectable end to end.
const defaultFixtureResponse = `{
  "summary": "Documentation generated by the fixture strategy. Configure an API key or CLI path for real output.",
  "warnings": ["fixture strategy active: output is canned"],
  "needs_more_files": [],
  "pages": [
    {
      "category": "ARCHITECTURE",
      "slug": "architecture/overview",
      "title": "Repository Overview",
      "body": "This page was produced by the deterministic fixture strategy.",
      "evidence": [
        {
          "file_path": "README.md",
          "excerpt": "README",
          "justification": "Placeholder citation from the fixture strategy."
        }
      ]
    }
  ],
  "tasks": []
}`

// FixtureStrategy replays scripted responses in order. It is the
// deterministic fallback when neither an API key nor a CLI path is
// configured, and the test double for the runner.
type FixtureStrategy struct {
	responses []CompletionResult
	calls     int
}

// NewFixtureStrategy creates a fixture strategy. With no scripted
// responses it returns a single canned valid bundle.
func NewFixtureStrategy(responses ...CompletionResult) *FixtureStrategy {
	if len(responses) == 0 {
		responses = []CompletionResult{{Text: defaultFixtureResponse, StopReason: StopEnd}}
	}
	return &FixtureStrategy{responses: responses}
}

// Name identifies the strategy.
func (s *FixtureStrategy) Name() string {
	return StrategyFixture
}

// Calls returns how many completion calls have been made.
func (s *FixtureStrategy) Calls() int {
	return s.calls
}

// Complete returns the next scripted response, replaying it through
// onDelta to simulate streaming.
func (s *FixtureStrategy) Complete(
	_ context.Context, _ CompletionRequest, onDelta func(string),
) (*CompletionResult, error) {
	if s.calls >= len(s.responses) {
		return nil, fmt.Errorf("fixture: scripted responses exhausted after %d calls", s.calls)
	}

	res := s.responses[s.calls]
	s.calls++

	if onDelta != nil && res.Text != "" {
		onDelta(res.Text)
	}

	return &CompletionResult{Text: res.Text, StopReason: res.StopReason}, nil
}
