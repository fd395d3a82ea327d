package docgen

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Default Anthropic configuration values.
const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-sonnet-latest"

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Ensure AnthropicStrategy implements the interface.
var _ Strategy = (*AnthropicStrategy)(nil)

// AnthropicStrategy streams completions from the Anthropic Messages API.
type AnthropicStrategy struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// streamRequest is the Anthropic /v1/messages request format.
type streamRequest struct {
	Model     string          `json:"model"`
	Messages  []streamMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Stream    bool            `json:"stream"`
}

// streamMessage is the Anthropic message format.
type streamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent covers the SSE event payloads we care about:
// content_block_delta carries text, message_delta carries the stop
// reason, error carries a failure.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropicStrategy creates a streaming Anthropic strategy.
func NewAnthropicStrategy(cfg RunnerConfig) (*AnthropicStrategy, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &AnthropicStrategy{
		// No client timeout: the per-attempt deadline comes from the
		// caller's context, and a fixed timeout would kill long streams.
		client:  &http.Client{},
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   model,
	}, nil
}

// Name identifies the strategy.
func (s *AnthropicStrategy) Name() string {
	return StrategyAnthropic
}

// Complete issues one streaming completion call, forwarding text deltas
// to onDelta as they arrive.
func (s *AnthropicStrategy) Complete(
	ctx context.Context, req CompletionRequest, onDelta func(string),
) (*CompletionResult, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	reqBody := streamRequest{
		Model:     s.model,
		Messages:  []streamMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: maxTokens,
		System:    req.System,
		Stream:    true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/v1/messages",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return nil, fmt.Errorf("anthropic error (status %d)", resp.StatusCode)
		}
		return nil, fmt.Errorf("anthropic error (status %d): %s", resp.StatusCode, string(body))
	}

	return s.readStream(resp.Body, onDelta)
}

// readStream consumes the SSE body, accumulating text and the final
// stop reason.
func (s *AnthropicStrategy) readStream(body io.Reader, onDelta func(string)) (*CompletionResult, error) {
	var text strings.Builder
	stopReason := StopUnknown

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			// Skip malformed keep-alive frames
			continue
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				text.WriteString(event.Delta.Text)
				if onDelta != nil {
					onDelta(event.Delta.Text)
				}
			}
		case "message_delta":
			if event.Delta.StopReason != "" {
				stopReason = mapStopReason(event.Delta.StopReason)
			}
		case "error":
			if event.Error != nil {
				return nil, fmt.Errorf("anthropic stream error: %s", event.Error.Message)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stream: %w", err)
	}

	return &CompletionResult{
		Text:       text.String(),
		StopReason: stopReason,
	}, nil
}

// mapStopReason converts an Anthropic stop reason to ours.
func mapStopReason(reason string) StopReason {
	switch reason {
	case "max_tokens":
		return StopMaxTokens
	case "end_turn", "stop_sequence":
		return StopEnd
	default:
		return StopUnknown
	}
}
