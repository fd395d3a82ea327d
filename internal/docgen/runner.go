package docgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joshlevylabs/gitscribe/internal/core/domain"
	"github.com/joshlevylabs/gitscribe/internal/logger"
)

// Runner stage names reported through ProgressFunc.
const (
	StageStarting     = "starting"
	StageCallingAPI   = "calling_api"
	StageStreaming    = "streaming"
	StageParsing      = "parsing"
	StageContinuation = "continuation"
	StageComplete     = "complete"
	StageError        = "error"
)

// ProgressFunc receives runner progress events. Implementations must
// not block; they are called from the streaming path.
type ProgressFunc func(domain.RunnerProgress)

// Runner drives a completion strategy through generation, truncation
// salvage and bounded continuation, and produces a validated bundle.
type Runner struct {
	strategy Strategy
	config   RunnerConfig
	progress ProgressFunc
}

// NewRunner builds a runner around a strategy. A nil progress func
// disables progress reporting.
func NewRunner(strategy Strategy, config RunnerConfig, progress ProgressFunc) *Runner {
	config.ApplyDefaults()
	if progress == nil {
		progress = func(domain.RunnerProgress) {}
	}
	return &Runner{strategy: strategy, config: config, progress: progress}
}

// Run generates the documentation bundle for the given context. Pages
// recovered across the initial attempt and continuations are merged by
// slug, first occurrence wins.
func (r *Runner) Run(ctx context.Context, gc *GenerationContext) (*domain.GenerationResult, error) {
	started := time.Now()
	r.report(StageStarting, "preparing prompt", 0, started)

	system := SystemPrompt()
	prompt := BuildPrompt(gc)

	acc := newAccumulator()
	totalRaw := 0

	for round := 0; ; round++ {
		stage := StageCallingAPI
		if round > 0 {
			stage = StageContinuation
		}
		r.report(stage, fmt.Sprintf("round %d via %s", round+1, r.strategy.Name()), len(acc.pages), started)

		raw, truncated, err := r.attempt(ctx, system, prompt, started, len(acc.pages))
		if err != nil {
			r.report(StageError, err.Error(), len(acc.pages), started)
			return nil, err
		}
		totalRaw += len(strings.TrimSpace(raw))

		r.report(StageParsing, "parsing response", len(acc.pages), started)
		if !truncated {
			if result, err := ParseStrict(raw); err == nil {
				acc.absorb(result)
				break
			} else {
				logger.Debug("Strict parse failed, salvaging: %v", err)
			}
		}

		outcome := Salvage(raw)
		acc.absorbSalvage(outcome)

		// Continue only when the output was cut off and rounds remain.
		if !truncated || round >= r.config.MaxContinuations {
			break
		}
		prompt = BuildContinuationPrompt(gc, acc.slugOrder)
	}

	if len(acc.pages) == 0 {
		var err error
		if totalRaw == 0 {
			err = domain.ErrEmptyOutput
		} else {
			err = domain.ErrNoPages
		}
		r.report(StageError, err.Error(), 0, started)
		return nil, err
	}

	result := acc.result()
	r.report(StageComplete, fmt.Sprintf("%d pages", len(result.Pages)), len(result.Pages), started)
	return result, nil
}

// attempt performs one strategy call under the configured timeout and
// reports streaming progress as page titles appear.
func (r *Runner) attempt(ctx context.Context, system, prompt string, started time.Time, pagesSoFar int) (string, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req := CompletionRequest{
		System:    system,
		Prompt:    prompt,
		MaxTokens: r.config.MaxTokens,
	}

	var streamed strings.Builder
	titlesSeen := 0
	onDelta := func(delta string) {
		streamed.WriteString(delta)
		if n := strings.Count(streamed.String(), `"title"`); n > titlesSeen {
			titlesSeen = n
			r.report(StageStreaming, fmt.Sprintf("page %d in progress", pagesSoFar+titlesSeen), pagesSoFar, started)
		}
	}

	result, err := r.strategy.Complete(attemptCtx, req, onDelta)
	if err != nil {
		// A timeout aborts the attempt outright; partial streamed text
		// is discarded rather than passed off as a truncated success.
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("Generation timed out after %s, discarding %d streamed bytes", r.config.Timeout, streamed.Len())
			return "", false, fmt.Errorf("generation timed out after %s: %w", r.config.Timeout, context.DeadlineExceeded)
		}
		return "", false, fmt.Errorf("strategy %s: %w", r.strategy.Name(), err)
	}

	return result.Text, result.StopReason.Truncated(), nil
}

func (r *Runner) report(stage, message string, pages int, started time.Time) {
	r.progress(domain.RunnerProgress{
		Stage:      stage,
		Message:    message,
		PagesSoFar: pages,
		Elapsed:    time.Since(started),
	})
}

// accumulator merges pages across rounds keyed by slug, first wins.
// Summary and warnings also keep their first occurrence.
type accumulator struct {
	pages     map[string]domain.DocumentationPage
	slugOrder []string

	summary        string
	summarySet     bool
	warnings       []string
	needsMoreFiles []string
	tasks          []domain.FollowUpTask
}

func newAccumulator() *accumulator {
	return &accumulator{pages: make(map[string]domain.DocumentationPage)}
}

func (a *accumulator) addPage(page domain.DocumentationPage) {
	if _, exists := a.pages[page.Slug]; exists {
		logger.Debug("Skipping duplicate page %q from continuation", page.Slug)
		return
	}
	a.pages[page.Slug] = page
	a.slugOrder = append(a.slugOrder, page.Slug)
}

func (a *accumulator) setSummary(summary string) {
	if a.summarySet || summary == "" {
		return
	}
	a.summary = summary
	a.summarySet = true
}

func (a *accumulator) absorb(result *domain.GenerationResult) {
	a.setSummary(result.Summary)
	a.warnings = append(a.warnings, result.Warnings...)
	a.needsMoreFiles = append(a.needsMoreFiles, result.NeedsMoreFiles...)
	a.tasks = append(a.tasks, result.Tasks...)
	for _, page := range result.Pages {
		a.addPage(page)
	}
}

func (a *accumulator) absorbSalvage(outcome *SalvageOutcome) {
	if outcome.SummaryFound {
		a.setSummary(outcome.Summary)
	}
	a.warnings = append(a.warnings, outcome.Warnings...)
	for _, page := range outcome.Pages {
		a.addPage(page)
	}
}

func (a *accumulator) result() *domain.GenerationResult {
	result := &domain.GenerationResult{
		Summary:        a.summary,
		Warnings:       dedupeStrings(a.warnings),
		NeedsMoreFiles: dedupeStrings(a.needsMoreFiles),
		Tasks:          a.tasks,
		Pages:          make([]domain.DocumentationPage, 0, len(a.slugOrder)),
	}
	for _, slug := range a.slugOrder {
		result.Pages = append(result.Pages, a.pages[slug])
	}
	return result
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
