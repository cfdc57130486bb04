package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mathmaster/mathmaster/internal/logger"
	"github.com/mathmaster/mathmaster/internal/store"
)

// Recorder persists every call of the wrapped provider and logs it.
// Recording failures are logged and never fail the call.
type Recorder struct {
	inner Provider
	repo  store.LLMRequestRepo
	log   *logger.Logger
	now   func() time.Time
}

func WithRecorder(p Provider, repo store.LLMRequestRepo, log *logger.Logger) *Recorder {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorder{inner: p, repo: repo, log: log, now: time.Now}
}

func (r *Recorder) Name() string  { return r.inner.Name() }
func (r *Recorder) Model() string { return r.inner.Model() }

func (r *Recorder) Generate(ctx context.Context, req Request) (*Response, error) {
	start := r.now()
	resp, err := r.inner.Generate(ctx, req)
	latency := r.now().Sub(start)

	rec := store.LLMRequest{
		Purpose:     PurposeFrom(ctx),
		Provider:    r.inner.Name(),
		Model:       r.inner.Model(),
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
		CreatedAt:   start,
	}
	if resp != nil {
		rec.Model = resp.Model
		rec.InputTokens = resp.Usage.InputTokens
		rec.OutputTokens = resp.Usage.OutputTokens
		rec.ResponseBody = string(resp.Content)
	}
	if err != nil {
		rec.ErrorMessage = err.Error()
		r.log.Warn("llm request failed",
			"provider", rec.Provider, "model", rec.Model, "purpose", rec.Purpose,
			"latency_ms", rec.LatencyMs, "error", err)
	} else {
		r.log.Debug("llm request",
			"provider", rec.Provider, "model", rec.Model, "purpose", rec.Purpose,
			"latency_ms", rec.LatencyMs, "input_tokens", rec.InputTokens,
			"output_tokens", rec.OutputTokens)
	}

	if r.repo != nil {
		// Record even when the caller's context was cancelled.
		if recErr := r.repo.AppendLLMRequest(context.WithoutCancel(ctx), rec); recErr != nil {
			r.log.Warn("record llm request", "error", recErr)
		}
	}
	return resp, err
}

// renderRequest is the human-readable form shown by `mathmaster llm view`.
func renderRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	fmt.Fprintf(&b, "[user]\n%s\n", req.Prompt)
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "\n[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
