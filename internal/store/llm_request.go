package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var llmRequestColumns = []string{
	"id", "purpose", "provider", "model", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "request_body", "response_body",
	"created_at",
}

// AppendLLMRequest records an LLM API call.
func (q *queries) AppendLLMRequest(ctx context.Context, r LLMRequest) error {
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	b := q.builder().Insert(llmRequestsTable.Name).
		Columns(llmRequestColumns...).
		Values(r.ID, r.Purpose, r.Provider, r.Model, r.InputTokens, r.OutputTokens,
			r.LatencyMs, r.Success, nullString(r.ErrorMessage), nullString(r.RequestBody),
			nullString(r.ResponseBody), ts(r.CreatedAt))
	if _, err := q.exec(ctx, b); err != nil {
		return fmt.Errorf("save LLM request: %w", err)
	}
	return nil
}

func scanLLMRequest(sc interface{ Scan(...any) error }) (LLMRequest, error) {
	var (
		r                LLMRequest
		errMsg, req, res sql.NullString
	)
	err := sc.Scan(&r.ID, &r.Purpose, &r.Provider, &r.Model, &r.InputTokens, &r.OutputTokens,
		&r.LatencyMs, &r.Success, &errMsg, &req, &res, &r.CreatedAt)
	r.ErrorMessage = errMsg.String
	r.RequestBody = req.String
	r.ResponseBody = res.String
	r.CreatedAt = r.CreatedAt.UTC()
	return r, err
}

// ListLLMRequests returns recorded calls, newest first.
func (q *queries) ListLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequest, error) {
	b := q.builder()
	sel := b.Select(llmRequestColumns...).
		From(b.Table(llmRequestsTable.Name)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id"))

	var preds []*entsql.Predicate
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("created_at", ts(opts.From)))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("created_at", ts(opts.To)))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	rows, err := q.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("query LLM requests: %w", err)
	}
	defer rows.Close()

	var out []LLMRequest
	for rows.Next() {
		r, err := scanLLMRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM request: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetLLMRequest returns a single recorded call.
func (q *queries) GetLLMRequest(ctx context.Context, id string) (*LLMRequest, error) {
	b := q.builder()
	sel := b.Select(llmRequestColumns...).
		From(b.Table(llmRequestsTable.Name)).
		Where(entsql.EQ("id", id))
	r, err := scanLLMRequest(q.queryRow(ctx, sel))
	if err != nil {
		return nil, notFound(err, "LLM request")
	}
	return &r, nil
}
