package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// eventRepo implements EventRepo backed by sqlx and the global sequence counter.
type eventRepo struct {
	db  *sqlx.DB
	seq *sequenceCounter
}

type llmRequestRow struct {
	Sequence     int64  `db:"sequence"`
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      bool   `db:"success"`
	ErrorMessage string `db:"error_message"`
	CreatedAt    int64  `db:"created_at"`
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx, r.db)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.NamedExecContext(ctx, `INSERT INTO llm_requests
		(sequence, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, created_at)
		VALUES (:sequence, :provider, :model, :purpose, :input_tokens, :output_tokens, :latency_ms, :success, :error_message, :created_at)`,
		llmRequestRow{
			Sequence:     seqNum,
			Provider:     data.Provider,
			Model:        data.Model,
			Purpose:      data.Purpose,
			InputTokens:  data.InputTokens,
			OutputTokens: data.OutputTokens,
			LatencyMs:    data.LatencyMs,
			Success:      data.Success,
			ErrorMessage: data.ErrorMessage,
			CreatedAt:    time.Now().UnixMilli(),
		})
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}

	return nil
}

func (r *eventRepo) QueryLLMRequests(ctx context.Context, opts QueryOpts) ([]LLMRequestRecord, error) {
	where, args := opts.filters(nil, nil, "created_at")
	q := `SELECT * FROM llm_requests`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY sequence DESC` + opts.limit()

	var rows []llmRequestRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query LLM requests: %w", err)
	}

	records := make([]LLMRequestRecord, len(rows))
	for i, row := range rows {
		records[i] = LLMRequestRecord{
			Sequence:  row.Sequence,
			Timestamp: fromMillis(row.CreatedAt),
			LLMRequestEventData: LLMRequestEventData{
				Provider:     row.Provider,
				Model:        row.Model,
				Purpose:      row.Purpose,
				InputTokens:  row.InputTokens,
				OutputTokens: row.OutputTokens,
				LatencyMs:    row.LatencyMs,
				Success:      row.Success,
				ErrorMessage: row.ErrorMessage,
			},
		}
	}
	return records, nil
}

func (r *eventRepo) LLMUsage(ctx context.Context) (LLMUsage, error) {
	var rows []struct {
		Success      bool `db:"success"`
		InputTokens  int  `db:"input_tokens"`
		OutputTokens int  `db:"output_tokens"`
	}
	err := r.db.SelectContext(ctx, &rows, `SELECT success, input_tokens, output_tokens FROM llm_requests`)
	if err != nil {
		return LLMUsage{}, fmt.Errorf("query LLM usage: %w", err)
	}

	var u LLMUsage
	for _, row := range rows {
		u.Requests++
		if !row.Success {
			u.Failures++
		}
		u.InputTokens += row.InputTokens
		u.OutputTokens += row.OutputTokens
	}
	return u, nil
}
