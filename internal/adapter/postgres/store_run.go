package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/stackline/foreman/internal/domain/run"
)

const runColumns = `id, company_id, project_id, conversation_id, status, prompt, answer, error,
	model, iterations, prompt_tokens, completion_tokens, cost_usd, started_at, finished_at`

func scanRun(row interface{ Scan(...any) error }) (*run.Run, error) {
	var r run.Run
	var finishedAt *time.Time
	err := row.Scan(&r.ID, &r.CompanyID, &r.ProjectID, &r.ConversationID, &r.Status,
		&r.Prompt, &r.Answer, &r.Error, &r.Model, &r.Iterations,
		&r.Metrics.PromptTokens, &r.Metrics.CompletionTokens, &r.Metrics.CostUSD,
		&r.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	r.FinishedAt = derefTime(finishedAt)
	return &r, nil
}

func (s *Store) CreateRun(ctx context.Context, r *run.Run) (*run.Run, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO runs (id, company_id, project_id, conversation_id, status, prompt, model)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+runColumns,
		r.ID, companyFromCtx(ctx), r.ProjectID, r.ConversationID, r.Status, r.Prompt, r.Model,
	)
	created, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return created, nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*run.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = $1 AND company_id = $2`,
		id, companyFromCtx(ctx),
	)
	r, err := scanRun(row)
	if err != nil {
		return nil, notFoundWrap(err, "get run %s", id)
	}
	return r, nil
}

func (s *Store) ListRunsByProject(ctx context.Context, projectID string, limit int) ([]run.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+runColumns+` FROM runs
		 WHERE project_id = $1 AND company_id = $2 ORDER BY started_at DESC LIMIT $3`,
		projectID, companyFromCtx(ctx), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var result []run.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// FinishRun persists the terminal state of a run: status, answer, error,
// iteration count and accumulated metrics.
func (s *Store) FinishRun(ctx context.Context, r *run.Run) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, answer = $2, error = $3, iterations = $4,
		   prompt_tokens = $5, completion_tokens = $6, cost_usd = $7, finished_at = NOW()
		 WHERE id = $8 AND company_id = $9`,
		r.Status, r.Answer, r.Error, r.Iterations,
		r.Metrics.PromptTokens, r.Metrics.CompletionTokens, r.Metrics.CostUSD,
		r.ID, companyFromCtx(ctx),
	)
	return execExpectOne(tag, err, "finish run %s", r.ID)
}

func (s *Store) CreateToolCallLog(ctx context.Context, l *run.ToolCallLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tool_call_logs (run_id, tool, status, duration_ms, input_hash, output)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		l.RunID, l.Tool, l.Status, l.DurationMS, l.InputHash, l.Output,
	)
	if err != nil {
		return fmt.Errorf("create tool call log: %w", err)
	}
	return nil
}

func (s *Store) ListToolCallLogs(ctx context.Context, runID string) ([]run.ToolCallLog, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id, tool, status, duration_ms, input_hash, output, created_at
		 FROM tool_call_logs WHERE run_id = $1 ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tool call logs: %w", err)
	}
	defer rows.Close()

	var result []run.ToolCallLog
	for rows.Next() {
		var l run.ToolCallLog
		if err := rows.Scan(&l.ID, &l.RunID, &l.Tool, &l.Status, &l.DurationMS,
			&l.InputHash, &l.Output, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan tool call log: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
