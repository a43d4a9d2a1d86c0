package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/stackline/foreman/internal/domain/action"
)

const actionColumns = `id, company_id, project_id, run_id, type, payload, requires_approval,
	status, recipient_id, sender_id, remind_at, dedupe_key, created_at, executed_at`

func scanActionRecord(row interface{ Scan(...any) error }) (*action.Record, error) {
	var r action.Record
	var runID, recipientID, senderID *string
	var remindAt, executedAt *time.Time
	err := row.Scan(&r.ID, &r.CompanyID, &r.ProjectID, &runID, &r.Type, &r.Payload,
		&r.RequiresApproval, &r.Status, &recipientID, &senderID, &remindAt, &r.DedupeKey,
		&r.CreatedAt, &executedAt)
	if err != nil {
		return nil, err
	}
	r.RunID = derefString(runID)
	r.RecipientID = derefString(recipientID)
	r.SenderID = derefString(senderID)
	r.RemindAt = derefTime(remindAt)
	r.ExecutedAt = derefTime(executedAt)
	return &r, nil
}

func (s *Store) CreateActionRecord(ctx context.Context, r *action.Record) (*action.Record, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO action_records
		   (company_id, project_id, run_id, type, payload, requires_approval, status,
		    recipient_id, sender_id, remind_at, dedupe_key, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING `+actionColumns,
		companyFromCtx(ctx), r.ProjectID, nullIfEmpty(r.RunID), r.Type, r.Payload,
		r.RequiresApproval, r.Status, nullIfEmpty(r.RecipientID), nullIfEmpty(r.SenderID),
		nullTime(r.RemindAt), r.DedupeKey, nullTime(r.ExecutedAt),
	)
	created, err := scanActionRecord(row)
	if err != nil {
		return nil, fmt.Errorf("create action record: %w", err)
	}
	return created, nil
}

func (s *Store) GetActionRecord(ctx context.Context, id string) (*action.Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+actionColumns+` FROM action_records WHERE id = $1 AND company_id = $2`,
		id, companyFromCtx(ctx),
	)
	r, err := scanActionRecord(row)
	if err != nil {
		return nil, notFoundWrap(err, "get action record %s", id)
	}
	return r, nil
}

// ListActionRecords returns records for a project, optionally filtered by
// status. An empty status returns all.
func (s *Store) ListActionRecords(ctx context.Context, projectID string, status action.Status) ([]action.Record, error) {
	query := `SELECT ` + actionColumns + ` FROM action_records
		 WHERE project_id = $1 AND company_id = $2`
	args := []any{projectID, companyFromCtx(ctx)}
	if status != "" {
		query += ` AND status = $3`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list action records: %w", err)
	}
	defer rows.Close()

	var result []action.Record
	for rows.Next() {
		r, err := scanActionRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action record: %w", err)
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (s *Store) UpdateActionStatus(ctx context.Context, id string, status action.Status, executedAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE action_records SET status = $1, executed_at = $2 WHERE id = $3 AND company_id = $4`,
		status, nullTime(executedAt), id, companyFromCtx(ctx),
	)
	return execExpectOne(tag, err, "update action record %s status", id)
}
