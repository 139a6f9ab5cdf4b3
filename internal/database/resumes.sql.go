package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getResume = `-- name: GetResume :one
SELECT id, user_id, title, file_key, file_kind, status, analysis_ref, analysis_started_at, created_at, updated_at
FROM resumes WHERE id = $1
`

func (q *Queries) GetResume(ctx context.Context, id uuid.UUID) (Resume, error) {
	row := q.db.QueryRowContext(ctx, getResume, id)
	var i Resume
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.FileKey,
		&i.FileKind,
		&i.Status,
		&i.AnalysisRef,
		&i.AnalysisStartedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const claimResumeForAnalysis = `-- name: ClaimResumeForAnalysis :one
UPDATE resumes
SET status = 'analyzing', analysis_started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status <> 'analyzing'
RETURNING id, user_id, title, file_key, file_kind, status, analysis_ref, analysis_started_at, created_at, updated_at
`

func (q *Queries) ClaimResumeForAnalysis(ctx context.Context, id uuid.UUID) (Resume, error) {
	row := q.db.QueryRowContext(ctx, claimResumeForAnalysis, id)
	var i Resume
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.FileKey,
		&i.FileKind,
		&i.Status,
		&i.AnalysisRef,
		&i.AnalysisStartedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const releaseResumeClaim = `-- name: ReleaseResumeClaim :execrows
UPDATE resumes
SET status = $2, analysis_started_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'analyzing'
`

type ReleaseResumeClaimParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) ReleaseResumeClaim(ctx context.Context, arg ReleaseResumeClaimParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, releaseResumeClaim, arg.ID, arg.Status)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const completeResumeAnalysis = `-- name: CompleteResumeAnalysis :execrows
UPDATE resumes
SET status = 'completed', analysis_ref = $2, analysis_started_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE id = $1 AND status = 'analyzing'
`

type CompleteResumeAnalysisParams struct {
	ID          uuid.UUID
	AnalysisRef string
}

func (q *Queries) CompleteResumeAnalysis(ctx context.Context, arg CompleteResumeAnalysisParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, completeResumeAnalysis, arg.ID, arg.AnalysisRef)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const resetStuckResumes = `-- name: ResetStuckResumes :many
UPDATE resumes
SET status = 'pending', analysis_started_at = NULL, updated_at = CURRENT_TIMESTAMP
WHERE status = 'analyzing' AND analysis_started_at < $1
RETURNING id
`

func (q *Queries) ResetStuckResumes(ctx context.Context, startedBefore time.Time) ([]uuid.UUID, error) {
	rows, err := q.db.QueryContext(ctx, resetStuckResumes, startedBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteResume = `-- name: DeleteResume :one
DELETE FROM resumes WHERE id = $1
RETURNING id, user_id, title, file_key, file_kind, status, analysis_ref, analysis_started_at, created_at, updated_at
`

func (q *Queries) DeleteResume(ctx context.Context, id uuid.UUID) (Resume, error) {
	row := q.db.QueryRowContext(ctx, deleteResume, id)
	var i Resume
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Title,
		&i.FileKey,
		&i.FileKind,
		&i.Status,
		&i.AnalysisRef,
		&i.AnalysisStartedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
