package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const insertResumeAnalysis = `-- name: InsertResumeAnalysis :exec
INSERT INTO resume_analyses (id, resume_id, user_id, extracted_text, analysis_results, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertResumeAnalysisParams struct {
	ID              string
	ResumeID        uuid.UUID
	UserID          uuid.UUID
	ExtractedText   string
	AnalysisResults json.RawMessage
	CreatedAt       time.Time
}

func (q *Queries) InsertResumeAnalysis(ctx context.Context, arg InsertResumeAnalysisParams) error {
	_, err := q.db.ExecContext(ctx, insertResumeAnalysis,
		arg.ID,
		arg.ResumeID,
		arg.UserID,
		arg.ExtractedText,
		arg.AnalysisResults,
		arg.CreatedAt,
	)
	return err
}

const getResumeAnalysis = `-- name: GetResumeAnalysis :one
SELECT id, resume_id, user_id, extracted_text, analysis_results, ai_analysis, created_at
FROM resume_analyses WHERE id = $1
`

func (q *Queries) GetResumeAnalysis(ctx context.Context, id string) (ResumeAnalysis, error) {
	row := q.db.QueryRowContext(ctx, getResumeAnalysis, id)
	var i ResumeAnalysis
	err := row.Scan(
		&i.ID,
		&i.ResumeID,
		&i.UserID,
		&i.ExtractedText,
		&i.AnalysisResults,
		&i.AiAnalysis,
		&i.CreatedAt,
	)
	return i, err
}

const deleteResumeAnalysis = `-- name: DeleteResumeAnalysis :execrows
DELETE FROM resume_analyses WHERE id = $1
`

func (q *Queries) DeleteResumeAnalysis(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteResumeAnalysis, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setResumeAnalysisAI = `-- name: SetResumeAnalysisAI :execrows
UPDATE resume_analyses SET ai_analysis = $2 WHERE id = $1
`

type SetResumeAnalysisAIParams struct {
	ID         string
	AiAnalysis json.RawMessage
}

func (q *Queries) SetResumeAnalysisAI(ctx context.Context, arg SetResumeAnalysisAIParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setResumeAnalysisAI, arg.ID, arg.AiAnalysis)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countResumeAnalysesByUser = `-- name: CountResumeAnalysesByUser :one
SELECT COUNT(*) FROM resume_analyses WHERE user_id = $1
`

func (q *Queries) CountResumeAnalysesByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	row := q.db.QueryRowContext(ctx, countResumeAnalysesByUser, userID)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const averageScoreByUser = `-- name: AverageScoreByUser :one
SELECT AVG((analysis_results->>'overall_score')::float8) FROM resume_analyses WHERE user_id = $1
`

func (q *Queries) AverageScoreByUser(ctx context.Context, userID uuid.UUID) (sql.NullFloat64, error) {
	row := q.db.QueryRowContext(ctx, averageScoreByUser, userID)
	var avg sql.NullFloat64
	err := row.Scan(&avg)
	return avg, err
}

const topSkillsByUser = `-- name: TopSkillsByUser :many
SELECT skill, COUNT(*) AS count
FROM resume_analyses, jsonb_array_elements_text(analysis_results->'skills_found') AS skill
WHERE user_id = $1
GROUP BY skill
ORDER BY count DESC, skill
LIMIT $2
`

type TopSkillsByUserParams struct {
	UserID uuid.UUID
	Limit  int32
}

type TopSkillsByUserRow struct {
	Skill string
	Count int64
}

func (q *Queries) TopSkillsByUser(ctx context.Context, arg TopSkillsByUserParams) ([]TopSkillsByUserRow, error) {
	rows, err := q.db.QueryContext(ctx, topSkillsByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopSkillsByUserRow
	for rows.Next() {
		var i TopSkillsByUserRow
		if err := rows.Scan(&i.Skill, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const lastAnalysisAtByUser = `-- name: LastAnalysisAtByUser :one
SELECT MAX(created_at) FROM resume_analyses WHERE user_id = $1
`

func (q *Queries) LastAnalysisAtByUser(ctx context.Context, userID uuid.UUID) (sql.NullTime, error) {
	row := q.db.QueryRowContext(ctx, lastAnalysisAtByUser, userID)
	var last sql.NullTime
	err := row.Scan(&last)
	return last, err
}

const listResumeAnalysesByUser = `-- name: ListResumeAnalysesByUser :many
SELECT id, resume_id, created_at, COALESCE((analysis_results->>'overall_score')::float8, 0)::float8 AS overall_score
FROM resume_analyses
WHERE user_id = $1
ORDER BY created_at DESC, id
`

type ListResumeAnalysesByUserRow struct {
	ID           string
	ResumeID     uuid.UUID
	CreatedAt    time.Time
	OverallScore float64
}

func (q *Queries) ListResumeAnalysesByUser(ctx context.Context, userID uuid.UUID) ([]ListResumeAnalysesByUserRow, error) {
	rows, err := q.db.QueryContext(ctx, listResumeAnalysesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListResumeAnalysesByUserRow
	for rows.Next() {
		var i ListResumeAnalysesByUserRow
		if err := rows.Scan(
			&i.ID,
			&i.ResumeID,
			&i.CreatedAt,
			&i.OverallScore,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
