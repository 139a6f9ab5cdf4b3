package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const getJob = `-- name: GetJob :one
SELECT id, title, description, status, created_at FROM jobs WHERE id = $1
`

func (q *Queries) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	row := q.db.QueryRowContext(ctx, getJob, id)
	var i Job
	err := row.Scan(
		&i.ID,
		&i.Title,
		&i.Description,
		&i.Status,
		&i.CreatedAt,
	)
	return i, err
}

const listJobSkills = `-- name: ListJobSkills :many
SELECT s.id, s.name, s.category, s.description, s.created_at
FROM skills s
JOIN job_skills js ON js.skill_id = s.id
WHERE js.job_id = $1
ORDER BY s.name
`

func (q *Queries) ListJobSkills(ctx context.Context, jobID uuid.UUID) ([]Skill, error) {
	rows, err := q.db.QueryContext(ctx, listJobSkills, jobID)
	if err != nil {
		return nil, err
	}
	return scanSkills(rows)
}

const listActiveJobSkillRows = `-- name: ListActiveJobSkillRows :many
SELECT j.id, j.title, j.created_at, s.id, s.name
FROM jobs j
JOIN job_skills js ON js.job_id = j.id
JOIN skills s ON s.id = js.skill_id
WHERE j.status = 'active'
`

type ListActiveJobSkillRowsRow struct {
	JobID     uuid.UUID
	Title     string
	CreatedAt time.Time
	SkillID   uuid.UUID
	SkillName string
}

func (q *Queries) ListActiveJobSkillRows(ctx context.Context) ([]ListActiveJobSkillRowsRow, error) {
	rows, err := q.db.QueryContext(ctx, listActiveJobSkillRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListActiveJobSkillRowsRow
	for rows.Next() {
		var i ListActiveJobSkillRowsRow
		if err := rows.Scan(
			&i.JobID,
			&i.Title,
			&i.CreatedAt,
			&i.SkillID,
			&i.SkillName,
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
