package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const listSkills = `-- name: ListSkills :many
SELECT id, name, category, description, created_at FROM skills ORDER BY name
`

func (q *Queries) ListSkills(ctx context.Context) ([]Skill, error) {
	rows, err := q.db.QueryContext(ctx, listSkills)
	if err != nil {
		return nil, err
	}
	return scanSkills(rows)
}

const listSkillsByCategory = `-- name: ListSkillsByCategory :many
SELECT id, name, category, description, created_at FROM skills WHERE category = $1 ORDER BY name
`

func (q *Queries) ListSkillsByCategory(ctx context.Context, category string) ([]Skill, error) {
	rows, err := q.db.QueryContext(ctx, listSkillsByCategory, category)
	if err != nil {
		return nil, err
	}
	return scanSkills(rows)
}

const getSkillByName = `-- name: GetSkillByName :one
SELECT id, name, category, description, created_at FROM skills WHERE lower(name) = lower($1)
`

func (q *Queries) GetSkillByName(ctx context.Context, name string) (Skill, error) {
	row := q.db.QueryRowContext(ctx, getSkillByName, name)
	var i Skill
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.Description,
		&i.CreatedAt,
	)
	return i, err
}

const insertSkillIfAbsent = `-- name: InsertSkillIfAbsent :exec
INSERT INTO skills (id, name, category)
VALUES ($1, $2, $3)
ON CONFLICT ((lower(name))) DO NOTHING
`

type InsertSkillIfAbsentParams struct {
	ID       uuid.UUID
	Name     string
	Category string
}

func (q *Queries) InsertSkillIfAbsent(ctx context.Context, arg InsertSkillIfAbsentParams) error {
	_, err := q.db.ExecContext(ctx, insertSkillIfAbsent, arg.ID, arg.Name, arg.Category)
	return err
}

const listResumeSkills = `-- name: ListResumeSkills :many
SELECT s.id, s.name, s.category, s.description, s.created_at
FROM skills s
JOIN resume_skills rs ON rs.skill_id = s.id
WHERE rs.resume_id = $1
ORDER BY s.name
`

func (q *Queries) ListResumeSkills(ctx context.Context, resumeID uuid.UUID) ([]Skill, error) {
	rows, err := q.db.QueryContext(ctx, listResumeSkills, resumeID)
	if err != nil {
		return nil, err
	}
	return scanSkills(rows)
}

const deleteResumeSkills = `-- name: DeleteResumeSkills :exec
DELETE FROM resume_skills WHERE resume_id = $1
`

func (q *Queries) DeleteResumeSkills(ctx context.Context, resumeID uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, deleteResumeSkills, resumeID)
	return err
}

const addResumeSkill = `-- name: AddResumeSkill :exec
INSERT INTO resume_skills (resume_id, skill_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

type AddResumeSkillParams struct {
	ResumeID uuid.UUID
	SkillID  uuid.UUID
}

func (q *Queries) AddResumeSkill(ctx context.Context, arg AddResumeSkillParams) error {
	_, err := q.db.ExecContext(ctx, addResumeSkill, arg.ResumeID, arg.SkillID)
	return err
}

const listResumeSkillRows = `-- name: ListResumeSkillRows :many
SELECT r.id, r.user_id, r.title, r.created_at, s.id, s.name
FROM resumes r
JOIN resume_skills rs ON rs.resume_id = r.id
JOIN skills s ON s.id = rs.skill_id
`

type ListResumeSkillRowsRow struct {
	ResumeID  uuid.UUID
	UserID    uuid.UUID
	Title     string
	CreatedAt time.Time
	SkillID   uuid.UUID
	SkillName string
}

func (q *Queries) ListResumeSkillRows(ctx context.Context) ([]ListResumeSkillRowsRow, error) {
	rows, err := q.db.QueryContext(ctx, listResumeSkillRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListResumeSkillRowsRow
	for rows.Next() {
		var i ListResumeSkillRowsRow
		if err := rows.Scan(
			&i.ResumeID,
			&i.UserID,
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

const skillCategoriesByUser = `-- name: SkillCategoriesByUser :many
SELECT s.category, COUNT(*) AS count
FROM resume_skills rs
JOIN resumes r ON r.id = rs.resume_id
JOIN skills s ON s.id = rs.skill_id
WHERE r.user_id = $1
GROUP BY s.category
ORDER BY count DESC, s.category
`

type SkillCategoriesByUserRow struct {
	Category string
	Count    int64
}

func (q *Queries) SkillCategoriesByUser(ctx context.Context, userID uuid.UUID) ([]SkillCategoriesByUserRow, error) {
	rows, err := q.db.QueryContext(ctx, skillCategoriesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SkillCategoriesByUserRow
	for rows.Next() {
		var i SkillCategoriesByUserRow
		if err := rows.Scan(&i.Category, &i.Count); err != nil {
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

func scanSkills(rows *sql.Rows) ([]Skill, error) {
	defer rows.Close()
	var items []Skill
	for rows.Next() {
		var i Skill
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Category,
			&i.Description,
			&i.CreatedAt,
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
