package analysisstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadolammi/resumeworker/internal/database"
)

// PostgresStore keeps records in the resume_analyses JSONB table.
type PostgresStore struct {
	q   *database.Queries
	now func() time.Time
}

func NewPostgresStore(db database.DBTX) *PostgresStore {
	return &PostgresStore{q: database.New(db), now: time.Now}
}

func (s *PostgresStore) Put(ctx context.Context, rec *Record) (string, error) {
	if err := validate(rec); err != nil {
		return "", errWrite(err)
	}
	resumeID, err := uuid.Parse(rec.ResumeID)
	if err != nil {
		return "", errWrite(fmt.Errorf("resume_id: %w", err))
	}
	userID, err := uuid.Parse(rec.UserID)
	if err != nil {
		return "", errWrite(fmt.Errorf("user_id: %w", err))
	}

	results, err := json.Marshal(rec.AnalysisResults)
	if err != nil {
		return "", errWrite(fmt.Errorf("failed to marshal analysis results: %w", err))
	}

	id := uuid.NewString()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	createdAt = createdAt.UTC().Truncate(time.Millisecond)

	err = s.q.InsertResumeAnalysis(ctx, database.InsertResumeAnalysisParams{
		ID:              id,
		ResumeID:        resumeID,
		UserID:          userID,
		ExtractedText:   rec.ExtractedText,
		AnalysisResults: results,
		CreatedAt:       createdAt,
	})
	if err != nil {
		return "", errWrite(err)
	}

	rec.ID = id
	rec.CreatedAt = createdAt
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	row, err := s.q.GetResumeAnalysis(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errRead(err)
	}

	rec := &Record{
		ID:            row.ID,
		ResumeID:      row.ResumeID.String(),
		UserID:        row.UserID.String(),
		ExtractedText: row.ExtractedText,
		CreatedAt:     row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal(row.AnalysisResults, &rec.AnalysisResults); err != nil {
		return nil, errRead(fmt.Errorf("failed to decode analysis results: %w", err))
	}
	if len(row.AiAnalysis) > 0 {
		rec.AIAnalysis = new(AIAnalysis)
		if err := json.Unmarshal(row.AiAnalysis, rec.AIAnalysis); err != nil {
			return nil, errRead(fmt.Errorf("failed to decode ai analysis: %w", err))
		}
	}
	return rec, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	n, err := s.q.DeleteResumeAnalysis(ctx, id)
	if err != nil {
		return errWrite(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AttachAI(ctx context.Context, id string, ai AIAnalysis) error {
	body, err := json.Marshal(ai)
	if err != nil {
		return errWrite(fmt.Errorf("failed to marshal ai analysis: %w", err))
	}
	n, err := s.q.SetResumeAnalysisAI(ctx, database.SetResumeAnalysisAIParams{ID: id, AiAnalysis: body})
	if err != nil {
		return errWrite(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CountByUser(ctx context.Context, userID string) (int64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, errRead(err)
	}
	n, err := s.q.CountResumeAnalysesByUser(ctx, uid)
	if err != nil {
		return 0, errRead(err)
	}
	return n, nil
}

func (s *PostgresStore) AverageScoreByUser(ctx context.Context, userID string) (float64, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return 0, errRead(err)
	}
	avg, err := s.q.AverageScoreByUser(ctx, uid)
	if err != nil {
		return 0, errRead(err)
	}
	return avg.Float64, nil
}

func (s *PostgresStore) TopSkillsByUser(ctx context.Context, userID string, limit int) ([]SkillCount, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errRead(err)
	}
	if limit <= 0 {
		limit = 1 << 20
	}
	rows, err := s.q.TopSkillsByUser(ctx, database.TopSkillsByUserParams{UserID: uid, Limit: int32(limit)})
	if err != nil {
		return nil, errRead(err)
	}

	out := make([]SkillCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, SkillCount{Skill: r.Skill, Count: r.Count})
	}
	return out, nil
}

func (s *PostgresStore) LastAnalysisAt(ctx context.Context, userID string) (*time.Time, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errRead(err)
	}
	last, err := s.q.LastAnalysisAtByUser(ctx, uid)
	if err != nil {
		return nil, errRead(err)
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time.UTC()
	return &t, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, errRead(err)
	}
	rows, err := s.q.ListResumeAnalysesByUser(ctx, uid)
	if err != nil {
		return nil, errRead(err)
	}

	out := make([]Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, Summary{
			ID:           r.ID,
			ResumeID:     r.ResumeID.String(),
			CreatedAt:    r.CreatedAt.UTC(),
			OverallScore: r.OverallScore,
		})
	}
	return out, nil
}

func (s *PostgresStore) Close(context.Context) error {
	return nil
}
