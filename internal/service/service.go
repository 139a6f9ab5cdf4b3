// Package service is the surface the web layer calls: run an analysis, read it back,
// match résumés and jobs, and report per-user statistics.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/analysisstore"
	"github.com/muhammadolammi/resumeworker/internal/blob"
	"github.com/muhammadolammi/resumeworker/internal/database"
	"github.com/muhammadolammi/resumeworker/internal/matching"
	"github.com/muhammadolammi/resumeworker/internal/pipeline"
	"github.com/muhammadolammi/resumeworker/internal/scoring"
	"github.com/muhammadolammi/resumeworker/internal/textanalysis"
)

var (
	ErrNotAvailable         = errors.New("analysis not available")
	ErrAnalysisNotCompleted = errors.New("resume analysis is not completed")
	ErrJobNotFound          = errors.New("job not found")
	ErrInvalidCategory      = errors.New("invalid skill category")
)

const topSkillsLimit = 10

type Repository interface {
	GetResume(ctx context.Context, id uuid.UUID) (database.Resume, error)
	DeleteResume(ctx context.Context, id uuid.UUID) (database.Resume, error)
	ListResumeSkills(ctx context.Context, resumeID uuid.UUID) ([]database.Skill, error)
	ListResumeSkillRows(ctx context.Context) ([]database.ListResumeSkillRowsRow, error)
	GetJob(ctx context.Context, id uuid.UUID) (database.Job, error)
	ListJobSkills(ctx context.Context, jobID uuid.UUID) ([]database.Skill, error)
	ListActiveJobSkillRows(ctx context.Context) ([]database.ListActiveJobSkillRowsRow, error)
	SkillCategoriesByUser(ctx context.Context, userID uuid.UUID) ([]database.SkillCategoriesByUserRow, error)
	ListSkills(ctx context.Context) ([]database.Skill, error)
	ListSkillsByCategory(ctx context.Context, category string) ([]database.Skill, error)
}

// Runner starts analyses. *pipeline.Orchestrator implements it.
type Runner interface {
	Enqueue(ctx context.Context, id uuid.UUID) error
	Analyze(ctx context.Context, id uuid.UUID) (*pipeline.Outcome, error)
}

type Service struct {
	repo   Repository
	store  analysisstore.Store
	files  blob.Source
	runner Runner
	// reviewer is nil when AI analysis is not configured.
	reviewer scoring.Scorer
	logger   *zap.Logger
	now      func() time.Time
}

func New(repo Repository, store analysisstore.Store, files blob.Source, runner Runner, reviewer scoring.Scorer, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		store:    store,
		files:    files,
		runner:   runner,
		reviewer: reviewer,
		logger:   logger.Named("service"),
		now:      time.Now,
	}
}

// RunAnalysis queues the résumé for analysis, or runs it inline when no queue is
// configured. A résumé that is already analyzing yields pipeline.ErrAlreadyAnalyzing
// and nothing else happens.
func (s *Service) RunAnalysis(ctx context.Context, resumeID uuid.UUID) error {
	err := s.runner.Enqueue(ctx, resumeID)
	if !errors.Is(err, pipeline.ErrNoQueue) {
		return err
	}
	_, err = s.runner.Analyze(ctx, resumeID)
	return err
}

func (s *Service) getResume(ctx context.Context, id uuid.UUID) (database.Resume, error) {
	r, err := s.repo.GetResume(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return database.Resume{}, fmt.Errorf("%w: %s", pipeline.ErrResumeNotFound, id)
	}
	if err != nil {
		return database.Resume{}, fmt.Errorf("failed to get resume %s: %w", id, err)
	}
	return r, nil
}

// GetAnalysis returns the record the résumé currently points at. A missing record or
// an unreachable store is reported as ErrNotAvailable and is not retried.
func (s *Service) GetAnalysis(ctx context.Context, resumeID uuid.UUID) (*analysisstore.Record, error) {
	r, err := s.getResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if !r.AnalysisRef.Valid || r.AnalysisRef.String == "" {
		return nil, fmt.Errorf("%w: resume %s has not been analyzed", ErrNotAvailable, resumeID)
	}

	rec, err := s.store.Get(ctx, r.AnalysisRef.String)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	return rec, nil
}

func (s *Service) ListAnalyses(ctx context.Context, userID uuid.UUID) ([]analysisstore.Summary, error) {
	list, err := s.store.ListByUser(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	return list, nil
}

func (s *Service) MatchJobsForResume(ctx context.Context, resumeID uuid.UUID) ([]matching.Match, error) {
	if _, err := s.getResume(ctx, resumeID); err != nil {
		return nil, err
	}
	skills, err := s.repo.ListResumeSkills(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resume skills: %w", err)
	}

	rows, err := s.repo.ListActiveJobSkillRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active jobs: %w", err)
	}
	jobs := groupCandidates(rows, func(r database.ListActiveJobSkillRowsRow) (matching.Candidate, uuid.UUID) {
		return matching.Candidate{ID: r.JobID, Title: r.Title, CreatedAt: r.CreatedAt}, r.SkillID
	})

	return matching.MatchJobsForResume(skillIDs(skills), jobs), nil
}

func (s *Service) MatchResumesForJob(ctx context.Context, jobID uuid.UUID) ([]matching.Match, error) {
	if _, err := s.getJob(ctx, jobID); err != nil {
		return nil, err
	}
	skills, err := s.repo.ListJobSkills(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job skills: %w", err)
	}

	rows, err := s.repo.ListResumeSkillRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	resumes := groupCandidates(rows, func(r database.ListResumeSkillRowsRow) (matching.Candidate, uuid.UUID) {
		return matching.Candidate{ID: r.ResumeID, OwnerID: r.UserID, Title: r.Title, CreatedAt: r.CreatedAt}, r.SkillID
	})

	return matching.MatchResumesForJob(skillIDs(skills), resumes), nil
}

func (s *Service) ComputeMatchPercentage(ctx context.Context, resumeID, jobID uuid.UUID) (matching.Percentage, error) {
	if _, err := s.getResume(ctx, resumeID); err != nil {
		return matching.Percentage{}, err
	}
	if _, err := s.getJob(ctx, jobID); err != nil {
		return matching.Percentage{}, err
	}

	resumeSkills, err := s.repo.ListResumeSkills(ctx, resumeID)
	if err != nil {
		return matching.Percentage{}, fmt.Errorf("failed to list resume skills: %w", err)
	}
	jobSkills, err := s.repo.ListJobSkills(ctx, jobID)
	if err != nil {
		return matching.Percentage{}, fmt.Errorf("failed to list job skills: %w", err)
	}
	return matching.MatchPercentage(skillNames(resumeSkills), skillNames(jobSkills)), nil
}

type Statistics struct {
	TotalAnalyses    int64                      `json:"total_analyses"`
	AverageScore     float64                    `json:"average_score"`
	TopSkills        []analysisstore.SkillCount `json:"top_skills"`
	SkillsByCategory map[string]int64           `json:"skills_by_category"`
	LastAnalysisDate *time.Time                 `json:"last_analysis_date"`
}

func (s *Service) GetStatistics(ctx context.Context, userID uuid.UUID) (*Statistics, error) {
	uid := userID.String()

	total, err := s.store.CountByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	avg, err := s.store.AverageScoreByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	top, err := s.store.TopSkillsByUser(ctx, uid, topSkillsLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}
	last, err := s.store.LastAnalysisAt(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}

	rows, err := s.repo.SkillCategoriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count skills by category: %w", err)
	}
	byCategory := make(map[string]int64, len(rows))
	for _, r := range rows {
		byCategory[r.Category] = r.Count
	}

	return &Statistics{
		TotalAnalyses:    total,
		AverageScore:     avg,
		TopSkills:        top,
		SkillsByCategory: byCategory,
		LastAnalysisDate: last,
	}, nil
}

// DeleteResume removes the résumé row first. Its analysis record and file are then
// removed best-effort: failures there are logged and do not fail the delete.
func (s *Service) DeleteResume(ctx context.Context, resumeID uuid.UUID) error {
	r, err := s.repo.DeleteResume(ctx, resumeID)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", pipeline.ErrResumeNotFound, resumeID)
	}
	if err != nil {
		return fmt.Errorf("failed to delete resume %s: %w", resumeID, err)
	}

	log := s.logger.With(zap.Stringer("resume_id", resumeID))
	if r.AnalysisRef.Valid && r.AnalysisRef.String != "" {
		err := s.store.Delete(ctx, r.AnalysisRef.String)
		if err != nil && !errors.Is(err, analysisstore.ErrNotFound) {
			log.Warn("failed to delete analysis record", zap.String("record_id", r.AnalysisRef.String), zap.Error(err))
		}
	}
	if s.files != nil && r.FileKey != "" {
		if err := s.files.Delete(ctx, r.FileKey); err != nil {
			log.Warn("failed to delete resume file", zap.String("file_key", r.FileKey), zap.Error(err))
		}
	}
	log.Info("resume deleted")
	return nil
}

// AttachAIAnalysis runs the AI reviewer over a completed analysis, optionally against a
// job posting, and stores the review next to the base results.
func (s *Service) AttachAIAnalysis(ctx context.Context, resumeID uuid.UUID, jobID *uuid.UUID) (*analysisstore.AIAnalysis, error) {
	if s.reviewer == nil {
		return nil, scoring.ErrAINotConfigured
	}

	r, err := s.getResume(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if r.Status != database.StatusCompleted || !r.AnalysisRef.Valid {
		return nil, fmt.Errorf("%w: status is %s", ErrAnalysisNotCompleted, r.Status)
	}

	rec, err := s.store.Get(ctx, r.AnalysisRef.String)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotAvailable, err)
	}

	req := scoring.Request{
		Text:     rec.ExtractedText,
		Findings: textanalysis.Findings{SkillsFound: rec.AnalysisResults.SkillsFound, WordCount: rec.AnalysisResults.WordCount},
	}
	var jobRef string
	if jobID != nil {
		job, err := s.getJob(ctx, *jobID)
		if err != nil {
			return nil, err
		}
		req.JobDescription = strings.TrimSpace(job.Title + "\n\n" + job.Description)
		jobRef = job.ID.String()
	}

	res, err := s.reviewer.Score(ctx, req)
	if err != nil {
		return nil, err
	}

	ai := analysisstore.NewAIAnalysis(res, jobRef, s.now())
	if err := s.store.AttachAI(ctx, rec.ID, ai); err != nil {
		return nil, err
	}
	return &ai, nil
}

// ListSkills returns the catalog, optionally narrowed to one category.
func (s *Service) ListSkills(ctx context.Context, category string) ([]database.Skill, error) {
	if category == "" {
		return s.repo.ListSkills(ctx)
	}
	if !database.ValidCategory(category) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	return s.repo.ListSkillsByCategory(ctx, category)
}

func (s *Service) getJob(ctx context.Context, id uuid.UUID) (database.Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return database.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return database.Job{}, fmt.Errorf("failed to get job %s: %w", id, err)
	}
	return job, nil
}

// groupCandidates folds (candidate, skill) rows into one candidate per id, keeping
// first-seen order.
func groupCandidates[R any](rows []R, split func(R) (matching.Candidate, uuid.UUID)) []matching.Candidate {
	index := make(map[uuid.UUID]int, len(rows))
	var out []matching.Candidate
	for _, r := range rows {
		c, skill := split(r)
		i, ok := index[c.ID]
		if !ok {
			i = len(out)
			index[c.ID] = i
			out = append(out, c)
		}
		out[i].SkillIDs = append(out[i].SkillIDs, skill)
	}
	return out
}

func skillIDs(skills []database.Skill) []uuid.UUID {
	ids := make([]uuid.UUID, len(skills))
	for i, s := range skills {
		ids[i] = s.ID
	}
	return ids
}

func skillNames(skills []database.Skill) []string {
	names := make([]string, len(skills))
	for i, s := range skills {
		names[i] = s.Name
	}
	return names
}
