// Package pipeline drives a résumé through pending → analyzing → completed | failed.
//
// A résumé is claimed (moved to analyzing) before any work starts. The claim is a
// conditional update, so at most one analysis per résumé runs at a time across all
// workers. The attempt loop keeps the status at analyzing between attempts and only
// the final outcome is written back.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/analysisstore"
	"github.com/muhammadolammi/resumeworker/internal/blob"
	"github.com/muhammadolammi/resumeworker/internal/database"
	"github.com/muhammadolammi/resumeworker/internal/extract"
	"github.com/muhammadolammi/resumeworker/internal/metrics"
	"github.com/muhammadolammi/resumeworker/internal/retry"
	"github.com/muhammadolammi/resumeworker/internal/scoring"
	"github.com/muhammadolammi/resumeworker/internal/textanalysis"
)

var (
	ErrEmptyExtraction  = errors.New("no text could be extracted from the resume")
	ErrAlreadyAnalyzing = errors.New("resume is already being analyzed")
	ErrResumeNotFound   = errors.New("resume not found")
	ErrNoQueue          = errors.New("no analysis queue configured")
)

// Repository is the relational side of the pipeline. *database.Store implements it.
type Repository interface {
	GetResume(ctx context.Context, id uuid.UUID) (database.Resume, error)
	ClaimResumeForAnalysis(ctx context.Context, id uuid.UUID) (database.Resume, error)
	ReleaseResumeClaim(ctx context.Context, arg database.ReleaseResumeClaimParams) (int64, error)
	CompleteAnalysis(ctx context.Context, arg database.CompleteAnalysisParams) error
	ResetStuckResumes(ctx context.Context, startedBefore time.Time) ([]uuid.UUID, error)
	ListSkills(ctx context.Context) ([]database.Skill, error)
	GetOrCreateSkill(ctx context.Context, name, category string) (database.Skill, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind extract.Kind) (string, error)
}

// Queue hands a claimed résumé to a worker.
type Queue interface {
	PublishAnalysis(ctx context.Context, resumeID uuid.UUID) error
}

// Notifier receives every status transition. Delivery is best-effort.
type Notifier interface {
	NotifyStatus(ctx context.Context, resumeID uuid.UUID, status, message string)
}

type Deps struct {
	Repo      Repository
	Files     blob.Source
	Extractor TextExtractor
	Analyzer  *textanalysis.Analyzer
	Scorer    scoring.Scorer
	Store     analysisstore.Store
	Queue     Queue
	Notifier  Notifier
}

type Orchestrator struct {
	Deps
	policy retry.Policy
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

type Option func(*Orchestrator)

// WithRetry sets the attempt count and the fixed delay between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *Orchestrator) {
		o.policy.Attempts = attempts
		o.policy.Delay = delay
	}
}

func New(deps Deps, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		Deps:     deps,
		policy:   retry.Policy{Attempts: 3, Delay: 30 * time.Second},
		logger:   logger.Named("pipeline"),
		inflight: make(map[uuid.UUID]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Outcome describes a completed analysis.
type Outcome struct {
	ResumeID uuid.UUID
	RecordID string
	Findings textanalysis.Findings
	Result   *scoring.Result
	SkillIDs []uuid.UUID
	Attempts int
}

// Claim moves the résumé to analyzing. It fails with ErrAlreadyAnalyzing when another
// run holds it and with ErrResumeNotFound when it does not exist.
func (o *Orchestrator) Claim(ctx context.Context, id uuid.UUID) (database.Resume, error) {
	resume, err := o.Repo.ClaimResumeForAnalysis(ctx, id)
	if err == nil {
		o.notify(ctx, id, database.StatusAnalyzing, "analysis queued")
		return resume, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return database.Resume{}, fmt.Errorf("failed to claim resume %s: %w", id, err)
	}

	// No row was updated: either it does not exist or it is already analyzing.
	if _, err := o.Repo.GetResume(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.Resume{}, fmt.Errorf("%w: %s", ErrResumeNotFound, id)
		}
		return database.Resume{}, fmt.Errorf("failed to get resume %s: %w", id, err)
	}
	return database.Resume{}, fmt.Errorf("%w: %s", ErrAlreadyAnalyzing, id)
}

// Enqueue claims the résumé and publishes it for a worker. If publishing fails the
// résumé goes back to the status it had before.
func (o *Orchestrator) Enqueue(ctx context.Context, id uuid.UUID) error {
	if o.Queue == nil {
		return ErrNoQueue
	}

	prev, err := o.Repo.GetResume(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get resume %s: %w", id, err)
	}
	if prev.Status == database.StatusAnalyzing {
		return fmt.Errorf("%w: %s", ErrAlreadyAnalyzing, id)
	}

	if _, err := o.Claim(ctx, id); err != nil {
		return err
	}

	if err := o.Queue.PublishAnalysis(ctx, id); err != nil {
		o.release(ctx, id, prev.Status)
		return fmt.Errorf("failed to publish analysis request: %w", err)
	}
	o.logger.Info("analysis enqueued", zap.Stringer("resume_id", id))
	return nil
}

// Analyze claims the résumé and runs the pipeline in the calling goroutine.
func (o *Orchestrator) Analyze(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	resume, err := o.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	return o.Process(ctx, resume)
}

// HandleQueued runs a résumé delivered by the queue. Deliveries for résumés that are
// no longer analyzing are stale and are dropped.
func (o *Orchestrator) HandleQueued(ctx context.Context, id uuid.UUID) (*Outcome, error) {
	resume, err := o.Repo.GetResume(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrResumeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume %s: %w", id, err)
	}
	if resume.Status != database.StatusAnalyzing {
		o.logger.Info("dropping stale analysis request",
			zap.Stringer("resume_id", id),
			zap.String("status", resume.Status),
		)
		return nil, nil
	}
	return o.Process(ctx, resume)
}

// Process runs the attempt loop for a résumé that is already claimed.
func (o *Orchestrator) Process(ctx context.Context, resume database.Resume) (*Outcome, error) {
	if !o.enter(resume.ID) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAnalyzing, resume.ID)
	}
	defer o.leave(resume.ID)

	log := o.logger.With(zap.Stringer("resume_id", resume.ID))
	start := time.Now()
	log.Info("analysis started", zap.String("file_kind", resume.FileKind))
	o.notify(ctx, resume.ID, database.StatusAnalyzing, "analysis started")

	policy := o.policy
	policy.OnRetry = func(attempt int, err error) {
		log.Warn("analysis attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", policy.Delay),
			zap.Error(err),
		)
	}

	outcome, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) (*Outcome, error) {
		out, err := o.attempt(ctx, resume)
		if err != nil {
			metrics.IncreaseFailedAttempts(stageOf(err))
			return nil, err
		}
		out.Attempts = attempt
		return out, nil
	})
	metrics.ObserveAnalysisDuration(time.Since(start))

	if err != nil {
		o.fail(ctx, resume, err)
		return nil, err
	}

	metrics.IncreaseAnalysesTotal(database.StatusCompleted)
	o.notify(ctx, resume.ID, database.StatusCompleted, "analysis completed")
	log.Info("analysis completed",
		zap.String("record_id", outcome.RecordID),
		zap.Float64("overall_score", outcome.Result.OverallScore),
		zap.Int("skills", len(outcome.SkillIDs)),
		zap.String("engine", string(outcome.Result.Engine)),
		zap.Int("attempts", outcome.Attempts),
	)
	return outcome, nil
}

func (o *Orchestrator) attempt(ctx context.Context, resume database.Resume) (*Outcome, error) {
	kind, err := extract.ParseKind(resume.FileKind)
	if err != nil {
		return nil, retry.Permanent(stageErr(stageExtract, err))
	}

	data, err := o.Files.Fetch(ctx, resume.FileKey)
	if err != nil {
		err = stageErr(stageFetch, err)
		if errors.Is(err, blob.ErrNotFound) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	text, err := o.Extractor.Extract(ctx, data, kind)
	if err != nil {
		err = stageErr(stageExtract, err)
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, stageErr(stageExtract, ErrEmptyExtraction)
	}

	catalog, err := o.Repo.ListSkills(ctx)
	if err != nil {
		return nil, stageErr(stageCatalog, err)
	}
	names := make([]string, len(catalog))
	for i, s := range catalog {
		names[i] = s.Name
	}

	findings := o.Analyzer.Analyze(text, names)
	result, err := o.Scorer.Score(ctx, scoring.Request{Text: text, Findings: findings})
	if err != nil {
		return nil, stageErr(stageScore, err)
	}

	skillIDs, err := o.mapSkills(ctx, result, catalog)
	if err != nil {
		return nil, stageErr(stageCatalog, err)
	}

	rec := analysisstore.NewRecord(resume.ID.String(), resume.UserID.String(), text, findings, result)
	recordID, err := o.Store.Put(ctx, rec)
	if err != nil {
		return nil, stageErr(stageStore, err)
	}

	err = o.Repo.CompleteAnalysis(ctx, database.CompleteAnalysisParams{
		ResumeID:    resume.ID,
		AnalysisRef: recordID,
		SkillIDs:    skillIDs,
	})
	if err != nil {
		o.discard(ctx, recordID, "orphaned")
		err = stageErr(stageComplete, err)
		if errors.Is(err, database.ErrClaimLost) {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	if prev := resume.AnalysisRef; prev.Valid && prev.String != "" && prev.String != recordID {
		o.discard(ctx, prev.String, "superseded")
	}

	return &Outcome{
		ResumeID: resume.ID,
		RecordID: recordID,
		Findings: findings,
		Result:   result,
		SkillIDs: skillIDs,
	}, nil
}

// mapSkills resolves skill names to catalog ids. Only engines that grow the catalog
// may create entries; the others can only name skills the catalog already has.
func (o *Orchestrator) mapSkills(ctx context.Context, res *scoring.Result, catalog []database.Skill) ([]uuid.UUID, error) {
	byName := make(map[string]uuid.UUID, len(catalog))
	for _, s := range catalog {
		byName[strings.ToLower(s.Name)] = s.ID
	}

	ids := make([]uuid.UUID, 0, len(res.SkillsFound))
	seen := make(map[uuid.UUID]struct{}, len(res.SkillsFound))
	for _, name := range res.SkillsFound {
		id, ok := byName[strings.ToLower(name)]
		if !ok {
			if !res.Engine.GrowsCatalog() {
				continue
			}
			skill, err := o.Repo.GetOrCreateSkill(ctx, name, database.CategoryOther)
			if err != nil {
				return nil, fmt.Errorf("failed to add skill %q to catalog: %w", name, err)
			}
			id = skill.ID
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// fail records the terminal failure. Skills and the analysis reference stay as they were.
func (o *Orchestrator) fail(ctx context.Context, resume database.Resume, cause error) {
	ctx = context.WithoutCancel(ctx)
	metrics.IncreaseAnalysesTotal(database.StatusFailed)
	o.logger.Error("analysis failed",
		zap.Stringer("resume_id", resume.ID),
		zap.String("stage", stageOf(cause)),
		zap.Error(cause),
	)

	n, err := o.Repo.ReleaseResumeClaim(ctx, database.ReleaseResumeClaimParams{ID: resume.ID, Status: database.StatusFailed})
	if err != nil {
		o.logger.Error("failed to mark resume failed", zap.Stringer("resume_id", resume.ID), zap.Error(err))
		return
	}
	if n == 0 {
		o.logger.Warn("resume left analyzing before failure was recorded", zap.Stringer("resume_id", resume.ID))
		return
	}
	o.notify(ctx, resume.ID, database.StatusFailed, "analysis failed")
}

func (o *Orchestrator) release(ctx context.Context, id uuid.UUID, status string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := o.Repo.ReleaseResumeClaim(ctx, database.ReleaseResumeClaimParams{ID: id, Status: status}); err != nil {
		o.logger.Error("failed to release resume claim", zap.Stringer("resume_id", id), zap.Error(err))
		return
	}
	o.notify(ctx, id, status, "analysis not queued")
}

// discard deletes an analysis record nothing points at. Failures are only logged.
func (o *Orchestrator) discard(ctx context.Context, recordID, reason string) {
	err := o.Store.Delete(context.WithoutCancel(ctx), recordID)
	if err != nil && !errors.Is(err, analysisstore.ErrNotFound) {
		o.logger.Warn("failed to delete analysis record",
			zap.String("record_id", recordID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) notify(ctx context.Context, id uuid.UUID, status, message string) {
	if o.Notifier != nil {
		o.Notifier.NotifyStatus(ctx, id, status, message)
	}
}

func (o *Orchestrator) enter(id uuid.UUID) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[id]; busy {
		return false
	}
	o.inflight[id] = struct{}{}
	return true
}

func (o *Orchestrator) leave(id uuid.UUID) {
	o.mu.Lock()
	delete(o.inflight, id)
	o.mu.Unlock()
}
