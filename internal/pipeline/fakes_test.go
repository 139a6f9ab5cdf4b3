package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muhammadolammi/resumeworker/internal/analysisstore"
	"github.com/muhammadolammi/resumeworker/internal/blob"
	"github.com/muhammadolammi/resumeworker/internal/database"
	"github.com/muhammadolammi/resumeworker/internal/extract"
	"github.com/muhammadolammi/resumeworker/internal/scoring"
)

type fakeRepo struct {
	mu      sync.Mutex
	resumes map[uuid.UUID]database.Resume
	skills  []database.Skill
	links   map[uuid.UUID][]uuid.UUID

	completeErr error
}

func newFakeRepo(catalog ...string) *fakeRepo {
	r := &fakeRepo{
		resumes: make(map[uuid.UUID]database.Resume),
		links:   make(map[uuid.UUID][]uuid.UUID),
	}
	for _, name := range catalog {
		r.skills = append(r.skills, database.Skill{ID: uuid.New(), Name: name, Category: database.CategoryOther})
	}
	return r
}

func (r *fakeRepo) addResume(status, kind, key string) database.Resume {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := database.Resume{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		FileKey:   key,
		FileKind:  kind,
		Status:    status,
		CreatedAt: time.Now(),
	}
	r.resumes[res.ID] = res
	return res
}

func (r *fakeRepo) resume(id uuid.UUID) database.Resume {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resumes[id]
}

func (r *fakeRepo) skillNames(resumeID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, id := range r.links[resumeID] {
		for _, s := range r.skills {
			if s.ID == id {
				names = append(names, s.Name)
			}
		}
	}
	return names
}

func (r *fakeRepo) skillID(name string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.skills {
		if strings.EqualFold(s.Name, name) {
			return s.ID
		}
	}
	return uuid.Nil
}

func (r *fakeRepo) GetResume(_ context.Context, id uuid.UUID) (database.Resume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resumes[id]
	if !ok {
		return database.Resume{}, database.ErrNotFound
	}
	return res, nil
}

func (r *fakeRepo) ClaimResumeForAnalysis(_ context.Context, id uuid.UUID) (database.Resume, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resumes[id]
	if !ok || res.Status == database.StatusAnalyzing {
		return database.Resume{}, database.ErrNotFound
	}
	res.Status = database.StatusAnalyzing
	res.AnalysisStartedAt = sql.NullTime{Time: time.Now(), Valid: true}
	r.resumes[id] = res
	return res, nil
}

func (r *fakeRepo) ReleaseResumeClaim(_ context.Context, arg database.ReleaseResumeClaimParams) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resumes[arg.ID]
	if !ok || res.Status != database.StatusAnalyzing {
		return 0, nil
	}
	res.Status = arg.Status
	res.AnalysisStartedAt = sql.NullTime{}
	r.resumes[arg.ID] = res
	return 1, nil
}

func (r *fakeRepo) CompleteAnalysis(_ context.Context, arg database.CompleteAnalysisParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return r.completeErr
	}
	res, ok := r.resumes[arg.ResumeID]
	if !ok || res.Status != database.StatusAnalyzing {
		return database.ErrClaimLost
	}
	res.Status = database.StatusCompleted
	res.AnalysisRef = sql.NullString{String: arg.AnalysisRef, Valid: true}
	res.AnalysisStartedAt = sql.NullTime{}
	r.resumes[arg.ResumeID] = res
	r.links[arg.ResumeID] = append([]uuid.UUID(nil), arg.SkillIDs...)
	return nil
}

func (r *fakeRepo) ResetStuckResumes(_ context.Context, startedBefore time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, res := range r.resumes {
		if res.Status == database.StatusAnalyzing && res.AnalysisStartedAt.Time.Before(startedBefore) {
			res.Status = database.StatusPending
			res.AnalysisStartedAt = sql.NullTime{}
			r.resumes[id] = res
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *fakeRepo) ListSkills(context.Context) ([]database.Skill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]database.Skill(nil), r.skills...), nil
}

func (r *fakeRepo) GetOrCreateSkill(_ context.Context, name, category string) (database.Skill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.skills {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	s := database.Skill{ID: uuid.New(), Name: name, Category: category}
	r.skills = append(r.skills, s)
	return s, nil
}

type fakeFiles map[string]string

func (f fakeFiles) Fetch(_ context.Context, key string) ([]byte, error) {
	data, ok := f[key]
	if !ok {
		return nil, blob.ErrNotFound
	}
	return []byte(data), nil
}

func (f fakeFiles) Delete(context.Context, string) error { return nil }

// flakyExtractor fails the first failures calls, then behaves like the real extractor.
type flakyExtractor struct {
	mu       sync.Mutex
	failures int
	calls    int
	next     *extract.Extractor
}

func (e *flakyExtractor) Extract(ctx context.Context, data []byte, kind extract.Kind) (string, error) {
	e.mu.Lock()
	e.calls++
	fail := e.calls <= e.failures
	e.mu.Unlock()
	if fail {
		return "", &extract.ExtractionError{Kind: kind, Err: errors.New("pdftotext: exit status 1")}
	}
	return e.next.Extract(ctx, data, kind)
}

// blockingExtractor parks every call until release is closed.
type blockingExtractor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (e *blockingExtractor) Extract(_ context.Context, data []byte, _ extract.Kind) (string, error) {
	e.once.Do(func() { close(e.started) })
	<-e.release
	return string(data), nil
}

type failingStore struct {
	*analysisstore.MemoryStore
	failures int
	puts     int
}

func (s *failingStore) Put(ctx context.Context, rec *analysisstore.Record) (string, error) {
	s.puts++
	if s.puts <= s.failures {
		return "", analysisstore.ErrStoreWrite
	}
	return s.MemoryStore.Put(ctx, rec)
}

type stubScorer struct {
	result scoring.Result
}

func (s stubScorer) Score(context.Context, scoring.Request) (*scoring.Result, error) {
	res := s.result
	return &res, nil
}

type fakeQueue struct {
	mu        sync.Mutex
	published []uuid.UUID
	err       error
}

func (q *fakeQueue) PublishAnalysis(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.published = append(q.published, id)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	statuses []string
}

func (n *recordingNotifier) NotifyStatus(_ context.Context, _ uuid.UUID, status, _ string) {
	n.mu.Lock()
	n.statuses = append(n.statuses, status)
	n.mu.Unlock()
}

func (n *recordingNotifier) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.statuses) == 0 {
		return ""
	}
	return n.statuses[len(n.statuses)-1]
}
