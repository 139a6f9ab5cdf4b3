package analysisstore

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory. Used by tests and single-shot CLI runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, rec *Record) (string, error) {
	if err := validate(rec); err != nil {
		return "", errWrite(err)
	}
	if err := ctx.Err(); err != nil {
		return "", errWrite(err)
	}

	stored := clone(*rec)
	stored.ID = uuid.NewString()
	stamp(&stored, s.now())

	s.mu.Lock()
	s.records[stored.ID] = stored
	s.mu.Unlock()

	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(rec)
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) AttachAI(_ context.Context, id string, ai AIAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	rec.AIAnalysis = &ai
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) byUser(userID string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out
}

func (s *MemoryStore) CountByUser(_ context.Context, userID string) (int64, error) {
	return int64(len(s.byUser(userID))), nil
}

func (s *MemoryStore) AverageScoreByUser(_ context.Context, userID string) (float64, error) {
	recs := s.byUser(userID)
	if len(recs) == 0 {
		return 0, nil
	}
	var sum float64
	for _, rec := range recs {
		sum += rec.AnalysisResults.OverallScore
	}
	return sum / float64(len(recs)), nil
}

func (s *MemoryStore) TopSkillsByUser(_ context.Context, userID string, limit int) ([]SkillCount, error) {
	counts := make(map[string]int64)
	for _, rec := range s.byUser(userID) {
		for _, skill := range rec.AnalysisResults.SkillsFound {
			counts[skill]++
		}
	}
	return rankSkills(counts, limit), nil
}

func (s *MemoryStore) LastAnalysisAt(_ context.Context, userID string) (*time.Time, error) {
	var last *time.Time
	for _, rec := range s.byUser(userID) {
		if last == nil || rec.CreatedAt.After(*last) {
			t := rec.CreatedAt
			last = &t
		}
	}
	return last, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Summary, error) {
	recs := s.byUser(userID)
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Summary{
			ID:           rec.ID,
			ResumeID:     rec.ResumeID,
			CreatedAt:    rec.CreatedAt,
			OverallScore: rec.AnalysisResults.OverallScore,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error {
	return nil
}

// clone copies the slices so callers cannot mutate stored records.
func clone(rec Record) Record {
	r := rec.AnalysisResults
	r.SkillsFound = slices.Clone(r.SkillsFound)
	r.Recommendations = slices.Clone(r.Recommendations)
	r.ContactInfo.Emails = slices.Clone(r.ContactInfo.Emails)
	r.ContactInfo.Phones = slices.Clone(r.ContactInfo.Phones)
	r.AnalysisDetails.MissingKeySkills = slices.Clone(r.AnalysisDetails.MissingKeySkills)
	rec.AnalysisResults = r
	if rec.AIAnalysis != nil {
		ai := *rec.AIAnalysis
		rec.AIAnalysis = &ai
	}
	return rec
}
