// Package analysisstore persists analysis documents independently of the relational
// résumé row, which only keeps the record id.
package analysisstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/muhammadolammi/resumeworker/internal/scoring"
	"github.com/muhammadolammi/resumeworker/internal/textanalysis"
)

var (
	ErrNotFound   = errors.New("analysis record not found")
	ErrStoreWrite = errors.New("analysis store write failed")
	ErrStoreRead  = errors.New("analysis store read failed")
)

type Store interface {
	// Put stores the whole record or nothing and returns the new record id.
	Put(ctx context.Context, rec *Record) (string, error)
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
	// AttachAI sets the secondary AI analysis, leaving AnalysisResults untouched.
	AttachAI(ctx context.Context, id string, ai AIAnalysis) error

	CountByUser(ctx context.Context, userID string) (int64, error)
	// AverageScoreByUser is 0 when the user has no records.
	AverageScoreByUser(ctx context.Context, userID string) (float64, error)
	TopSkillsByUser(ctx context.Context, userID string, limit int) ([]SkillCount, error)
	// LastAnalysisAt is nil when the user has no records.
	LastAnalysisAt(ctx context.Context, userID string) (*time.Time, error)
	ListByUser(ctx context.Context, userID string) ([]Summary, error)

	Close(ctx context.Context) error
}

type Record struct {
	ID              string      `json:"id" bson:"-"`
	ResumeID        string      `json:"resume_id" bson:"resume_id"`
	UserID          string      `json:"user_id" bson:"user_id"`
	ExtractedText   string      `json:"extracted_text" bson:"extracted_text"`
	AnalysisResults Results     `json:"analysis_results" bson:"analysis_results"`
	AIAnalysis      *AIAnalysis `json:"ai_analysis,omitempty" bson:"ai_analysis,omitempty"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
}

type Results struct {
	OverallScore    float64                     `json:"overall_score" bson:"overall_score"`
	SkillsFound     []string                    `json:"skills_found" bson:"skills_found"`
	WordCount       int                         `json:"word_count" bson:"word_count"`
	ContactInfo     textanalysis.ContactInfo    `json:"contact_info" bson:"contact_info"`
	StructureFlags  textanalysis.StructureFlags `json:"structure_flags" bson:"structure_flags"`
	Recommendations []string                    `json:"recommendations" bson:"recommendations"`
	AnalysisDetails Details                     `json:"analysis_details" bson:"analysis_details"`
	Engine          string                      `json:"engine" bson:"engine"`
}

type Details struct {
	SkillScore       float64  `json:"skill_score" bson:"skill_score"`
	VolumeScore      float64  `json:"volume_score" bson:"volume_score"`
	MissingKeySkills []string `json:"missing_key_skills" bson:"missing_key_skills"`
}

type AIAnalysis struct {
	Model                  string            `json:"model" bson:"model"`
	JobID                  string            `json:"job_id,omitempty" bson:"job_id,omitempty"`
	OverallScore           float64           `json:"overall_score" bson:"overall_score"`
	SkillsFound            []string          `json:"skills_found" bson:"skills_found"`
	FormatQuality          string            `json:"format_quality,omitempty" bson:"format_quality,omitempty"`
	ImprovementSuggestions []string          `json:"improvement_suggestions" bson:"improvement_suggestions"`
	JobMatch               *scoring.JobMatch `json:"job_match,omitempty" bson:"job_match,omitempty"`
	CreatedAt              time.Time         `json:"created_at" bson:"created_at"`
}

type SkillCount struct {
	Skill string `json:"skill" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

type Summary struct {
	ID           string    `json:"id"`
	ResumeID     string    `json:"resume_id"`
	CreatedAt    time.Time `json:"created_at"`
	OverallScore float64   `json:"overall_score"`
}

// NewRecord builds the document for one pipeline run.
func NewRecord(resumeID, userID, text string, f textanalysis.Findings, res *scoring.Result) *Record {
	return &Record{
		ResumeID:      resumeID,
		UserID:        userID,
		ExtractedText: text,
		AnalysisResults: Results{
			OverallScore:    res.OverallScore,
			SkillsFound:     res.SkillsFound,
			WordCount:       f.WordCount,
			ContactInfo:     f.Contact,
			StructureFlags:  f.Structure,
			Recommendations: res.Recommendations,
			AnalysisDetails: Details{
				SkillScore:       res.SkillScore,
				VolumeScore:      res.VolumeScore,
				MissingKeySkills: res.MissingKeySkills,
			},
			Engine: string(res.Engine),
		},
	}
}

// NewAIAnalysis converts an AI scorer result into the attachable form.
func NewAIAnalysis(res *scoring.Result, jobID string, now time.Time) AIAnalysis {
	return AIAnalysis{
		Model:                  res.Model,
		JobID:                  jobID,
		OverallScore:           res.OverallScore,
		SkillsFound:            res.SkillsFound,
		FormatQuality:          res.FormatQuality,
		ImprovementSuggestions: res.Recommendations,
		JobMatch:               res.JobMatch,
		CreatedAt:              now.UTC().Truncate(time.Millisecond),
	}
}

func validate(rec *Record) error {
	if rec == nil {
		return errors.New("nil record")
	}
	if strings.TrimSpace(rec.ResumeID) == "" || strings.TrimSpace(rec.UserID) == "" {
		return errors.New("record needs resume_id and user_id")
	}
	return nil
}

// stamp sets CreatedAt at the precision every backend can store.
func stamp(rec *Record, now time.Time) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Millisecond)
}

// rankSkills orders by count descending, then by name.
func rankSkills(counts map[string]int64, limit int) []SkillCount {
	out := make([]SkillCount, 0, len(counts))
	for skill, n := range counts {
		out = append(out, SkillCount{Skill: skill, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Skill < out[j].Skill
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
