// Package scoring turns analyzer findings into a quality score and recommendations.
//
// Two scorers share the Scorer interface: Deterministic, which only ever reports
// skills already in the catalog, and AIScorer, which may report skill names the
// catalog has never seen. Engine.GrowsCatalog tells the caller which case it holds.
package scoring

import (
	"context"
	"errors"

	"github.com/muhammadolammi/resumeworker/internal/textanalysis"
)

var (
	ErrScoringFailed   = errors.New("scoring failed")
	ErrAINotConfigured = errors.New("ai analysis is not configured")
)

type Engine string

const (
	EngineDeterministic Engine = "deterministic"
	EngineAI            Engine = "ai"
)

// GrowsCatalog reports whether skill names produced by the engine must be upserted
// into the skill catalog rather than looked up.
func (e Engine) GrowsCatalog() bool {
	return e == EngineAI
}

type Request struct {
	Text string
	// JobDescription is optional; only the AI scorer uses it.
	JobDescription string
	Findings       textanalysis.Findings
}

type JobMatch struct {
	Percentage           float64  `json:"job_match_percentage" bson:"job_match_percentage"`
	MatchingSkills       []string `json:"matching_skills" bson:"matching_skills"`
	MissingSkills        []string `json:"missing_skills" bson:"missing_skills"`
	TailoringSuggestions []string `json:"tailoring_suggestions" bson:"tailoring_suggestions"`
}

type Result struct {
	Engine           Engine
	Model            string
	OverallScore     float64
	SkillsFound      []string
	SkillScore       float64
	VolumeScore      float64
	MissingKeySkills []string
	Recommendations  []string
	FormatQuality    string
	JobMatch         *JobMatch
}

type Scorer interface {
	Score(ctx context.Context, req Request) (*Result, error)
}
