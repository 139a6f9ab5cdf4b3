package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/ai"
	"github.com/muhammadolammi/resumeworker/internal/logger"
)

// Generator produces a raw model response for a prompt.
type Generator interface {
	Generate(ctx context.Context, userID, msg string) (string, error)
}

type AIScorer struct {
	gen     Generator
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func NewAIScorer(gen Generator, model string, timeout time.Duration, logger *zap.Logger) *AIScorer {
	return &AIScorer{
		gen:     gen,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

type aiResponse struct {
	SkillsFound            []string `json:"skills_found"`
	FormatQuality          string   `json:"format_quality"`
	StructureAnalysis      string   `json:"structure_analysis"`
	ImprovementSuggestions []string `json:"improvement_suggestions"`
	OverallScore           *float64 `json:"overall_score"`

	JobMatchPercentage   *float64 `json:"job_match_percentage"`
	MatchingSkills       []string `json:"matching_skills"`
	MissingSkills        []string `json:"missing_skills"`
	TailoringSuggestions []string `json:"tailoring_suggestions"`
}

func (s *AIScorer) Score(ctx context.Context, req Request) (*Result, error) {
	if s == nil || s.gen == nil {
		return nil, fmt.Errorf("%w: %w", ErrScoringFailed, ErrAINotConfigured)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.gen.Generate(ctx, "resumeworker", ai.Message(req.Text, req.JobDescription))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoringFailed, err)
	}
	s.logger.Debug("ai response", zap.String("body", logger.TruncateForLog(raw, 512)))

	res, err := parseAIResponse(raw, req.Findings.WordCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScoringFailed, err)
	}
	res.Model = s.model
	return res, nil
}

func parseAIResponse(raw string, wordCount int) (*Result, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ai.ErrEmptyResponse
	}

	cleaned := ai.CleanJSON(raw)
	if err := ai.ValidateResponse(cleaned); err != nil {
		return nil, err
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	if resp.OverallScore == nil {
		return nil, errors.New("response has no overall_score")
	}

	skills := dedupeNames(resp.SkillsFound)
	recs := nonBlank(resp.ImprovementSuggestions)
	if len(recs) == 0 {
		recs = Recommendations(len(skills), wordCount)
	}

	res := &Result{
		Engine:           EngineAI,
		OverallScore:     *resp.OverallScore,
		SkillsFound:      skills,
		SkillScore:       SkillScore(len(skills)),
		VolumeScore:      VolumeScore(wordCount),
		MissingKeySkills: MissingKeySkills(skills),
		Recommendations:  recs,
		FormatQuality:    strings.TrimSpace(resp.FormatQuality),
	}

	if resp.JobMatchPercentage != nil {
		res.JobMatch = &JobMatch{
			Percentage:           *resp.JobMatchPercentage,
			MatchingSkills:       dedupeNames(resp.MatchingSkills),
			MissingSkills:        dedupeNames(resp.MissingSkills),
			TailoringSuggestions: nonBlank(resp.TailoringSuggestions),
		}
	}
	return res, nil
}

// dedupeNames trims names and drops blanks and case-insensitive repeats, keeping order.
func dedupeNames(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

func nonBlank(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
