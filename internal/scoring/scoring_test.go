package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/muhammadolammi/resumeworker/internal/ai"
	"github.com/muhammadolammi/resumeworker/internal/textanalysis"
)

type stubGenerator struct {
	resp  string
	err   error
	calls int
	msg   string
}

func (g *stubGenerator) Generate(_ context.Context, _, msg string) (string, error) {
	g.calls++
	g.msg = msg
	return g.resp, g.err
}

// blockingGenerator answers only when its context ends.
type blockingGenerator struct{}

func (blockingGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func findings(skills []string, words int) textanalysis.Findings {
	return textanalysis.Findings{SkillsFound: skills, WordCount: words}
}

func TestDeterministic_Scenario(t *testing.T) {
	res, err := Deterministic{}.Score(context.Background(), Request{Findings: findings([]string{"Python", "Django"}, 8)})
	require.NoError(t, err)

	assert.Equal(t, EngineDeterministic, res.Engine)
	assert.InDelta(t, 20, res.SkillScore, 1e-9)
	assert.InDelta(t, 0.8, res.VolumeScore, 1e-9)
	assert.InDelta(t, 10.4, res.OverallScore, 1e-9)
	assert.Equal(t, []string{"Python", "Django"}, res.SkillsFound)
	assert.Equal(t, []string{"Java", "JavaScript", "C++", "C#", "React"}, res.MissingKeySkills)
	assert.Equal(t, []string{
		RecommendMoreContent,
		RecommendMoreSkills,
		RecommendQuantify,
		RecommendTailorResume,
	}, res.Recommendations)
}

func TestDeterministic_Deterministic(t *testing.T) {
	f := findings([]string{"Go", "SQL", "Docker"}, 420)
	first := ScoreFindings(f)
	for range 5 {
		assert.Equal(t, first, ScoreFindings(f))
	}
}

func TestDeterministic_Ceiling(t *testing.T) {
	res := ScoreFindings(findings([]string{"a", "b", "c", "d", "e", "f", "g"}, 5000))
	assert.Equal(t, 50.0, res.SkillScore)
	assert.Equal(t, 50.0, res.VolumeScore)
	assert.Equal(t, 50.0, res.OverallScore)
}

func TestDeterministic_Monotonic(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g"}

	prev := -1.0
	for n := 0; n <= len(names); n++ {
		score := ScoreFindings(findings(names[:n], 250)).OverallScore
		assert.GreaterOrEqual(t, score, prev, "skills=%d", n)
		prev = score
	}

	prev = -1.0
	for words := 0; words <= 800; words += 50 {
		score := ScoreFindings(findings(names[:2], words)).OverallScore
		assert.GreaterOrEqual(t, score, prev, "words=%d", words)
		prev = score
	}
}

func TestDeterministic_EmptyFindings(t *testing.T) {
	res := ScoreFindings(textanalysis.Findings{})
	assert.Equal(t, 0.0, res.OverallScore)
	assert.Equal(t, []string{}, res.SkillsFound)
	assert.Len(t, res.MissingKeySkills, 5)
}

func TestMissingKeySkills_CaseInsensitive(t *testing.T) {
	got := MissingKeySkills([]string{"python", "JAVA", "c++", "Django"})
	assert.Equal(t, []string{"JavaScript", "C#", "React", "Angular", "Vue.js"}, got)
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name   string
		skills int
		words  int
		want   []string
	}{
		{name: "short and thin", skills: 1, words: 100, want: []string{RecommendMoreContent, RecommendMoreSkills, RecommendQuantify, RecommendTailorResume}},
		{name: "balanced", skills: 6, words: 600, want: []string{RecommendQuantify, RecommendTailorResume}},
		{name: "too long", skills: 5, words: 1200, want: []string{RecommendShorten, RecommendQuantify, RecommendTailorResume}},
		{name: "boundaries", skills: 5, words: 300, want: []string{RecommendQuantify, RecommendTailorResume}},
		{name: "upper boundary", skills: 5, words: 1000, want: []string{RecommendQuantify, RecommendTailorResume}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Recommendations(tt.skills, tt.words))
		})
	}
}

func TestAIScorer_ParsesResponse(t *testing.T) {
	gen := &stubGenerator{resp: "```json\n" + `{
		"skills_found": ["Python", " Kubernetes ", "python", ""],
		"format_quality": "good",
		"structure_analysis": "clear sections",
		"improvement_suggestions": ["Add metrics"],
		"overall_score": 78,
		"job_match_percentage": 60,
		"matching_skills": ["Python"],
		"missing_skills": ["Go"],
		"tailoring_suggestions": ["Mention Go"]
	}` + "\n```"}

	s := NewAIScorer(gen, "gemini-test", time.Second, zap.NewNop())
	res, err := s.Score(context.Background(), Request{
		Text:           "resume body",
		JobDescription: "Need Go",
		Findings:       findings(nil, 600),
	})
	require.NoError(t, err)

	assert.Equal(t, EngineAI, res.Engine)
	assert.True(t, res.Engine.GrowsCatalog())
	assert.Equal(t, "gemini-test", res.Model)
	assert.Equal(t, 78.0, res.OverallScore)
	assert.Equal(t, []string{"Python", "Kubernetes"}, res.SkillsFound)
	assert.Equal(t, []string{"Add metrics"}, res.Recommendations)
	assert.Equal(t, "good", res.FormatQuality)
	require.NotNil(t, res.JobMatch)
	assert.Equal(t, 60.0, res.JobMatch.Percentage)
	assert.Equal(t, []string{"Go"}, res.JobMatch.MissingSkills)
	assert.Contains(t, gen.msg, "Need Go")
}

func TestAIScorer_Errors(t *testing.T) {
	tests := []struct {
		name string
		gen  Generator
	}{
		{name: "not configured", gen: nil},
		{name: "generator error", gen: &stubGenerator{err: errors.New("quota exceeded")}},
		{name: "empty", gen: &stubGenerator{resp: "  "}},
		{name: "not json", gen: &stubGenerator{resp: "I cannot help with that"}},
		{name: "missing score", gen: &stubGenerator{resp: `{"skills_found": ["Go"]}`}},
		{name: "score out of range", gen: &stubGenerator{resp: `{"overall_score": 140}`}},
		{name: "skills not a list", gen: &stubGenerator{resp: `{"overall_score": 40, "skills_found": "Go"}`}},
		{name: "match percentage out of range", gen: &stubGenerator{resp: `{"overall_score": 40, "job_match_percentage": 250}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAIScorer(tt.gen, "m", 0, zap.NewNop()).Score(context.Background(), Request{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrScoringFailed)
		})
	}

	_, err := NewAIScorer(nil, "m", 0, zap.NewNop()).Score(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrAINotConfigured)

	_, err = NewAIScorer(&stubGenerator{resp: `{"overall_score": "high"}`}, "m", 0, zap.NewNop()).Score(context.Background(), Request{})
	var ve *ai.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "overall_score", ve.Errors[0].Field)
}

func TestAIScorer_Timeout(t *testing.T) {
	s := NewAIScorer(blockingGenerator{}, "m", 50*time.Millisecond, zap.NewNop())

	start := time.Now()
	_, err := s.Score(context.Background(), Request{Findings: findings(nil, 10)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScoringFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestAIScorer_DefaultRecommendations(t *testing.T) {
	gen := &stubGenerator{resp: `{"skills_found": [], "overall_score": 10}`}
	res, err := NewAIScorer(gen, "m", 0, zap.NewNop()).Score(context.Background(), Request{Findings: findings(nil, 50)})
	require.NoError(t, err)
	assert.Equal(t, Recommendations(0, 50), res.Recommendations)
	assert.Nil(t, res.JobMatch)
}

func TestFallback(t *testing.T) {
	det := findings([]string{"Python", "Django"}, 8)

	t.Run("primary ok", func(t *testing.T) {
		gen := &stubGenerator{resp: `{"skills_found": ["Rust"], "overall_score": 90}`}
		res, err := New(gen, "m", time.Second, zap.NewNop()).Score(context.Background(), Request{Findings: det})
		require.NoError(t, err)
		assert.Equal(t, EngineAI, res.Engine)
		assert.Equal(t, []string{"Rust"}, res.SkillsFound)
	})

	t.Run("primary times out", func(t *testing.T) {
		s := New(blockingGenerator{}, "m", 50*time.Millisecond, zap.NewNop())
		res, err := s.Score(context.Background(), Request{Findings: det})
		require.NoError(t, err)
		assert.Equal(t, EngineDeterministic, res.Engine)
		assert.Equal(t, []string{"Python", "Django"}, res.SkillsFound)
		assert.InDelta(t, 10.4, res.OverallScore, 1e-9)
	})

	for _, gen := range []*stubGenerator{
		{err: errors.New("timeout")},
		{resp: "not json at all"},
		{resp: `{"overall_score": 101}`},
	} {
		res, err := New(gen, "m", time.Second, zap.NewNop()).Score(context.Background(), Request{Findings: det})
		require.NoError(t, err)
		assert.Equal(t, EngineDeterministic, res.Engine)
		assert.False(t, res.Engine.GrowsCatalog())
		assert.InDelta(t, 10.4, res.OverallScore, 1e-9)
		assert.Equal(t, 1, gen.calls)
	}

	t.Run("ai disabled", func(t *testing.T) {
		s := New(nil, "", 0, zap.NewNop())
		_, ok := s.(Deterministic)
		assert.True(t, ok)
	})
}
