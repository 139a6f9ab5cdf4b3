package scoring

import (
	"context"
	"math"
	"strings"

	"github.com/muhammadolammi/resumeworker/internal/textanalysis"
)

const (
	maxPartScore     = 50.0
	skillTarget      = 5
	wordTarget       = 500
	shortResumeWords = 300
	longResumeWords  = 1000
	maxMissingSkills = 5
)

const (
	RecommendMoreContent  = "Add more detail about your work experience and projects."
	RecommendShorten      = "Consider shortening the résumé and focusing on key achievements."
	RecommendMoreSkills   = "Include more technical skills relevant to the position."
	RecommendQuantify     = "Use concrete numbers and results to describe your achievements."
	RecommendTailorResume = "Tailor the résumé to each vacancy, highlighting the relevant skills."
)

// keySkills is ordered: programming languages, then frameworks, then databases.
var keySkills = []string{
	"Python", "Java", "JavaScript", "C++", "C#",
	"Django", "React", "Angular", "Vue.js", "Spring",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis",
}

// Deterministic scores findings with fixed formulas. Each half is worth 50 points and
// the overall score is their mean, so OverallScore never exceeds 50.
type Deterministic struct{}

func (Deterministic) Score(_ context.Context, req Request) (*Result, error) {
	res := ScoreFindings(req.Findings)
	return &res, nil
}

func ScoreFindings(f textanalysis.Findings) Result {
	skills := f.SkillsFound
	if skills == nil {
		skills = []string{}
	}
	skillScore := SkillScore(len(skills))
	volumeScore := VolumeScore(f.WordCount)

	return Result{
		Engine:           EngineDeterministic,
		OverallScore:     (skillScore + volumeScore) / 2,
		SkillsFound:      skills,
		SkillScore:       skillScore,
		VolumeScore:      volumeScore,
		MissingKeySkills: MissingKeySkills(skills),
		Recommendations:  Recommendations(len(skills), f.WordCount),
	}
}

func SkillScore(found int) float64 {
	return math.Min(float64(found)/skillTarget, 1) * maxPartScore
}

func VolumeScore(words int) float64 {
	return math.Min(float64(words)/wordTarget, 1) * maxPartScore
}

// MissingKeySkills returns up to five reference skills absent from found.
func MissingKeySkills(found []string) []string {
	have := make(map[string]struct{}, len(found))
	for _, s := range found {
		have[strings.ToLower(s)] = struct{}{}
	}

	missing := make([]string, 0, maxMissingSkills)
	for _, s := range keySkills {
		if _, ok := have[strings.ToLower(s)]; ok {
			continue
		}
		missing = append(missing, s)
		if len(missing) == maxMissingSkills {
			break
		}
	}
	return missing
}

func Recommendations(skillCount, wordCount int) []string {
	var recs []string

	if wordCount < shortResumeWords {
		recs = append(recs, RecommendMoreContent)
	} else if wordCount > longResumeWords {
		recs = append(recs, RecommendShorten)
	}

	if skillCount < skillTarget {
		recs = append(recs, RecommendMoreSkills)
	}

	return append(recs, RecommendQuantify, RecommendTailorResume)
}
