// Package matching ranks jobs and résumés by skill overlap.
//
// Ranking is by matching skill count, descending. Ties go to the most recently
// created candidate, then to the smaller id, so equal inputs always rank the same.
package matching

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Candidate is a job posting or a résumé together with its skill set.
type Candidate struct {
	ID        uuid.UUID   `json:"id"`
	OwnerID   uuid.UUID   `json:"owner_id,omitempty"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"created_at"`
	SkillIDs  []uuid.UUID `json:"-"`
}

type Match struct {
	Candidate
	MatchingSkillCount int `json:"matching_skill_count"`
}

type Percentage struct {
	Percentage     float64  `json:"percentage"`
	MatchingSkills []string `json:"matching_skills"`
	MissingSkills  []string `json:"missing_skills"`
}

// MatchJobsForResume ranks active jobs against a résumé's skills.
func MatchJobsForResume(resumeSkillIDs []uuid.UUID, activeJobs []Candidate) []Match {
	return rank(resumeSkillIDs, activeJobs)
}

// MatchResumesForJob ranks résumés against a job's required skills.
func MatchResumesForJob(jobSkillIDs []uuid.UUID, resumes []Candidate) []Match {
	return rank(jobSkillIDs, resumes)
}

func rank(skillIDs []uuid.UUID, candidates []Candidate) []Match {
	want := make(map[uuid.UUID]struct{}, len(skillIDs))
	for _, id := range skillIDs {
		want[id] = struct{}{}
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		seen := make(map[uuid.UUID]struct{}, len(c.SkillIDs))
		n := 0
		for _, id := range c.SkillIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if _, ok := want[id]; ok {
				n++
			}
		}
		if n > 0 {
			matches = append(matches, Match{Candidate: c, MatchingSkillCount: n})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.MatchingSkillCount != b.MatchingSkillCount {
			return a.MatchingSkillCount > b.MatchingSkillCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return matches
}

// MatchPercentage compares skill names case-insensitively. The percentage is the share
// of job skills the résumé covers, rounded to one decimal, and 0 for a job with no skills.
// Both name lists are sorted.
func MatchPercentage(resumeSkills, jobSkills []string) Percentage {
	have := make(map[string]struct{}, len(resumeSkills))
	for _, s := range resumeSkills {
		have[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	out := Percentage{MatchingSkills: []string{}, MissingSkills: []string{}}
	seen := make(map[string]struct{}, len(jobSkills))
	for _, s := range jobSkills {
		key := strings.ToLower(strings.TrimSpace(s))
		if _, dup := seen[key]; dup || key == "" {
			continue
		}
		seen[key] = struct{}{}

		if _, ok := have[key]; ok {
			out.MatchingSkills = append(out.MatchingSkills, s)
		} else {
			out.MissingSkills = append(out.MissingSkills, s)
		}
	}
	sort.Strings(out.MatchingSkills)
	sort.Strings(out.MissingSkills)

	if total := len(seen); total > 0 {
		out.Percentage = math.Round(float64(len(out.MatchingSkills))*1000/float64(total)) / 10
	}
	return out
}
