// Package textanalysis scans résumé text for contact details, catalog skills and
// section markers.
package textanalysis

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?(?:\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]?(?:\d{4}|\d{2}[\s.-]?\d{2})`)
)

// Keywords lists, per résumé section, the words that reveal the section. Matching is
// case-insensitive and any language may be mixed in.
type Keywords struct {
	Education  []string
	Experience []string
	Skills     []string
}

func DefaultKeywords() Keywords {
	return Keywords{
		Education:  []string{"образование", "education", "обучение", "учеба"},
		Experience: []string{"опыт работы", "experience", "стаж"},
		Skills:     []string{"навыки", "skills", "умения"},
	}
}

type ContactInfo struct {
	Emails []string `json:"emails" bson:"emails"`
	Phones []string `json:"phones" bson:"phones"`
}

type StructureFlags struct {
	HasEducation   bool `json:"has_education" bson:"has_education"`
	HasExperience  bool `json:"has_experience" bson:"has_experience"`
	HasSkills      bool `json:"has_skills" bson:"has_skills"`
	HasContactInfo bool `json:"has_contact_info" bson:"has_contact_info"`
}

type Findings struct {
	// SkillsFound keeps catalog order and holds no duplicates.
	SkillsFound []string
	Contact     ContactInfo
	WordCount   int
	Structure   StructureFlags
}

type Analyzer struct {
	keywords Keywords

	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

func New(keywords Keywords) *Analyzer {
	return &Analyzer{
		keywords: lowerAll(keywords),
		patterns: make(map[string]*regexp.Regexp),
	}
}

func (a *Analyzer) Analyze(text string, catalog []string) Findings {
	emails := emailPattern.FindAllString(text, -1)
	phones := findPhones(text)
	if emails == nil {
		emails = []string{}
	}

	lower := strings.ToLower(text)
	return Findings{
		SkillsFound: a.findSkills(text, catalog),
		Contact:     ContactInfo{Emails: emails, Phones: phones},
		WordCount:   len(strings.Fields(text)),
		Structure: StructureFlags{
			HasEducation:   containsAny(lower, a.keywords.Education),
			HasExperience:  containsAny(lower, a.keywords.Experience),
			HasSkills:      containsAny(lower, a.keywords.Skills),
			HasContactInfo: len(emails) > 0 || len(phones) > 0,
		},
	}
}

func (a *Analyzer) findSkills(text string, catalog []string) []string {
	found := []string{}
	seen := make(map[string]struct{}, len(catalog))
	for _, name := range catalog {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		if a.pattern(name).MatchString(text) {
			seen[key] = struct{}{}
			found = append(found, name)
		}
	}
	return found
}

// pattern matches name as a whole token: the runes around it must not be letters,
// digits or underscores, so "Java" never matches inside "JavaScript".
func (a *Analyzer) pattern(name string) *regexp.Regexp {
	key := strings.ToLower(name)

	a.mu.RLock()
	p, ok := a.patterns[key]
	a.mu.RUnlock()
	if ok {
		return p
	}

	p = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(name) + `(?:$|[^\p{L}\p{N}_])`)

	a.mu.Lock()
	a.patterns[key] = p
	a.mu.Unlock()
	return p
}

func findPhones(text string) []string {
	phones := []string{}
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			if unicode.IsDigit(prev) || unicode.IsLetter(prev) || prev == '+' {
				continue
			}
		}
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if unicode.IsDigit(next) || unicode.IsLetter(next) {
				continue
			}
		}
		phones = append(phones, text[start:end])
	}
	return phones
}

func containsAny(lowerText string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowerText, kw) {
			return true
		}
	}
	return false
}

func lowerAll(k Keywords) Keywords {
	lower := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return Keywords{
		Education:  lower(k.Education),
		Experience: lower(k.Experience),
		Skills:     lower(k.Skills),
	}
}
