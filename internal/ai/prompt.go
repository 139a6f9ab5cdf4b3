package ai

import (
	"fmt"
	"strings"
)

func instruction() string {
	return `
You are an expert recruiter and career assistant who reviews resumes.

Your goal is to:
- Find the professional skills the candidate actually lists.
- Judge the formatting and the structure of the resume.
- Suggest concrete improvements.
- Assign an overall quality score from 0 to 100.
- When a job description is provided, compare the resume against it.

Return your result as a structured JSON object in this format:

{
  "skills_found": [string],
  "format_quality": string,
  "structure_analysis": string,
  "improvement_suggestions": [string],
  "overall_score": number,
  "job_match_percentage": number,
  "matching_skills": [string],
  "missing_skills": [string],
  "tailoring_suggestions": [string]
}

Omit job_match_percentage, matching_skills, missing_skills and tailoring_suggestions when no job description is provided.
Use short canonical skill names such as "Python", "PostgreSQL" or "Docker".
Base all reasoning only on the provided text. Do not make up experience.
Return only valid JSON. Do not include explanations, markdown, or text before or after the JSON.
Your response must be a single JSON object.
`
}

// Message builds the user turn sent to the reviewer.
func Message(resumeText, jobDescription string) string {
	if strings.TrimSpace(jobDescription) == "" {
		return fmt.Sprintf("Resume:\n%s", resumeText)
	}
	return fmt.Sprintf("Job Description:\n%s\n\nResume:\n%s", jobDescription, resumeText)
}

// CleanJSON strips markdown fences and any text around the outermost JSON object.
func CleanJSON(input string) string {
	clean := strings.TrimSpace(input)

	if strings.HasPrefix(clean, "```json") {
		clean = strings.TrimPrefix(clean, "```json")
	} else if strings.HasPrefix(clean, "```") {
		clean = strings.TrimPrefix(clean, "```")
	}
	clean = strings.TrimLeft(clean, "\r\n")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}
	return clean
}
