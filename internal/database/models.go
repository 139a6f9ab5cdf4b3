package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Resume struct {
	ID                uuid.UUID      `json:"id"`
	UserID            uuid.UUID      `json:"user_id"`
	Title             string         `json:"title"`
	FileKey           string         `json:"file_key"`
	FileKind          string         `json:"file_kind"`
	Status            string         `json:"status"`
	AnalysisRef       sql.NullString `json:"analysis_ref"`
	AnalysisStartedAt sql.NullTime   `json:"analysis_started_at"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type Skill struct {
	ID          uuid.UUID      `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description sql.NullString `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Job struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type ResumeAnalysis struct {
	ID              string          `json:"id"`
	ResumeID        uuid.UUID       `json:"resume_id"`
	UserID          uuid.UUID       `json:"user_id"`
	ExtractedText   string          `json:"extracted_text"`
	AnalysisResults json.RawMessage `json:"analysis_results"`
	AiAnalysis      []byte          `json:"ai_analysis"`
	CreatedAt       time.Time       `json:"created_at"`
}
