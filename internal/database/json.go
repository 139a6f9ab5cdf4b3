package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MarshalJSON renders a missing description as an absent field instead of
// the sql.NullString struct.
func (s Skill) MarshalJSON() ([]byte, error) {
	out := struct {
		ID          uuid.UUID `json:"id"`
		Name        string    `json:"name"`
		Category    string    `json:"category"`
		Description string    `json:"description,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}{
		ID:        s.ID,
		Name:      s.Name,
		Category:  s.Category,
		CreatedAt: s.CreatedAt,
	}
	if s.Description.Valid {
		out.Description = s.Description.String
	}
	return json.Marshal(out)
}
