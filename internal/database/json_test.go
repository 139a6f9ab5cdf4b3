package database

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkill_MarshalJSON(t *testing.T) {
	id := uuid.MustParse("6f1c2b1e-8f8e-4c33-9a55-0d2f7f1b7a10")
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		skill Skill
		want  string
	}{
		{
			name:  "no description",
			skill: Skill{ID: id, Name: "Go", Category: CategoryOther, CreatedAt: created},
			want:  `{"id":"6f1c2b1e-8f8e-4c33-9a55-0d2f7f1b7a10","name":"Go","category":"other","created_at":"2025-03-01T12:00:00Z"}`,
		},
		{
			name: "with description",
			skill: Skill{
				ID: id, Name: "Go", Category: CategoryProgrammingLanguage, CreatedAt: created,
				Description: sql.NullString{String: "systems language", Valid: true},
			},
			want: `{"id":"6f1c2b1e-8f8e-4c33-9a55-0d2f7f1b7a10","name":"Go","category":"programming_language","description":"systems language","created_at":"2025-03-01T12:00:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.skill)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
			assert.NotContains(t, string(got), "Valid")
		})
	}
}

func TestSkill_MarshalJSON_InList(t *testing.T) {
	got, err := json.Marshal([]Skill{{Name: "Docker", Category: CategoryDevOps}})
	require.NoError(t, err)
	assert.Contains(t, string(got), `"name":"Docker"`)
	assert.NotContains(t, string(got), `"description"`)
}

func TestJob_JSONTags(t *testing.T) {
	got, err := json.Marshal(Job{Title: "Backend", Description: "Go services", Status: "active"})
	require.NoError(t, err)
	assert.Contains(t, string(got), `"title":"Backend"`)
	assert.Contains(t, string(got), `"description":"Go services"`)
	assert.Contains(t, string(got), `"created_at"`)
	assert.NotContains(t, string(got), `"Title"`)
}
