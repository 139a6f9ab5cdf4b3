package main

import (
	"bytes"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadolammi/resumeworker/internal/database"
)

func TestWriteJSON_Skills(t *testing.T) {
	skills := []database.Skill{
		{Name: "Go", Category: database.CategoryProgrammingLanguage},
		{Name: "Docker", Category: database.CategoryDevOps, Description: sql.NullString{String: "containers", Valid: true}},
	}

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, skills))

	out := buf.String()
	assert.Contains(t, out, `"name": "Go"`)
	assert.Contains(t, out, `"category": "devops"`)
	assert.Contains(t, out, `"description": "containers"`)
	assert.NotContains(t, out, `"Valid"`)
	assert.NotContains(t, out, `"Name"`)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"description"`)))
}

func TestParseID(t *testing.T) {
	_, err := parseID("nope", "resume id")
	assert.ErrorContains(t, err, `invalid resume id "nope"`)
}
