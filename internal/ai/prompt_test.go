package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"a":1}`, want: `{"a":1}`},
		{name: "json fence", in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "chatter around", in: "Here you go:\n{\"a\":{\"b\":2}}\nThanks", want: `{"a":{"b":2}}`},
		{name: "no object", in: "sorry", want: "sorry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Resume:\nGo developer", Message("Go developer", "  "))
	assert.Equal(t, "Job Description:\nNeed Go\n\nResume:\nGo developer", Message("Go developer", "Need Go"))
}
