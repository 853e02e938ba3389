package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain title", raw: "Project Notes", want: "Project Notes"},
		{name: "strips punctuation and trims", raw: "  Report #1!  ", want: "Report 1"},
		{name: "collapses inner whitespace", raw: "a   b\t c", want: "a b c"},
		{name: "keeps hyphens and underscores", raw: "q3_review-final", want: "q3_review-final"},
		{name: "only punctuation", raw: "###", want: ""},
		{name: "empty", raw: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.raw))
		})
	}
}

func TestDeriveIndexName(t *testing.T) {
	id := NewID()
	name := DeriveIndexName("Report 1", id)

	assert.Contains(t, name, "Report 1-")
	assert.Len(t, name, len("Report 1-")+8)

	// Two conversations with the same title get different index names.
	other := DeriveIndexName("Report 1", NewID())
	assert.NotEqual(t, name, other)
}

func TestNewIDIsUniqueAndSortable(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 26)
}
