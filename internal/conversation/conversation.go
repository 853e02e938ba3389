// Package conversation holds the client-side chat state: conversations, their
// messages and the manager that mutates them.
package conversation

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Source is a citation attached to an assistant message.
type Source struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Message is one chat entry. Messages are append-only.
type Message struct {
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []Source  `json:"sources,omitempty"`
	IsError   bool      `json:"is_error,omitempty"`
}

// Conversation is an isolated chat session with its own remote document index.
// ID and IndexName are fixed at creation.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	IndexName    string    `json:"index_name"`
	HasDocuments bool      `json:"has_documents"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewID returns a fresh conversation identifier.
func NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// SanitizeTitle keeps letters, digits, spaces, hyphens and underscores,
// collapses runs of whitespace and trims the result. An empty return means the
// raw title had no usable characters.
func SanitizeTitle(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// DeriveIndexName builds the remote index name for a new conversation. The
// conversation id suffix keeps two same-titled conversations from colliding on
// one index.
func DeriveIndexName(sanitizedTitle, id string) string {
	suffix := strings.ToLower(id)
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}
	return sanitizedTitle + "-" + suffix
}
