package filestore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/conversation"
)

func TestRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded, "fresh store is empty")

	conversations := []conversation.Conversation{
		{
			ID:           "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Title:        "Report 1",
			IndexName:    "Report 1-69g5fav0",
			HasDocuments: true,
			CreatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Messages: []conversation.Message{
				{Text: "what is this doc about?", IsUser: true, Timestamp: time.Date(2026, 8, 1, 12, 1, 0, 0, time.UTC)},
				{
					Text:      "It covers quarterly results.",
					Timestamp: time.Date(2026, 8, 1, 12, 1, 5, 0, time.UTC),
					Sources:   []conversation.Source{{Source: "report.pdf", Content: "Q2 revenue grew..."}},
				},
			},
		},
		{ID: "01ARZ3NDEKTSV4RRFFQ69G5FB0", Title: "New Chat", IndexName: "default"},
	}
	require.NoError(t, store.Save(conversations))
	require.NoError(t, store.SaveActiveID(conversations[0].ID))

	loaded, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, conversations, loaded)

	activeID, err := store.LoadActiveID()
	require.NoError(t, err)
	assert.Equal(t, conversations[0].ID, activeID)
}

func TestLoadCorruptFileReturnsError(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "conversations.json"), []byte("{not json"), 0o644))

	_, err = store.Load()
	assert.Error(t, err)
}

func TestLoadActiveIDMissingFile(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	activeID, err := store.LoadActiveID()
	require.NoError(t, err)
	assert.Empty(t, activeID)
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewRejectsEmptyDir(t *testing.T) {
	_, err := New("   ")
	assert.Error(t, err)
}
