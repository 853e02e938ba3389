package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/client"
	"github.com/docuchat/docuchat/internal/conversation"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	manager := conversation.NewManager(conversation.NewMemStore(), zerolog.Nop())
	remote := client.New("http://127.0.0.1:1", time.Second, zerolog.Nop())
	m, err := New(manager, remote, "notty")
	require.NoError(t, err)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func pressEnter(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model)
}

func TestQueryGating(t *testing.T) {
	t.Run("blocked until documents are uploaded", func(t *testing.T) {
		m := newTestModel(t)
		m.input.SetValue("what is this about?")

		m = pressEnter(t, m)
		assert.True(t, m.statusIsErr)
		assert.Contains(t, m.status, "Upload a document")
		assert.Empty(t, m.manager.Active().Messages, "no message is sent")
	})

	t.Run("optimistic append and inflight flag once documents exist", func(t *testing.T) {
		m := newTestModel(t)
		convID := m.manager.ActiveID()
		require.NoError(t, m.manager.RecordUpload(convID))
		m.input.SetValue("what is this about?")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(Model)
		assert.NotNil(t, cmd, "a remote query command is issued")
		assert.True(t, m.inflight[convID])

		messages := m.manager.Active().Messages
		require.Len(t, messages, 1)
		assert.True(t, messages[0].IsUser)
		assert.Equal(t, "what is this about?", messages[0].Text)
	})

	t.Run("second query waits for the first", func(t *testing.T) {
		m := newTestModel(t)
		convID := m.manager.ActiveID()
		require.NoError(t, m.manager.RecordUpload(convID))
		m.inflight[convID] = true
		m.input.SetValue("another question")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = updated.(Model)
		assert.Nil(t, cmd)
		assert.Contains(t, m.status, "previous answer")
		assert.Empty(t, m.manager.Active().Messages)
	})
}

func TestQueryCompletion(t *testing.T) {
	t.Run("answer lands in the conversation it was asked in", func(t *testing.T) {
		m := newTestModel(t)
		first := m.manager.ActiveID()
		m.inflight[first] = true

		// Switch away before the answer arrives.
		other, err := m.manager.Create("Other")
		require.NoError(t, err)

		updated, _ := m.Update(queryDoneMsg{
			convID: first,
			result: &client.QueryResult{
				Answer:  "the answer",
				Sources: []conversation.Source{{Source: "a.pdf", Content: "excerpt"}},
			},
		})
		m = updated.(Model)

		assert.False(t, m.inflight[first])
		conv, err := m.manager.Get(first)
		require.NoError(t, err)
		require.Len(t, conv.Messages, 1)
		assert.Equal(t, "the answer", conv.Messages[0].Text)
		assert.Len(t, conv.Messages[0].Sources, 1)

		otherConv, err := m.manager.Get(other.ID)
		require.NoError(t, err)
		assert.Empty(t, otherConv.Messages)
	})

	t.Run("failure becomes an error-styled assistant message", func(t *testing.T) {
		m := newTestModel(t)
		convID := m.manager.ActiveID()
		m.inflight[convID] = true

		updated, _ := m.Update(queryDoneMsg{
			convID: convID,
			err:    &client.RemoteError{StatusCode: 503, Detail: "RAG indexer unavailable."},
		})
		m = updated.(Model)

		messages := m.manager.Active().Messages
		require.Len(t, messages, 1)
		assert.True(t, messages[0].IsError)
		assert.False(t, messages[0].IsUser)
		assert.Contains(t, messages[0].Text, "RAG indexer unavailable.")
	})
}

func TestUploadCompletion(t *testing.T) {
	m := newTestModel(t)
	convID := m.manager.ActiveID()
	m.uploading[convID] = true

	updated, _ := m.Update(uploadDoneMsg{convID: convID, result: &client.UploadResult{Chunks: 4}})
	m = updated.(Model)

	assert.False(t, m.uploading[convID])
	assert.True(t, m.manager.Active().HasDocuments)
	assert.Contains(t, m.status, "4 chunk(s)")

	t.Run("failure keeps the documents flag off", func(t *testing.T) {
		m := newTestModel(t)
		convID := m.manager.ActiveID()
		m.uploading[convID] = true

		updated, _ := m.Update(uploadDoneMsg{convID: convID, err: errors.New("connection refused")})
		m = updated.(Model)
		assert.True(t, m.statusIsErr)
		assert.False(t, m.manager.Active().HasDocuments)
	})
}

func TestResetFlow(t *testing.T) {
	m := newTestModel(t)
	convID := m.manager.ActiveID()
	require.NoError(t, m.manager.RecordUpload(convID))
	require.NoError(t, m.manager.AppendMessage(convID, conversation.Message{Text: "q", IsUser: true}))

	// ctrl+r asks for confirmation.
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(Model)
	assert.Equal(t, modeConfirm, m.mode)

	// Declining leaves everything in place.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	m = updated.(Model)
	assert.Equal(t, modeChat, m.mode)
	assert.True(t, m.manager.Active().HasDocuments)

	// Confirming issues the remote command; success applies locally.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(Model)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	m = updated.(Model)
	assert.NotNil(t, cmd)

	updated, _ = m.Update(resetDoneMsg{convID: convID})
	m = updated.(Model)
	conv := m.manager.Active()
	assert.False(t, conv.HasDocuments)
	assert.Empty(t, conv.Messages)

	t.Run("remote failure leaves local state untouched", func(t *testing.T) {
		m := newTestModel(t)
		convID := m.manager.ActiveID()
		require.NoError(t, m.manager.RecordUpload(convID))

		updated, _ := m.Update(resetDoneMsg{convID: convID, err: errors.New("server down")})
		m = updated.(Model)
		assert.True(t, m.statusIsErr)
		assert.True(t, m.manager.Active().HasDocuments)
	})
}

func TestConversationCycling(t *testing.T) {
	m := newTestModel(t)
	first := m.manager.ActiveID()
	second, err := m.manager.Create("Second")
	require.NoError(t, err)
	require.Equal(t, second.ID, m.manager.ActiveID())

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, first, m.manager.ActiveID())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = updated.(Model)
	assert.Equal(t, second.ID, m.manager.ActiveID())
}
