package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrEmptyTitle rejects empty or whitespace-only titles.
	ErrEmptyTitle = errors.New("conversation title must not be empty")
	// ErrUnusableTitle rejects titles that sanitize to nothing.
	ErrUnusableTitle = errors.New("conversation title contains no usable characters")
	// ErrLastConversation guards the final remaining conversation from deletion.
	ErrLastConversation = errors.New("the last conversation cannot be deleted")
	// ErrNotFound means the id does not resolve to a conversation.
	ErrNotFound = errors.New("conversation not found")
	// ErrNotConfirmed means a destructive operation was invoked without confirmation.
	ErrNotConfirmed = errors.New("operation requires confirmation")
)

// DefaultTitle names the conversation created when none exist.
const DefaultTitle = "New Chat"

// Resetter is the remote capability Reset needs: clearing the server-side
// index for a conversation.
type Resetter interface {
	Reset(ctx context.Context, chatID string) error
}

// Manager owns the conversation collection. Every mutation is mirrored to the
// store; store failures are logged but never block the mutation (persistence
// is best-effort by design of the local store contract).
//
// The manager is not safe for concurrent use. The chat client drives it from
// a single event loop.
type Manager struct {
	store         Store
	log           zerolog.Logger
	conversations []Conversation
	activeID      string
}

// NewManager loads persisted state, falling back to a single default
// conversation when the store is empty or unreadable.
func NewManager(store Store, log zerolog.Logger) *Manager {
	m := &Manager{
		store: store,
		log:   log.With().Str("component", "conversations").Logger(),
	}

	loaded, err := store.Load()
	if err != nil {
		m.log.Warn().Err(err).Msg("conversation store unreadable, starting fresh")
	}
	if len(loaded) == 0 {
		m.conversations = []Conversation{defaultConversation()}
		m.activeID = m.conversations[0].ID
		m.persist()
		return m
	}
	m.conversations = loaded

	activeID, err := store.LoadActiveID()
	if err != nil {
		m.log.Warn().Err(err).Msg("active conversation id unreadable")
	}
	if _, found := m.indexOf(activeID); !found {
		activeID = m.conversations[0].ID
	}
	m.activeID = activeID
	return m
}

func defaultConversation() Conversation {
	return Conversation{
		ID:        NewID(),
		Title:     DefaultTitle,
		IndexName: "default",
		CreatedAt: time.Now().UTC(),
	}
}

// Conversations returns the ordered collection. The slice is a copy; messages
// are shared and must be treated as read-only.
func (m *Manager) Conversations() []Conversation {
	out := make([]Conversation, len(m.conversations))
	copy(out, m.conversations)
	return out
}

// ActiveID returns the id of the active conversation.
func (m *Manager) ActiveID() string {
	return m.activeID
}

// Active returns the active conversation.
func (m *Manager) Active() Conversation {
	i, _ := m.indexOf(m.activeID)
	return m.conversations[i]
}

// Get returns the conversation with the given id.
func (m *Manager) Get(id string) (Conversation, error) {
	i, found := m.indexOf(id)
	if !found {
		return Conversation{}, ErrNotFound
	}
	return m.conversations[i], nil
}

// Create validates and sanitizes the title, appends a new conversation and
// makes it active.
func (m *Manager) Create(rawTitle string) (Conversation, error) {
	if strings.TrimSpace(rawTitle) == "" {
		return Conversation{}, ErrEmptyTitle
	}
	title := SanitizeTitle(rawTitle)
	if title == "" {
		return Conversation{}, ErrUnusableTitle
	}

	id := NewID()
	conv := Conversation{
		ID:        id,
		Title:     title,
		IndexName: DeriveIndexName(title, id),
		CreatedAt: time.Now().UTC(),
	}

	m.conversations = append(m.conversations, conv)
	m.activeID = conv.ID
	m.persist()
	return conv, nil
}

// Delete removes a conversation. The last remaining conversation cannot be
// deleted; deleting the active one activates the first of the remainder.
func (m *Manager) Delete(id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if len(m.conversations) <= 1 {
		return ErrLastConversation
	}

	i, found := m.indexOf(id)
	if !found {
		return ErrNotFound
	}

	m.conversations = append(m.conversations[:i], m.conversations[i+1:]...)
	if m.activeID == id {
		m.activeID = m.conversations[0].ID
	}
	m.persist()
	return nil
}

// SetActive switches the active conversation. Idempotent; never touches
// message history.
func (m *Manager) SetActive(id string) error {
	if _, found := m.indexOf(id); !found {
		return ErrNotFound
	}
	if m.activeID == id {
		return nil
	}
	m.activeID = id
	m.persist()
	return nil
}

// RecordUpload marks the conversation as having indexed documents. Idempotent.
func (m *Manager) RecordUpload(id string) error {
	i, found := m.indexOf(id)
	if !found {
		return ErrNotFound
	}
	if m.conversations[i].HasDocuments {
		return nil
	}
	m.conversations[i].HasDocuments = true
	m.persist()
	return nil
}

// AppendMessage appends to the named conversation regardless of which one is
// active, so replies land in the conversation their query was issued for.
func (m *Manager) AppendMessage(id string, msg Message) error {
	i, found := m.indexOf(id)
	if !found {
		return ErrNotFound
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	m.conversations[i].Messages = append(m.conversations[i].Messages, msg)
	m.persist()
	return nil
}

// Clear empties the message history, keeping the documents flag.
func (m *Manager) Clear(id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	i, found := m.indexOf(id)
	if !found {
		return ErrNotFound
	}
	m.conversations[i].Messages = nil
	m.persist()
	return nil
}

// Reset clears the remote index first and only then the local state; a remote
// failure leaves the conversation untouched.
func (m *Manager) Reset(ctx context.Context, id string, confirmed bool, remote Resetter) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if _, found := m.indexOf(id); !found {
		return ErrNotFound
	}

	if err := remote.Reset(ctx, id); err != nil {
		return err
	}
	return m.ApplyReset(id)
}

// ApplyReset clears local state for a conversation whose remote index was
// already cleared. Used by event-driven callers that run the remote call
// outside the manager.
func (m *Manager) ApplyReset(id string) error {
	i, found := m.indexOf(id)
	if !found {
		return ErrNotFound
	}
	m.conversations[i].Messages = nil
	m.conversations[i].HasDocuments = false
	m.persist()
	return nil
}

func (m *Manager) indexOf(id string) (int, bool) {
	for i, conv := range m.conversations {
		if conv.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (m *Manager) persist() {
	if err := m.store.Save(m.conversations); err != nil {
		m.log.Error().Err(err).Msg("persist conversations")
	}
	if err := m.store.SaveActiveID(m.activeID); err != nil {
		m.log.Error().Err(err).Msg("persist active conversation id")
	}
}
