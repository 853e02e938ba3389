// Package filestore persists conversations as JSON files under one directory.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docuchat/docuchat/internal/conversation"
)

const (
	conversationsFile = "conversations.json"
	activeIDFile      = "active"
)

// Store is a conversation.Store backed by a directory on disk. Saves rewrite
// the whole collection.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates the directory when missing and returns the store.
func New(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("store directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Load reads the persisted collection. A missing file yields an empty
// collection; a corrupt file yields an error so the caller can fall back.
func (s *Store) Load() ([]conversation.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, conversationsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read conversations: %w", err)
	}

	var conversations []conversation.Conversation
	if err := json.Unmarshal(data, &conversations); err != nil {
		return nil, fmt.Errorf("parse conversations: %w", err)
	}
	return conversations, nil
}

// Save rewrites the whole collection.
func (s *Store) Save(conversations []conversation.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(conversations, "", "  ")
	if err != nil {
		return fmt.Errorf("encode conversations: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, conversationsFile), data, 0o644); err != nil {
		return fmt.Errorf("write conversations: %w", err)
	}
	return nil
}

// LoadActiveID reads the persisted active conversation id, empty when unset.
func (s *Store) LoadActiveID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(s.dir, activeIDFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read active id: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveActiveID persists the active conversation id.
func (s *Store) SaveActiveID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(filepath.Join(s.dir, activeIDFile), []byte(id+"\n"), 0o644); err != nil {
		return fmt.Errorf("write active id: %w", err)
	}
	return nil
}
