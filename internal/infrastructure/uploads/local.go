// Package uploads keeps raw uploaded files on local disk, one directory per chat.
package uploads

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Storage writes uploaded files under basePath/<chat>/<random hex><ext>.
type Storage struct {
	basePath string
	log      zerolog.Logger
}

func NewStorage(basePath string, log zerolog.Logger) (*Storage, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("upload base path must not be empty")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Storage{
		basePath: basePath,
		log:      log.With().Str("component", "uploads").Logger(),
	}, nil
}

// Save streams the reader to a fresh file in the chat's directory and returns
// the stored path. The original filename only contributes its extension.
func (s *Storage) Save(chatID, filename string, r io.Reader) (string, error) {
	dir := s.chatDir(chatID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create chat upload directory: %w", err)
	}

	name := randomHex(16) + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return path, nil
}

// Remove deletes the stored file. Used when indexing fails after the write.
func (s *Storage) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("remove upload file")
	}
}

// Purge deletes everything uploaded for the chat.
func (s *Storage) Purge(chatID string) error {
	dir := s.chatDir(chatID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("purge chat uploads: %w", err)
	}
	return nil
}

// chatDir neutralizes path traversal in the chat id before joining.
func (s *Storage) chatDir(chatID string) string {
	safe := strings.NewReplacer("..", "", "/", "_", "\\", "_").Replace(chatID)
	return filepath.Join(s.basePath, safe)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
