package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndPurge(t *testing.T) {
	base := t.TempDir()
	s, err := NewStorage(base, zerolog.Nop())
	require.NoError(t, err)

	path, err := s.Save("chat-1", "Report.PDF", strings.NewReader("file body"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, filepath.Join(base, "chat-1")))
	assert.True(t, strings.HasSuffix(path, ".pdf"), "extension is kept, lowercased")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file body", string(data))

	// A second upload of the same filename gets a fresh name.
	other, err := s.Save("chat-1", "Report.PDF", strings.NewReader("other"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other)

	require.NoError(t, s.Purge("chat-1"))
	_, err = os.Stat(filepath.Join(base, "chat-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestChatDirNeutralizesTraversal(t *testing.T) {
	base := t.TempDir()
	s, err := NewStorage(base, zerolog.Nop())
	require.NoError(t, err)

	path, err := s.Save("../../etc", "doc.txt", strings.NewReader("x"))
	require.NoError(t, err)

	rel, err := filepath.Rel(base, path)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "stored path stays under the base directory")
}

func TestRemoveMissingFileIsQuiet(t *testing.T) {
	s, err := NewStorage(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	s.Remove(filepath.Join(t.TempDir(), "never-existed.txt"))
}

func TestNewStorageRejectsEmptyPath(t *testing.T) {
	_, err := NewStorage("  ", zerolog.Nop())
	assert.Error(t, err)
}
