package index

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	invalidCollectionChars = regexp.MustCompile(`[^a-z0-9-]`)
	repeatedHyphens        = regexp.MustCompile(`-+`)
	invalidDocumentChars   = regexp.MustCompile(`[^A-Za-z0-9_=-]`)
)

// CollectionName derives the vector store collection for a chat: "rag-" plus
// the sanitized chat name. chatName falls back to chatID when empty.
func CollectionName(chatID, chatName string) string {
	key := strings.TrimSpace(chatName)
	if key == "" {
		key = chatID
	}
	return "rag-" + SanitizeIndexName(key)
}

// SanitizeIndexName lowercases the chat name and reduces it to letters, digits
// and single hyphens. Names that do not start with a letter get a "chat-"
// prefix. Capped at 100 characters to leave room for the "rag-" prefix.
func SanitizeIndexName(chatName string) string {
	sanitized := invalidCollectionChars.ReplaceAllString(strings.ToLower(chatName), "-")
	sanitized = strings.Trim(repeatedHyphens.ReplaceAllString(sanitized, "-"), "-")
	if sanitized == "" || sanitized[0] < 'a' || sanitized[0] > 'z' {
		sanitized = "chat-" + sanitized
	}
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}
	return sanitized
}

// DocumentID builds a point id for a chunk. Only letters, digits, underscore,
// hyphen and equals survive; everything else becomes an underscore.
func DocumentID(filename string, chunkIndex int) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	safe := invalidDocumentChars.ReplaceAllString(base, "_")
	if safe == "" {
		safe = "document"
	}
	return safe + "_" + strconv.Itoa(chunkIndex)
}
