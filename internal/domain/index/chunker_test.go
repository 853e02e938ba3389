package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkerShortTextIsOneChunk(t *testing.T) {
	c := NewChunker(1000, 200)

	chunks := c.Split("a short document")
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document", chunks[0])
}

func TestChunkerRespectsSizeLimit(t *testing.T) {
	c := NewChunker(100, 20)

	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("sentence number with some words here. ")
	}

	chunks := c.Split(sb.String())
	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		assert.LessOrEqualf(t, len([]rune(chunk)), 100, "chunk %d exceeds size", i)
		assert.NotEmpty(t, chunk)
	}
}

func TestChunkerPrefersParagraphBoundaries(t *testing.T) {
	c := NewChunker(50, 10)

	text := "first paragraph stays whole\n\nsecond paragraph stays whole\n\nthird paragraph stays whole"
	chunks := c.Split(text)

	for _, chunk := range chunks {
		assert.NotContains(t, chunk, "\n\n", "no chunk straddles a paragraph break at this size")
	}
	assert.Contains(t, strings.Join(chunks, " "), "second paragraph")
}

func TestChunkerOverlapCarriesText(t *testing.T) {
	c := NewChunker(40, 15)

	words := make([]string, 30)
	for i := range words {
		words[i] = "word" + string(rune('a'+i%26))
	}
	chunks := c.Split(strings.Join(words, " "))
	require.Greater(t, len(chunks), 1)

	// Adjacent chunks share at least one word.
	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		assert.Contains(t, chunks[i], prev[len(prev)-1], "chunk %d lost the overlap", i)
	}
}

func TestChunkerHardCutsUnbrokenText(t *testing.T) {
	c := NewChunker(10, 2)

	chunks := c.Split(strings.Repeat("x", 25))
	require.Len(t, chunks, 3)
	assert.Equal(t, strings.Repeat("x", 10), chunks[0])
	assert.Equal(t, strings.Repeat("x", 5), chunks[2])
}

func TestChunkerHardCutCountsRunesNotBytes(t *testing.T) {
	c := NewChunker(4, 0)

	chunks := c.Split(strings.Repeat("é", 6))
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("é", 4), chunks[0])
	assert.Equal(t, strings.Repeat("é", 2), chunks[1])
}

func TestNewChunkerDefaults(t *testing.T) {
	c := NewChunker(0, -1)
	assert.Equal(t, 1000, c.size)
	assert.Equal(t, 200, c.overlap)

	c = NewChunker(100, 100)
	assert.Equal(t, 20, c.overlap, "overlap >= size falls back to a fifth")
}
