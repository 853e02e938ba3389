package index

import (
	"strings"
)

// chunk separators tried in order, most structural first. The empty string
// means a hard cut at the rune level.
var separators = []string{"\n\n", "\n", " ", ""}

// Chunker splits document text into overlapping chunks sized in runes.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split breaks text into chunks of at most the configured size, preferring
// paragraph and line boundaries and carrying the configured overlap between
// adjacent chunks.
func (c *Chunker) Split(text string) []string {
	return c.split(text, separators)
}

func (c *Chunker) split(text string, seps []string) []string {
	sep := seps[len(seps)-1]
	rest := []string{}
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	var splits []string
	if sep == "" {
		splits = hardCut(text, c.size)
	} else {
		splits = strings.Split(text, sep)
	}

	var chunks []string
	var pending []string
	for _, s := range splits {
		if runeLen(s) < c.size {
			pending = append(pending, s)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, c.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, s)
		} else {
			chunks = append(chunks, c.split(s, rest)...)
		}
	}
	if len(pending) > 0 {
		chunks = append(chunks, c.merge(pending, sep)...)
	}
	return chunks
}

// merge joins small splits back together up to the chunk size, sliding the
// window so consecutive chunks share roughly the overlap amount of text.
func (c *Chunker) merge(splits []string, sep string) []string {
	sepLen := runeLen(sep)

	var chunks []string
	var window []string
	total := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(window, sep))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, s := range splits {
		l := runeLen(s)
		if total+l+sepLen*min(len(window), 1) > c.size && len(window) > 0 {
			flush()
			for total > c.overlap || (total+l+sepLen*min(len(window), 1) > c.size && total > 0) {
				total -= runeLen(window[0]) + sepLen*min(len(window)-1, 1)
				window = window[1:]
			}
		}
		window = append(window, s)
		total += l
		if len(window) > 1 {
			total += sepLen
		}
	}
	if len(window) > 0 {
		flush()
	}
	return chunks
}

func hardCut(text string, size int) []string {
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func runeLen(s string) int {
	return len([]rune(s))
}
