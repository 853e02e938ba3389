package index

import "context"

// Payload is the metadata stored alongside each chunk vector.
type Payload struct {
	ChatID  string
	Content string
	Source  string
}

// Point is one embedded chunk ready for upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// Scored is a retrieved chunk with its similarity score.
type Scored struct {
	Score   float32
	Payload Payload
}

// Source is a citation returned with an answer: the originating file and a
// short excerpt of the retrieved chunk.
type Source struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// QueryResult is the outcome of a RAG query.
type QueryResult struct {
	Answer  string
	Sources []Source
}

// Embedder converts text into embedding vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// ChatModel produces a completion for a fully rendered prompt.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorStore persists chunk vectors per collection and supports filtered search.
type VectorStore interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, collection string, points []Point) error
	Search(ctx context.Context, collection string, vector []float32, topK int, chatID string) ([]Scored, error)
	DeleteByChat(ctx context.Context, collection, chatID string) error
	CountByChat(ctx context.Context, collection, chatID string) (int, error)
}
