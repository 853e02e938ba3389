// Package index implements document ingestion and retrieval-augmented answering.
package index

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/domain/extract"
	"github.com/docuchat/docuchat/internal/infrastructure/metrics"
	"github.com/docuchat/docuchat/internal/utils/platformerrors"
)

// NoContextAnswer is returned when retrieval finds nothing relevant.
const NoContextAnswer = "I couldn't find any relevant information in the uploaded documents to answer your question."

const promptTemplate = `You are a helpful AI assistant. Use the following context from documents to answer the question. If you cannot find the answer in the context, say so.

Chat History:
%s

Context from documents:
%s

Question: %s

Answer:`

// historyDepth is the number of past exchanges fed back into the prompt.
const historyDepth = 3

// sourceExcerptLen caps the excerpt length of a returned citation.
const sourceExcerptLen = 200

type exchange struct {
	question string
	answer   string
}

// Config tunes the indexing service.
type Config struct {
	ChunkSize        int
	ChunkOverlap     int
	RetrievalTopK    int
	VectorDimensions int // 0 = probe the embedder at Init
}

// Service owns the ingestion and answering pipeline: extract, chunk, embed,
// index, retrieve, complete.
type Service struct {
	cfg      Config
	embedder Embedder
	chat     ChatModel
	store    VectorStore
	chunker  *Chunker
	log      zerolog.Logger

	dimension int

	mu          sync.Mutex
	ready       bool
	initErr     error
	history     map[string][]exchange
	collections map[string]string // chat id -> collection last used for upload
}

func NewService(cfg Config, embedder Embedder, chat ChatModel, store VectorStore, log zerolog.Logger) *Service {
	if cfg.RetrievalTopK <= 0 {
		cfg.RetrievalTopK = 3
	}
	return &Service{
		cfg:         cfg,
		embedder:    embedder,
		chat:        chat,
		store:       store,
		chunker:     NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		log:         log.With().Str("component", "indexer").Logger(),
		history:     make(map[string][]exchange),
		collections: make(map[string]string),
	}
}

// Init determines the embedding dimension, probing the embedder unless an
// override was configured. Safe to call again after a failure.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Service) initLocked(ctx context.Context) error {
	if s.ready {
		return nil
	}

	if s.cfg.VectorDimensions > 0 {
		s.dimension = s.cfg.VectorDimensions
		s.ready = true
		s.initErr = nil
		s.log.Info().Int("dimension", s.dimension).Msg("using configured vector dimensions")
		return nil
	}

	probe, err := s.embedder.EmbedQuery(ctx, "dimension probe")
	if err != nil {
		s.initErr = fmt.Errorf("probe embedding dimension: %w", err)
		return s.initErr
	}
	if len(probe) == 0 {
		s.initErr = fmt.Errorf("embedding service returned an empty probe vector")
		return s.initErr
	}
	s.dimension = len(probe)
	s.ready = true
	s.initErr = nil
	s.log.Info().Int("dimension", s.dimension).Msg("detected embedding dimension")
	return nil
}

// ensureReady lazily retries initialization; the unavailable error carries the
// last init failure as detail.
func (s *Service) ensureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if err := s.initLocked(ctx); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnavailable,
			fmt.Sprintf("RAG indexer unavailable. Check embedding credentials. Details: %v", err), err)
	}
	return nil
}

// Ready reports whether initialization has succeeded.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// InitError returns the last initialization failure, empty when none.
func (s *Service) InitError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initErr == nil {
		return ""
	}
	return s.initErr.Error()
}

// Dimension returns the embedding dimension established by Init.
func (s *Service) Dimension() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dimension
}

// ProcessDocument extracts, chunks, embeds and indexes one uploaded file for a
// chat. It returns the number of chunks indexed.
func (s *Service) ProcessDocument(ctx context.Context, path, filename, chatID, chatName string) (int, error) {
	if strings.TrimSpace(chatID) == "" {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "chat_id is required to process documents", nil)
	}
	if err := s.ensureReady(ctx); err != nil {
		return 0, err
	}

	text, err := extract.Text(path)
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf("error processing document: %v", err), err)
	}
	if strings.TrimSpace(text) == "" {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "no text could be extracted from the file", nil)
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "no chunks were produced from this document", nil)
	}

	start := time.Now()
	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	metrics.RecordProviderLatency("embeddings", time.Since(start).Seconds())
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("embedding service failed: %v", err), err)
	}
	if len(vectors) != len(chunks) {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "embedding service returned no vectors", nil)
	}
	if len(vectors[0]) != s.dimension {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
			fmt.Sprintf("embedding dimension mismatch: index expects %d but embedder returned %d; set VECTOR_DIMENSIONS or recreate the collection", s.dimension, len(vectors[0])), nil)
	}

	collection := CollectionName(chatID, chatName)
	if err := s.store.EnsureCollection(ctx, collection, s.dimension); err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("vector store unavailable: %v", err), err)
	}

	points := make([]Point, len(chunks))
	for i, chunk := range chunks {
		points[i] = Point{
			ID:     DocumentID(chatID+"_"+filename, i),
			Vector: vectors[i],
			Payload: Payload{
				ChatID:  chatID,
				Content: chunk,
				Source:  filename,
			},
		}
	}

	if err := s.store.Upsert(ctx, collection, points); err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("failed to index chunks: %v", err), err)
	}

	s.mu.Lock()
	s.collections[chatID] = collection
	s.mu.Unlock()

	metrics.RecordChunks(strings.ToLower(filepath.Ext(filename)), len(points))
	s.log.Info().Str("chat_id", chatID).Str("collection", collection).Int("chunks", len(points)).Msg("document indexed")
	return len(points), nil
}

// Query answers a question against the chat's indexed documents.
func (s *Service) Query(ctx context.Context, question, chatID, chatName string) (QueryResult, error) {
	if strings.TrimSpace(chatID) == "" {
		return QueryResult{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "chat_id is required to perform a query", nil)
	}
	if err := s.ensureReady(ctx); err != nil {
		return QueryResult{}, err
	}

	collection := s.collectionFor(chatID, chatName)

	start := time.Now()
	vector, err := s.embedder.EmbedQuery(ctx, question)
	metrics.RecordProviderLatency("embeddings", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordQuery("error")
		return QueryResult{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("embedding service failed: %v", err), err)
	}

	start = time.Now()
	hits, err := s.store.Search(ctx, collection, vector, s.cfg.RetrievalTopK, chatID)
	metrics.RecordProviderLatency("vectorstore", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordQuery("error")
		return QueryResult{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("vector search failed: %v", err), err)
	}

	if len(hits) == 0 {
		metrics.RecordQuery("no_context")
		return QueryResult{Answer: NoContextAnswer, Sources: []Source{}}, nil
	}

	contexts := make([]string, 0, len(hits))
	sources := make([]Source, 0, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, hit.Payload.Content)
		sources = append(sources, Source{
			Source:  orUnknown(hit.Payload.Source),
			Content: excerpt(hit.Payload.Content),
		})
	}

	prompt := fmt.Sprintf(promptTemplate, s.historyText(chatID), strings.Join(contexts, "\n\n"), question)

	start = time.Now()
	answer, err := s.chat.Complete(ctx, prompt)
	metrics.RecordProviderLatency("chat", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordQuery("error")
		return QueryResult{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("chat completion failed: %v", err), err)
	}

	s.mu.Lock()
	s.history[chatID] = append(s.history[chatID], exchange{question: question, answer: answer})
	s.mu.Unlock()

	metrics.RecordQuery("answered")
	return QueryResult{Answer: answer, Sources: sources}, nil
}

// Reset removes the chat's indexed documents and conversation history.
func (s *Service) Reset(ctx context.Context, chatID string) error {
	if strings.TrimSpace(chatID) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "chat_id is required", nil)
	}
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	collection := s.collectionFor(chatID, "")
	if err := s.store.DeleteByChat(ctx, collection, chatID); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, fmt.Sprintf("failed to remove indexed documents: %v", err), err)
	}

	s.mu.Lock()
	delete(s.history, chatID)
	delete(s.collections, chatID)
	s.mu.Unlock()

	s.log.Info().Str("chat_id", chatID).Str("collection", collection).Msg("chat reset")
	return nil
}

// HasDocuments reports whether any chunks are indexed for the chat.
func (s *Service) HasDocuments(ctx context.Context, chatID string) bool {
	if strings.TrimSpace(chatID) == "" {
		return false
	}
	collection := s.collectionFor(chatID, "")
	count, err := s.store.CountByChat(ctx, collection, chatID)
	if err != nil {
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("status check failed")
		return false
	}
	return count > 0
}

// collectionFor resolves the collection a chat's documents live in. Uploads
// record the collection they used; before any upload the name derived from the
// chat id is assumed.
func (s *Service) collectionFor(chatID, chatName string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if collection, ok := s.collections[chatID]; ok {
		return collection
	}
	return CollectionName(chatID, chatName)
}

func (s *Service) historyText(chatID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	past := s.history[chatID]
	if len(past) > historyDepth {
		past = past[len(past)-historyDepth:]
	}
	lines := make([]string, 0, len(past))
	for _, ex := range past {
		lines = append(lines, fmt.Sprintf("Human: %s\nAssistant: %s", ex.question, ex.answer))
	}
	return strings.Join(lines, "\n")
}

func excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= sourceExcerptLen {
		return content
	}
	return string(runes[:sourceExcerptLen]) + "..."
}

func orUnknown(source string) string {
	if source == "" {
		return "Unknown"
	}
	return source
}
