package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/domain/index"
	"github.com/docuchat/docuchat/internal/infrastructure/uploads"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver/handlers"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver/routes"
)

type stubEmbedder struct{}

func (stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 2, 3}
	}
	return vectors, nil
}

func (stubEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

// downEmbedder fails every call, keeping the index service degraded.
type downEmbedder struct{}

func (downEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("invalid api key")
}

func (downEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("invalid api key")
}

type stubChat struct{}

func (stubChat) Complete(context.Context, string) (string, error) {
	return "stubbed answer", nil
}

// stubVectorStore keeps upserted points in memory; SearchErr forces failures.
type stubVectorStore struct {
	points    map[string][]index.Point
	SearchErr error
}

func newStubVectorStore() *stubVectorStore {
	return &stubVectorStore{points: make(map[string][]index.Point)}
}

func (s *stubVectorStore) EnsureCollection(context.Context, string, int) error { return nil }

func (s *stubVectorStore) Upsert(_ context.Context, collection string, points []index.Point) error {
	s.points[collection] = append(s.points[collection], points...)
	return nil
}

func (s *stubVectorStore) Search(_ context.Context, collection string, _ []float32, topK int, chatID string) ([]index.Scored, error) {
	if s.SearchErr != nil {
		return nil, s.SearchErr
	}
	var hits []index.Scored
	for _, p := range s.points[collection] {
		if p.Payload.ChatID != chatID {
			continue
		}
		hits = append(hits, index.Scored{Score: 1, Payload: p.Payload})
		if len(hits) == topK {
			break
		}
	}
	return hits, nil
}

func (s *stubVectorStore) DeleteByChat(_ context.Context, collection, chatID string) error {
	var kept []index.Point
	for _, p := range s.points[collection] {
		if p.Payload.ChatID != chatID {
			kept = append(kept, p)
		}
	}
	s.points[collection] = kept
	return nil
}

func (s *stubVectorStore) CountByChat(_ context.Context, collection, chatID string) (int, error) {
	count := 0
	for _, p := range s.points[collection] {
		if p.Payload.ChatID == chatID {
			count++
		}
	}
	return count, nil
}

func newTestRouter(t *testing.T, store *stubVectorStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServiceName:   "docuchat-server",
		MaxFileSizeMB: 30,
		UploadDir:     t.TempDir(),
	}
	indexer := index.NewService(
		index.Config{ChunkSize: 1000, ChunkOverlap: 200, RetrievalTopK: 3},
		stubEmbedder{}, stubChat{}, store, zerolog.Nop(),
	)
	require.NoError(t, indexer.Init(context.Background()))

	storage, err := uploads.NewStorage(cfg.UploadDir, zerolog.Nop())
	require.NoError(t, err)

	engine := gin.New()
	routes.NewRoutes(handlers.NewProvider(cfg, indexer, storage, zerolog.Nop())).Register(engine)
	return engine
}

func multipartUpload(t *testing.T, chatID, chatName, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if chatID != "" {
		require.NoError(t, writer.WriteField("chat_id", chatID))
	}
	if chatName != "" {
		require.NoError(t, writer.WriteField("chat_name", chatName))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func doUpload(t *testing.T, engine *gin.Engine, chatID, chatName, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, chatID, chatName, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUploadEndpoint(t *testing.T) {
	t.Run("indexes a text document", func(t *testing.T) {
		store := newStubVectorStore()
		engine := newTestRouter(t, store)

		rec := doUpload(t, engine, "chat-1", "Report 1", "notes.txt", "docuchat supports markdown answers")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decodeJSON(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "notes.txt", body["filename"])
		assert.Equal(t, float64(1), body["chunks"])
		assert.Contains(t, body["message"], "Successfully processed notes.txt")
		assert.NotEmpty(t, store.points["rag-report-1"])
	})

	t.Run("missing chat_id", func(t *testing.T) {
		engine := newTestRouter(t, newStubVectorStore())

		rec := doUpload(t, engine, "", "name", "notes.txt", "content")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "chat_id is required", decodeJSON(t, rec)["detail"])
	})

	t.Run("missing file", func(t *testing.T) {
		engine := newTestRouter(t, newStubVectorStore())

		rec := doUpload(t, engine, "chat-1", "name", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "No file provided", decodeJSON(t, rec)["detail"])
	})

	t.Run("unsupported extension", func(t *testing.T) {
		engine := newTestRouter(t, newStubVectorStore())

		rec := doUpload(t, engine, "chat-1", "name", "image.png", "binary")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Unsupported type. Allowed: .pdf, .docx, .txt", decodeJSON(t, rec)["detail"])
	})

	t.Run("empty document", func(t *testing.T) {
		engine := newTestRouter(t, newStubVectorStore())

		rec := doUpload(t, engine, "chat-1", "name", "empty.txt", "   ")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeJSON(t, rec)["detail"], "no text could be extracted")
	})
}

func TestQueryEndpoint(t *testing.T) {
	postJSON := func(t *testing.T, engine *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
		t.Helper()
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		return rec
	}

	t.Run("answers with sources after an upload", func(t *testing.T) {
		store := newStubVectorStore()
		engine := newTestRouter(t, store)
		require.Equal(t, http.StatusOK, doUpload(t, engine, "chat-1", "Report 1", "notes.txt", "facts about docuchat").Code)

		rec := postJSON(t, engine, "/query", map[string]string{
			"question": "what is docuchat?", "chat_id": "chat-1", "chat_name": "Report 1",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		body := decodeJSON(t, rec)
		assert.Equal(t, "stubbed answer", body["answer"])
		sources, ok := body["sources"].([]any)
		require.True(t, ok)
		require.Len(t, sources, 1)
		source := sources[0].(map[string]any)
		assert.Equal(t, "notes.txt", source["source"])
		assert.Contains(t, source["content"], "facts about docuchat")
	})

	t.Run("chat alias serves the same handler", func(t *testing.T) {
		store := newStubVectorStore()
		engine := newTestRouter(t, store)
		require.Equal(t, http.StatusOK, doUpload(t, engine, "chat-1", "Report 1", "notes.txt", "facts").Code)

		rec := postJSON(t, engine, "/chat", map[string]string{
			"question": "anything?", "chat_id": "chat-1", "chat_name": "Report 1",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("empty question", func(t *testing.T) {
		engine := newTestRouter(t, newStubVectorStore())

		rec := postJSON(t, engine, "/query", map[string]string{"question": "  ", "chat_id": "chat-1"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Question cannot be empty", decodeJSON(t, rec)["detail"])
	})

	t.Run("no documents yields the no-context answer", func(t *testing.T) {
		engine := newTestRouter(t, newStubVectorStore())

		rec := postJSON(t, engine, "/query", map[string]string{"question": "hello?", "chat_id": "chat-1"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, index.NoContextAnswer, decodeJSON(t, rec)["answer"])
	})

	t.Run("search failure maps to 502", func(t *testing.T) {
		store := newStubVectorStore()
		store.SearchErr = errors.New("qdrant down")
		engine := newTestRouter(t, store)

		rec := postJSON(t, engine, "/query", map[string]string{"question": "q", "chat_id": "chat-1"})
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, decodeJSON(t, rec)["detail"], "vector search failed")
	})
}

func TestStatusEndpoint(t *testing.T) {
	store := newStubVectorStore()
	engine := newTestRouter(t, store)

	get := func(path string) map[string]any {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		return decodeJSON(t, rec)
	}

	body := get("/status?chat_id=chat-1")
	assert.Equal(t, false, body["has_documents"])
	assert.Equal(t, true, body["ready"])
	assert.Contains(t, body["message"], "chat 'chat-1'")

	require.Equal(t, http.StatusOK, doUpload(t, engine, "chat-1", "Report 1", "notes.txt", "content").Code)

	body = get("/status?chat_id=chat-1")
	assert.Equal(t, true, body["has_documents"])

	body = get("/status")
	assert.Equal(t, false, body["has_documents"])
	assert.Contains(t, body["message"], "the system")
}

func TestStatusEndpointDegradedIndexer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{ServiceName: "docuchat-server", MaxFileSizeMB: 30, UploadDir: t.TempDir()}
	indexer := index.NewService(
		index.Config{ChunkSize: 1000, ChunkOverlap: 200, RetrievalTopK: 3},
		downEmbedder{}, stubChat{}, newStubVectorStore(), zerolog.Nop(),
	)
	storage, err := uploads.NewStorage(cfg.UploadDir, zerolog.Nop())
	require.NoError(t, err)

	engine := gin.New()
	routes.NewRoutes(handlers.NewProvider(cfg, indexer, storage, zerolog.Nop())).Register(engine)

	req := httptest.NewRequest(http.MethodGet, "/status?chat_id=chat-1", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, false, body["ready"])
	assert.Equal(t, false, body["has_documents"])
	assert.Contains(t, body["message"], "RAG indexer unavailable")
	assert.Contains(t, body["message"], "invalid api key")
}

func TestResetEndpoint(t *testing.T) {
	store := newStubVectorStore()
	engine := newTestRouter(t, store)
	require.Equal(t, http.StatusOK, doUpload(t, engine, "chat-1", "Report 1", "notes.txt", "content").Code)
	require.NotEmpty(t, store.points["rag-report-1"])

	req := httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{"chat_id":"chat-1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeJSON(t, rec)["success"])
	assert.Empty(t, store.points["rag-report-1"])

	// Missing chat_id is rejected.
	req = httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "chat_id is required", decodeJSON(t, rec)["detail"])
}
