package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/domain/extract"
	"github.com/docuchat/docuchat/internal/domain/index"
	"github.com/docuchat/docuchat/internal/infrastructure/observability"
	"github.com/docuchat/docuchat/internal/infrastructure/uploads"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver/requests"
	"github.com/docuchat/docuchat/internal/interfaces/httpserver/responses"
	"github.com/docuchat/docuchat/internal/utils/platformerrors"
)

// RAGHandler exposes the upload, query, status and reset endpoints.
type RAGHandler struct {
	cfg     *config.Config
	indexer *index.Service
	storage *uploads.Storage
	log     zerolog.Logger
}

func NewRAGHandler(cfg *config.Config, indexer *index.Service, storage *uploads.Storage, log zerolog.Logger) *RAGHandler {
	return &RAGHandler{
		cfg:     cfg,
		indexer: indexer,
		storage: storage,
		log:     log.With().Str("component", "rag-handler").Logger(),
	}
}

// Upload accepts a multipart document, stores it and indexes it for the chat.
func (h *RAGHandler) Upload(c *gin.Context) {
	ctx, span := observability.StartSpan(c.Request.Context(), "RAGHandler.Upload")
	defer span.End()

	chatID := strings.TrimSpace(c.PostForm("chat_id"))
	if chatID == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "chat_id is required")
		return
	}
	chatName := c.PostForm("chat_name")

	file, header, err := c.Request.FormFile("file")
	if err != nil || header.Filename == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "No file provided")
		return
	}
	defer file.Close()

	if !extract.IsSupported(header.Filename) {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("Unsupported type. Allowed: %s", strings.Join(extract.SupportedExtensions, ", ")))
		return
	}

	if header.Size > h.cfg.MaxFileBytes() {
		responses.HandleNewError(c, platformerrors.ErrorTypeTooLarge,
			fmt.Sprintf("File too large. Limit: %dMB", h.cfg.MaxFileSizeMB))
		return
	}

	path, err := h.storage.Save(chatID, header.Filename, file)
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", chatID).Msg("store upload")
		responses.HandleError(c, err, "failed to store uploaded file")
		return
	}

	if kind, err := mimetype.DetectFile(path); err == nil {
		if !extensionMatchesMime(header.Filename, kind) {
			h.log.Warn().Str("filename", header.Filename).Str("detected", kind.String()).
				Msg("upload content type does not match extension")
		}
	}

	chunks, err := h.indexer.ProcessDocument(ctx, path, header.Filename, chatID, chatName)
	if err != nil {
		h.storage.Remove(path)
		h.log.Error().Err(err).Str("chat_id", chatID).Str("filename", header.Filename).Msg("index upload")
		responses.HandleError(c, err, "failed to process document")
		return
	}

	c.JSON(http.StatusOK, responses.UploadResponse{
		Success:      true,
		Message:      fmt.Sprintf("Successfully processed %s for chat %s", header.Filename, chatID),
		Filename:     header.Filename,
		Chunks:       chunks,
		ChatID:       chatID,
		HasDocuments: true,
	})
}

// Query answers a question against the chat's documents. POST /chat aliases here.
func (h *RAGHandler) Query(c *gin.Context) {
	ctx, span := observability.StartSpan(c.Request.Context(), "RAGHandler.Query")
	defer span.End()

	var req requests.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "Question cannot be empty")
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "chat_id is required")
		return
	}

	result, err := h.indexer.Query(ctx, req.Question, req.ChatID, req.ChatName)
	if err != nil {
		h.log.Error().Err(err).Str("chat_id", req.ChatID).Msg("query failed")
		responses.HandleError(c, err, "failed to answer the question")
		return
	}

	c.JSON(http.StatusOK, responses.QueryResponse{
		Success: true,
		Answer:  result.Answer,
		Sources: result.Sources,
	})
}

// Status reports whether the chat has indexed documents. A degraded indexer
// reports ready=false with the initialization failure; Init here doubles as
// the lazy retry.
func (h *RAGHandler) Status(c *gin.Context) {
	chatID := strings.TrimSpace(c.Query("chat_id"))

	if err := h.indexer.Init(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, responses.StatusResponse{
			HasDocuments: false,
			Ready:        false,
			Message:      fmt.Sprintf("RAG indexer unavailable. Check embedding credentials. Details: %v", err),
		})
		return
	}

	target := "the system"
	if chatID != "" {
		target = fmt.Sprintf("chat '%s'", chatID)
	}

	c.JSON(http.StatusOK, responses.StatusResponse{
		HasDocuments: chatID != "" && h.indexer.HasDocuments(c.Request.Context(), chatID),
		Ready:        true,
		Message:      fmt.Sprintf("Ready to answer questions for %s.", target),
	})
}

// Reset removes the chat's indexed documents, history and stored uploads.
func (h *RAGHandler) Reset(c *gin.Context) {
	ctx, span := observability.StartSpan(c.Request.Context(), "RAGHandler.Reset")
	defer span.End()

	var req requests.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ChatID) == "" {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "chat_id is required")
		return
	}

	if err := h.indexer.Reset(ctx, req.ChatID); err != nil {
		h.log.Error().Err(err).Str("chat_id", req.ChatID).Msg("reset failed")
		responses.HandleError(c, err, "failed to reset chat")
		return
	}

	if err := h.storage.Purge(req.ChatID); err != nil {
		h.log.Warn().Err(err).Str("chat_id", req.ChatID).Msg("purge uploads")
	}

	c.JSON(http.StatusOK, responses.ResetResponse{
		Success: true,
		Message: fmt.Sprintf("Chat %s reset. Indexed documents removed.", req.ChatID),
	})
}

func extensionMatchesMime(filename string, kind *mimetype.MIME) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return kind.Is("application/pdf")
	case ".docx":
		return kind.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document") || kind.Is("application/zip")
	case ".txt":
		return strings.HasPrefix(kind.String(), "text/")
	default:
		return false
	}
}
