package handlers

import (
	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/domain/index"
	"github.com/docuchat/docuchat/internal/infrastructure/uploads"
)

// Provider wires HTTP handlers.
type Provider struct {
	RAG *RAGHandler
}

func NewProvider(cfg *config.Config, indexer *index.Service, storage *uploads.Storage, log zerolog.Logger) *Provider {
	return &Provider{
		RAG: NewRAGHandler(cfg, indexer, storage, log),
	}
}
