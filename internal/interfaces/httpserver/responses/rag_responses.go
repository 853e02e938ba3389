package responses

import "github.com/docuchat/docuchat/internal/domain/index"

// UploadResponse is returned by POST /upload on success.
type UploadResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Filename     string `json:"filename"`
	Chunks       int    `json:"chunks"`
	ChatID       string `json:"chat_id"`
	HasDocuments bool   `json:"has_documents"`
}

// QueryResponse is returned by POST /query and POST /chat.
type QueryResponse struct {
	Success bool           `json:"success"`
	Answer  string         `json:"answer"`
	Sources []index.Source `json:"sources"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	HasDocuments bool   `json:"has_documents"`
	Ready        bool   `json:"ready"`
	Message      string `json:"message"`
}

// ResetResponse is returned by POST /reset.
type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
