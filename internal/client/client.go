// Package client is the chat frontend's HTTP client for the docuchat server.
// Every operation is a single attempt; failures surface immediately.
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/conversation"
)

// ErrNoFile rejects an upload invoked without a selected file.
var ErrNoFile = errors.New("no file selected")

// RemoteError is a non-2xx or transport failure from the server. Detail is the
// backend-provided message, used verbatim in the UI.
type RemoteError struct {
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return e.Detail
	}
	return fmt.Sprintf("%s (status %d)", e.Detail, e.StatusCode)
}

// errorBody is the server's error envelope.
type errorBody struct {
	Detail string `json:"detail"`
}

// Client wraps the server's upload, query, status and reset endpoints.
type Client struct {
	httpClient *resty.Client
	log        zerolog.Logger
}

func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "Docuchat-Client/1.0").
		SetTimeout(timeout)

	return &Client{
		httpClient: httpClient,
		log:        log.With().Str("component", "remote-client").Logger(),
	}
}

// UploadResult reports a successful document ingestion.
type UploadResult struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

// Upload sends the file at path for indexing into the conversation's index.
func (c *Client) Upload(ctx context.Context, path, chatID, indexName string) (*UploadResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoFile
	}

	var result UploadResult
	var errBody errorBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{
			"chat_id":   chatID,
			"chat_name": indexName,
		}).
		SetResult(&result).
		SetError(&errBody).
		Post("/upload")
	if err != nil {
		return nil, &RemoteError{Detail: fmt.Sprintf("upload failed: %v", err)}
	}
	if resp.IsError() {
		return nil, remoteError(resp, errBody, "upload failed")
	}
	return &result, nil
}

// QueryResult is a served answer plus its citations.
type QueryResult struct {
	Answer  string                `json:"answer"`
	Sources []conversation.Source `json:"sources"`
}

type queryRequest struct {
	Question string `json:"question"`
	ChatID   string `json:"chat_id"`
	ChatName string `json:"chat_name"`
}

// Query asks a question against the conversation's indexed documents.
func (c *Client) Query(ctx context.Context, question, chatID, indexName string) (*QueryResult, error) {
	var result QueryResult
	var errBody errorBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(queryRequest{Question: question, ChatID: chatID, ChatName: indexName}).
		SetResult(&result).
		SetError(&errBody).
		Post("/query")
	if err != nil {
		return nil, &RemoteError{Detail: fmt.Sprintf("query failed: %v", err)}
	}
	if resp.IsError() {
		return nil, remoteError(resp, errBody, "query failed")
	}
	return &result, nil
}

type resetRequest struct {
	ChatID string `json:"chat_id"`
}

// Reset clears the conversation's remote index.
func (c *Client) Reset(ctx context.Context, chatID string) error {
	var errBody errorBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(resetRequest{ChatID: chatID}).
		SetError(&errBody).
		Post("/reset")
	if err != nil {
		return &RemoteError{Detail: fmt.Sprintf("reset failed: %v", err)}
	}
	if resp.IsError() {
		return remoteError(resp, errBody, "reset failed")
	}
	return nil
}

// Status reports the server's view of a conversation's documents.
type Status struct {
	HasDocuments bool `json:"has_documents"`
	Ready        bool `json:"ready"`
}

// GetStatus fetches the document status for a conversation.
func (c *Client) GetStatus(ctx context.Context, chatID string) (*Status, error) {
	var result Status
	var errBody errorBody
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("chat_id", chatID).
		SetResult(&result).
		SetError(&errBody).
		Get("/status")
	if err != nil {
		return nil, &RemoteError{Detail: fmt.Sprintf("status check failed: %v", err)}
	}
	if resp.IsError() {
		return nil, remoteError(resp, errBody, "status check failed")
	}
	return &result, nil
}

func remoteError(resp *resty.Response, body errorBody, fallback string) *RemoteError {
	detail := strings.TrimSpace(body.Detail)
	if detail == "" {
		detail = fallback
	}
	return &RemoteError{StatusCode: resp.StatusCode(), Detail: detail}
}
