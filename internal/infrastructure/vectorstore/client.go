// Package vectorstore is a Qdrant REST client implementing the domain
// VectorStore interface.
package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docuchat/docuchat/internal/domain/index"
)

// Client talks to Qdrant over its REST API. Collections use cosine distance.
type Client struct {
	baseURL    string
	httpClient *resty.Client
	log        zerolog.Logger
}

// Config configures the Qdrant client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "Docuchat-VectorStore/1.0").
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		httpClient.SetHeader("api-key", cfg.APIKey)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		log:        log.With().Str("component", "vectorstore").Logger(),
	}
}

type collectionInfo struct {
	Result struct {
		Config struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// EnsureCollection creates the collection when missing and recreates it when
// the stored vector size no longer matches the embedder's dimension.
func (c *Client) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}

	var info collectionInfo
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&info).
		Get("/collections/" + name)
	if err != nil {
		return fmt.Errorf("inspect collection %q: %w", name, err)
	}

	if resp.IsSuccess() {
		existing := info.Result.Config.Params.Vectors.Size
		if existing == dimension {
			return nil
		}
		c.log.Warn().Str("collection", name).Int("existing", existing).Int("expected", dimension).
			Msg("vector dimension drift detected, recreating collection")
		if err := c.deleteCollection(ctx, name); err != nil {
			return err
		}
	}

	return c.createCollection(ctx, name, dimension)
}

func (c *Client) createCollection(ctx context.Context, name string, dimension int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Put("/collections/" + name)
	if err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("create collection %q (%d): %s", name, resp.StatusCode(), resp.String())
	}
	c.log.Info().Str("collection", name).Int("dimension", dimension).Msg("collection created")
	return nil
}

func (c *Client) deleteCollection(ctx context.Context, name string) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Delete("/collections/" + name)
	if err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete collection %q (%d): %s", name, resp.StatusCode(), resp.String())
	}
	return nil
}

// Upsert writes points into the collection, waiting for the operation to land.
func (c *Client) Upsert(ctx context.Context, collection string, points []index.Point) error {
	payload := make([]map[string]any, len(points))
	for i, point := range points {
		payload[i] = map[string]any{
			"id":     pointUUID(point.ID),
			"vector": point.Vector,
			"payload": map[string]any{
				"document_id": point.ID,
				"chat_id":     point.Payload.ChatID,
				"content":     point.Payload.Content,
				"source":      point.Payload.Source,
			},
		}
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"points": payload}).
		Put("/collections/" + collection + "/points?wait=true")
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("upsert points (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		Score   float32        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Search runs a top-k similarity search restricted to one chat's chunks.
func (c *Client) Search(ctx context.Context, collection string, vector []float32, topK int, chatID string) ([]index.Scored, error) {
	if topK <= 0 {
		topK = 3
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"filter":       chatFilter(chatID),
	}

	var parsed searchResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&parsed).
		Post("/collections/" + collection + "/points/search")
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}
	if resp.StatusCode() == 404 {
		// No collection yet means no documents for the chat.
		return nil, nil
	}
	if resp.IsError() {
		return nil, fmt.Errorf("search points (%d): %s", resp.StatusCode(), resp.String())
	}

	results := make([]index.Scored, 0, len(parsed.Result))
	for _, hit := range parsed.Result {
		scored := index.Scored{Score: hit.Score}
		if v, ok := hit.Payload["chat_id"].(string); ok {
			scored.Payload.ChatID = v
		}
		if v, ok := hit.Payload["content"].(string); ok {
			scored.Payload.Content = v
		}
		if v, ok := hit.Payload["source"].(string); ok {
			scored.Payload.Source = v
		}
		results = append(results, scored)
	}
	return results, nil
}

// DeleteByChat removes every point belonging to the chat from the collection.
func (c *Client) DeleteByChat(ctx context.Context, collection, chatID string) error {
	body := map[string]any{"filter": chatFilter(chatID)}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/collections/" + collection + "/points/delete?wait=true")
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil
	}
	if resp.IsError() {
		return fmt.Errorf("delete points (%d): %s", resp.StatusCode(), resp.String())
	}
	return nil
}

type countResponse struct {
	Result struct {
		Count int `json:"count"`
	} `json:"result"`
}

// CountByChat counts the points stored for the chat.
func (c *Client) CountByChat(ctx context.Context, collection, chatID string) (int, error) {
	body := map[string]any{
		"filter": chatFilter(chatID),
		"exact":  true,
	}

	var parsed countResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&parsed).
		Post("/collections/" + collection + "/points/count")
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	if resp.StatusCode() == 404 {
		return 0, nil
	}
	if resp.IsError() {
		return 0, fmt.Errorf("count points (%d): %s", resp.StatusCode(), resp.String())
	}
	return parsed.Result.Count, nil
}

// Qdrant point ids must be integers or UUIDs; derive a stable UUID from the
// human-readable document id so re-uploads overwrite rather than duplicate.
func pointUUID(documentID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(documentID)).String()
}

func chatFilter(chatID string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{
				"key":   "chat_id",
				"match": map[string]any{"value": chatID},
			},
		},
	}
}
