package omni

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the hosted Omni API. It implements both QueryGenerator
// and QueryRunner.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) GenerateQuery(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return GenerateResponse{}, fmt.Errorf("marshal generate payload: %w", err)
	}

	raw, err := c.post(ctx, "/api/unstable/ai/generate-query", body)
	if err != nil {
		return GenerateResponse{}, err
	}

	return GenerateResponse{
		Raw:   raw,
		Query: ExtractQuery(raw),
	}, nil
}

func (c *Client) RunQueryBlocking(ctx context.Context, document json.RawMessage) (*RunResult, error) {
	if len(bytes.TrimSpace(document)) == 0 {
		return nil, fmt.Errorf("query document is required")
	}

	raw, err := c.post(ctx, "/api/unstable/query/run", document)
	if err != nil {
		return nil, err
	}
	if isJSONNull(raw) {
		return nil, nil
	}

	var parsed struct {
		Result   *Table         `json:"result"`
		Metadata map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode run response: %w", err)
	}
	if parsed.Result == nil {
		return nil, nil
	}
	return &RunResult{Table: *parsed.Result, Metadata: parsed.Metadata}, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body for %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s failed status=%d body=%s", path, resp.StatusCode, string(rawBody))
	}
	return rawBody, nil
}

// ExtractQuery returns the "query" member of a generate-query response when
// it is a JSON object, nil otherwise.
func ExtractQuery(raw json.RawMessage) json.RawMessage {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil
	}
	query, ok := envelope["query"]
	if !ok {
		return nil
	}
	trimmed := bytes.TrimSpace(query)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	if !json.Valid(trimmed) {
		return nil
	}
	return query
}

func isJSONNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
