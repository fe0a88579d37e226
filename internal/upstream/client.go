// Package upstream calls the OpenAI-shape chat completions endpoint.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default HTTP transport tuning values, matched to a long-lived chat
// completions backend with a small number of concurrent upstream hosts.
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 90 * time.Second
)

// Client issues chat-completion calls against one configured base URL. It
// never rewrites the model name and never caps MaxTokens: model selection
// is the caller's.
type Client struct {
	baseURL     string
	fallbackKey string
	httpClient  *http.Client
}

// New builds a Client. timeout is applied to the whole request/response
// round trip, including time spent reading a streaming body, per the
// gateway's recommended 10-minute upstream timeout.
func New(baseURL, fallbackAPIKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		fallbackKey: fallbackAPIKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
	}
}

// Response wraps the upstream HTTP response so the gateway can inspect the
// status/headers before deciding how to relay the body.
type Response struct {
	StatusCode int
	Body       io.ReadCloser
}

// CreateChatCompletion POSTs body to <base>/chat/completions, forwarding
// credential as the bearer token (the client's forwarded key, falling back
// to the server-configured OPENAI_API_KEY when the client didn't send one).
// The caller is responsible for closing the returned Response.Body.
func (c *Client) CreateChatCompletion(ctx context.Context, body []byte, credential string, forwarded http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("upstream: building request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	key := credential
	if key == "" {
		key = c.fallbackKey
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	for _, h := range []string{"X-Real-Ip", "User-Agent", "Referer"} {
		if v := forwarded.Get(h); v != "" {
			req.Header.Set(h, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream: request failed: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: resp.Body}, nil
}

// ReadJSONBody fully reads and JSON-decodes a non-streaming response body.
func ReadJSONBody(body io.Reader, out interface{}) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("upstream: reading response body: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("upstream: decoding response body: %w", err)
	}
	return nil
}
