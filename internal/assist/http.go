package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 60 * time.Second

// Client is a thin HTTP implementation of all three collaborator contracts,
// speaking to the assist proxy service. quota bounds routine generations
// per process (zero means unlimited); the proxy's own 429 maps to the same
// ErrQuotaExhausted so callers see one condition either way.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client

	mu        sync.Mutex
	quota     int
	generated int
}

// NewClient builds an assist client for the given proxy endpoint.
func NewClient(baseURL, apiKey string, quota int) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: defaultTimeout},
		quota:   quota,
	}
}

// Generate implements RoutineGenerator.
func (c *Client) Generate(ctx context.Context, goal string) (*GeneratedRoutine, error) {
	if err := c.consumeQuota(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{"goal": goal})
	if err != nil {
		return nil, err
	}
	body, err := c.post(ctx, "/generate", "application/json", payload)
	if err != nil {
		return nil, err
	}

	var routine GeneratedRoutine
	if err := json.Unmarshal(body, &routine); err != nil {
		return nil, fmt.Errorf("assist generate: decode: %w", err)
	}
	return &routine, nil
}

// Transcribe implements Transcriber. The audio blob is posted as-is with
// its original mime type.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	body, err := c.post(ctx, "/transcribe", mimeType, audio)
	if err != nil {
		return "", err
	}

	var out struct {
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("assist transcribe: decode: %w", err)
	}
	return out.Transcript, nil
}

// GenerateImage implements ImageGenerator. The proxy answers with the raw
// image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"prompt": prompt})
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "/image", "application/json", payload)
}

func (c *Client) post(ctx context.Context, path, contentType string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assist %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrQuotaExhausted
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("assist %s: %s", path, resp.Status)
	}
	return body, nil
}

func (c *Client) consumeQuota() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quota > 0 && c.generated >= c.quota {
		return ErrQuotaExhausted
	}
	c.generated++
	return nil
}
