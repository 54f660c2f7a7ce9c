package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ecologia-integral/ecosite/internal/captioner"
)

type Captioner struct {
	host   string
	model  string
	client *http.Client
}

func New(host, model string) *Captioner {
	return &Captioner{
		host:   host,
		model:  model,
		client: &http.Client{},
	}
}

func (c *Captioner) Suggest(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"model":  c.model,
		"prompt": captioner.Prompt,
		"images": []string{base64.StdEncoding.EncodeToString(imageData)},
		"stream": false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var respBody struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	caption := captioner.Clean(respBody.Response)
	if caption == "" {
		return "", fmt.Errorf("ollama returned an empty caption")
	}
	return caption, nil
}
