package claude

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/ecologia-integral/ecosite/internal/captioner"
)

type Captioner struct {
	client *anthropic.Client
	model  string
}

func New(apiKey, model string, opts ...anthropic.ClientOption) *Captioner {
	return &Captioner{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (c *Captioner) Suggest(ctx context.Context, r io.Reader, mimeType string) (string, error) {
	imageData, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: 128,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(imageData),
				)),
				anthropic.NewTextMessageContent(captioner.Prompt),
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call claude: %w", err)
	}

	caption := captioner.Clean(resp.GetFirstContentText())
	if caption == "" {
		return "", fmt.Errorf("claude returned an empty caption")
	}
	return caption, nil
}

// normaliseMIME maps browser MIME types to the values the Messages API accepts.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
