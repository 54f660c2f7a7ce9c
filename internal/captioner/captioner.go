// Package captioner suggests gallery captions for uploaded images.
package captioner

import (
	"context"
	"io"
	"strings"
)

// Prompt is the shared instruction sent to every captioning backend.
const Prompt = `Escreva uma legenda curta (no máximo 12 palavras), em português,
para esta foto da galeria de um projeto escolar de educação ambiental.
Responda apenas com a legenda, sem aspas.`

const maxCaptionLen = 200

type Captioner interface {
	Suggest(ctx context.Context, r io.Reader, mimeType string) (string, error)
}

// Clean trims model output down to a single caption line.
func Clean(raw string) string {
	line := strings.TrimSpace(raw)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	line = strings.Trim(line, `"'“”`)
	if r := []rune(line); len(r) > maxCaptionLen {
		line = string(r[:maxCaptionLen])
	}
	return strings.TrimSpace(line)
}
