package service

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyComment is returned when an edited comment trims to nothing.
	ErrEmptyComment = errors.New("comment is empty")
)

// MaxUploadSize is the largest accepted gallery file.
const MaxUploadSize int64 = 50 << 20

// Problem is one rejected input field and its user-facing message.
type Problem struct {
	Field   string
	Message string
}

// ValidationError lists the problems found in a submission, in field order.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, fmt.Sprintf("%s: %s", p.Field, p.Message))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Message returns the first problem's message.
func (e *ValidationError) Message() string {
	if len(e.Problems) == 0 {
		return ""
	}
	return e.Problems[0].Message
}

// Field returns the message for field, or "".
func (e *ValidationError) Field(name string) string {
	for _, p := range e.Problems {
		if p.Field == name {
			return p.Message
		}
	}
	return ""
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Problems: []Problem{{Field: field, Message: message}}}
}

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their form names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("form")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Informe seu nome.",
		"max":      "O nome deve ter no máximo 100 caracteres.",
	},
	"age": {
		"": "A idade deve estar entre 1 e 150 anos.",
	},
	"rating": {
		"": "Escolha uma nota de 1 a 5 estrelas.",
	},
	"comment": {
		"required": "Escreva um comentário.",
		"max":      "O comentário deve ter no máximo 1000 caracteres.",
	},
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		msgs := fieldMessages[fe.Field()]
		msg, ok := msgs[fe.Tag()]
		if !ok {
			msg, ok = msgs[""]
		}
		if !ok {
			msg = fmt.Sprintf("Valor inválido (%s).", fe.Tag())
		}
		out.Problems = append(out.Problems, Problem{Field: fe.Field(), Message: msg})
	}
	return out
}

var allowedMedia = map[string]domain.MediaKind{
	"image/jpeg": domain.MediaImage,
	"image/png":  domain.MediaImage,
	"image/webp": domain.MediaImage,
	"video/mp4":  domain.MediaVideo,
	"video/webm": domain.MediaVideo,
}

const sniffLen = 3072

// ValidateUpload checks the declared type and size of an upload and confirms
// the type from the file's leading bytes. The body is rewound afterwards.
func ValidateUpload(u Upload) (string, domain.MediaKind, error) {
	declared := normaliseContentType(u.ContentType)
	kind, ok := allowedMedia[declared]
	if !ok {
		return "", "", invalid("file", "Tipo de arquivo não permitido. Envie JPEG, PNG, WebP, MP4 ou WebM.")
	}
	if u.Size > MaxUploadSize {
		return "", "", invalid("file", "O arquivo excede o limite de 50 MB.")
	}
	if u.Size <= 0 || u.Body == nil {
		return "", "", invalid("file", "Selecione um arquivo.")
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", "", fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := u.Body.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	if !contentMatches(head[:n], declared) {
		return "", "", invalid("file", "O conteúdo do arquivo não corresponde ao tipo informado.")
	}
	return declared, kind, nil
}

// sniffAliases maps detected ISO media subtypes onto the type browsers
// declare for the same files.
var sniffAliases = map[string]string{
	"video/x-m4v":     "video/mp4",
	"video/quicktime": "video/mp4",
}

// contentMatches reports whether the sniffed type of head is declared or a
// subtype of it, such as APNG for image/png.
func contentMatches(head []byte, declared string) bool {
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is(declared) || sniffAliases[m.String()] == declared {
			return true
		}
	}
	return false
}

func normaliseContentType(raw string) string {
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		mt = strings.TrimSpace(raw)
	}
	mt = strings.ToLower(mt)
	if mt == "image/jpg" || mt == "image/pjpeg" {
		return "image/jpeg"
	}
	return mt
}
