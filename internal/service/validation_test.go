package service

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecologia-integral/ecosite/internal/domain"
)

func TestValidateUpload_AcceptedTypes(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		body     []byte
		wantType string
		wantKind domain.MediaKind
	}{
		{"png", "image/png", pngHeader, "image/png", domain.MediaImage},
		{"jpeg", "image/jpeg", jpegHeader, "image/jpeg", domain.MediaImage},
		{"jpg alias", "image/jpg", jpegHeader, "image/jpeg", domain.MediaImage},
		{"upper case", "IMAGE/PNG", pngHeader, "image/png", domain.MediaImage},
		{"mp4", "video/mp4", mp4Header, "video/mp4", domain.MediaVideo},
		{"animated png", "image/png", apngHeader, "image/png", domain.MediaImage},
		{"mp4 with m4v brand", "video/mp4", m4vHeader, "video/mp4", domain.MediaVideo},
		{"mp4 with qt brand", "video/mp4", movHeader, "video/mp4", domain.MediaVideo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := newUpload("f", tt.declared, tt.body)

			ct, kind, err := ValidateUpload(u)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, ct)
			assert.Equal(t, tt.wantKind, kind)

			pos, err := u.Body.Seek(0, io.SeekCurrent)
			require.NoError(t, err)
			assert.Zero(t, pos, "body must be rewound")
		})
	}
}

func TestValidateUpload_MismatchedContent(t *testing.T) {
	tests := []struct {
		declared string
		body     []byte
	}{
		{"image/jpeg", pngHeader},
		{"image/png", mp4Header},
		{"video/mp4", apngHeader},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			_, _, err := ValidateUpload(newUpload("f", tt.declared, tt.body))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "O conteúdo do arquivo não corresponde ao tipo informado.", verr.Field("file"))
		})
	}
}

func TestValidateUpload_SizeLimitIsInclusive(t *testing.T) {
	u := newUpload("f.png", "image/png", pngHeader)
	u.Size = MaxUploadSize

	_, _, err := ValidateUpload(u)
	assert.NoError(t, err)

	u.Size = MaxUploadSize + 1
	_, _, err = ValidateUpload(u)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidationErrorMessages(t *testing.T) {
	err := &ValidationError{Problems: []Problem{
		{Field: "name", Message: "Informe seu nome."},
		{Field: "age", Message: "Idade inválida."},
	}}

	assert.Equal(t, "Informe seu nome.", err.Message())
	assert.Equal(t, "Idade inválida.", err.Field("age"))
	assert.Empty(t, err.Field("rating"))
	assert.Contains(t, err.Error(), "name: Informe seu nome.")
}
