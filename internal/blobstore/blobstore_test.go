package blobstore

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyKeepsExtension(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	key := NewKey("Foto do Lago.JPG", now)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-f]{12}\.jpg$`), key)
	assert.True(t, ValidKey(key))

	assert.NotEqual(t, key, NewKey("Foto do Lago.JPG", now))
}

func TestNewKeyWithoutExtension(t *testing.T) {
	key := NewKey("video", time.UnixMilli(1))
	assert.Regexp(t, regexp.MustCompile(`^1-[0-9a-f]{12}$`), key)
}

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://localhost:8080/media/1700-abc.jpg", "1700-abc.jpg"},
		{"/media/1700-abc.webm", "1700-abc.webm"},
		{"https://cdn.example.com/gallery/1700-abc.png?v=2", "1700-abc.png"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := KeyFromURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyFromURLEmptyPath(t *testing.T) {
	_, err := KeyFromURL("https://cdn.example.com/")
	assert.Error(t, err)
}

func TestValidKey(t *testing.T) {
	assert.True(t, ValidKey("1700-abc.jpg"))
	assert.False(t, ValidKey(""))
	assert.False(t, ValidKey(".."))
	assert.False(t, ValidKey("../etc/passwd"))
	assert.False(t, ValidKey(`a\b`))
}
