package storage

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPublicURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		key  string
		want string
	}{
		{"host only", "https://cdn.example.com", "avatars/1/a.png", "https://cdn.example.com/avatars/1/a.png"},
		{"trailing slash", "https://cdn.example.com/", "avatars/1/a.png", "https://cdn.example.com/avatars/1/a.png"},
		{"leading slash key", "https://cdn.example.com/", "/avatars/1/a.png", "https://cdn.example.com/avatars/1/a.png"},
		{"base with path", "https://cdn.example.com/bucket", "emblems/2/b.jpg", "https://cdn.example.com/bucket/emblems/2/b.jpg"},
		{"empty key", "https://cdn.example.com", "", ""},
		{"empty base", "", "avatars/1/a.png", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := joinPublicURL(tt.base, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey(PrefixAvatars, 42, ".png")
	assert.Regexp(t, regexp.MustCompile(`^avatars/42/[0-9a-f-]{36}\.png$`), key)
	assert.NotEqual(t, key, ObjectKey(PrefixAvatars, 42, ".png"))
}

func TestNewCloudflareR2Uploader_RequiresAllFields(t *testing.T) {
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"}, nil)
	assert.Error(t, err)
}
