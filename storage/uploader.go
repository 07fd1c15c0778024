package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

const (
	PrefixAvatars = "avatars"
	PrefixEmblems = "emblems"
)

// ObjectKey строит ключ вида "{prefix}/{ownerID}/{uuid}{ext}".
func ObjectKey(prefix string, ownerID int, ext string) string {
	return fmt.Sprintf("%s/%d/%s%s", prefix, ownerID, uuid.NewString(), ext)
}
