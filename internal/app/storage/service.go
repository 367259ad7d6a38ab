/*
Package storage talks to the S3-compatible object store holding chat attachments and avatars.
*/
package storage

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrObjectNotFound is returned by Stat when the key does not exist.
var ErrObjectNotFound = errors.New("storage: object not found")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// PublicBaseURL, when set, serves public objects (avatars) without presigning.
	PublicBaseURL string
}

// ObjectInfo is what the store reports about an uploaded object.
type ObjectInfo struct {
	ContentType string
	Size        int64
}

// StorageService defines the public interface for the file storage service.
type StorageService interface {
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload streams body to key from the server side.
	Upload(ctx context.Context, key, mimeType string, body io.Reader) error

	Delete(ctx context.Context, key string) error

	// Stat returns ErrObjectNotFound when key does not exist.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// PublicURL maps a key to a client-usable URL. Empty keys map to "".
	PublicURL(key string) string
}

// NewStorageService is the factory function for StorageService.
// Currently, only S3 compatible implementations are supported.
func NewStorageService(ctx context.Context, cfg ServiceConfig) (StorageService, error) {
	return newS3Client(ctx, cfg)
}

func publicURL(base, endpoint, bucket, key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	if base != "" {
		return base + "/" + key
	}
	return strings.TrimRight(endpoint, "/") + "/" + bucket + "/" + key
}
