package storage

import (
	"context"
	"fmt"
	"io"
)

// ObjectStorage defines the interface for blob store operations. Keys are
// content-addressed by video id and artifact type, so a retry after partial
// failure overwrites rather than appends.
type ObjectStorage interface {
	// Upload writes an object, replacing any existing object at key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download reads an object.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// AudioKey returns the blob key for a video's normalized audio artifact.
func AudioKey(videoID string) string {
	return fmt.Sprintf("audio/%s.mp3", videoID)
}

// TranscriptKey returns the blob key for a video's transcript artifact.
func TranscriptKey(videoID string) string {
	return fmt.Sprintf("transcripts/%s.json", videoID)
}
