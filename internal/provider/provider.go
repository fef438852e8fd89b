// Package provider holds the pluggable external capabilities the pipeline
// depends on: audio resolution, speech-to-text, embedding, generation, and
// the video catalog. Each capability is an interface with one HTTP-backed
// implementation; tests substitute fakes.
package provider

import (
	"context"
	"io"
	"time"

	"github.com/tkao/creatorlens/internal/domain"
)

// AudioResolver turns an external video id into a fetchable, normalized
// audio stream (single channel, fixed bitrate). Unavailable source content is
// reported as a permanent error.
type AudioResolver interface {
	Resolve(ctx context.Context, videoID string) (io.ReadCloser, int64, error)
}

// SpeechToText converts audio bytes into a timestamped transcript.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio io.Reader, videoID string) (*domain.Transcript, error)
}

// Embedder maps text to a fixed-dimension float vector. The provider, model,
// and dimension are recorded with the index so a provider switch without
// reindexing is detected rather than silently corrupting similarity results.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Provider() string
	Model() string
	Dimension() int
}

// Generator produces text from a structured prompt.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	Model() string
}

// CatalogVideo is one video's metadata as reported by the platform catalog.
type CatalogVideo struct {
	ExternalID      string    `json:"external_id"`
	Title           string    `json:"title"`
	DurationSeconds int       `json:"duration_seconds"`
	ViewCount       int64     `json:"view_count"`
	LikeCount       int64     `json:"like_count"`
	PublishedAt     time.Time `json:"published_at"`
}

// Catalog fetches video metadata for a channel from the video platform.
type Catalog interface {
	ListVideos(ctx context.Context, channelID string) ([]CatalogVideo, error)
}

// classifyStatus maps a provider HTTP status to the pipeline error taxonomy.
func classifyStatus(name string, status int, body string, err error) error {
	switch {
	case status == 429:
		return domain.Quota(name+" rate limited", err)
	case status == 408 || status >= 500:
		return domain.Transient(name+" unavailable", err)
	case status >= 400:
		reason := name + " rejected request"
		if body != "" {
			reason = name + " rejected request: " + body
		}
		return domain.Permanent(reason, err)
	}
	return err
}
