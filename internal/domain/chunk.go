package domain

import "fmt"

// Chunk is a bounded, overlapping slice of a video transcript; the unit of
// embedding and retrieval. Chunks are immutable once created and regenerated
// wholesale when the parent transcript changes. The video metadata fields are
// a snapshot taken at chunking time, not a live reference.
type Chunk struct {
	VideoID   string  `json:"video_id"`
	ChannelID string  `json:"channel_id"`
	Sequence  int     `json:"sequence"`
	CharStart int     `json:"char_start"`
	CharEnd   int     `json:"char_end"`
	TimeStart float64 `json:"time_start"`
	TimeEnd   float64 `json:"time_end"`
	Text      string  `json:"text"`

	// Snapshot of video-level metadata for retrieval-time boosting.
	Title           string `json:"title"`
	ViewCount       int64  `json:"view_count"`
	LikeCount       int64  `json:"like_count"`
	DurationSeconds int    `json:"duration_seconds"`
	PublishedAtUnix int64  `json:"published_at_unix"`
}

// Key returns the stable chunk key (video id + sequence index) used for
// idempotent upserts into the vector index.
func (c *Chunk) Key() string {
	return fmt.Sprintf("%s:%d", c.VideoID, c.Sequence)
}

// ScoredChunk is a chunk returned from a similarity query.
type ScoredChunk struct {
	Chunk
	Score float32 `json:"score"`
}
