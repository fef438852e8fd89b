package domain

import (
	"time"
)

// VideoStatus represents the processing status of a video.
// A video moves through the pipeline stages in order; Indexed and Failed are
// terminal for a given artifact version, and a forced reprocess resets to
// Pending.
type VideoStatus string

const (
	VideoStatusPending      VideoStatus = "pending"
	VideoStatusDownloading  VideoStatus = "downloading"
	VideoStatusDownloaded   VideoStatus = "downloaded"
	VideoStatusTranscribing VideoStatus = "transcribing"
	VideoStatusTranscribed  VideoStatus = "transcribed"
	VideoStatusEmbedding    VideoStatus = "embedding"
	VideoStatusIndexed      VideoStatus = "indexed"
	VideoStatusFailed       VideoStatus = "failed"
)

// Terminal reports whether the status admits no further pipeline work.
func (s VideoStatus) Terminal() bool {
	return s == VideoStatusIndexed || s == VideoStatusFailed
}

// statusRank orders the happy-path statuses so stages can check whether their
// prerequisite has been reached. Failed is not ranked.
var statusRank = map[VideoStatus]int{
	VideoStatusPending:      0,
	VideoStatusDownloading:  1,
	VideoStatusDownloaded:   2,
	VideoStatusTranscribing: 3,
	VideoStatusTranscribed:  4,
	VideoStatusEmbedding:    5,
	VideoStatusIndexed:      6,
}

// AtLeast reports whether s has reached or passed other on the happy path.
func (s VideoStatus) AtLeast(other VideoStatus) bool {
	sr, ok := statusRank[s]
	if !ok {
		return false
	}
	or, ok := statusRank[other]
	if !ok {
		return false
	}
	return sr >= or
}

// Video is a channel video tracked by the processing pipeline. The external
// (platform-assigned) video ID is the idempotency key for the whole
// ingest-to-index chain.
type Video struct {
	ExternalID      string      `gorm:"type:text;primaryKey" json:"external_id"`
	ChannelID       string      `gorm:"type:text;not null;index:idx_videos_channel" json:"channel_id"`
	Title           string      `gorm:"type:text;not null" json:"title"`
	DurationSeconds int         `json:"duration_seconds"`
	ViewCount       int64       `json:"view_count"`
	LikeCount       int64       `json:"like_count"`
	PublishedAt     time.Time   `json:"published_at"`
	Status          VideoStatus `gorm:"type:text;index:idx_videos_status;default:pending" json:"status"`
	FailureReason   string      `gorm:"type:text" json:"failure_reason,omitempty"`
	AudioKey        string      `gorm:"type:text" json:"audio_key,omitempty"`
	TranscriptKey   string      `gorm:"type:text" json:"transcript_key,omitempty"`
	ChunkCount      int         `json:"chunk_count"`
	IndexedAt       *time.Time  `json:"indexed_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Video.
func (Video) TableName() string {
	return "videos"
}

// EngagementRate returns likes/views as a percentage, or 0 for unviewed
// videos.
func (v *Video) EngagementRate() float64 {
	if v.ViewCount == 0 {
		return 0
	}
	return float64(v.LikeCount) / float64(v.ViewCount) * 100
}

// TranscriptSegment is one timestamped span of speech. Segments are ordered,
// non-overlapping, and monotonically increasing in start time; concatenated
// they reconstruct the full transcript text.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the persisted transcription artifact for one video.
type Transcript struct {
	VideoID  string              `json:"video_id"`
	Text     string              `json:"text"`
	Language string              `json:"language,omitempty"`
	Duration float64             `json:"duration,omitempty"`
	Segments []TranscriptSegment `json:"segments"`
}
