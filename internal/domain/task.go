package domain

import "time"

// TaskType identifies a queue task payload.
type TaskType string

const (
	// TaskProcessVideo runs the ingest -> transcribe -> embed/index chain
	// for one video.
	TaskProcessVideo TaskType = "process_video"
	// TaskRefreshMetrics refreshes view/like counts for a channel from the
	// catalog.
	TaskRefreshMetrics TaskType = "refresh_metrics"
)

// Task is the typed payload carried on the processing queue.
type Task struct {
	ID         string    `json:"id"`
	Type       TaskType  `json:"type"`
	VideoID    string    `json:"video_id,omitempty"`
	ChannelID  string    `json:"channel_id,omitempty"`
	Force      bool      `json:"force,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
