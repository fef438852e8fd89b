package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID).
	FieldRequestID = "request_id"

	// FieldTaskID is the queue task ID.
	FieldTaskID = "task_id"

	// FieldVideoID is the external video ID.
	FieldVideoID = "video_id"

	// FieldChannelID is the channel ID.
	FieldChannelID = "channel_id"

	// FieldStage is the pipeline stage name.
	FieldStage = "stage"

	// FieldComponent is the component/module name.
	FieldComponent = "component"
)

// Standard metric fields used for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds.
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field.
	FieldCount = "count"

	// FieldStatus is the operation status.
	FieldStatus = "status"
)
