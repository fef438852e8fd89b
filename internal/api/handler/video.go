package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/service"
)

// VideoHandler handles video-level pipeline endpoints.
type VideoHandler struct {
	videos service.VideoStore
	tasks  service.TaskEnqueuer
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(videos service.VideoStore, tasks service.TaskEnqueuer) *VideoHandler {
	return &VideoHandler{videos: videos, tasks: tasks}
}

// ProcessVideo handles POST /api/v1/videos/:id/process.
// Queues the full pipeline for the video. An already indexed video is a
// no-op unless force=true is passed.
func (h *VideoHandler) ProcessVideo(c *gin.Context) {
	videoID := c.Param("id")
	force := c.Query("force") == "true"

	video, err := h.videos.GetByID(c.Request.Context(), videoID)
	if err != nil {
		respondError(c, err)
		return
	}

	if video.Status == domain.VideoStatusIndexed && !force {
		c.JSON(http.StatusOK, gin.H{
			"video_id":    videoID,
			"status":      video.Status,
			"chunk_count": video.ChunkCount,
			"no_op":       true,
		})
		return
	}

	taskID, err := h.tasks.Enqueue(c.Request.Context(), &domain.Task{
		Type:    domain.TaskProcessVideo,
		VideoID: videoID,
		Force:   force,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"video_id": videoID,
		"task_id":  taskID,
		"status":   "queued",
	})
}

// GetVideo handles GET /api/v1/videos/:id.
// Returns the video record including its pipeline status and any recorded
// failure reason.
func (h *VideoHandler) GetVideo(c *gin.Context) {
	video, err := h.videos.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, video)
}
