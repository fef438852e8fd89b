package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/service"
)

// ChannelHandler handles channel-level endpoints.
type ChannelHandler struct {
	channels *service.ChannelService
	analyzer *service.Analyzer
}

// NewChannelHandler creates a new channel handler.
func NewChannelHandler(channels *service.ChannelService, analyzer *service.Analyzer) *ChannelHandler {
	return &ChannelHandler{channels: channels, analyzer: analyzer}
}

// SyncChannel handles POST /api/v1/channels/:id/sync.
// Pulls the channel's catalog and enqueues processing for videos that are
// not yet indexed. Pass enqueue=false to only refresh the video table.
func (h *ChannelHandler) SyncChannel(c *gin.Context) {
	enqueue := c.DefaultQuery("enqueue", "true") != "false"

	result, err := h.channels.SyncChannel(c.Request.Context(), c.Param("id"), enqueue)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ChannelStatus handles GET /api/v1/channels/:id/status.
// Returns per-status video counts; pass videos=true to include the full list.
func (h *ChannelHandler) ChannelStatus(c *gin.Context) {
	includeVideos := c.Query("videos") == "true"

	status, err := h.channels.Status(c.Request.Context(), c.Param("id"), includeVideos)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ChannelPatterns handles GET /api/v1/channels/:id/patterns.
// Computes the pattern profile from the channel's top indexed videos; pass
// top_n to change how many feed the analysis.
func (h *ChannelHandler) ChannelPatterns(c *gin.Context) {
	topN := 0
	if raw := c.Query("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, domain.Validationf("top_n must be a positive integer"))
			return
		}
		topN = n
	}

	profile, err := h.analyzer.AnalyzeChannel(c.Request.Context(), c.Param("id"), topN)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
