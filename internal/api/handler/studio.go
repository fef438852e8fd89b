package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tkao/creatorlens/internal/domain"
	"github.com/tkao/creatorlens/internal/repository"
	"github.com/tkao/creatorlens/internal/service"
)

// StudioHandler handles the content studio endpoints: script generation and
// title scoring.
type StudioHandler struct {
	generator *service.ScriptGenerator
	titles    *service.TitleService
	analyzer  *service.Analyzer
	scripts   *repository.ScriptRepository
}

// NewStudioHandler creates a new studio handler.
func NewStudioHandler(generator *service.ScriptGenerator, titles *service.TitleService, analyzer *service.Analyzer, scripts *repository.ScriptRepository) *StudioHandler {
	return &StudioHandler{generator: generator, titles: titles, analyzer: analyzer, scripts: scripts}
}

// GenerateScript handles POST /api/v1/studio/channels/:id/script.
func (h *StudioHandler) GenerateScript(c *gin.Context) {
	var req service.ScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}
	req.ChannelID = c.Param("id")

	script, err := h.generator.GenerateScript(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, script)
}

type titleRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// GenerateTitles handles POST /api/v1/studio/channels/:id/titles.
func (h *StudioHandler) GenerateTitles(c *gin.Context) {
	var req titleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	candidates, err := h.titles.GenerateTitles(c.Request.Context(), c.Param("id"), req.Topic, req.Count)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": c.Param("id"),
		"topic":      req.Topic,
		"candidates": candidates,
	})
}

type scoreRequest struct {
	Titles []string `json:"titles"`
}

// ScoreTitles handles POST /api/v1/studio/channels/:id/titles/score.
// Scores caller-provided titles against the channel profile without invoking
// the LLM.
func (h *StudioHandler) ScoreTitles(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}
	if len(req.Titles) == 0 {
		respondError(c, domain.Validationf("at least one title is required"))
		return
	}

	profile, err := h.analyzer.AnalyzeChannel(c.Request.Context(), c.Param("id"), 0)
	if err != nil {
		respondError(c, err)
		return
	}

	candidates := make([]domain.TitleCandidate, len(req.Titles))
	for i, title := range req.Titles {
		candidates[i] = service.ScoreTitle(title, profile)
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": c.Param("id"),
		"candidates": candidates,
	})
}

// ListScripts handles GET /api/v1/studio/channels/:id/scripts.
func (h *StudioHandler) ListScripts(c *gin.Context) {
	scripts, err := h.scripts.ListByChannel(c.Request.Context(), c.Param("id"), 50)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channel_id": c.Param("id"),
		"scripts":    scripts,
		"total":      len(scripts),
	})
}

// GetScript handles GET /api/v1/studio/scripts/:id.
func (h *StudioHandler) GetScript(c *gin.Context) {
	script, err := h.scripts.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, script)
}
