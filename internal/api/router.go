// Package api wires the HTTP surface of the service.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/tkao/creatorlens/internal/api/handler"
	"github.com/tkao/creatorlens/internal/api/middleware"
	"github.com/tkao/creatorlens/internal/repository"
	"github.com/tkao/creatorlens/internal/service"
)

// Deps bundles the services the router exposes.
type Deps struct {
	Videos    service.VideoStore
	Tasks     service.TaskEnqueuer
	Channels  *service.ChannelService
	Analyzer  *service.Analyzer
	Generator *service.ScriptGenerator
	Titles    *service.TitleService
	Scripts   *repository.ScriptRepository
	CORS      middleware.CORSConfig
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps Deps, mode string) *gin.Engine {
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(deps.CORS))

	healthHandler := handler.NewHealthHandler()
	videoHandler := handler.NewVideoHandler(deps.Videos, deps.Tasks)
	channelHandler := handler.NewChannelHandler(deps.Channels, deps.Analyzer)
	studioHandler := handler.NewStudioHandler(deps.Generator, deps.Titles, deps.Analyzer, deps.Scripts)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Videos
		v1.GET("/videos/:id", videoHandler.GetVideo)
		v1.POST("/videos/:id/process", videoHandler.ProcessVideo)

		// Channels
		v1.POST("/channels/:id/sync", channelHandler.SyncChannel)
		v1.GET("/channels/:id/status", channelHandler.ChannelStatus)
		v1.GET("/channels/:id/patterns", channelHandler.ChannelPatterns)

		// Studio
		v1.POST("/studio/channels/:id/script", studioHandler.GenerateScript)
		v1.POST("/studio/channels/:id/titles", studioHandler.GenerateTitles)
		v1.POST("/studio/channels/:id/titles/score", studioHandler.ScoreTitles)
		v1.GET("/studio/channels/:id/scripts", studioHandler.ListScripts)
		v1.GET("/studio/scripts/:id", studioHandler.GetScript)
	}

	return r
}
