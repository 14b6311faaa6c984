package api

import "github.com/gin-gonic/gin"

// SetupRouter configures and returns a Gin engine with all routes mounted.
func SetupRouter(h *Handler, corsOrigins []string) *gin.Engine {
	// Default middleware stack (logger, recovery) plus ours.
	r := gin.Default()
	r.Use(TraceMiddleware())
	r.Use(CORSMiddleware(corsOrigins))

	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/rankings", h.Rankings)
	r.POST("/chat", h.Chat)

	return r
}
