package http

import "github.com/gin-gonic/gin"

// RegisterRoutes maps HTTP verbs and paths to Handler methods.
func RegisterRoutes(rg *gin.RouterGroup, h Handler) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)
		sessions.GET("/:id", h.Detail)
		sessions.DELETE("/:id", h.Delete)
		sessions.GET("/:id/status", h.Status)
		sessions.POST("/:id/send", h.Send)
	}
}
