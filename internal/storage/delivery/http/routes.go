package http

import "github.com/gin-gonic/gin"

// RegisterRoutes maps HTTP verbs and paths to Handler methods. Everything
// here is a pure projection over the store; no writes.
func RegisterRoutes(rg *gin.RouterGroup, h Handler) {
	db := rg.Group("/database")
	{
		db.GET("/stats", h.Stats)
		db.GET("/messages", h.Messages)
		db.GET("/messages/search", h.Search)
		db.GET("/contacts", h.Contacts)
		db.GET("/contacts/top", h.TopContacts)
		db.GET("/commands", h.Commands)
	}
}
