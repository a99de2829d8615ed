package http

import (
	"github.com/gin-gonic/gin"

	"zapnode/internal/storage"
	"zapnode/pkg/log"
)

// Handler is the public interface for the read-only database delivery layer.
type Handler interface {
	Stats(c *gin.Context)
	Messages(c *gin.Context)
	Search(c *gin.Context)
	Contacts(c *gin.Context)
	TopContacts(c *gin.Context)
	Commands(c *gin.Context)
}

type handler struct {
	l     log.Logger
	store storage.Store
}

// New creates the HTTP handler for database queries.
func New(l log.Logger, store storage.Store) Handler {
	return &handler{
		l:     l,
		store: store,
	}
}
