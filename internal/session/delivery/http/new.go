package http

import (
	"github.com/gin-gonic/gin"

	"zapnode/internal/session"
	"zapnode/pkg/log"
)

// Handler is the public interface for the session HTTP delivery layer.
type Handler interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Detail(c *gin.Context)
	Delete(c *gin.Context)
	Status(c *gin.Context)
	Send(c *gin.Context)
}

type handler struct {
	l       log.Logger
	manager session.Manager
}

// New creates the HTTP handler for the session domain.
func New(l log.Logger, manager session.Manager) Handler {
	return &handler{
		l:       l,
		manager: manager,
	}
}
