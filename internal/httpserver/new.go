package httpserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	"zapnode/internal/session"
	sessionHTTP "zapnode/internal/session/delivery/http"
	storageHTTP "zapnode/internal/storage/delivery/http"
	"zapnode/pkg/log"
)

// HTTPServer holds all dependencies for the HTTP server.
type HTTPServer struct {
	// Server
	gin         *gin.Engine
	l           log.Logger
	port        int
	mode        string
	environment string

	// Session domain
	manager        session.Manager
	sessionHandler sessionHTTP.Handler

	// Database projections
	databaseHandler storageHTTP.Handler
}

// Config is the dependency bag passed to New().
type Config struct {
	Logger      log.Logger
	Port        int
	Mode        string
	Environment string

	Manager         session.Manager
	SessionHandler  sessionHTTP.Handler
	DatabaseHandler storageHTTP.Handler
}

// New creates a new HTTPServer instance.
func New(logger log.Logger, cfg Config) (*HTTPServer, error) {
	gin.SetMode(cfg.Mode)

	srv := &HTTPServer{
		l:               logger,
		gin:             gin.Default(),
		port:            cfg.Port,
		mode:            cfg.Mode,
		environment:     cfg.Environment,
		manager:         cfg.Manager,
		sessionHandler:  cfg.SessionHandler,
		databaseHandler: cfg.DatabaseHandler,
	}

	if err := srv.validate(); err != nil {
		return nil, err
	}

	return srv, nil
}

func (srv *HTTPServer) validate() error {
	if srv.l == nil {
		return errors.New("logger is required")
	}
	if srv.mode == "" {
		return errors.New("mode is required")
	}
	if srv.port == 0 {
		return errors.New("port is required")
	}
	if srv.sessionHandler == nil {
		return errors.New("session handler is required")
	}
	return nil
}
