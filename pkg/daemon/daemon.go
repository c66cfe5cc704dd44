package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/events"
)

// Server is the read-only status API served on a unix socket.
type Server struct {
	conf    config.Config
	monitor *Monitor
	hub     *events.EventHub

	srv *http.Server
}

// NewServer creates a status API server for monitor.
func NewServer(conf config.Config, monitor *Monitor, hub *events.EventHub) *Server {
	s := &Server{
		conf:    conf,
		monitor: monitor,
		hub:     hub,
	}
	s.srv = &http.Server{
		Handler: s.setupRoutes(),
	}
	return s
}

func (s *Server) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/status", s.getStatus)
	router.GET("/power-supplies", s.getPowerSupplies)
	router.GET("/config", s.getConfig)
	router.GET("/polls", s.getPolls)
	router.GET("/version", getVersion)
	router.GET("/events", s.streamEvents)

	return router
}

// Handler returns the HTTP handler of the status API.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Listen creates the unix socket at path and serves on it in the
// background. A stale socket left by a previous run is removed.
func (s *Server) Listen(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return pkgerrors.Wrapf(err, "failed to remove stale socket %s", path)
	}

	l, err := net.Listen("unix", path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", path)
	}

	go func() {
		logrus.Infof("status api listening on %s", l.Addr().String())
		if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("status api stopped: %v", err)
		}
	}()

	return nil
}

// Shutdown stops the status API.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
