package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/api/handlers"
	"motion-recorder-go/internal/api/middleware"
	"motion-recorder-go/internal/config"
	"motion-recorder-go/internal/services"
)

type Server struct {
	config   *config.Config
	router   *gin.Engine
	server   *http.Server
	services *services.ServiceContainer

	healthHandler     *handlers.HealthHandler
	systemHandler     *handlers.SystemHandler
	monitoringHandler *handlers.MonitoringHandler
	metricsHandler    http.Handler
}

func NewServer(cfg *config.Config, sc *services.ServiceContainer) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:            cfg,
		router:            gin.New(),
		services:          sc,
		healthHandler:     handlers.NewHealthHandler(cfg.WorkerID, cfg.Version),
		systemHandler:     handlers.NewSystemHandler(cfg.WorkerID),
		monitoringHandler: handlers.NewMonitoringHandler(sc),
		metricsHandler:    sc.Metrics.Handler(),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("Starting motion recorder API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server first, then the services behind it. The
// services are stopped even when the server does not drain in time.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Stopping motion recorder API")
	httpErr := s.server.Shutdown(ctx)
	if httpErr != nil {
		log.Warn().Err(httpErr).Msg("HTTP server did not shut down cleanly")
	}
	return errors.Join(httpErr, s.services.Shutdown(ctx))
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
