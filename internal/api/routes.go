package api

import "github.com/gin-gonic/gin"

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metricsHandler))

	monitoring := s.router.Group("/monitoring")
	{
		monitoring.GET("/status", s.monitoringHandler.GetStatus)
		monitoring.POST("/start", s.monitoringHandler.Start)
		monitoring.POST("/stop", s.monitoringHandler.Stop)
		monitoring.POST("/enable", s.monitoringHandler.Enable)
		monitoring.POST("/disable", s.monitoringHandler.Disable)
		monitoring.GET("/settings", s.monitoringHandler.GetSettings)
		monitoring.PUT("/settings", s.monitoringHandler.UpdateSettings)
		monitoring.GET("/logs", s.monitoringHandler.GetLogs)
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
	}
}
