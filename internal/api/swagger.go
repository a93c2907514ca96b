package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"motion-recorder-go/docs"
)

func (s *Server) setupSwagger() {
	docs.SwaggerInfo.Host = fmt.Sprintf("%s:%d", s.config.SwaggerHost, s.config.SwaggerPort)
	docs.SwaggerInfo.Version = s.config.Version

	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       docs.SwaggerInfo.Title,
			"version":     s.config.Version,
			"description": docs.SwaggerInfo.Description,
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"health":      "/health",
				"worker_info": "/",
				"monitoring":  "/monitoring",
				"metrics":     "/metrics",
				"system":      "/system",
			},
			"worker_id": s.config.WorkerID,
			"port":      s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
