package server

import (
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router.
func SetupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/play", api.Play)
	r.POST("/play/html", api.PlayHTML)
	r.POST("/pause", api.Pause)
	r.POST("/resume", api.Resume)
	r.POST("/stop", api.Stop)
	r.GET("/status", api.Status)
	r.DELETE("/cache", api.ClearCache)
	r.GET("/runs/:id", api.Run)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
