package controllers

import (
	"net/http"
	"time"

	"MediCore/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRootRoute sets up the welcome and health routes
func SetupRootRoute(router *gin.Engine, api *gin.RouterGroup, env string, log zerolog.Logger) {
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
		if _, err := c.Writer.Write([]byte("Welcome to the MediCore API")); err != nil {
			log.Error().Err(err).Msg("error writing response")
		}
	})

	api.GET("/health", func(c *gin.Context) {
		utils.OK(c, gin.H{
			"status": "ok",
			"env":    env,
			"time":   time.Now().UTC().Format(time.RFC3339),
		}, "Service is healthy")
	})
}
