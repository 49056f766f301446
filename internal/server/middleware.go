package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// cors sets the fixed CORS headers on every response and answers preflight requests.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, x-user-id")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
