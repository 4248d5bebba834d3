package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const allowedHeaders = "authorization, x-client-info, apikey, content-type"

// CORSMiddleware attaches the wildcard CORS headers to every response, error
// responses included, and short-circuits preflight requests with 200 "ok".
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.String(http.StatusOK, "ok")
			c.Abort()
			return
		}

		c.Next()
	}
}
