package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"
)

// CORS adds CORS headers and short-circuits OPTIONS preflight requests.
// An empty origins list allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	const (
		allowedMethods = "GET, POST, OPTIONS"
		allowedHeaders = "Content-Type, X-User-Id, X-User-Name, X-Username, X-Request-ID"
		maxAge         = "600"
	)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case len(origins) == 0:
			c.Header("Access-Control-Allow-Origin", "*")
		case slices.Contains(origins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", allowedMethods)
		c.Header("Access-Control-Allow-Headers", allowedHeaders)
		c.Header("Access-Control-Max-Age", maxAge)

		// For preflight requests, return immediately.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
