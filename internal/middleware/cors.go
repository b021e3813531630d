package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows the configured origins to drive the flow from another page.
// Requests from any other origin are served without CORS headers, so the
// browser enforces the policy and routing still depends on the path alone.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	handler := cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	})
	allowAll := slices.Contains(allowedOrigins, "*")
	return func(c *gin.Context) {
		if !allowAll && !slices.Contains(allowedOrigins, c.GetHeader("Origin")) {
			c.Next()
			return
		}
		handler(c)
	}
}
