package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mindscale/src/app/http/response"
	"mindscale/src/core/domain"
)

const (
	actorHeader     = "X-User-Id"
	actorNameHeader = "X-User-Name"
	actorHandle     = "X-Username"

	// ActorKey is the context key holding the calling domain.User.
	ActorKey = "actor"
)

// Actor identifies the caller from the X-User-Id header; X-User-Name and
// X-Username are optional. The chat platform is trusted to set them.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := GetRequestID(c)

		raw := c.GetHeader(actorHeader)
		if raw == "" {
			response.Unauthorized(c, "missing X-User-Id header", requestID)
			c.Abort()
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			response.BadRequest(c, "invalid X-User-Id", requestID)
			c.Abort()
			return
		}

		name := strings.TrimSpace(c.GetHeader(actorNameHeader))
		if name == "" {
			name = "player " + raw
		}
		c.Set(ActorKey, domain.User{
			ID:       userID,
			Name:     name,
			Username: strings.TrimPrefix(strings.TrimSpace(c.GetHeader(actorHandle)), "@"),
		})
		c.Next()
	}
}

// GetActor returns the caller stored by Actor. ok is false on routes
// without the middleware.
func GetActor(c *gin.Context) (domain.User, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return domain.User{}, false
	}
	u, ok := v.(domain.User)
	return u, ok
}
