package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mindscale/src/app/http/response"
	"mindscale/src/app/middleware"
	"mindscale/src/core/domain"
)

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.ValidationError(c, name, "invalid "+name, middleware.GetRequestID(c))
		return 0, false
	}
	return id, true
}

func actorOrAbort(c *gin.Context) (domain.User, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "missing X-User-Id header", middleware.GetRequestID(c))
		return domain.User{}, false
	}
	return actor, true
}

// fail attaches err for the logging middleware and writes the mapped response.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	response.FromDomainError(c, err, middleware.GetRequestID(c))
}
