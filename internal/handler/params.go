package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// int64Param parses a positive path parameter.
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
