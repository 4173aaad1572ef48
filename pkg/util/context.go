package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetUserID extracts the user id set by the auth middleware. Identity headers
// from the client are never trusted.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id != 0
}

// GetUsername extracts the username set by the auth middleware.
func GetUsername(c *gin.Context) (string, bool) {
	v, ok := c.Get("username")
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok && name != ""
}

// ParseID parses a positive numeric path parameter.
func ParseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
