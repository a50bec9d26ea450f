package handlers

import (
	"senadirectory/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves a request-scoped logger from the gin context, falling
// back to the process logger.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return utils.GetLogger()
}

// ownerFromContext returns the authenticated owner id or DefaultOwnerID.
func ownerFromContext(c *gin.Context) string {
	if id := c.GetString(utils.OwnerContextKey); id != "" {
		return id
	}
	return utils.DefaultOwnerID
}
