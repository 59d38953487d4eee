// Package handler provides the HTTP request handlers.
package handler

import (
	"log"

	"github.com/gin-gonic/gin"

	"agsa-server/pkg/response"
	"agsa-server/pkg/util"
)

// internalError logs the real error under a fresh correlation id and
// returns only the id to the client. The detail never leaves the
// server.
func internalError(c *gin.Context, err error) {
	correlationID := util.GenerateUUID()
	log.Printf("[ERROR] %s %s failed (correlation %s): %v",
		c.Request.Method, c.Request.URL.Path, correlationID, err)
	response.InternalError(c, correlationID)
}
