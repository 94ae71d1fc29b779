package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

func (h *Handler) requestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}

	c.Set("request-id", requestID)
	c.Header(requestIDHeader, requestID)

	start := time.Now()
	c.Next()

	h.logger.Sugar().Debugf("request(%s) %s %s -> %d in %s", requestID, c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
}
