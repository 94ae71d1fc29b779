package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) usersSearch(c *gin.Context) {
	users, err := h.services.User.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *Handler) eventsSubscribe(c *gin.Context) {
	h.events.ServeWs(c.Writer, c.Request)
}
