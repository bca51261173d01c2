package httpHandler

import (
	"errors"
	"net/http"

	"warbler/monitoring"
	"warbler/usecases"

	"github.com/gin-gonic/gin"
)

// NewMessagePage handles GET /messages/new
func (h *ViewHandler) NewMessagePage(c *gin.Context) {
	h.render(c, http.StatusOK, "message_new.html", gin.H{"Text": ""})
}

// CreateMessage handles POST /messages/new
func (h *ViewHandler) CreateMessage(c *gin.Context) {
	user := principal(c)
	text := c.PostForm("text")

	_, err := h.messages.Create(c.Request.Context(), user, text)
	switch {
	case errors.Is(err, usecases.ErrInvalidMessage):
		h.render(c, http.StatusOK, "message_new.html", gin.H{
			"Text":   text,
			"Errors": []string{"Messages must be between 1 and 140 characters."},
		})
		return
	case errors.Is(err, usecases.ErrUnauthorized):
		h.deny(c, "create_message")
		return
	case err != nil:
		h.serverError(c, err)
		return
	}

	monitoring.MessagesPosted.Inc()
	c.Redirect(http.StatusFound, userPath(user.ID))
}

// ShowMessage handles GET /messages/:id
func (h *ViewHandler) ShowMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}
	message, err := h.messages.Get(c.Request.Context(), id)
	if errors.Is(err, usecases.ErrNotFound) {
		h.NotFound(c)
		return
	}
	if err != nil {
		h.serverError(c, err)
		return
	}
	liked, err := h.likedBy(c)
	if err != nil {
		h.serverError(c, err)
		return
	}
	h.render(c, http.StatusOK, "message_show.html", gin.H{
		"Message": message,
		"Liked":   liked[message.ID],
	})
}

// DeleteMessage handles POST /messages/:id/delete. Only the author may delete.
func (h *ViewHandler) DeleteMessage(c *gin.Context) {
	user := principal(c)
	id, ok := paramID(c, "id")
	if !ok {
		h.NotFound(c)
		return
	}

	err := h.messages.Delete(c.Request.Context(), user, id)
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		h.NotFound(c)
		return
	case errors.Is(err, usecases.ErrForbidden), errors.Is(err, usecases.ErrUnauthorized):
		h.deny(c, "delete_message")
		return
	case err != nil:
		h.serverError(c, err)
		return
	}

	monitoring.MessagesDeleted.Inc()
	c.Redirect(http.StatusFound, userPath(user.ID))
}
