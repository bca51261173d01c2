package httpHandler

import (
	"errors"
	"net/http"

	"warbler/auth"
	"warbler/entities"
	"warbler/monitoring"
	"warbler/usecases"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type MessageHandler struct {
	useCase *usecases.MessageUseCase
}

func NewMessageHandler(useCase *usecases.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		useCase: useCase,
	}
}

type CreateMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// apiError writes the JSON error matching a usecase or entity error.
func apiError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecases.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case errors.Is(err, usecases.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.UnauthorizedMessage})
	case errors.Is(err, usecases.ErrForbidden):
		monitoring.AuthorizationDenied.WithLabelValues("api").Inc()
		c.JSON(http.StatusForbidden, gin.H{"error": auth.UnauthorizedMessage})
	case errors.Is(err, usecases.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
	case errors.Is(err, usecases.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
	case errors.Is(err, usecases.ErrSelfFollow),
		errors.Is(err, usecases.ErrSelfLike),
		errors.Is(err, usecases.ErrInvalidMessage),
		errors.Is(err, entities.ErrInvalidPassword),
		errors.Is(err, entities.ErrPasswordTooLong),
		errors.Is(err, entities.ErrInvalidUsername),
		errors.Is(err, entities.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("api request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// GetTimeline handles GET /api/v1/timeline
func (h *MessageHandler) GetTimeline(c *gin.Context) {
	messages, err := h.useCase.Timeline(c.Request.Context(), principal(c), usecases.TimelineLimit)
	if err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  messages,
		"count": len(messages),
	})
}

// CreateMessage handles POST /api/v1/messages
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	message, err := h.useCase.Create(c.Request.Context(), principal(c), req.Text)
	if err != nil {
		apiError(c, err)
		return
	}
	monitoring.MessagesPosted.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message created successfully",
		"data":    message,
	})
}

// GetMessage handles GET /api/v1/messages/:id
func (h *MessageHandler) GetMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	message, err := h.useCase.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, usecases.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": message,
	})
}

// DeleteMessage handles DELETE /api/v1/messages/:id
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	if err := h.useCase.Delete(c.Request.Context(), principal(c), id); err != nil {
		apiError(c, err)
		return
	}
	monitoring.MessagesDeleted.Inc()

	c.JSON(http.StatusOK, gin.H{
		"message": "Message deleted successfully",
	})
}

// ToggleLike handles POST /api/v1/messages/:id/like
func (h *MessageHandler) ToggleLike(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	liked, err := h.useCase.ToggleLike(c.Request.Context(), principal(c), id)
	if err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message_id": id,
		"liked":      liked,
	})
}
