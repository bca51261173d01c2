package httpHandler

import (
	"net/http"

	"warbler/usecases"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	useCase *usecases.UserUseCase
}

func NewUserHandler(useCase *usecases.UserUseCase) *UserHandler {
	return &UserHandler{
		useCase: useCase,
	}
}

// GetUser handles GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.useCase.GetUser(ctx, id)
	if err != nil {
		apiError(c, err)
		return
	}
	stats, err := h.useCase.Stats(ctx, id)
	if err != nil {
		apiError(c, err)
		return
	}
	messages, err := h.useCase.UserMessages(ctx, id, usecases.TimelineLimit)
	if err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     user,
		"stats":    stats,
		"messages": messages,
	})
}

// GetFollowers handles GET /api/v1/users/:id/followers
func (h *UserHandler) GetFollowers(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	users, err := h.useCase.ListFollowers(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  users,
		"count": len(users),
	})
}

// GetFollowing handles GET /api/v1/users/:id/following
func (h *UserHandler) GetFollowing(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	users, err := h.useCase.ListFollowing(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  users,
		"count": len(users),
	})
}

// GetLikes handles GET /api/v1/users/:id/likes
func (h *UserHandler) GetLikes(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	messages, err := h.useCase.ListLikedMessages(c.Request.Context(), id)
	if err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  messages,
		"count": len(messages),
	})
}

// Follow handles POST /api/v1/users/:id/follow
func (h *UserHandler) Follow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.useCase.Follow(c.Request.Context(), principal(c), id); err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Followed successfully",
		"following": true,
	})
}

// Unfollow handles DELETE /api/v1/users/:id/follow
func (h *UserHandler) Unfollow(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.useCase.Unfollow(c.Request.Context(), principal(c), id); err != nil {
		apiError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Unfollowed successfully",
		"following": false,
	})
}
