package handlers

import (
	"encoding/json"
	"net/http"

	"warbler/auth"
	"warbler/services"
	"warbler/ws"

	"github.com/gin-gonic/gin"
)

// CacheHandler exposes the feed backlog over the API.
type CacheHandler struct {
	feed *services.FeedService
}

func NewCacheHandler(feed *services.FeedService) *CacheHandler {
	return &CacheHandler{
		feed: feed,
	}
}

// PruneCache POST /api/v1/feed/prune drops the caller's expired backlog
// entries. Other users' backlogs are left to the periodic pruner.
func (h *CacheHandler) PruneCache(c *gin.Context) {
	user := auth.PrincipalFrom(c.Request.Context())
	removed := h.feed.PruneUser(user.ID)
	c.JSON(http.StatusOK, gin.H{"status": "pruned", "removed": removed})
}

// GetRecent GET /api/v1/feed/recent returns the caller's backlog.
func (h *CacheHandler) GetRecent(c *gin.Context) {
	user := auth.PrincipalFrom(c.Request.Context())
	entries := h.feed.Recent(user.ID)

	result := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		var env ws.Envelope
		if err := json.Unmarshal(entry.Payload, &env); err != nil {
			continue
		}
		result = append(result, gin.H{
			"message_id": env.MessageID,
			"user_id":    env.UserID,
			"username":   env.Username,
			"text":       env.Text,
			"timestamp":  env.Timestamp,
			"cached_at":  entry.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"count":  len(result),
		"data":   result,
	})
}

func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := h.feed.GetCacheStats()
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  stats,
	})
}
