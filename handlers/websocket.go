package handlers

import (
	"net/http"

	"warbler/auth"
	"warbler/monitoring"
	"warbler/services"
	"warbler/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WSHandler serves the live message feed.
type WSHandler struct {
	mgr  *ws.Manager
	feed *services.FeedService
}

func NewWSHandler(mgr *ws.Manager, feed *services.FeedService) *WSHandler {
	return &WSHandler{mgr: mgr, feed: feed}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleFeed upgrades to websocket and keeps the connection registered until
// the client goes away. The user comes from the session cookie or ?token=.
// GET /ws
func (h *WSHandler) HandleFeed(c *gin.Context) {
	user := auth.PrincipalFrom(c.Request.Context())
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.UnauthorizedMessage})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}
	if err := h.feed.Replay(user.ID, conn); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Debug("feed replay failed")
		_ = conn.Close()
		return
	}
	h.mgr.Register(user.ID, conn)
	monitoring.FeedConnections.Inc()
	log := logrus.WithField("user_id", user.ID)
	log.Info("feed connected")

	defer func() {
		h.mgr.Unregister(user.ID, conn)
		monitoring.FeedConnections.Dec()
		log.Info("feed disconnected")
	}()

	// Clients only listen. Reading keeps control frames flowing and tells us
	// when the peer is gone.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("feed closed by client")
			} else {
				log.WithError(err).Debug("feed read error")
			}
			return
		}
	}
}

// GetConnectedUsers GET /api/v1/feed/connected
func (h *WSHandler) GetConnectedUsers(c *gin.Context) {
	users := h.mgr.List()
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
