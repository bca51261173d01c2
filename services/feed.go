package services

import (
	"context"
	"time"

	"warbler/cache"
	"warbler/entities"
	"warbler/ws"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const deliveryQueueSize = 256

type delivery struct {
	payload []byte
	userIDs []uint
}

// FeedService fans new messages out to live connections and remembers them
// in a per-user backlog that is replayed when a client connects. Socket
// writes happen on the goroutine started by Start, never on the caller's.
type FeedService struct {
	cache      *cache.FeedCache
	manager    *ws.Manager
	ttl        time.Duration
	interval   time.Duration
	deliveries chan delivery
}

func NewFeedService(manager *ws.Manager, capacity int, ttl time.Duration) *FeedService {
	return &FeedService{
		cache:      cache.NewFeedCache(capacity),
		manager:    manager,
		ttl:        ttl,
		interval:   5 * time.Minute,
		deliveries: make(chan delivery, deliveryQueueSize),
	}
}

// Start delivers queued frames and prunes expired backlog entries until ctx
// is done.
func (fs *FeedService) Start(ctx context.Context) {
	ticker := time.NewTicker(fs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case d := <-fs.deliveries:
				fs.manager.Broadcast(d.payload, d.userIDs)
			case <-ticker.C:
				fs.Prune()
			}
		}
	}()
}

func (fs *FeedService) Prune() int {
	removed := fs.cache.Prune(time.Now().Add(-fs.ttl))
	if removed > 0 {
		logrus.WithField("removed", removed).Debug("pruned feed backlog")
	}
	return removed
}

// PruneUser drops the user's expired backlog entries.
func (fs *FeedService) PruneUser(userID uint) int {
	return fs.cache.PruneUser(userID, time.Now().Add(-fs.ttl))
}

// Publish implements usecases.Notifier. The backlog is updated before it
// returns; live delivery is queued. A full queue drops the live frame and
// the followers see the message on their next replay.
func (fs *FeedService) Publish(message *entities.Message, followerIDs []uint) {
	if len(followerIDs) == 0 {
		return
	}
	payload, err := ws.Encode(message)
	if err != nil {
		logrus.WithError(err).Error("could not encode feed envelope")
		return
	}
	for _, id := range followerIDs {
		fs.cache.Add(id, payload)
	}

	select {
	case fs.deliveries <- delivery{payload: payload, userIDs: followerIDs}:
	default:
		logrus.WithFields(logrus.Fields{
			"message_id": message.ID,
			"followers":  len(followerIDs),
		}).Warn("feed delivery queue full, dropping live frame")
	}
}

// Replay writes the user's backlog to a connection that is not registered
// with the manager yet, so no other goroutine writes to it concurrently.
func (fs *FeedService) Replay(userID uint, conn *websocket.Conn) error {
	for _, entry := range fs.cache.Recent(userID) {
		if err := conn.WriteMessage(websocket.TextMessage, entry.Payload); err != nil {
			return err
		}
	}
	return nil
}

func (fs *FeedService) Recent(userID uint) []cache.FeedEntry {
	return fs.cache.Recent(userID)
}

func (fs *FeedService) GetCacheStats() map[string]interface{} {
	return fs.cache.GetCacheStats()
}
