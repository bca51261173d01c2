package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"warbler/entities"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

var ErrNotConnected = errors.New("user not connected")

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Manager keeps track of live feed connections. A user may have several
// connections open, one per browser tab or terminal.
type Manager struct {
	mu          sync.RWMutex
	connections map[uint]map[*websocket.Conn]*client
}

func NewManager() *Manager {
	return &Manager{connections: make(map[uint]map[*websocket.Conn]*client)}
}

// Register adds a connection for userID.
func (m *Manager) Register(userID uint, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.connections[userID]
	if !ok {
		conns = make(map[*websocket.Conn]*client)
		m.connections[userID] = conns
	}
	conns[conn] = &client{conn: conn}
}

// Unregister closes and removes one connection.
func (m *Manager) Unregister(userID uint, conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.connections[userID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		_ = conn.Close()
		delete(conns, conn)
	}
	if len(conns) == 0 {
		delete(m.connections, userID)
	}
}

// SendToUser writes payload to every connection of userID. Connections that
// fail to accept the write are dropped.
func (m *Manager) SendToUser(userID uint, payload []byte) error {
	m.mu.RLock()
	clients := make([]*client, 0, len(m.connections[userID]))
	for _, c := range m.connections[userID] {
		clients = append(clients, c)
	}
	m.mu.RUnlock()
	if len(clients) == 0 {
		return ErrNotConnected
	}

	var firstErr error
	for _, c := range clients {
		if err := c.write(payload); err != nil {
			logrus.WithError(err).WithField("user_id", userID).Debug("dropping feed connection")
			m.Unregister(userID, c.conn)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// IsConnected returns whether a user has at least one open connection.
func (m *Manager) IsConnected(userID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections[userID]) > 0
}

// List returns a copy of the currently connected user ids.
func (m *Manager) List() []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	return ids
}

// Envelope is the JSON frame pushed to feed clients.
type Envelope struct {
	Type      string    `json:"type"`
	MessageID uint      `json:"message_id"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Encode builds the feed frame for a new message.
func Encode(message *entities.Message) ([]byte, error) {
	return json.Marshal(Envelope{
		Type:      "message",
		MessageID: message.ID,
		UserID:    message.UserID,
		Username:  message.User.Username,
		Text:      message.Text,
		Timestamp: message.Timestamp,
	})
}

// Broadcast sends payload to whichever of userIDs are connected.
func (m *Manager) Broadcast(payload []byte, userIDs []uint) {
	for _, id := range userIDs {
		if !m.IsConnected(id) {
			continue
		}
		_ = m.SendToUser(id, payload)
	}
}
