package presenter

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/casaiglesia/casa-server/internal/constants"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub fans presentation snapshots out to the websocket clients subscribed to
// each liturgy. Clients that cannot keep up are dropped rather than allowed
// to stall the broadcast.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Client]struct{}
	logger *zap.Logger
}

type Client struct {
	conn   *websocket.Conn
	send   chan []byte
	hub    *Hub
	topic  string
	logger *zap.Logger
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*Client]struct{}),
		logger: logger,
	}
}

// Register attaches a websocket connection to a liturgy's snapshot feed and
// starts its read/write pumps.
func (h *Hub) Register(topic string, conn *websocket.Conn) *Client {
	client := &Client{
		conn:   conn,
		send:   make(chan []byte, constants.PresenterLimits.ClientSendBuffer),
		hub:    h,
		topic:  topic,
		logger: h.logger,
	}

	h.mu.Lock()
	clients := h.topics[topic]
	if clients == nil {
		clients = make(map[*Client]struct{})
		h.topics[topic] = clients
	}
	clients[client] = struct{}{}
	count := len(clients)
	h.mu.Unlock()

	h.logger.Info("Projector client connected",
		zap.String("liturgy_id", topic),
		zap.Int("clients", count),
	)

	go client.writePump()
	go client.readPump()

	return client
}

// Broadcast sends a snapshot to every client subscribed to the topic.
func (h *Hub) Broadcast(topic string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		h.logger.Error("Failed to encode snapshot", zap.Error(err))
		return
	}

	// sends stay under the read lock so a concurrent Close (which needs the
	// write lock to unregister) cannot close a channel mid-send
	h.mu.RLock()
	var slow []*Client
	for client := range h.topics[topic] {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Dropping slow projector client", zap.String("liturgy_id", topic))
		client.Close()
	}
}

// CloseTopic disconnects every client of a finished session.
func (h *Hub) CloseTopic(topic string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.topics[topic]))
	for client := range h.topics[topic] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.Close()
	}
}

// ClientCount reports the subscribers of one topic.
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if clients, ok := h.topics[client.topic]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.topics, client.topic)
		}
	}
	h.mu.Unlock()
}

// Send queues one snapshot for this client alone, used to deliver the
// initial state on subscribe. Full buffers and closed clients drop it; the
// next broadcast catches the client up.
func (c *Client) Send(snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		c.logger.Error("Failed to encode snapshot", zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Close tears the client down once; safe to call from any pump.
func (c *Client) Close() {
	c.once.Do(func() {
		c.hub.unregister(c)
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(constants.PresenterLimits.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(constants.PresenterLimits.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("Projector write failed", zap.Error(err))
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(constants.PresenterLimits.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// readPump discards inbound frames; projector clients are receive-only. It
// exists to notice disconnects and keep pong deadlines fresh.
func (c *Client) readPump() {
	defer c.Close()

	_ = c.conn.SetReadDeadline(time.Now().Add(constants.PresenterLimits.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(constants.PresenterLimits.PongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
