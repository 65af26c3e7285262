package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// SnapshotFunc reports the state a newly joined spectator should see.
type SnapshotFunc func(ctx context.Context) (any, error)

// Hub fans game notifications out to websocket spectators.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stop       sync.Once
	mutex      sync.RWMutex
	snapshot   SnapshotFunc
	logger     *zap.Logger
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
}

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func NewHub(snapshot SnapshotFunc, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		snapshot:   snapshot,
		logger:     logger,
	}
}

// Run serves registrations and broadcasts until ctx is done, then drops
// every client. Registrations after Run returns are refused.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop.Do(func() { close(h.done) })
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("spectator registered", zap.String("client_id", client.id), zap.Int("clients", total))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("spectator unregistered", zap.String("client_id", client.id), zap.Int("clients", len(h.clients)))
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("spectator send buffer full, dropping", zap.String("client_id", client.id))
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Notify broadcasts text to every spectator. It never blocks on slow
// clients and never fails.
func (h *Hub) Notify(ctx context.Context, text string) error {
	h.Broadcast("notification", map[string]string{"text": text})
	return nil
}

func (h *Hub) Broadcast(messageType string, payload any) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal hub message", zap.String("type", messageType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("hub broadcast queue full, dropping message", zap.String("type", messageType))
	}
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
	case <-h.done:
		h.logger.Info("hub stopped, refusing spectator", zap.String("client_id", client.id))
		conn.Close()
		return nil
	}

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) sendSnapshot(c *Client) {
	if h.snapshot == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	state, err := h.snapshot(ctx)
	if err != nil {
		h.logger.Warn("failed to build game snapshot", zap.String("client_id", c.id), zap.Error(err))
		c.reply("error", map[string]string{"message": "game state unavailable"})
		return
	}
	c.reply("game_state", state)
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(maxMessageSize)
	c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", zap.String("client_id", c.id), zap.Error(err))
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			c.hub.logger.Debug("ignoring malformed spectator message", zap.String("client_id", c.id), zap.Error(err))
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		c.reply("pong", "pong")
	case "request_game_state":
		c.hub.sendSnapshot(c)
	default:
		c.hub.logger.Debug("unknown spectator message", zap.String("client_id", c.id), zap.String("type", msg.Type))
	}
}

// reply queues a message for this client only. The hub lock guards against
// sending on a channel Run has already closed.
func (c *Client) reply(messageType string, payload any) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		return
	}
	c.hub.mutex.RLock()
	defer c.hub.mutex.RUnlock()
	if !c.hub.clients[c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// Snapshot reports the open game, or a closed state when none is open.
func Snapshot(games *GameService, results *ResultService) SnapshotFunc {
	return func(ctx context.Context) (any, error) {
		game, err := games.CurrentGame(ctx)
		if errors.Is(err, ErrNoGameOpen) {
			return &GameState{Chain: []string{}}, nil
		}
		if err != nil {
			return nil, err
		}
		return results.State(ctx, game)
	}
}
