package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/farebridge/agency-booking/internal/models"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeCandidates     MessageType = "candidates_updated"
	MessageTypeSearchComplete MessageType = "search_complete"
	MessageTypeSearchTimeout  MessageType = "search_timeout"
)

// Message is one frame pushed to search subscribers
type Message struct {
	Type       MessageType        `json:"type"`
	TUI        string             `json:"tui"`
	Candidates []models.Candidate `json:"candidates,omitempty"`
	Complete   bool               `json:"complete"`
	Timestamp  int64              `json:"timestamp"`
}

// Client represents one subscriber to a search session
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	tui  string
}

// Hub fans sorted candidate batches out to the subscribers of each search
// session, keyed by the session token.
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	log        *logrus.Logger
	mu         sync.RWMutex
}

func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		log:        log,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.tui] == nil {
				h.clients[client.tui] = make(map[*Client]bool)
			}
			h.clients[client.tui][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.tui]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.tui)
					}
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.log.WithError(err).Error("failed to encode ws message")
				continue
			}

			h.mu.RLock()
			clients := h.clients[message.TUI]
			h.mu.RUnlock()

			for client := range clients {
				select {
				case client.send <- data:
				default:
					h.mu.Lock()
					delete(h.clients[message.TUI], client)
					close(client.send)
					h.mu.Unlock()
				}
			}
		}
	}
}

// BroadcastBatch pushes a sorted candidate batch to a search's subscribers.
func (h *Hub) BroadcastBatch(tui string, candidates []models.Candidate, complete bool) {
	msgType := MessageTypeCandidates
	if complete {
		msgType = MessageTypeSearchComplete
	}
	h.broadcast <- &Message{
		Type:       msgType,
		TUI:        tui,
		Candidates: candidates,
		Complete:   complete,
		Timestamp:  time.Now().UnixMilli(),
	}
}

// BroadcastTimeout tells subscribers the search ended with no results.
func (h *Hub) BroadcastTimeout(tui string) {
	h.broadcast <- &Message{
		Type:      MessageTypeSearchTimeout,
		TUI:       tui,
		Timestamp: time.Now().UnixMilli(),
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Subscribe upgrades the connection and attaches it to a search session.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, tui string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
		tui:  tui,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
