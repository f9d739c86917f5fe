// Package signal relays WebRTC signaling between room participants over
// websockets: offers, answers and ICE candidates travel peer-to-peer
// through the hub, roster and timer events fan out to the whole room.
package signal

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the envelope for everything crossing the relay. Offer,
// answer and ice messages must carry a target; the hub never inspects
// the payload beyond routing.
type Message struct {
	Type     string          `json:"type"`
	Room     string          `json:"roomId,omitempty"`
	From     string          `json:"from,omitempty"`
	FromName string          `json:"fromName,omitempty"`
	To       string          `json:"to,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

type client struct {
	email string
	name  string
	room  string
	conn  *websocket.Conn
	mu    sync.Mutex // serializes writes
}

func (c *client) send(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks which client is in which room and routes messages between
// them. One client per user per room; a reconnect replaces the old
// connection.
type Hub struct {
	mu        sync.RWMutex
	rooms     map[string]map[string]*client
	jwtSecret []byte
}

func NewHub(jwtSecret string) *Hub {
	return &Hub{
		rooms:     make(map[string]map[string]*client),
		jwtSecret: []byte(jwtSecret),
	}
}

// ServeHTTP lets the hub mount directly on a route.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleWebSocket(w, r)
}

// HandleWebSocket authenticates via token query param, upgrades, and
// runs the client's read loop until disconnect.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	email, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	if email == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &client{email: email, name: name, conn: conn}
	go h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer h.leave(c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(Message{Type: "error", Payload: errPayload("invalid message")})
			continue
		}
		h.dispatch(c, msg)
	}
}

func (h *Hub) dispatch(c *client, msg Message) {
	msg.From = c.email
	msg.FromName = c.name

	switch msg.Type {
	case "join":
		if msg.Room == "" {
			c.send(Message{Type: "error", Payload: errPayload("join requires a room id")})
			return
		}
		h.join(c, msg.Room)
	case "leave":
		h.leave(c)
	case "offer", "answer", "ice":
		if msg.To == "" {
			c.send(Message{Type: "error", Payload: errPayload(msg.Type + " requires a target")})
			return
		}
		if !h.relay(c.room, msg.To, msg) {
			c.send(Message{Type: "error", Payload: errPayload("peer not in room: " + msg.To)})
		}
	default:
		c.send(Message{Type: "error", Payload: errPayload("unknown message type: " + msg.Type)})
	}
}

func (h *Hub) join(c *client, roomID string) {
	h.mu.Lock()
	if c.room != "" && c.room != roomID {
		h.removeLocked(c)
	}
	c.room = roomID
	room, ok := h.rooms[roomID]
	if !ok {
		room = make(map[string]*client)
		h.rooms[roomID] = room
	}
	if old, ok := room[c.email]; ok && old != c {
		old.conn.Close()
	}
	room[c.email] = c

	roster := make([]map[string]string, 0, len(room))
	for _, member := range room {
		roster = append(roster, map[string]string{"email": member.email, "name": member.name})
	}
	h.mu.Unlock()

	log.Printf("WebSocket joined: %s in room %s", c.email, roomID)

	payload, _ := json.Marshal(map[string]interface{}{"participants": roster})
	c.send(Message{Type: "roster", Room: roomID, Payload: payload})
	h.BroadcastToRoom(roomID, Message{
		Type:     "peer-joined",
		Room:     roomID,
		From:     c.email,
		FromName: c.name,
	}, c.email)
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	room := c.room
	removed := h.removeLocked(c)
	h.mu.Unlock()

	c.conn.Close()
	if !removed || room == "" {
		return
	}

	log.Printf("WebSocket left: %s from room %s", c.email, room)
	h.BroadcastToRoom(room, Message{
		Type:     "peer-left",
		Room:     room,
		From:     c.email,
		FromName: c.name,
	}, c.email)
}

func (h *Hub) removeLocked(c *client) bool {
	room, ok := h.rooms[c.room]
	if !ok {
		return false
	}
	if room[c.email] != c {
		return false
	}
	delete(room, c.email)
	if len(room) == 0 {
		delete(h.rooms, c.room)
	}
	c.room = ""
	return true
}

// relay forwards a message to one member of a room. Returns false when
// the target is not connected.
func (h *Hub) relay(roomID, target string, msg Message) bool {
	h.mu.RLock()
	peer, ok := h.rooms[roomID][target]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	peer.send(msg)
	return true
}

// BroadcastToRoom fans a message out to every room member except those
// listed in skip. Timer milestones and roster changes go through here.
func (h *Hub) BroadcastToRoom(roomID string, msg Message, skip ...string) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	h.mu.RLock()
	members := make([]*client, 0, len(h.rooms[roomID]))
	for email, member := range h.rooms[roomID] {
		if !skipped[email] {
			members = append(members, member)
		}
	}
	h.mu.RUnlock()

	for _, member := range members {
		member.send(msg)
	}
}

// RoomSize reports the number of connected participants in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func errPayload(message string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"message": message})
	return data
}
