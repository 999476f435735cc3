package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	ID   uint
	Role string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)

		case message := <-h.broadcast:
			// Evicting a slow client mutates the map, so this path needs the
			// write lock
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user. Slow clients are
// evicted, so the map is mutated under the write lock.
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToRole sends a message to all connected users with a given role
func (h *Hub) BroadcastToRole(role string, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.Role == role {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToAll sends a message to all connected clients
func (h *Hub) BroadcastToAll(message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			log.Printf("Warning: Could not send to client %d (channel full)", client.ID)
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// FlightStatusUpdate is pushed to the flight board when a booking changes
// status (check-out, check-in, cancellation)
type FlightStatusUpdate struct {
	BookingID    uint   `json:"bookingId"`
	AircraftID   uint   `json:"aircraftId"`
	Registration string `json:"registration"`
	Status       string `json:"status"`
}

// InvoiceReady notifies a member that check-in produced their invoice
type InvoiceReady struct {
	InvoiceID uint    `json:"invoiceId"`
	BookingID uint    `json:"bookingId"`
	Total     float64 `json:"total"`
}

// MaintenanceAlert flags a tacho/hobbs discrepancy for the maintenance desk
type MaintenanceAlert struct {
	BookingID      uint    `json:"bookingId"`
	AircraftID     uint    `json:"aircraftId"`
	Registration   string  `json:"registration"`
	DiscrepancyPct float64 `json:"discrepancyPct"`
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   userID,
		Role: role,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}

	client.Hub.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// The flight board is read-only; clients only send pings
		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshaling WebSocket message: %v", err)
			continue
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// SendFlightStatusUpdate broadcasts a booking status change to the flight board
func (hub *Hub) SendFlightStatusUpdate(update FlightStatusUpdate) {
	message := WebSocketMessage{
		Type: "flight_status_update",
		Data: update,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling flight status update: %v", err)
		return
	}

	hub.BroadcastToAll(data)
}

// SendInvoiceReady notifies the billed member that their invoice exists
func (hub *Hub) SendInvoiceReady(userID uint, ready InvoiceReady) {
	message := WebSocketMessage{
		Type: "invoice_ready",
		Data: ready,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling invoice ready: %v", err)
		return
	}

	hub.BroadcastToUser(userID, data)
}

// SendMaintenanceAlert notifies staff and admin clients that a check-in
// recorded instrument readings that disagree beyond the warning threshold
func (hub *Hub) SendMaintenanceAlert(alert MaintenanceAlert) {
	message := WebSocketMessage{
		Type: "maintenance_alert",
		Data: alert,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling maintenance alert: %v", err)
		return
	}

	hub.BroadcastToRole("ADMIN", data)
	hub.BroadcastToRole("STAFF", data)
}
