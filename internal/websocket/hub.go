// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types
const (
	MessageTypeKillmail = "killmail"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeFilter   = "filter"
	MessageTypeError    = "error"
)

// Message represents a WebSocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// KillmailData is the payload of a killmail message.
type KillmailData struct {
	KillmailID    int64     `json:"killmail_id"`
	Time          time.Time `json:"time"`
	SolarSystemID int64     `json:"solar_system_id"`
	Value         float64   `json:"value"`
	Solo          bool      `json:"solo"`
	Awox          bool      `json:"awox"`
	URL           string    `json:"url"`
}

// Hub tracks feed clients and fans broadcasts out to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// done is closed when the hub stops so clients never block on Unregister.
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a stopped hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Done is closed once the hub has shut down.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// unregisterClient hands c to the run loop, or returns at once when the
// hub has already stopped and closed every client.
func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

// RunWithContext runs the hub until ctx is canceled, then closes all
// clients and returns ctx.Err().
//
// Shutdown is checked first, then client lifecycle events, then broadcasts,
// so client state is settled before a message is fanned out.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(n))
	logging.Info().Int("total_clients", n).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketClients.Set(float64(n))
	logging.Info().Int("total_clients", n).Msg("websocket client disconnected")
}

// logGracefulShutdown closes all clients and logs the shutdown. ctx.Err()
// is not logged as an error; cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()
	h.stopOnce.Do(func() { close(h.done) })

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients sends a message to every client in id order, skipping
// clients whose filter rejects it. Clients whose send queue is full are
// dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedClients()

	var toRemove []*Client
	for _, client := range clients {
		if !client.wants(message) {
			continue
		}
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, dropped")
	}
	metrics.WebSocketClients.Set(float64(len(h.clients)))
}

// sortedClients must be called with h.mu held.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WebSocketClients.Set(0)
}

// BroadcastKillmail queues m for every client. It never blocks; when the
// broadcast queue is full the message is dropped.
func (h *Hub) BroadcastKillmail(m *killmail.Mail) {
	h.BroadcastJSON(MessageTypeKillmail, KillmailData{
		KillmailID:    m.ID,
		Time:          m.Time,
		SolarSystemID: m.SystemID,
		Value:         m.Value,
		Solo:          m.Solo,
		Awox:          m.Awox,
		URL:           m.URL(),
	})
}

// BroadcastJSON sends a JSON message to all connected clients
func (h *Hub) BroadcastJSON(messageType string, data any) {
	message := Message{
		Type: messageType,
		Data: data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
