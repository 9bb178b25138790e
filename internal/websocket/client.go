// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package websocket

import (
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/firetail/internal/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // clients only send pings and filters
)

// clientIDCounter orders clients for broadcast.
var clientIDCounter atomic.Uint64

// Filter narrows the killmails a feed client receives. The zero Filter
// accepts everything.
type Filter struct {
	// MinValue drops killmails worth less than this many ISK.
	MinValue float64 `json:"min_value"`
	SoloOnly bool    `json:"solo_only"`
}

// ErrInvalidFilter is returned by ParseFilter for malformed values.
var ErrInvalidFilter = errors.New("invalid feed filter")

// ParseFilter reads min_value and solo_only query values. Empty strings
// leave the field at its zero value.
func ParseFilter(minValue, soloOnly string) (Filter, error) {
	var f Filter
	if minValue != "" {
		v, err := strconv.ParseFloat(minValue, 64)
		if err != nil || v < 0 {
			return Filter{}, ErrInvalidFilter
		}
		f.MinValue = v
	}
	if soloOnly != "" {
		b, err := strconv.ParseBool(soloOnly)
		if err != nil {
			return Filter{}, ErrInvalidFilter
		}
		f.SoloOnly = b
	}
	return f, nil
}

// Accepts reports whether d passes the filter.
func (f Filter) Accepts(d KillmailData) bool {
	if d.Value < f.MinValue {
		return false
	}
	return !f.SoloOnly || d.Solo
}

// inbound is a frame sent by a feed client.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client is one live feed connection. The hub owns send; readPump and
// writePump own conn.
type Client struct {
	id     uint64
	hub    *Hub
	conn   *websocket.Conn
	send   chan Message
	filter atomic.Pointer[Filter]
}

// NewClient creates a client with a unique id and an initial filter.
func NewClient(hub *Hub, conn *websocket.Conn, f Filter) *Client {
	c := &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, 256),
	}
	c.filter.Store(&f)
	return c
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Filter returns the client's current filter.
func (c *Client) Filter() Filter {
	if f := c.filter.Load(); f != nil {
		return *f
	}
	return Filter{}
}

// wants reports whether message should be queued for this client. Only
// killmail messages are filtered.
func (c *Client) wants(message Message) bool {
	d, ok := message.Data.(KillmailData)
	if !ok {
		return true
	}
	return c.Filter().Accepts(d)
}

// reply queues a message without blocking; a full queue drops it.
func (c *Client) reply(msg Message) {
	select {
	case c.send <- msg:
	default:
	}
}

// readPump handles pings and filter changes until the connection fails,
// then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregisterClient(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn().Err(err).Uint64("client_id", c.id).Msg("unexpected websocket close error")
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(Message{Type: MessageTypeError, Data: "invalid message"})
			continue
		}

		switch msg.Type {
		case MessageTypePing:
			c.reply(Message{Type: MessageTypePong})
		case MessageTypeFilter:
			var f Filter
			if err := json.Unmarshal(msg.Data, &f); err != nil || f.MinValue < 0 {
				c.reply(Message{Type: MessageTypeError, Data: ErrInvalidFilter.Error()})
				continue
			}
			c.filter.Store(&f)
			logging.Debug().Uint64("client_id", c.id).Float64("min_value", f.MinValue).
				Bool("solo_only", f.SoloOnly).Msg("feed filter updated")
			c.reply(Message{Type: MessageTypeFilter, Data: f})
		default:
			c.reply(Message{Type: MessageTypeError, Data: "unknown message type"})
		}
	}
}

// writePump writes queued messages and keepalive pings. It sends a close
// frame when the hub closes send.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			payload, err := MarshalMessage(message)
			if err != nil {
				logging.Error().Err(err).Str("message_type", message.Type).Msg("failed to encode feed message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logging.Debug().Err(err).Uint64("client_id", c.id).Msg("feed write failed")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
