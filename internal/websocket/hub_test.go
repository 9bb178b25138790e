// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package websocket

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates and starts a new hub that stops with the test.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func createTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 256)}
}

// registerClient registers a client; the hub handles it before the next
// broadcast because lifecycle events take priority.
func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
}

func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testMail(t *testing.T) *killmail.Mail {
	t.Helper()
	km := &models.Killmail{
		KillmailID:    123456,
		KillmailTime:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		SolarSystemID: 30002187,
		Victim:        &models.Victim{CharacterID: 1, ShipTypeID: 587},
	}
	m, err := killmail.NewMail(km, &models.Zkb{TotalValue: 1500000, Solo: true}, nil)
	if err != nil {
		t.Fatalf("NewMail: %v", err)
	}
	return m
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub.clients == nil || hub.broadcast == nil || hub.Register == nil || hub.Unregister == nil {
		t.Fatal("hub not initialized")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("GetClientCount() = %d, want 0", hub.GetClientCount())
	}
	if hub.String() != "websocket-hub" {
		t.Errorf("String() = %q", hub.String())
	}
}

func TestHub_ClientRegistration(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)
	waitForCount(t, hub, 1)

	hub.Unregister <- client
	waitForCount(t, hub, 0)

	if _, ok := <-client.send; ok {
		t.Error("send channel not closed on unregister")
	}
}

func TestHub_UnregisterNonExistentClient(t *testing.T) {
	hub := setupHub(t)
	hub.Unregister <- createTestClient(hub)
	waitForCount(t, hub, 0)
}

func TestHub_BroadcastKillmail(t *testing.T) {
	hub := setupHub(t)

	const numClients = 3
	clients := make([]*Client, numClients)
	for i := range clients {
		clients[i] = createTestClient(hub)
		registerClient(hub, clients[i])
	}
	waitForCount(t, hub, numClients)

	hub.BroadcastKillmail(testMail(t))

	var wg sync.WaitGroup
	for i, c := range clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case msg := <-c.send:
				if msg.Type != MessageTypeKillmail {
					t.Errorf("client %d: Type = %q", i, msg.Type)
				}
				data, ok := msg.Data.(KillmailData)
				if !ok {
					t.Errorf("client %d: Data is %T", i, msg.Data)
					return
				}
				if data.KillmailID != 123456 || data.SolarSystemID != 30002187 ||
					data.Value != 1500000 || !data.Solo || data.URL != "https://zkillboard.com/kill/123456/" {
					t.Errorf("client %d: data = %+v", i, data)
				}
			case <-time.After(time.Second):
				t.Errorf("client %d did not receive broadcast", i)
			}
		}()
	}
	wg.Wait()
}

func TestMarshalMessage_Killmail(t *testing.T) {
	data, err := MarshalMessage(Message{Type: MessageTypeKillmail, Data: KillmailData{
		KillmailID:    1,
		Time:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SolarSystemID: 2,
		Value:         3.5,
		Awox:          true,
		URL:           "https://zkillboard.com/kill/1/",
	}})
	if err != nil {
		t.Fatalf("MarshalMessage: %v", err)
	}
	for _, want := range []string{
		`"type":"killmail"`,
		`"killmail_id":1`,
		`"time":"2026-01-02T03:04:05Z"`,
		`"solar_system_id":2`,
		`"value":3.5`,
		`"solo":false`,
		`"awox":true`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("%s missing %s", data, want)
		}
	}
}

func TestHub_BroadcastQueueFull(t *testing.T) {
	hub := NewHub() // not running, so the queue fills

	m := testMail(t)
	for i := 0; i < cap(hub.broadcast)+10; i++ {
		hub.BroadcastKillmail(m)
	}
	if len(hub.broadcast) != cap(hub.broadcast) {
		t.Errorf("queue length = %d, want %d", len(hub.broadcast), cap(hub.broadcast))
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	hub := setupHub(t)

	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	fast := createTestClient(hub)
	registerClient(hub, slow)
	registerClient(hub, fast)
	waitForCount(t, hub, 2)

	slow.send <- Message{Type: "filler"}
	hub.BroadcastJSON("overflow", nil)

	waitForCount(t, hub, 1)
	select {
	case msg := <-fast.send:
		if msg.Type != "overflow" {
			t.Errorf("fast client got %q", msg.Type)
		}
	case <-time.After(time.Second):
		t.Error("fast client did not receive broadcast")
	}
}

func TestHub_RunWithContext(t *testing.T) {
	t.Run("shuts down on context cancellation", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() { errCh <- hub.Serve(ctx) }()

		client := createTestClient(hub)
		hub.Register <- client
		waitForCount(t, hub, 1)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("err = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("RunWithContext did not return after cancellation")
		}
		if hub.GetClientCount() != 0 {
			t.Errorf("clients after shutdown = %d", hub.GetClientCount())
		}
		if _, ok := <-client.send; ok {
			t.Error("client send channel not closed")
		}
	})

	t.Run("shuts down on context deadline", func(t *testing.T) {
		hub := NewHub()
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		errCh := make(chan error, 1)
		go func() { errCh <- hub.RunWithContext(ctx) }()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("err = %v, want context.DeadlineExceeded", err)
			}
		case <-time.After(time.Second):
			t.Fatal("RunWithContext did not return after deadline")
		}
	})
}

func TestGetShutdownReason(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()

	if got := getShutdownReason(canceled); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: %q", got)
	}
	if got := getShutdownReason(expired); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: %q", got)
	}
}

func TestHub_BroadcastRespectsFilter(t *testing.T) {
	hub := setupHub(t)

	picky := createTestClient(hub)
	picky.filter.Store(&Filter{MinValue: 2000000})
	all := createTestClient(hub)
	registerClient(hub, picky)
	registerClient(hub, all)
	waitForCount(t, hub, 2)

	hub.BroadcastKillmail(testMail(t)) // worth 1.5M
	hub.BroadcastJSON("notice", "hello")

	for i := 0; i < 2; i++ {
		select {
		case <-all.send:
		case <-time.After(time.Second):
			t.Fatalf("unfiltered client missed message %d", i)
		}
	}
	select {
	case msg := <-picky.send:
		if msg.Type != "notice" {
			t.Errorf("filtered client got %q, want only the notice", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("filtered client missed the notice")
	}
	if len(picky.send) != 0 {
		t.Errorf("filtered client queue = %d, want 0", len(picky.send))
	}
}

func TestHub_UnregisterAfterShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.RunWithContext(ctx) }()
	cancel()
	<-errCh

	select {
	case <-hub.Done():
	default:
		t.Fatal("Done not closed after shutdown")
	}

	returned := make(chan struct{})
	go func() {
		hub.unregisterClient(createTestClient(hub))
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("unregisterClient blocked on a stopped hub")
	}
}
