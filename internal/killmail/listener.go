// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/metrics"
)

// Feed is the long-poll event source. Next blocks until one package is
// available or the server-side wait elapses; the latter returns nil data
// and a nil error.
type Feed interface {
	Next(ctx context.Context) ([]byte, error)
}

// Deliverer sends one matched killmail to a channel. An error wrapping
// ErrChannelUnreachable removes the channel's subscriptions.
type Deliverer interface {
	Deliver(ctx context.Context, channelID int64, m *Mail, isLoss bool) error
}

// Broadcaster receives every processed killmail. It must not block.
type Broadcaster interface {
	BroadcastKillmail(m *Mail)
}

// ListenerConfig tunes the poll loop.
type ListenerConfig struct {
	// ErrorPause is slept after a feed transport error. Zero polls again
	// immediately.
	ErrorPause time.Duration
}

// Listener is the fan-out engine: it polls the Feed and dispatches every
// non-NPC killmail to all registered subscriptions.
type Listener struct {
	feed      Feed
	provider  Provider
	registry  *Registry
	deliverer Deliverer
	config    ListenerConfig

	broadcaster Broadcaster

	processed atomic.Int64

	mu       sync.RWMutex
	running  bool
	stopChan chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// inflight tracks dispatch goroutines so Stop can wait for them.
	inflight sync.WaitGroup
}

// NewListener creates a stopped listener.
func NewListener(feed Feed, provider Provider, registry *Registry, deliverer Deliverer, cfg ListenerConfig) *Listener {
	return &Listener{
		feed:      feed,
		provider:  provider,
		registry:  registry,
		deliverer: deliverer,
		config:    cfg,
		stopChan:  make(chan struct{}),
	}
}

// SetBroadcaster attaches a live feed. Call before Start.
func (l *Listener) SetBroadcaster(b Broadcaster) {
	l.broadcaster = b
}

// Processed returns how many non-NPC killmails have been dispatched since
// the process started.
func (l *Listener) Processed() int64 {
	return l.processed.Load()
}

// Start launches the poll loop. The registry must already be loaded.
func (l *Listener) Start(ctx context.Context) error {
	if !l.registry.Loaded() {
		return fmt.Errorf("killmail listener: registry not loaded")
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return fmt.Errorf("killmail listener is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.running = true
	l.stopChan = make(chan struct{})
	l.cancel = cancel
	l.mu.Unlock()

	logging.Info().Int("subscriptions", l.registry.Len()).Msg("Starting killmail listener")

	l.wg.Add(1)
	go l.pollLoop(runCtx)
	return nil
}

// Stop cancels the poll loop and any in-flight deliveries and waits for
// them to return. Stopping a stopped listener is a no-op.
func (l *Listener) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	close(l.stopChan)
	l.cancel()
	l.mu.Unlock()

	l.wg.Wait()
	l.inflight.Wait()
	logging.Info().Int64("processed", l.Processed()).Msg("Killmail listener stopped")
	return nil
}

// Serve implements suture.Service.
func (l *Listener) Serve(ctx context.Context) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	if err := l.Stop(); err != nil {
		return err
	}
	return ctx.Err()
}

// IsRunning reports whether the poll loop is active.
func (l *Listener) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running
}

func (l *Listener) String() string {
	return "killmail-listener"
}

func (l *Listener) pollLoop(ctx context.Context) {
	defer l.wg.Done()

	l.mu.RLock()
	stop := l.stopChan
	l.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}

		if err := l.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			metrics.FeedErrors.Inc()
			logging.Warn().Err(err).Msg("Killmail feed poll failed")
			if l.config.ErrorPause > 0 {
				select {
				case <-ctx.Done():
					return
				case <-stop:
					return
				case <-time.After(l.config.ErrorPause):
				}
			}
		}
	}
}

// poll handles one feed request. Only transport errors are returned;
// malformed and NPC killmails are logged and dropped.
func (l *Listener) poll(ctx context.Context) error {
	data, err := l.feed.Next(ctx)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	metrics.KillmailsReceived.Inc()

	m, err := ParsePackage(data, l.provider)
	if err != nil {
		metrics.RecordDiscard("malformed")
		logging.Warn().Err(err).Int("bytes", len(data)).Msg("Dropping malformed killmail")
		return nil
	}
	if m.NPC {
		metrics.RecordDiscard("npc")
		logging.Debug().Int64("killmail_id", m.ID).Msg("Skipping NPC killmail")
		return nil
	}

	l.processed.Add(1)
	metrics.KillmailsProcessed.Inc()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.Ctx(ctx).Debug().Stringer("mail", m).Msg("Killmail received")

	if l.broadcaster != nil {
		l.broadcaster.BroadcastKillmail(m)
	}
	l.dispatch(ctx, m)
	return nil
}

// dispatch starts one goroutine per subscription in a registry snapshot
// and returns without waiting for them.
func (l *Listener) dispatch(ctx context.Context, m *Mail) {
	for _, sub := range l.registry.Snapshot() {
		l.inflight.Add(1)
		go l.handle(ctx, sub, m)
	}
}

// handle runs match and delivery for one subscription. Failures and panics
// stay inside this goroutine.
func (l *Listener) handle(ctx context.Context, sub *Subscription, m *Mail) {
	defer l.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			logging.Ctx(ctx).Error().Interface("panic", r).Bytes("stack", debug.Stack()).
				Int64("subscription_id", sub.ID).Int64("killmail_id", m.ID).
				Msg("Recovered from panic in killmail dispatch")
		}
	}()

	ok, err := sub.Valid(ctx, m)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int64("subscription_id", sub.ID).
			Int64("killmail_id", m.ID).Msg("Region lookup failed, skipping subscription")
		return
	}
	if !ok {
		return
	}
	metrics.SubscriptionMatches.Inc()

	isLoss := sub.IsLoss(m)
	start := time.Now()
	err = l.deliverer.Deliver(ctx, sub.ChannelID, m, isLoss)
	switch {
	case err == nil:
		metrics.RecordDelivery("success", time.Since(start))
		logging.Ctx(ctx).Debug().Int64("subscription_id", sub.ID).Int64("channel_id", sub.ChannelID).
			Int64("killmail_id", m.ID).Bool("loss", isLoss).Msg("Killmail delivered")
	case errors.Is(err, ErrChannelUnreachable):
		metrics.RecordDelivery("unreachable", time.Since(start))
		logging.Ctx(ctx).Warn().Err(err).Int64("channel_id", sub.ChannelID).
			Msg("Channel unreachable, removing its subscriptions")
		if _, err := l.registry.RemoveByChannel(ctx, sub.ChannelID); err != nil {
			logging.Ctx(ctx).Error().Err(err).Int64("channel_id", sub.ChannelID).
				Msg("Failed to remove subscriptions for unreachable channel")
		}
	default:
		metrics.RecordDelivery("error", time.Since(start))
		logging.Ctx(ctx).Warn().Err(err).Int64("subscription_id", sub.ID).
			Int64("channel_id", sub.ChannelID).Int64("killmail_id", m.ID).Msg("Killmail delivery failed")
	}
}
