// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package killmail

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/metrics"
	"github.com/tomtom215/firetail/internal/models"
	"github.com/tomtom215/firetail/internal/store"
)

// Store is the persistence the Registry writes through to.
// *store.BadgerStore satisfies it.
type Store interface {
	Insert(ctx context.Context, rec models.SubscriptionRecord) (models.SubscriptionRecord, error)
	All(ctx context.Context) ([]models.SubscriptionRecord, error)
	ByChannel(ctx context.Context, channelID int64) ([]models.SubscriptionRecord, error)
	ByID(ctx context.Context, id int64) (models.SubscriptionRecord, error)
	Delete(ctx context.Context, id int64) error
	DeleteByChannel(ctx context.Context, channelID int64) (int, error)
}

// ChannelResolver checks that a destination channel still exists. It
// returns an error wrapping ErrChannelUnreachable when the channel is gone
// for good; any other error is treated as transient.
type ChannelResolver interface {
	ResolveChannel(ctx context.Context, channelID int64) error
}

// AddParams are the inputs of Registry.Add. Zero GroupID adds a global
// subscription; zero Threshold becomes 1.
type AddParams struct {
	ChannelID     int64
	GuildID       int64
	OwnerID       int64
	GroupID       int64
	Threshold     int64
	IncludeLosses bool
}

// Registry is the in-memory set of subscriptions. Every mutation is written
// to the Store before memory changes, so after a crash the Store is
// authoritative and the next Load repairs memory.
type Registry struct {
	store    Store
	channels ChannelResolver

	mu   sync.RWMutex
	subs map[int64]*Subscription

	loaded atomic.Bool
}

// NewRegistry creates an empty registry. Call Load before dispatching.
func NewRegistry(st Store, channels ChannelResolver) *Registry {
	return &Registry{
		store:    st,
		channels: channels,
		subs:     make(map[int64]*Subscription),
	}
}

// Load replaces the in-memory set with the Store's rows. Rows whose channel
// is unreachable are deleted from the Store and skipped.
func (r *Registry) Load(ctx context.Context) error {
	recs, err := r.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}

	subs := make(map[int64]*Subscription, len(recs))
	unreachable := make(map[int64]bool)
	checked := make(map[int64]bool)

	for _, rec := range recs {
		if !checked[rec.ChannelID] {
			checked[rec.ChannelID] = true
			if err := r.channels.ResolveChannel(ctx, rec.ChannelID); err != nil {
				if !errors.Is(err, ErrChannelUnreachable) {
					logging.Warn().Err(err).Int64("channel_id", rec.ChannelID).
						Msg("Channel lookup failed, keeping its subscriptions")
				} else {
					unreachable[rec.ChannelID] = true
				}
			}
		}
		if unreachable[rec.ChannelID] {
			continue
		}
		subs[rec.ID] = NewSubscription(rec)
	}

	for channelID := range unreachable {
		n, err := r.store.DeleteByChannel(ctx, channelID)
		if err != nil {
			return fmt.Errorf("remove unreachable channel %d: %w", channelID, err)
		}
		logging.Info().Int64("channel_id", channelID).Int("removed", n).
			Msg("Removed subscriptions for unreachable channel")
	}

	r.mu.Lock()
	r.subs = subs
	r.mu.Unlock()
	r.loaded.Store(true)
	metrics.SubscriptionsActive.Set(float64(len(subs)))

	logging.Info().Int("subscriptions", len(subs)).Msg("Killmail subscriptions loaded")
	return nil
}

// Loaded reports whether Load has completed.
func (r *Registry) Loaded() bool {
	return r.loaded.Load()
}

// Add stores a new subscription and registers it.
func (r *Registry) Add(ctx context.Context, p AddParams) (*Subscription, error) {
	group := p.GroupID
	if group == 0 {
		group = models.GlobalGroupID
	}
	threshold := p.Threshold
	if threshold == 0 {
		threshold = 1
	}

	rec, err := r.store.Insert(ctx, models.SubscriptionRecord{
		ChannelID:     p.ChannelID,
		GuildID:       p.GuildID,
		OwnerID:       p.OwnerID,
		GroupID:       group,
		Threshold:     threshold,
		IncludeLosses: p.IncludeLosses,
	})
	if err != nil {
		return nil, fmt.Errorf("add subscription: %w", err)
	}

	sub := NewSubscription(rec)
	r.mu.Lock()
	r.subs[sub.ID] = sub
	n := len(r.subs)
	r.mu.Unlock()
	metrics.SubscriptionsActive.Set(float64(n))

	logging.Ctx(ctx).Info().Int64("id", sub.ID).Int64("channel_id", sub.ChannelID).
		Int64("group_id", sub.GroupID).Int64("threshold", sub.Threshold).
		Bool("include_losses", sub.IncludeLosses).Msg("Killmail subscription added")
	return sub, nil
}

// Get returns a registered subscription.
func (r *Registry) Get(id int64) (*Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[id]
	return sub, ok
}

// Lookup returns a subscription's record from the Store, falling back to
// memory for an entry the Store has lost. ok is false when neither has it.
func (r *Registry) Lookup(ctx context.Context, id int64) (models.SubscriptionRecord, bool, error) {
	rec, err := r.store.ByID(ctx, id)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return models.SubscriptionRecord{}, false, fmt.Errorf("look up subscription %d: %w", id, err)
	}
	if sub, ok := r.Get(id); ok {
		return sub.Record(), true, nil
	}
	return models.SubscriptionRecord{}, false, nil
}

// Remove deletes one subscription from the Store and then from memory. It
// returns ErrNotFound when id was missing from either; the side that did
// have it is still removed.
func (r *Registry) Remove(ctx context.Context, id int64) error {
	inStore := true
	if err := r.store.Delete(ctx, id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("remove subscription %d: %w", id, err)
		}
		inStore = false
	}

	r.mu.Lock()
	_, inMemory := r.subs[id]
	delete(r.subs, id)
	n := len(r.subs)
	r.mu.Unlock()
	metrics.SubscriptionsActive.Set(float64(n))

	if !inStore || !inMemory {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	logging.Ctx(ctx).Info().Int64("id", id).Msg("Killmail subscription removed")
	return nil
}

// RemoveByChannel deletes every subscription of a channel and returns how
// many rows the Store removed.
func (r *Registry) RemoveByChannel(ctx context.Context, channelID int64) (int, error) {
	removed, err := r.store.DeleteByChannel(ctx, channelID)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	for id, sub := range r.subs {
		if sub.ChannelID == channelID {
			delete(r.subs, id)
		}
	}
	n := len(r.subs)
	r.mu.Unlock()
	metrics.SubscriptionsActive.Set(float64(n))

	logging.Ctx(ctx).Info().Int64("channel_id", channelID).Int("removed", removed).
		Msg("Killmail subscriptions cleared for channel")
	return removed, nil
}

// ListByChannel returns the channel's subscriptions in id order.
func (r *Registry) ListByChannel(channelID int64) []*Subscription {
	r.mu.RLock()
	var out []*Subscription
	for _, sub := range r.subs {
		if sub.ChannelID == channelID {
			out = append(out, sub)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshot copies the current subscriptions. Later adds and removes do not
// affect the returned slice.
func (r *Registry) Snapshot() []*Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, sub)
	}
	return out
}

// Len returns the number of registered subscriptions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
