// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package discord

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/tomtom215/firetail/internal/config"
	"github.com/tomtom215/firetail/internal/httpclient"
	"github.com/tomtom215/firetail/internal/killmail"
	"github.com/tomtom215/firetail/internal/logging"
)

// Channel is the subset of the Discord channel object Firetail reads.
type Channel struct {
	ID      string `json:"id"`
	GuildID string `json:"guild_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Type    int    `json:"type"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *httpclient.Client
	limiter *rate.Limiter
}

// NewClient creates a bot client from configuration.
func NewClient(cfg *config.DiscordConfig, userAgent string) *Client {
	header := http.Header{}
	header.Set("Authorization", "Bot "+cfg.Token)
	return newClient(cfg, httpclient.New(httpclient.Options{
		Name:      "discord",
		UserAgent: userAgent,
		Timeout:   cfg.Timeout,
		Header:    header,
	}))
}

func newClient(cfg *config.DiscordConfig, hc *httpclient.Client) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Channel fetches a channel. A channel the bot cannot see yields
// killmail.ErrChannelUnreachable.
func (c *Client) Channel(ctx context.Context, channelID int64) (*Channel, error) {
	var ch Channel
	url := fmt.Sprintf("%s/channels/%d", c.baseURL, channelID)
	if err := c.http.Do(ctx, http.MethodGet, url, nil, &ch); err != nil {
		return nil, lookupError(channelID, err)
	}
	return &ch, nil
}

// ResolveChannel reports whether a channel is still reachable.
func (c *Client) ResolveChannel(ctx context.Context, channelID int64) error {
	_, err := c.Channel(ctx, channelID)
	return err
}

// Send posts msg to a channel, waiting for the shared rate limit first.
// Only 404 Unknown Channel yields killmail.ErrChannelUnreachable; a 403
// on send is usually a missing permission and is a plain delivery error.
func (c *Client) Send(ctx context.Context, channelID int64, msg Message) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord: rate limit wait: %w", err)
	}
	url := fmt.Sprintf("%s/channels/%d/messages", c.baseURL, channelID)
	if err := c.http.Do(ctx, http.MethodPost, url, msg, nil); err != nil {
		return sendError(channelID, err)
	}
	return nil
}

// Deliver renders m as a kill or loss report and sends it to a channel.
func (c *Client) Deliver(ctx context.Context, channelID int64, m *killmail.Mail, isLoss bool) error {
	embed := KillmailEmbed(ctx, m, isLoss)
	if err := c.Send(ctx, channelID, Message{Embeds: []Embed{embed}}); err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().Int64("channel_id", channelID).Int64("killmail_id", m.ID).
		Bool("loss", isLoss).Msg("Killmail delivered")
	return nil
}

// lookupError maps a failed channel fetch. 403 and 404 both mean the bot
// cannot see the channel.
func lookupError(channelID int64, err error) error {
	switch httpclient.StatusCode(err) {
	case http.StatusForbidden, http.StatusNotFound:
		return fmt.Errorf("channel %d: %w", channelID, killmail.ErrChannelUnreachable)
	}
	return fmt.Errorf("channel %d: %w", channelID, err)
}

// sendError maps a failed message post. Unreachable removes every
// subscription of the channel, so only 404 qualifies.
func sendError(channelID int64, err error) error {
	if httpclient.StatusCode(err) == http.StatusNotFound {
		return fmt.Errorf("channel %d: %w", channelID, killmail.ErrChannelUnreachable)
	}
	return fmt.Errorf("channel %d: %w", channelID, err)
}
