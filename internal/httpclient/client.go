// Firetail - EVE Online killmail feed for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/firetail

package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/firetail/internal/logging"
	"github.com/tomtom215/firetail/internal/metrics"
)

// maxErrorBodySize limits how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

// maxRetryAfter caps the wait requested by a Retry-After header.
const maxRetryAfter = 30 * time.Second

// StatusError is a non-2xx response.
type StatusError struct {
	Upstream   string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s %s: status %d: %s", e.Upstream, e.Method, e.URL, e.StatusCode, e.Body)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsBreakerOpen reports whether err was a request rejected by the breaker.
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// Options configures a Client.
type Options struct {
	// Name labels metrics and the breaker ("esi", "zkill", "redisq", "discord").
	Name      string
	UserAgent string
	Timeout   time.Duration

	// Header is added to every request, e.g. Authorization.
	Header http.Header

	// MaxRetries bounds retries of 429 responses. Zero means 3; a negative
	// value returns the first 429 as a *StatusError.
	MaxRetries int

	// RetryBaseDelay is the first backoff step when no Retry-After is sent.
	// Zero means one second.
	RetryBaseDelay time.Duration

	// DisableBreaker sends every request straight to the upstream. Used
	// for the long-poll feed, whose pacing is set by the server.
	DisableBreaker bool

	// Transport overrides http.DefaultTransport.
	Transport http.RoundTripper
}

// Client is safe for concurrent use.
type Client struct {
	name           string
	userAgent      string
	header         http.Header
	client         *http.Client
	// breaker is nil when Options.DisableBreaker is set.
	breaker        *gobreaker.CircuitBreaker[struct{}]
	maxRetries     int
	retryBaseDelay time.Duration
}

// New creates a client and its circuit breaker.
func New(opts Options) *Client {
	switch {
	case opts.MaxRetries == 0:
		opts.MaxRetries = 3
	case opts.MaxRetries < 0:
		opts.MaxRetries = 0
	}
	if opts.RetryBaseDelay == 0 {
		opts.RetryBaseDelay = time.Second
	}
	var breaker *gobreaker.CircuitBreaker[struct{}]
	if !opts.DisableBreaker {
		breaker = newBreaker(opts.Name)
	}
	return &Client{
		name:      opts.Name,
		userAgent: opts.UserAgent,
		header:    opts.Header,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: opts.Transport,
		},
		breaker:        breaker,
		maxRetries:     opts.MaxRetries,
		retryBaseDelay: opts.RetryBaseDelay,
	}
}

// newBreaker opens at a failure rate of 60% over at least 10 requests and
// probes again after a minute.
func newBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).Msg("Opening circuit")
				return true
			}
			return false
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			code := StatusCode(err)
			return code != 0 && code < 500 && code != http.StatusTooManyRequests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Name returns the upstream label.
func (c *Client) Name() string {
	return c.name
}

// Do sends a request with an optional JSON body and decodes a JSON response
// into out (skipped when out is nil or the response is 204).
func (c *Client) Do(ctx context.Context, method, url string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%s: encode request: %w", c.name, err)
		}
	}

	if c.breaker == nil {
		return c.do(ctx, method, url, payload, out)
	}
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.do(ctx, method, url, payload, out)
	})
	if IsBreakerOpen(err) {
		metrics.RecordUpstream(c.name, "rejected")
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte, out any) error {
	resp, err := c.send(ctx, method, url, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	metrics.RecordUpstream(c.name, strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Upstream:   c.name,
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", c.name, url, err)
	}
	return nil
}

// send performs the request, retrying 429 responses.
func (c *Client) send(ctx context.Context, method, url string, payload []byte) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var reqBody io.Reader = http.NoBody
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("%s: create request: %w", c.name, err)
		}
		for k, vs := range c.header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			metrics.RecordUpstream(c.name, "error")
			return nil, fmt.Errorf("%s: %s %s: %w", c.name, method, url, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= c.maxRetries {
			return resp, nil
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if d, err := time.ParseDuration(ra + "s"); err == nil && d >= 0 {
				delay = d
			}
		}
		if delay > maxRetryAfter {
			delay = maxRetryAfter
		}
		_ = resp.Body.Close()
		metrics.RecordUpstream(c.name, "429")

		logging.Debug().Str("upstream", c.name).Dur("delay", delay).Int("attempt", attempt+1).
			Msg("Rate limited, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// readBodyForError reads at most maxErrorBodySize bytes of an error body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
