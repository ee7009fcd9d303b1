// Package relay talks to the configured Nostr relay set. Queries fan
// out to every relay and merge verified, deduplicated results;
// publishes succeed on any single relay acceptance. Nothing here is
// retried automatically — failures surface to the caller.
package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/kep-app/kep/internal/logger"
)

type Client struct {
	mu      sync.Mutex
	urls    []string
	conns   map[string]*nostr.Relay
	timeout time.Duration
}

func New(urls []string, timeout time.Duration) *Client {
	return &Client{
		urls:    append([]string{}, urls...),
		conns:   make(map[string]*nostr.Relay),
		timeout: timeout,
	}
}

// SetRelays swaps the relay set, dropping connections to relays no
// longer in it. Called when a new AdminConfig takes effect.
func (c *Client) SetRelays(urls []string) {
	keep := make(map[string]bool, len(urls))
	for _, url := range urls {
		keep[url] = true
	}

	c.mu.Lock()
	c.urls = append([]string{}, urls...)
	for url, conn := range c.conns {
		if !keep[url] {
			conn.Close()
			delete(c.conns, url)
		}
	}
	c.mu.Unlock()
}

func (c *Client) URLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.urls...)
}

// connect returns a live connection for url, dialing lazily. A failed
// connection is forgotten so the next call redials.
func (c *Client) connect(ctx context.Context, url string) (*nostr.Relay, error) {
	c.mu.Lock()
	conn, ok := c.conns[url]
	c.mu.Unlock()
	if ok {
		return conn, nil
	}

	conn, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}

	c.mu.Lock()
	c.conns[url] = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Client) forget(url string) {
	c.mu.Lock()
	if conn, ok := c.conns[url]; ok {
		conn.Close()
		delete(c.conns, url)
	}
	c.mu.Unlock()
}

// Query fans every filter out to every relay under the client timeout
// combined with ctx, then merges the results: invalid signatures are
// dropped, duplicates are collapsed by event id. Partial results from
// any responding subset are returned; only all relays failing is an
// error.
func (c *Client) Query(ctx context.Context, filters []nostr.Filter) ([]*nostr.Event, error) {
	urls := c.URLs()
	if len(urls) == 0 {
		return nil, fmt.Errorf("no relays configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		events []*nostr.Event
		err    error
	}
	results := make(chan result, len(urls))

	for _, url := range urls {
		go func(url string) {
			queriesTotal.WithLabelValues(url).Inc()
			conn, err := c.connect(ctx, url)
			if err != nil {
				queryFailures.WithLabelValues(url).Inc()
				results <- result{err: err}
				return
			}

			var events []*nostr.Event
			for _, filter := range filters {
				evs, err := conn.QuerySync(ctx, filter)
				if err != nil {
					queryFailures.WithLabelValues(url).Inc()
					c.forget(url)
					results <- result{err: fmt.Errorf("querying %s: %w", url, err)}
					return
				}
				events = append(events, evs...)
			}
			results <- result{events: events}
		}(url)
	}

	merged := make(map[string]*nostr.Event)
	var failures []error
	for range urls {
		res := <-results
		if res.err != nil {
			failures = append(failures, res.err)
			continue
		}
		mergeVerified(merged, res.events)
	}

	if len(failures) == len(urls) {
		return nil, fmt.Errorf("all relays failed: %v", failures[0])
	}
	if len(failures) > 0 {
		logger.Log.Warn("partial relay response", "failed", len(failures), "total", len(urls))
	}

	events := make([]*nostr.Event, 0, len(merged))
	for _, ev := range merged {
		events = append(events, ev)
	}
	return events, nil
}

// mergeVerified folds events into merged, skipping events whose
// signature does not verify. Event ids are content hashes, so two
// copies with the same id are identical and dedupe is safe.
func mergeVerified(merged map[string]*nostr.Event, events []*nostr.Event) {
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if _, seen := merged[ev.ID]; seen {
			continue
		}
		if ok, err := ev.CheckSignature(); !ok || err != nil {
			invalidSignatures.Inc()
			logger.Log.Warn("dropping event with bad signature", "event", ev.ID)
			continue
		}
		merged[ev.ID] = ev
	}
}

// Publish sends the signed event to every relay concurrently. Any
// single acceptance counts as success; the design tolerates partial
// success across relays without rollback.
func (c *Client) Publish(ctx context.Context, ev *nostr.Event) error {
	urls := c.URLs()
	if len(urls) == 0 {
		return fmt.Errorf("no relays configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	errs := make(chan error, len(urls))
	for _, url := range urls {
		go func(url string) {
			publishesTotal.WithLabelValues(url).Inc()
			conn, err := c.connect(ctx, url)
			if err != nil {
				publishFailures.WithLabelValues(url).Inc()
				errs <- err
				return
			}
			if err := conn.Publish(ctx, *ev); err != nil {
				publishFailures.WithLabelValues(url).Inc()
				c.forget(url)
				errs <- fmt.Errorf("publishing to %s: %w", url, err)
				return
			}
			errs <- nil
		}(url)
	}

	var firstErr error
	accepted := 0
	for range urls {
		if err := <-errs; err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		accepted++
	}

	if accepted == 0 {
		return fmt.Errorf("publish rejected by all relays: %w", firstErr)
	}
	if accepted < len(urls) {
		logger.Log.Warn("partial publish", "event", ev.ID, "accepted", accepted, "total", len(urls))
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for url, conn := range c.conns {
		conn.Close()
		delete(c.conns, url)
	}
}
