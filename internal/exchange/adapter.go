// Package exchange holds the per-venue depth-of-book adapters: Coinbase,
// Kraken, and Gemini. Each adapter builds its URL from the venue symbol on
// every fetch and keeps no book state; it does hold a shared HTTP client
// (connections are pooled across fetches), a circuit breaker, and a rate
// limiter.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/cryptoagg/orderbookd/internal/apierr"
	"github.com/cryptoagg/orderbookd/internal/domain"
)

// Adapter fetches and normalizes a single venue's order book for one
// pair's venue-specific symbol.
type Adapter interface {
	Exchange() domain.Exchange
	FetchSides(ctx context.Context, sym string) (domain.Sides, error)
}

// rawFetcher is the part of an Adapter that is specific to one venue's
// URL shape and result envelope; Guarded wraps it with the shared
// transport, breaker, and rate-limit plumbing.
type rawFetcher interface {
	exchange() domain.Exchange
	buildURL(sym string) string
	extractSides(raw []byte, sym string) ([]json.RawMessage, []json.RawMessage, error)
}

// Guarded wraps a venue-specific rawFetcher with a shared HTTP client, a
// circuit breaker (so a persistently failing venue stops being retried on
// every refresh), and a token-bucket limiter, following the teacher's
// ProviderGuard composition in internal/providers/guards.
type Guarded struct {
	inner   rawFetcher
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func newGuarded(inner rawFetcher) *Guarded {
	name := string(inner.exchange())
	return &Guarded{
		inner:  inner,
		client: &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
	}
}

func (g *Guarded) Exchange() domain.Exchange { return g.inner.exchange() }

// FetchSides performs the guarded HTTP round trip, classifies failures
// into the taxonomy the scheduler distinguishes on, and normalizes the
// response into Orders.
func (g *Guarded) FetchSides(ctx context.Context, sym string) (domain.Sides, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return domain.Sides{}, apierr.WrapExchange(apierr.UpstreamTimeout, string(g.Exchange()), "rate limiter wait", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.fetchRaw(ctx, sym)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.Sides{}, apierr.WrapExchange(apierr.UpstreamHTTPError, string(g.Exchange()), "circuit breaker open", err)
		}
		return domain.Sides{}, err
	}
	raw := result.([]byte)

	bidsRaw, asksRaw, err := g.inner.extractSides(raw, sym)
	if err != nil {
		return domain.Sides{}, err
	}

	bids, err := decodeRows(bidsRaw, g.Exchange())
	if err != nil {
		return domain.Sides{}, err
	}
	asks, err := decodeRows(asksRaw, g.Exchange())
	if err != nil {
		return domain.Sides{}, err
	}

	return domain.Sides{Bids: bids, Asks: asks}, nil
}

func (g *Guarded) fetchRaw(ctx context.Context, sym string) ([]byte, error) {
	url := g.inner.buildURL(sym)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apierr.WrapExchange(apierr.UpstreamIOError, string(g.Exchange()), "building request", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := g.client.Do(req)
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, apierr.WrapExchange(apierr.UpstreamTimeout, string(g.Exchange()), "request timed out", err)
		}
		if ctx.Err() != nil {
			return nil, apierr.WrapExchange(apierr.UpstreamTimeout, string(g.Exchange()), "context deadline exceeded", err)
		}
		return nil, apierr.WrapExchange(apierr.UpstreamIOError, string(g.Exchange()), "transport error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.WrapExchange(apierr.UpstreamIOError, string(g.Exchange()), "reading response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apierr.WrapExchange(apierr.UpstreamHTTPError, string(g.Exchange()),
			fmt.Sprintf("non-2xx status %d", resp.StatusCode), nil)
	}

	return body, nil
}
