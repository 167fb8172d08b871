// Package source composes per-view readers into a single data source.
package source

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/domain"
)

// Func reads one view.
type Func func(ctx context.Context) ([]domain.Observation, error)

// Unavailable is a Func for a view with no configured reader.
func Unavailable(context.Context) ([]domain.Observation, error) {
	return nil, domain.ErrViewUnavailable
}

// Mux routes each view to its own reader. A nil Func reads as unavailable.
type Mux struct {
	WorkingFunc Func
	CurrentFunc Func
	HistoryFunc Func
}

func (m Mux) Working(ctx context.Context) ([]domain.Observation, error) {
	return call(ctx, m.WorkingFunc)
}

func (m Mux) Current(ctx context.Context) ([]domain.Observation, error) {
	return call(ctx, m.CurrentFunc)
}

func (m Mux) History(ctx context.Context) ([]domain.Observation, error) {
	return call(ctx, m.HistoryFunc)
}

func call(ctx context.Context, fn Func) ([]domain.Observation, error) {
	if fn == nil {
		return Unavailable(ctx)
	}
	return fn(ctx)
}

// CachedFunc wraps fn so successful reads are reused for ttl. The working
// and current passes both read history; this keeps a server from
// refetching it on every request.
func CachedFunc(fn Func, ttl time.Duration) Func {
	c := &cache{inner: fn, ttl: ttl}
	return c.read
}

type cache struct {
	inner Func
	ttl   time.Duration

	mu      sync.Mutex
	rows    []domain.Observation
	fetched time.Time
}

func (c *cache) read(ctx context.Context) ([]domain.Observation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := domain.Clock().Now()
	if !c.fetched.IsZero() && now.Sub(c.fetched) < c.ttl {
		return c.rows, nil
	}
	rows, err := c.inner(ctx)
	if err != nil {
		// errors, including an unavailable view, are retried on the next read
		return nil, err
	}
	c.rows = rows
	c.fetched = now
	return rows, nil
}
