package client

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Kind tells selects from other statements.
type Kind string

const (
	// KindSelect is a statement that returns rows.
	KindSelect Kind = "select"
	// KindExec is a statement run for its side effects.
	KindExec Kind = "exec"
)

// QueryEvent describes one statement on its way to the driver.
type QueryEvent struct {
	ID            string
	Kind          Kind
	SQL           string
	Bindings      []interface{}
	InTransaction bool
	Start         time.Time
	Duration      time.Duration
	RowsAffected  int64
	Err           error
}

func newEvent(kind Kind, query string, bindings []interface{}, inTx bool) *QueryEvent {
	return &QueryEvent{
		ID:            uuid.NewString(),
		Kind:          kind,
		SQL:           query,
		Bindings:      bindings,
		InTransaction: inTx,
	}
}

// Middleware intercepts statements. It must call next to run the statement
// and may inspect the event afterwards. Returning an error without calling
// next skips the statement.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// Use appends middleware to the chain. Middleware runs in registration order.
func (c *core) Use(m ...Middleware) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, mw := range m {
		if mw != nil {
			c.middlewares = append(c.middlewares, mw)
		}
	}
}

// run passes event through the middleware chain and then exec.
func (c *core) run(ctx context.Context, event *QueryEvent, exec func() error) error {
	c.mu.RLock()
	chain := append([]Middleware(nil), c.middlewares...)
	c.mu.RUnlock()

	var index int
	var next func() error
	next = func() error {
		if index < len(chain) {
			m := chain[index]
			index++
			return m(ctx, event, next)
		}
		event.Start = time.Now()
		err := exec()
		event.Duration = time.Since(event.Start)
		event.Err = err
		c.log.record(event)
		return err
	}
	return next()
}

// LoggingMiddleware logs every statement at debug level and failures at
// error level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		attrs := []any{
			"id", event.ID,
			"kind", event.Kind,
			"sql", event.SQL,
			"bindings", len(event.Bindings),
			"duration", event.Duration,
		}
		if err != nil {
			logger.ErrorContext(ctx, "query failed", append(attrs, "error", err)...)
			return err
		}
		logger.DebugContext(ctx, "query", attrs...)
		return nil
	}
}

// TimingMiddleware reports the duration of every statement.
func TimingMiddleware(onTiming func(event QueryEvent)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(*event)
		}
		return err
	}
}

// ErrorMiddleware reports failed statements.
func ErrorMiddleware(onError func(event QueryEvent, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(*event, err)
		}
		return err
	}
}

// SlowQueryMiddleware reports statements slower than threshold.
func SlowQueryMiddleware(threshold time.Duration, onSlow func(event QueryEvent)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if event.Duration >= threshold && onSlow != nil {
			onSlow(*event)
		}
		return err
	}
}
