package client

import (
	"sync"
	"time"
)

// LoggedQuery is one entry of the query log.
type LoggedQuery struct {
	ID       string
	SQL      string
	Bindings []interface{}
	Duration time.Duration
	Err      error
}

type queryLog struct {
	mu      sync.Mutex
	enabled bool
	entries []LoggedQuery
}

func (l *queryLog) record(e *QueryEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return
	}
	l.entries = append(l.entries, LoggedQuery{
		ID:       e.ID,
		SQL:      e.SQL,
		Bindings: e.Bindings,
		Duration: e.Duration,
		Err:      e.Err,
	})
}

// EnableQueryLog starts recording executed statements.
func (c *core) EnableQueryLog() {
	c.log.mu.Lock()
	c.log.enabled = true
	c.log.mu.Unlock()
}

// DisableQueryLog stops recording. Recorded entries are kept.
func (c *core) DisableQueryLog() {
	c.log.mu.Lock()
	c.log.enabled = false
	c.log.mu.Unlock()
}

// QueryLog returns a copy of the recorded statements.
func (c *core) QueryLog() []LoggedQuery {
	c.log.mu.Lock()
	defer c.log.mu.Unlock()
	return append([]LoggedQuery(nil), c.log.entries...)
}

// FlushQueryLog drops every recorded statement.
func (c *core) FlushQueryLog() {
	c.log.mu.Lock()
	c.log.entries = nil
	c.log.mu.Unlock()
}

// Listen registers fn to receive every executed statement.
func (c *core) Listen(fn func(QueryEvent)) {
	c.Use(TimingMiddleware(fn))
}
