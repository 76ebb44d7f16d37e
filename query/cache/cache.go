// Package cache provides SELECT result caching.
//
// Entries are keyed by compiled statement and tagged with the tables the
// statement reads, so a write to a table can drop every entry that read it.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache stores result rows.
type Cache interface {
	// Get returns a copy of the cached rows for key.
	Get(key string) ([]map[string]interface{}, bool)
	// Set stores rows under key, tagged with tables. A zero ttl uses the
	// cache default; a negative ttl never expires.
	Set(key string, tables []string, rows []map[string]interface{}, ttl time.Duration)
	// InvalidateTable removes every entry tagged with table.
	InvalidateTable(table string)
	// Clear removes every entry.
	Clear()
	// Stats returns a snapshot of the counters.
	Stats() Stats
}

// Stats are cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

type entry struct {
	key       string
	tables    []string
	rows      []map[string]interface{}
	expiresAt time.Time
}

// LRU is a size-bounded Cache that evicts the least recently used entry.
type LRU struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List
	byTable    map[string]map[string]struct{}
	maxSize    int
	defaultTTL time.Duration
	now        func() time.Time
	stats      Stats
}

// NewLRU creates an LRU holding at most maxSize entries.
func NewLRU(maxSize int, defaultTTL time.Duration) *LRU {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		byTable:    make(map[string]map[string]struct{}),
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *LRU) Get(key string) ([]map[string]interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.remove(el)
		c.stats.Misses++
		return nil, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return copyRows(e.rows), true
}

func (c *LRU) Set(key string, tables []string, rows []map[string]interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	for len(c.items) >= c.maxSize {
		c.remove(c.order.Back())
		c.stats.Evictions++
	}

	e := &entry{key: key, tables: normalize(tables), rows: copyRows(rows), expiresAt: expiresAt}
	c.items[key] = c.order.PushFront(e)
	for _, t := range e.tables {
		keys, ok := c.byTable[t]
		if !ok {
			keys = make(map[string]struct{})
			c.byTable[t] = keys
		}
		keys[key] = struct{}{}
	}
}

func (c *LRU) InvalidateTable(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.byTable[strings.ToLower(table)] {
		if el, ok := c.items[key]; ok {
			c.remove(el)
		}
	}
}

func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.byTable = make(map[string]map[string]struct{})
}

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = len(c.items)
	s.MaxSize = c.maxSize
	return s
}

// remove drops el from every index. Callers hold mu.
func (c *LRU) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.items, e.key)
	for _, t := range e.tables {
		if keys, ok := c.byTable[t]; ok {
			delete(keys, e.key)
			if len(keys) == 0 {
				delete(c.byTable, t)
			}
		}
	}
}

func normalize(tables []string) []string {
	out := make([]string, 0, len(tables))
	seen := make(map[string]bool, len(tables))
	for _, t := range tables {
		t = strings.ToLower(t)
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func copyRows(rows []map[string]interface{}) []map[string]interface{} {
	if rows == nil {
		return nil
	}
	out := make([]map[string]interface{}, len(rows))
	for i, r := range rows {
		m := make(map[string]interface{}, len(r))
		for k, v := range r {
			m[k] = v
		}
		out[i] = m
	}
	return out
}

// Key derives a cache key from a compiled statement and its bindings.
func Key(sql string, args []interface{}) string {
	h := sha256.New()
	h.Write([]byte(sql))
	for _, a := range args {
		fmt.Fprintf(h, "\x00%T:%v", a, a)
	}
	return hex.EncodeToString(h.Sum(nil))
}
