package builder

import (
	"strings"
	"time"
)

// Remember caches this builder's reads for ttl in the cache set with
// WithCache. A zero ttl uses the cache default. Without a cache it has no
// effect. Writes through any builder sharing the cache drop the entries
// that read the written table.
func (b *Builder) Remember(ttl time.Duration) *Builder {
	b.remember = &ttl
	return b
}

// DontRemember turns caching off for this builder.
func (b *Builder) DontRemember() *Builder {
	b.remember = nil
	return b
}

// tables returns the base tables read by the plan: FROM plus joins.
// Tables only reached through subqueries are not tracked.
func (b *Builder) tables() []string {
	var out []string
	if t := tableName(b.plan.Table); t != "" {
		out = append(out, t)
	}
	for _, j := range b.plan.Joins {
		if t := tableName(j.Table); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// tableName strips the alias from a table reference. Raw tables have no name.
func tableName(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if i := strings.Index(strings.ToLower(s), " as "); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// forget drops cached reads of the builder's table after a write.
func (b *Builder) forget() {
	if b.cache == nil {
		return
	}
	if t := tableName(b.plan.Table); t != "" {
		b.cache.InvalidateTable(t)
	}
}
