// Package memo keeps scoped callbacks stable across projection passes.
//
// Entries are keyed by (owner handle, key). Owners are opaque tokens handed
// out by the Cache; a callback built under one owner usually becomes the
// owner of the callbacks built for its descendants, which is why Evict
// walks the ownership chain.
package memo

// Handle is the identity token of an owner callback.
type Handle uint64

// Owner is implemented by cached values that own entries themselves.
type Owner interface {
	Handle() Handle
}

// Cache is an arena of memoized values. It is not safe for concurrent use;
// give every concurrent projection its own Cache.
type Cache struct {
	next    Handle
	pass    uint64
	entries map[Handle]map[string]*entry
}

type entry struct {
	v any
	// pass is the last pass that used the entry.
	pass uint64
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: map[Handle]map[string]*entry{}}
}

// NewHandle issues a fresh identity token.
func (c *Cache) NewHandle() Handle {
	c.next++
	return c.next
}

// Get returns the value stored for (owner, key). When absent, build is
// called with a fresh handle for the new value and its result is stored.
// A later build for the same pair is ignored.
func Get[T any](c *Cache, owner Handle, key string, build func(h Handle) T) T {
	inner, ok := c.entries[owner]
	if !ok {
		inner = map[string]*entry{}
		c.entries[owner] = inner
	}
	if e, ok := inner[key]; ok {
		if t, ok := e.v.(T); ok {
			e.pass = c.pass
			return t
		}
	}
	v := build(c.NewHandle())
	inner[key] = &entry{v: v, pass: c.pass}
	return v
}

// Begin starts a pass. Entries used from now on survive the next Sweep.
func (c *Cache) Begin() { c.pass++ }

// Sweep evicts the entries not used since the last Begin, together with
// everything they own, and returns the number of entries dropped.
func (c *Cache) Sweep() int {
	before := c.Len()
	for owner, inner := range c.entries {
		for key, e := range inner {
			if e.pass == c.pass {
				continue
			}
			delete(inner, key)
			if o, ok := e.v.(Owner); ok && o.Handle() != owner {
				c.Evict(o.Handle())
			}
		}
		if len(inner) == 0 {
			delete(c.entries, owner)
		}
	}
	return before - c.Len()
}

// Evict drops every entry owned by h, and recursively the entries owned by
// the values it held.
func (c *Cache) Evict(h Handle) {
	inner, ok := c.entries[h]
	if !ok {
		return
	}
	delete(c.entries, h)
	for _, e := range inner {
		if o, ok := e.v.(Owner); ok && o.Handle() != h {
			c.Evict(o.Handle())
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	n := 0
	for _, inner := range c.entries {
		n += len(inner)
	}
	return n
}

// Owners returns the number of owners with live entries.
func (c *Cache) Owners() int { return len(c.entries) }
