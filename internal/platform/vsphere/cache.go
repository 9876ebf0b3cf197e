package vsphere

import "sync"

type cacheKey struct {
	kind Kind
	name string
}

// lookupCache is a bounded map of resolved references. The oldest entry is
// evicted once the capacity is reached.
type lookupCache struct {
	mu    sync.Mutex
	size  int
	refs  map[cacheKey]Ref
	order []cacheKey
}

func newLookupCache(size int) *lookupCache {
	if size <= 0 {
		return nil
	}
	return &lookupCache{size: size, refs: make(map[cacheKey]Ref, size)}
}

func (c *lookupCache) get(kind Kind, name string) (Ref, bool) {
	if c == nil {
		return Ref{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.refs[cacheKey{kind, name}]
	return ref, ok
}

func (c *lookupCache) put(ref Ref) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{ref.Kind, ref.Name}
	if _, exists := c.refs[key]; !exists {
		if len(c.order) >= c.size {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.refs, oldest)
		}
		c.order = append(c.order, key)
	}
	c.refs[key] = ref
}

func (c *lookupCache) invalidate(kind Kind, name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{kind, name}
	if _, ok := c.refs[key]; !ok {
		return
	}
	delete(c.refs, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *lookupCache) len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.refs)
}
