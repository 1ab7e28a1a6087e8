package hwprove

type cacheEntry struct {
	value term
	ok    bool
}

// translationCache maps node ids to translated terms. It is a dense table
// indexed by NodeID. Entries are only ever added, except that the entries of
// a failed translation can be rolled back to a mark.
type translationCache struct {
	entries []cacheEntry
	journal []NodeID
	size    int
}

func (c *translationCache) get(id NodeID) (term, bool) {
	if id < 0 || int(id) >= len(c.entries) || !c.entries[id].ok {
		return nil, false
	}
	return c.entries[id].value, true
}

func (c *translationCache) has(id NodeID) bool {
	_, ok := c.get(id)
	return ok
}

func (c *translationCache) put(id NodeID, value term) {
	assert(id >= 0, "negative node id %d", id)
	assert(!c.has(id), "node %%%d translated twice", id)

	if int(id) >= len(c.entries) {
		grown := make([]cacheEntry, int(id)+1, 2*(int(id)+1))
		copy(grown, c.entries)
		c.entries = grown
	}
	c.entries[id] = cacheEntry{value: value, ok: true}
	c.journal = append(c.journal, id)
	c.size += 1
}

func (c *translationCache) len() int {
	return c.size
}

// mark returns a point that rollback can return to.
func (c *translationCache) mark() int {
	return len(c.journal)
}

func (c *translationCache) rollback(mark int) {
	for _, id := range c.journal[mark:] {
		c.entries[id] = cacheEntry{}
		c.size -= 1
	}
	c.journal = c.journal[:mark]
}
