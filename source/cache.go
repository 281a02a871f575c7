package source

import "sync"

// Tier selects one or both halves of the cache.
type Tier int

const (
	TierLocal Tier = 1 << iota
	TierRemote

	TierAll = TierLocal | TierRemote
)

// Cache maps exact source keys to previously loaded bytes. Keys are not
// canonicalized: "a/b.mp3" and "./a/b.mp3" are separate entries. Entries
// live until cleared.
type Cache struct {
	mu     sync.RWMutex
	local  map[string][]byte
	remote map[string][]byte
}

func NewCache() *Cache {
	return &Cache{
		local:  make(map[string][]byte),
		remote: make(map[string][]byte),
	}
}

func (c *Cache) tier(t Tier) map[string][]byte {
	if t == TierRemote {
		return c.remote
	}
	return c.local
}

// Get looks key up in a single tier.
func (c *Cache) Get(t Tier, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.tier(t)[key]
	return data, ok
}

// Put stores data under key in a single tier.
func (c *Cache) Put(t Tier, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tier(t)[key] = data
}

// Clear empties the selected tiers.
func (c *Cache) Clear(t Tier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t&TierLocal != 0 {
		c.local = make(map[string][]byte)
	}
	if t&TierRemote != 0 {
		c.remote = make(map[string][]byte)
	}
}

// Len returns the number of entries in the selected tiers.
func (c *Cache) Len(t Tier) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	if t&TierLocal != 0 {
		n += len(c.local)
	}
	if t&TierRemote != 0 {
		n += len(c.remote)
	}
	return n
}
