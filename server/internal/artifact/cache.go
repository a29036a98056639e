package artifact

import "sync"

// Cache loads a Set at most once per process. Subsequent calls return the
// first result, success or failure, so a missing artifact stays fatal.
type Cache struct {
	once sync.Once
	set  *Set
	err  error
	load func(Paths) (*Set, error) // injectable for tests
}

// NewCache returns an empty Cache backed by Load.
func NewCache() *Cache {
	return &Cache{load: Load}
}

// Get returns the memoised Set, loading it from p on the first call.
func (c *Cache) Get(p Paths) (*Set, error) {
	c.once.Do(func() {
		c.set, c.err = c.load(p)
	})
	return c.set, c.err
}
