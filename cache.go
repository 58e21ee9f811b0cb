package pegvm

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ProgramCache keeps the most recently used compiled programs keyed
// by the text of their grammar
type ProgramCache struct {
	cfg   *Config
	cache *lru.Cache[uint64, cacheEntry]

	// mu serializes compilations of the same grammar so
	// concurrent misses compile it only once
	mu sync.Mutex
}

type cacheEntry struct {
	// grammar is kept for telling apart grammars with the same
	// hash
	grammar string
	program *Program
}

// NewProgramCache creates a cache holding up to `cache.size`
// programs, all compiled with `cfg`.  A nil `cfg` means the values
// from `NewConfig()`.
func NewProgramCache(cfg *Config) (*ProgramCache, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	cache, err := lru.New[uint64, cacheEntry](cfg.GetInt("cache.size"))
	if err != nil {
		return nil, err
	}
	return &ProgramCache{cfg: cfg, cache: cache}, nil
}

// Get returns the program compiled from `grammar`, compiling and
// storing it if it isn't cached yet
func (c *ProgramCache) Get(grammar string) (*Program, error) {
	key := xxhash.Sum64String(grammar)
	if p, ok := c.lookup(key, grammar); ok {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.lookup(key, grammar); ok {
		return p, nil
	}
	p, err := CompileString(grammar, c.cfg)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, cacheEntry{grammar: grammar, program: p})
	return p, nil
}

func (c *ProgramCache) lookup(key uint64, grammar string) (*Program, bool) {
	e, ok := c.cache.Get(key)
	if !ok || e.grammar != grammar {
		return nil, false
	}
	return e.program, true
}

// Len returns how many programs are cached
func (c *ProgramCache) Len() int { return c.cache.Len() }

// Purge drops all the cached programs
func (c *ProgramCache) Purge() { c.cache.Purge() }
