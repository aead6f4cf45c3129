package translation

import "sync"

type cacheKey struct {
	text     string
	language string
	style    Style
	context  bool
	idioms   bool
}

// Cache stores results in memory for batch operations so identical
// requests inside one run reach the model only once.
type Cache struct {
	mu      sync.Mutex
	results map[cacheKey]Result
}

// NewCache creates a new translation cache
func NewCache() *Cache {
	return &Cache{results: make(map[cacheKey]Result)}
}

func keyFor(req Request) cacheKey {
	return cacheKey{
		text:     req.Text,
		language: req.TargetLanguage,
		style:    req.Style,
		context:  req.IncludeCulturalContext,
		idioms:   req.IncludeIdioms,
	}
}

// Add adds a result to the cache. A nil cache ignores the call.
func (c *Cache) Add(req Request, res Result) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[keyFor(req)] = res
}

// Get retrieves a result from the cache
func (c *Cache) Get(req Request) (Result, bool) {
	if c == nil {
		return Result{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[keyFor(req)]
	return res, ok
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}
