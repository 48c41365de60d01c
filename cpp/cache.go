package cpp

import (
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// LexedFile is the lexer output for one file, before preprocessing.
// Cached values are shared and must not be modified.
type LexedFile struct {
	Tokens []*Token
	Diags  Diagnostics
}

// CacheKey identifies a lexed file. Lexing depends on the dialect and on
// trigraph handling as well as on the path.
type CacheKey struct {
	Path      string
	Standard  Standard
	Trigraphs bool
}

func (k CacheKey) String() string {
	s := k.Path + "|" + k.Standard.String()
	if k.Trigraphs {
		s += "|trigraphs"
	}
	return s
}

func cacheKey(path string, cfg *Config) CacheKey {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return CacheKey{Path: path, Standard: cfg.Standard, Trigraphs: cfg.Trigraphs}
}

// TokenCache memoizes lexed include files. No eviction policy is implied.
type TokenCache interface {
	Get(key CacheKey) (*LexedFile, bool)
	Put(key CacheKey, lf *LexedFile)
}

// Loader is implemented by caches that can lex on a miss themselves, so
// concurrent requests for one key lex it once.
type Loader interface {
	TokenCache
	Load(key CacheKey, lex func() *LexedFile) *LexedFile
}

// MemoryCache is an unbounded TokenCache safe for concurrent use.
type MemoryCache struct {
	mu     sync.Mutex
	files  map[CacheKey]*LexedFile
	group  singleflight.Group
	hits   int
	misses int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{files: make(map[CacheKey]*LexedFile)}
}

func (c *MemoryCache) Get(key CacheKey) (*LexedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	lf, ok := c.files[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return lf, ok
}

func (c *MemoryCache) Put(key CacheKey, lf *LexedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[key] = lf
}

func (c *MemoryCache) Load(key CacheKey, lex func() *LexedFile) *LexedFile {
	if lf, ok := c.Get(key); ok {
		return lf
	}
	v, _, _ := c.group.Do(key.String(), func() (interface{}, error) {
		c.mu.Lock()
		lf, ok := c.files[key]
		c.mu.Unlock()
		if ok {
			return lf, nil
		}
		lf = lex()
		c.Put(key, lf)
		return lf, nil
	})
	return v.(*LexedFile)
}

// Stats returns the number of lookups that hit and missed.
func (c *MemoryCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}
