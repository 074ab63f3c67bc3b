package dashboard

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/atalyaalon/patents-topic-modeling/internal/logging"
)

// DefaultCacheSize is the number of artifact sets kept open.
const DefaultCacheSize = 4

// Opener loads the artifact set of a prefix.
type Opener func(prefix string) (*Artifacts, error)

// ArtifactCache loads each artifact set once and keeps the most recently used ones open.
type ArtifactCache struct {
	mu    sync.Mutex // serializes loads so a set is opened only once
	cache *lru.Cache[string, *Artifacts]
	open  Opener
}

// NewArtifactCache creates a cache holding up to size artifact sets.
func NewArtifactCache(size int, open Opener) (*ArtifactCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.NewWithEvict(size, func(prefix string, a *Artifacts) {
		if err := a.Close(); err != nil {
			logging.Warningf("Closing artifacts %s: %v", prefix, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("creating artifact cache of size %d: %w", size, err)
	}
	return &ArtifactCache{cache: c, open: open}, nil
}

// Get returns the artifact set of prefix, loading it on first use.
func (c *ArtifactCache) Get(prefix string) (*Artifacts, error) {
	if a, ok := c.cache.Get(prefix); ok {
		return a, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.cache.Get(prefix); ok {
		return a, nil
	}

	a, err := c.open(prefix)
	if err != nil {
		return nil, err
	}
	logging.Infof("Loaded artifacts %s: %d patents indexed", prefix, a.Index.Len())
	c.cache.Add(prefix, a)
	return a, nil
}

// Close closes every cached artifact set.
func (c *ArtifactCache) Close() {
	c.cache.Purge()
}
