package enrich

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// SchemaCache caches schema text by schema uid. Registry entries are
// immutable on chain, so entries never expire.
type SchemaCache struct {
	mu   sync.RWMutex
	data map[common.Hash]string
}

func NewSchemaCache() *SchemaCache {
	return &SchemaCache{data: make(map[common.Hash]string)}
}

func (c *SchemaCache) Get(uid common.Hash) (string, bool) {
	c.mu.RLock()
	text, ok := c.data[uid]
	c.mu.RUnlock()
	return text, ok
}

func (c *SchemaCache) Set(uid common.Hash, text string) {
	c.mu.Lock()
	c.data[uid] = text
	c.mu.Unlock()
}

func (c *SchemaCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
