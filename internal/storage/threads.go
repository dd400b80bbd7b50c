package storage

import "sync"

// ThreadCache maps a chat ID to its assistant thread ID. Entries are created
// lazily on first use and live for the process lifetime only; after a restart
// a fresh thread is created on the next question, which is accepted behavior.
type ThreadCache struct {
	mu      sync.RWMutex
	threads map[int64]string
}

func NewThreadCache() *ThreadCache {
	return &ThreadCache{threads: make(map[int64]string)}
}

func (c *ThreadCache) Get(chatID int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	threadID, ok := c.threads[chatID]
	return threadID, ok
}

func (c *ThreadCache) Put(chatID int64, threadID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.threads[chatID] = threadID
}
