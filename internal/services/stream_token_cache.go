package services

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

type streamTokenEntry struct {
	fileID    string
	expiresAt time.Time
}

// StreamTokenCache issues short-lived opaque tokens that let a device fetch
// audio without user credentials. Expired tokens are swept lazily on read.
type StreamTokenCache struct {
	mu     sync.Mutex
	ttl    time.Duration
	tokens map[string]streamTokenEntry
}

// NewStreamTokenCache creates a cache whose tokens expire after ttl
func NewStreamTokenCache(ttl time.Duration) *StreamTokenCache {
	return &StreamTokenCache{
		ttl:    ttl,
		tokens: make(map[string]streamTokenEntry),
	}
}

// Issue mints a token for an audio file
func (c *StreamTokenCache) Issue(fileID string) (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[token] = streamTokenEntry{fileID: fileID, expiresAt: time.Now().Add(c.ttl)}
	return token, nil
}

// Resolve returns the file ID behind a token, if it is still valid. Expired
// entries encountered during the read are swept out.
func (c *StreamTokenCache) Resolve(token string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.tokens {
		if now.After(entry.expiresAt) {
			delete(c.tokens, key)
		}
	}

	entry, ok := c.tokens[token]
	if !ok {
		return "", false
	}
	return entry.fileID, true
}

// Len returns the number of entries (expired ones included until swept)
func (c *StreamTokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}
