package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamTokenIssueAndResolve(t *testing.T) {
	cache := NewStreamTokenCache(time.Hour)

	token, err := cache.Issue("file-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	fileID, ok := cache.Resolve(token)
	require.True(t, ok)
	assert.Equal(t, "file-1", fileID)

	_, ok = cache.Resolve("bogus")
	assert.False(t, ok)
}

func TestStreamTokensAreUnique(t *testing.T) {
	cache := NewStreamTokenCache(time.Hour)

	a, err := cache.Issue("file-1")
	require.NoError(t, err)
	b, err := cache.Issue("file-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestStreamTokenExpiry(t *testing.T) {
	cache := NewStreamTokenCache(10 * time.Millisecond)

	token, err := cache.Issue("file-1")
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, ok := cache.Resolve(token)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len(), "expired entries are swept on read")
}
