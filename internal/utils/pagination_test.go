package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePaginationFromQuery(t *testing.T) {
	page, pageSize := ParsePaginationFromQuery("3", "25")
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, pageSize)

	// missing page_size means fetch-all
	page, pageSize = ParsePaginationFromQuery("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, 1000, pageSize)

	// garbage falls back to defaults
	page, pageSize = ParsePaginationFromQuery("abc", "-5")
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, pageSize)

	// oversized page_size is capped at the default
	_, pageSize = ParsePaginationFromQuery("1", "500")
	assert.Equal(t, 20, pageSize)
}

func TestCalculatePaginationInfo(t *testing.T) {
	info := CalculatePaginationInfo(45, 2, 20)
	assert.Equal(t, 3, info.TotalPages)
	assert.True(t, info.HasNext)
	assert.True(t, info.HasPrevious)

	info = CalculatePaginationInfo(0, 1, 20)
	assert.Equal(t, 1, info.TotalPages)
	assert.False(t, info.HasNext)
	assert.False(t, info.HasPrevious)
}

func TestCalculateOffset(t *testing.T) {
	assert.Equal(t, 0, CalculateOffset(1, 20))
	assert.Equal(t, 40, CalculateOffset(3, 20))
}
