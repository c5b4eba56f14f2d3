package helpers

import (
	"errors"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 15
	MaxPageSize     = 100
	DefaultPage     = 0 // Pages are 0-based
)

// CalculateOffsetLimit calculates the offset and limit for SQL queries based on a 0-based page index.
// The offset never exceeds the bigint range of OFFSET; pages past it clamp to the last one.
func CalculateOffsetLimit(page, size int) (offset uint64, limit uint64) {
	limit = uint64(NormalizePageSize(size))
	if page < 0 {
		page = DefaultPage
	}
	p := uint64(page)
	if maxPage := uint64(math.MaxInt64) / limit; p > maxPage {
		p = maxPage
	}
	return p * limit, limit
}

// NormalizePageSize falls back to the default for non-positive sizes and caps at MaxPageSize.
func NormalizePageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	}
	return size
}

// ParsePaginationParams extracts and validates pagination parameters from the request.
// Accepts `limit` and, for older clients, `size`.
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	switch {
	case errors.Is(err, strconv.ErrRange) && page > 0:
		// keep the clamped value; CalculateOffsetLimit bounds it
	case err != nil || page < 0:
		page = DefaultPage
	}

	sizeStr := c.Query("limit")
	if sizeStr == "" {
		sizeStr = c.Query("size")
	}
	size, err = strconv.Atoi(sizeStr)
	if err != nil {
		size = DefaultPageSize
	}

	return page, NormalizePageSize(size)
}
