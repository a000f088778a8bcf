package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		page, size         int
		wantOffset, wantLt int
	}{
		{1, 5, 0, 5},
		{3, 5, 10, 5},
		{0, 0, 0, DefaultPageSize},
		{2, 1000, MaxPageSize, MaxPageSize},
	}
	for _, tt := range tests {
		off, lim := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantOffset, off)
		assert.Equal(t, tt.wantLt, lim)
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(2, 5, 5, 12)
	assert.EqualValues(t, 3, m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	last := NewMeta(3, 10, 5, 12)
	assert.False(t, last.HasNext)
}

func TestWindow(t *testing.T) {
	lo, hi := Window(12, 10, 5)
	assert.Equal(t, 10, lo)
	assert.Equal(t, 12, hi)

	lo, hi = Window(3, 10, 5)
	assert.Equal(t, 3, lo)
	assert.Equal(t, 3, hi)
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("x", 7))
	assert.Equal(t, 2, ParseIntDefault("2", 7))
}
