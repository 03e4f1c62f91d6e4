package mongo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSkip(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        int64
	}{
		{"first page", 1, 20, 0},
		{"zero page", 0, 20, 0},
		{"third page", 3, 20, 40},
		{"zero limit", 5, 0, 0},
		{"huge page saturates", math.MaxInt, 20, math.MaxInt64},
		{"product just past int64", math.MaxInt64/100 + 2, 100, math.MaxInt64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := skip(tt.page, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}
}
