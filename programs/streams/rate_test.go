package streams

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreamedUnits(t *testing.T) {
	tests := []struct {
		name       string
		rate       uint64
		interval   uint64
		elapsed    uint64
		cliff      uint64
		allocation uint64
		want       uint64
	}{
		{"nothing vested at start", 100, 60, 0, 0, 10_000, 0},
		{"one interval", 100, 60, 60, 0, 10_000, 100},
		{"partial interval", 100, 60, 30, 0, 10_000, 50},
		{"cliff released up front", 100, 60, 0, 500, 10_000, 500},
		{"cliff plus streamed", 100, 60, 120, 500, 10_000, 700},
		{"saturates at allocation", 100, 60, 1 << 40, 0, 10_000, 10_000},
		{"zero interval pays cliff only", 100, 0, 600, 250, 10_000, 250},
		{"cliff above allocation clamps", 0, 60, 0, 20_000, 10_000, 10_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StreamedUnits(tt.rate, tt.interval, tt.elapsed, tt.cliff, tt.allocation)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamedUnitsNoOverflow(t *testing.T) {
	// rate * elapsed overflows uint64; big.Int math must still be exact
	got := StreamedUnits(math.MaxUint64/2, 1, 4, 0, math.MaxUint64)
	assert.Equal(t, uint64(math.MaxUint64), got)
}

func TestWithdrawableUnits(t *testing.T) {
	assert.Equal(t, uint64(100), WithdrawableUnits(100, 60, 60, 0, 10_000, 0))
	assert.Equal(t, uint64(40), WithdrawableUnits(100, 60, 60, 0, 10_000, 60))
	// already withdrawn everything vested
	assert.Equal(t, uint64(0), WithdrawableUnits(100, 60, 60, 0, 10_000, 100))
	// over-withdrawn never goes negative
	assert.Equal(t, uint64(0), WithdrawableUnits(100, 60, 60, 0, 10_000, 500))
}
