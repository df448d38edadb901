package podcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		minutes int
	}{
		{name: "empty content", length: 0, minutes: 1},
		{name: "short note", length: 1500, minutes: 1},
		{name: "exactly at first breakpoint", length: 3000, minutes: 1},
		{name: "two minute bucket", length: 4000, minutes: 2},
		{name: "three minute bucket", length: 6000, minutes: 3},
		{name: "five minute bucket", length: 11000, minutes: 5},
		{name: "nine minute bucket", length: 25000, minutes: 9},
		{name: "just past last breakpoint", length: 26001, minutes: 10},
		{name: "very long content clamps", length: 1_000_000, minutes: 10},
		{name: "negative treated as empty", length: -5, minutes: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.minutes, EstimateDuration(tt.length))
		})
	}
}

func TestEstimateDuration_Monotonic(t *testing.T) {
	prev := 0
	for length := 0; length <= 40_000; length += 250 {
		got := EstimateDuration(length)

		assert.GreaterOrEqual(t, got, prev, "estimate dipped at length %d", length)
		assert.GreaterOrEqual(t, got, 1)
		assert.LessOrEqual(t, got, 10)

		prev = got
	}
}
