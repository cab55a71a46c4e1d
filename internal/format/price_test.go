package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1500, "$1,500"},
		{0, "$0"},
		{999, "$999"},
		{1234567, "$1,234,567"},
		{1499.5, "$1,500"},
		{1499.49, "$1,499"},
		{2.5, "$3"},
		{-1500, "-$1,500"},
		{-0.4, "$0"},
		{math.NaN(), Invalid},
		{math.Inf(1), Invalid},
		{math.Inf(-1), Invalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Price(tt.in), "Price(%v)", tt.in)
	}
}
