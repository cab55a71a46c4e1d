// Package format renders amounts for display.
package format

import (
	"math"

	"github.com/dustin/go-humanize"
)

// Invalid is shown in place of amounts that are not finite numbers.
const Invalid = "—"

// Price renders amount as Canadian dollars with no fraction digits, grouping
// thousands with commas. Halves round away from zero.
func Price(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Invalid
	}
	whole := math.Round(amount)
	sign := ""
	if whole < 0 {
		sign = "-"
	}
	return sign + "$" + humanize.Commaf(math.Abs(whole))
}
