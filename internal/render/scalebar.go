package render

import (
	"fmt"
	"math"
)

// fallbackScaleLength is used when the view has no positive width.
const fallbackScaleLength = 1000.0

// NiceScaleLength picks a round scale-bar length for a view that is extent
// map units wide: an eighth of the width, rounded to a whole multiple of its
// own power of ten (half-way cases go to the even multiple).
func NiceScaleLength(extent float64) float64 {
	approx := fallbackScaleLength
	if extent > 0 {
		approx = extent / 8
	}
	exp := 3.0
	if approx > 0 {
		exp = math.Floor(math.Log10(approx))
	}
	base := math.Pow(10, exp)
	nice := math.RoundToEven(approx/base) * base
	if nice == 0 || math.IsNaN(nice) || math.IsInf(nice, 0) {
		nice = fallbackScaleLength
	}
	return nice
}

// ScaleLabel formats a length in metres: whole kilometres from 1000 up,
// whole metres below.
func ScaleLabel(metres float64) string {
	if metres >= 1000 {
		return fmt.Sprintf("%.0f km", metres/1000)
	}
	return fmt.Sprintf("%.0f m", metres)
}
