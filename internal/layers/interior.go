package layers

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RepresentativePoint returns a point inside mp to anchor its label. It
// takes the largest polygon, casts a horizontal line at a height chosen to
// miss every vertex and returns the middle of the widest interior span.
func RepresentativePoint(mp orb.MultiPolygon) (orb.Point, error) {
	var (
		best     orb.Polygon
		bestArea = -1.0
	)
	for _, p := range mp {
		if len(p) == 0 || len(p[0]) < 3 {
			continue
		}
		if a := math.Abs(planar.Area(p)); a > bestArea {
			best, bestArea = p, a
		}
	}
	if best == nil {
		return orb.Point{}, ErrEmptyGeometry
	}

	y := scanLineY(best)
	var xs []float64
	for _, ring := range best {
		n := len(ring)
		for i, j := 0, n-1; i < n; j, i = i, i+1 {
			a, b := ring[j], ring[i]
			if (a[1] > y) != (b[1] > y) {
				xs = append(xs, a[0]+(y-a[1])*(b[0]-a[0])/(b[1]-a[1]))
			}
		}
	}
	sort.Float64s(xs)

	found := false
	var pt orb.Point
	widest := -1.0
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > widest {
			widest = w
			pt = orb.Point{(xs[i] + xs[i+1]) / 2, y}
			found = true
		}
	}
	if !found {
		// Zero-height polygon: any vertex is as good as the centre.
		return best[0][0], nil
	}
	return pt, nil
}

// scanLineY is the mean of the vertex heights nearest to the bound's centre
// from below and from above.
func scanLineY(p orb.Polygon) float64 {
	b := p.Bound()
	centre := (b.Min[1] + b.Max[1]) / 2
	lo, hi := b.Min[1], b.Max[1]
	for _, ring := range p {
		for _, pt := range ring {
			y := pt[1]
			if y <= centre {
				if y > lo {
					lo = y
				}
			} else if y < hi {
				hi = y
			}
		}
	}
	return (lo + hi) / 2
}
