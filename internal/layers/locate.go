package layers

import (
	"fmt"

	"citymap/internal/projection"
	"citymap/internal/types"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Locate returns the index of the first feature containing the WGS84
// position lonLat, or -1 when no feature does. Holes are honoured.
func Locate(l *types.Layer, lonLat orb.Point) (int, error) {
	if l.CRS == "" {
		return -1, fmt.Errorf("locate in %s: %w", l.Name, projection.ErrMissingCRS)
	}
	crs, err := projection.Parse(l.CRS)
	if err != nil {
		return -1, fmt.Errorf("locate in %s: %w", l.Name, err)
	}
	proj, err := projection.Transformer(projection.WGS84, crs)
	if err != nil {
		return -1, fmt.Errorf("locate in %s: %w", l.Name, err)
	}
	p := proj(lonLat)

	for i, f := range l.Features {
		if len(f.Geometry) == 0 || !f.Geometry.Bound().Contains(p) {
			continue // quick bbox reject
		}
		if planar.MultiPolygonContains(f.Geometry, p) {
			return i, nil
		}
	}
	return -1, nil
}
