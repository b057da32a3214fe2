package layers

import (
	"fmt"

	"citymap/internal/projection"
	"citymap/internal/types"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// Reproject converts every vertex of l into target in place. A layer already
// in target is left untouched, so repeated calls are no-ops.
func Reproject(l *types.Layer, target projection.CRS) error {
	if l.CRS == "" {
		return fmt.Errorf("reproject %s: %w", l.Name, projection.ErrMissingCRS)
	}
	src, err := projection.Parse(l.CRS)
	if err != nil {
		return fmt.Errorf("reproject %s: %w", l.Name, err)
	}
	if src == target {
		return nil
	}
	proj, err := projection.Transformer(src, target)
	if err != nil {
		return fmt.Errorf("reproject %s: %w", l.Name, err)
	}
	for i := range l.Features {
		l.Features[i].Geometry = project.MultiPolygon(l.Features[i].Geometry, proj)
	}
	l.CRS = target.String()
	return nil
}

// Bounds returns the union of the layers' bounding boxes.
func Bounds(ls ...*types.Layer) (orb.Bound, error) {
	var (
		b  orb.Bound
		ok bool
	)
	for _, l := range ls {
		lb, has := l.Bound()
		if !has {
			continue
		}
		if !ok {
			b, ok = lb, true
			continue
		}
		b = b.Union(lb)
	}
	if !ok {
		return orb.Bound{}, ErrEmptyGeometry
	}
	return b, nil
}
