package projection

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// system describes how to get from a CRS to WGS84 lon/lat and back.
type system struct {
	toWGS84   orb.Projection
	fromWGS84 orb.Projection
	units     string // "degree", "m" or "us-ft"
}

func identity(p orb.Point) orb.Point { return p }

func lookup(c CRS) (system, error) {
	switch code := c.Code; {
	case code == 4326, code == 4258:
		return system{toWGS84: identity, fromWGS84: identity, units: "degree"}, nil
	case code == 3857, code == 900913:
		return system{toWGS84: project.Mercator.ToWGS84, fromWGS84: project.WGS84.ToMercator, units: "m"}, nil
	case code == 2276:
		return system{toWGS84: texasNorthCentral.toWGS84, fromWGS84: texasNorthCentral.fromWGS84, units: "us-ft"}, nil
	case code > 32600 && code <= 32660:
		tm := newUTM(code-32600, false)
		return system{toWGS84: tm.toWGS84, fromWGS84: tm.fromWGS84, units: "m"}, nil
	case code > 32700 && code <= 32760:
		tm := newUTM(code-32700, true)
		return system{toWGS84: tm.toWGS84, fromWGS84: tm.fromWGS84, units: "m"}, nil
	case code >= 25828 && code <= 25838:
		tm := newUTM(code-25800, false)
		return system{toWGS84: tm.toWGS84, fromWGS84: tm.fromWGS84, units: "m"}, nil
	}
	return system{}, fmt.Errorf("%w: %s", ErrUnsupportedCRS, c)
}

// Units returns the linear unit of a projected CRS or "degree" for a
// geographic one.
func Units(c CRS) (string, error) {
	s, err := lookup(c)
	if err != nil {
		return "", err
	}
	return s.units, nil
}

// ValidateTarget checks that c can serve as the map's common system: it
// must be known and measured in metres so extents read as distances.
func ValidateTarget(c CRS) error {
	units, err := Units(c)
	if err != nil {
		return err
	}
	if units != "m" {
		return fmt.Errorf("%w: %s is in %s", ErrNotProjected, c, units)
	}
	return nil
}

// Transformer returns a projection mapping points in src to dst by way of
// WGS84 lon/lat.
func Transformer(src, dst CRS) (orb.Projection, error) {
	if src.IsZero() || dst.IsZero() {
		return nil, ErrMissingCRS
	}
	if src == dst {
		return identity, nil
	}
	from, err := lookup(src)
	if err != nil {
		return nil, err
	}
	to, err := lookup(dst)
	if err != nil {
		return nil, err
	}
	return func(p orb.Point) orb.Point {
		return to.fromWGS84(from.toWGS84(p))
	}, nil
}
