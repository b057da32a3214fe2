package projection

// Lambert conformal conic (two standard parallels) on the GRS80 ellipsoid,
// used by the US state plane zones. Outputs are in the zone's linear unit.

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	ftPerMeter = 3.2808333333333334 // US survey foot
	semiMajorM = 6378137.0          // GRS80 / WGS84 semi-major axis (metres)
	grs80E2    = 0.00669438002290   // GRS80 eccentricity squared
)

type lambertConformal struct {
	falseEasting  float64
	falseNorthing float64
	lon0          float64 // radians

	e    float64
	n    float64
	F    float64
	rho0 float64
}

// Texas North-Central, EPSG:2276 (NAD83, US feet).
var texasNorthCentral = newLambertConformal(lccParams{
	falseEasting:  1968500.0,
	falseNorthing: 6561666.666666666,
	phi0Deg:       31.66666666666667,
	phi1Deg:       32.13333333333333,
	phi2Deg:       33.96666666666667,
	lon0Deg:       -98.5,
	unitsPerMeter: ftPerMeter,
})

type lccParams struct {
	falseEasting, falseNorthing float64
	phi0Deg, phi1Deg, phi2Deg   float64
	lon0Deg                     float64
	unitsPerMeter               float64
}

func newLambertConformal(p lccParams) *lambertConformal {
	phi1 := p.phi1Deg * math.Pi / 180
	phi2 := p.phi2Deg * math.Pi / 180
	phi0 := p.phi0Deg * math.Pi / 180

	lc := &lambertConformal{
		falseEasting:  p.falseEasting,
		falseNorthing: p.falseNorthing,
		lon0:          p.lon0Deg * math.Pi / 180,
		e:             math.Sqrt(grs80E2),
	}

	m := func(phi float64) float64 {
		return math.Cos(phi) / math.Sqrt(1-grs80E2*math.Sin(phi)*math.Sin(phi))
	}

	m1 := m(phi1)
	m2 := m(phi2)
	t1 := lc.t(phi1)
	t2 := lc.t(phi2)
	t0 := lc.t(phi0)

	lc.n = math.Log(m1/m2) / math.Log(t1/t2)

	a := semiMajorM * p.unitsPerMeter
	lc.F = a * m1 / (lc.n * math.Pow(t1, lc.n))
	lc.rho0 = lc.F * math.Pow(t0, lc.n)
	return lc
}

func (lc *lambertConformal) t(phi float64) float64 {
	es := lc.e * math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-es)/(1+es), lc.e/2)
}

// fromWGS84 maps lon/lat degrees to easting/northing.
func (lc *lambertConformal) fromWGS84(p orb.Point) orb.Point {
	phi := p.Lat() * math.Pi / 180
	lambda := p.Lon() * math.Pi / 180

	rho := lc.F * math.Pow(lc.t(phi), lc.n)
	theta := lc.n * (lambda - lc.lon0)

	x := rho*math.Sin(theta) + lc.falseEasting
	y := lc.rho0 - rho*math.Cos(theta) + lc.falseNorthing
	return orb.Point{x, y}
}

// toWGS84 inverts fromWGS84, iterating the conformal latitude until it
// settles.
func (lc *lambertConformal) toWGS84(p orb.Point) orb.Point {
	dx := p[0] - lc.falseEasting
	dy := lc.rho0 - (p[1] - lc.falseNorthing)

	rho := math.Hypot(dx, dy)
	theta := math.Atan2(dx, dy)
	if lc.n < 0 {
		rho = -rho
		theta = math.Atan2(-dx, -dy)
	}

	t := math.Pow(rho/lc.F, 1/lc.n)
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := lc.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), lc.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	lambda := theta/lc.n + lc.lon0
	return orb.Point{lambda * 180 / math.Pi, phi * 180 / math.Pi}
}
