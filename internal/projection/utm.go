package projection

import (
	"math"

	"github.com/paulmach/orb"
)

// transverseMercator implements the UTM series expansion (Snyder, USGS PP
// 1395, eqs. 8-9 to 8-25). ETRS89 zones share the WGS84 formulas; the datum
// shift between the two stays well below what a 300 dpi map can show.
type transverseMercator struct {
	lon0          float64 // radians
	k0            float64
	falseEasting  float64
	falseNorthing float64

	e2, ep2, e1    float64
	m1, m2, m3, m4 float64
}

func newUTM(zone int, south bool) *transverseMercator {
	const f = 1 / 298.257223563
	e2 := f * (2 - f)
	tm := &transverseMercator{
		lon0:         (float64(zone)*6 - 183) * math.Pi / 180,
		k0:           0.9996,
		falseEasting: 500000,
		e2:           e2,
		ep2:          e2 / (1 - e2),
	}
	if south {
		tm.falseNorthing = 10000000
	}
	e4, e6 := e2*e2, e2*e2*e2
	tm.m1 = 1 - e2/4 - 3*e4/64 - 5*e6/256
	tm.m2 = 3*e2/8 + 3*e4/32 + 45*e6/1024
	tm.m3 = 15*e4/256 + 45*e6/1024
	tm.m4 = 35 * e6 / 3072
	tm.e1 = (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	return tm
}

func (tm *transverseMercator) meridianArc(phi float64) float64 {
	return semiMajorM * (tm.m1*phi - tm.m2*math.Sin(2*phi) + tm.m3*math.Sin(4*phi) - tm.m4*math.Sin(6*phi))
}

func (tm *transverseMercator) fromWGS84(p orb.Point) orb.Point {
	phi := p.Lat() * math.Pi / 180
	lambda := p.Lon() * math.Pi / 180

	sin, cos, tan := math.Sin(phi), math.Cos(phi), math.Tan(phi)
	N := semiMajorM / math.Sqrt(1-tm.e2*sin*sin)
	T := tan * tan
	C := tm.ep2 * cos * cos
	A := cos * (lambda - tm.lon0)
	M := tm.meridianArc(phi)

	A2 := A * A
	x := tm.k0*N*(A+(1-T+C)*A2*A/6+(5-18*T+T*T+72*C-58*tm.ep2)*A2*A2*A/120) + tm.falseEasting
	y := tm.k0*(M+N*tan*(A2/2+(5-T+9*C+4*C*C)*A2*A2/24+(61-58*T+T*T+600*C-330*tm.ep2)*A2*A2*A2/720)) + tm.falseNorthing
	return orb.Point{x, y}
}

func (tm *transverseMercator) toWGS84(p orb.Point) orb.Point {
	M := (p[1] - tm.falseNorthing) / tm.k0
	mu := M / (semiMajorM * tm.m1)

	e1 := tm.e1
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sin, cos, tan := math.Sin(phi1), math.Cos(phi1), math.Tan(phi1)
	C1 := tm.ep2 * cos * cos
	T1 := tan * tan
	N1 := semiMajorM / math.Sqrt(1-tm.e2*sin*sin)
	R1 := semiMajorM * (1 - tm.e2) / math.Pow(1-tm.e2*sin*sin, 1.5)
	D := (p[0] - tm.falseEasting) / (N1 * tm.k0)
	D2 := D * D

	phi := phi1 - (N1*tan/R1)*(D2/2-
		(5+3*T1+10*C1-4*C1*C1-9*tm.ep2)*D2*D2/24+
		(61+90*T1+298*C1+45*T1*T1-252*tm.ep2-3*C1*C1)*D2*D2*D2/720)
	lambda := tm.lon0 + (D-(1+2*T1+C1)*D2*D/6+
		(5-2*C1+28*T1-3*C1*C1+8*tm.ep2+24*T1*T1)*D2*D2*D/120)/cos

	return orb.Point{lambda * 180 / math.Pi, phi * 180 / math.Pi}
}
