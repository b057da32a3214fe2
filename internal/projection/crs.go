// Package projection converts polygon coordinates between the handful of
// coordinate reference systems that city boundary datasets ship in.
package projection

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrUnsupportedCRS = errors.New("projection: unsupported coordinate reference system")
	ErrMissingCRS     = errors.New("projection: missing coordinate reference system")
	ErrNotProjected   = errors.New("projection: target must be a projected system in metres")
)

// CRS identifies a coordinate reference system by its EPSG code.
type CRS struct {
	Code int
}

var (
	WGS84       = CRS{Code: 4326}
	WebMercator = CRS{Code: 3857}
)

func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", c.Code)
}

// IsZero reports whether the CRS is unset.
func (c CRS) IsZero() bool { return c.Code == 0 }

var (
	epsgRe      = regexp.MustCompile(`EPSG[:/](?:[0-9.]*[:/])?([0-9]+)$`)
	authorityRe = regexp.MustCompile(`(?:AUTHORITY|ID)\[\s*"EPSG"\s*,\s*"?([0-9]+)"?\s*\]`)
	utmZoneRe   = regexp.MustCompile(`UTM[_ ]ZONE[_ ]([0-9]{1,2})\s*([NS])`)
)

// Parse accepts "EPSG:25832", "urn:ogc:def:crs:EPSG::25832",
// "http://www.opengis.net/def/crs/EPSG/0/25832", the OGC CRS84 names or a
// bare code.
func Parse(s string) (CRS, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return CRS{}, ErrMissingCRS
	}
	if strings.HasSuffix(name, "CRS84") {
		return WGS84, nil
	}
	if m := epsgRe.FindStringSubmatch(name); m != nil {
		return fromCode(m[1], s)
	}
	if _, err := strconv.Atoi(name); err == nil {
		return fromCode(name, s)
	}
	return CRS{}, fmt.Errorf("%w: %q", ErrUnsupportedCRS, s)
}

func fromCode(code, orig string) (CRS, error) {
	n, err := strconv.Atoi(code)
	if err != nil || n <= 0 {
		return CRS{}, fmt.Errorf("%w: %q", ErrUnsupportedCRS, orig)
	}
	c := CRS{Code: n}
	if _, err := lookup(c); err != nil {
		return CRS{}, err
	}
	return c, nil
}

// FromPRJ identifies the CRS described by the WKT of a shapefile .prj.
// OGC WKT carries an EPSG authority; ESRI WKT only names the system, so the
// common names are matched instead.
func FromPRJ(wkt string) (CRS, error) {
	text := strings.TrimSpace(wkt)
	if text == "" {
		return CRS{}, ErrMissingCRS
	}
	if all := authorityRe.FindAllStringSubmatch(text, -1); len(all) > 0 {
		// The outermost authority comes last.
		return fromCode(all[len(all)-1][1], text)
	}

	upper := strings.ToUpper(text)
	if strings.HasPrefix(upper, "PROJCS") {
		switch {
		case strings.Contains(upper, "WEB_MERCATOR"), strings.Contains(upper, "PSEUDO-MERCATOR"),
			strings.Contains(upper, "POPULAR_VISUALISATION"):
			return WebMercator, nil
		case strings.Contains(upper, "TEXAS_NORTH_CENTRAL") && strings.Contains(upper, "FEET"):
			return CRS{Code: 2276}, nil
		}
		if m := utmZoneRe.FindStringSubmatch(upper); m != nil {
			zone, _ := strconv.Atoi(m[1])
			switch {
			case zone < 1 || zone > 60:
			case strings.Contains(upper, "ETRS") && m[2] == "N":
				return CRS{Code: 25800 + zone}, nil
			case m[2] == "N":
				return CRS{Code: 32600 + zone}, nil
			default:
				return CRS{Code: 32700 + zone}, nil
			}
		}
		return CRS{}, fmt.Errorf("%w: %.60s", ErrUnsupportedCRS, text)
	}

	if strings.HasPrefix(upper, "GEOGCS") {
		switch {
		case strings.Contains(upper, "WGS_1984"), strings.Contains(upper, "WGS 84"):
			return WGS84, nil
		case strings.Contains(upper, "ETRS_1989"), strings.Contains(upper, "ETRS89"):
			return CRS{Code: 4258}, nil
		}
	}
	return CRS{}, fmt.Errorf("%w: %.60s", ErrUnsupportedCRS, text)
}
