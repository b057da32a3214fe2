package layers

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"citymap/internal/projection"
	"citymap/internal/types"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// LoadShapefile reads the polygons and DBF attribute table of an ESRI
// shapefile. The CRS comes from the sibling .prj file.
func LoadShapefile(path string, log *zap.Logger) (*types.Layer, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	crs, err := shapefileCRS(path)
	if err != nil {
		return nil, err
	}

	fields := r.Fields()
	layer := &types.Layer{Name: layerName(path), CRS: crs.String()}
	for _, f := range fields {
		layer.Columns = append(layer.Columns, f.String())
	}

	for r.Next() {
		idx, shape := r.Shape()

		var geom orb.MultiPolygon
		switch s := shape.(type) {
		case *shp.Polygon:
			geom = ringsToMultiPolygon(s.Parts, s.Points)
		case *shp.PolygonZ:
			geom = ringsToMultiPolygon(s.Parts, s.Points)
		case *shp.PolygonM:
			geom = ringsToMultiPolygon(s.Parts, s.Points)
		case *shp.Null:
		default:
			log.Warn("skipping non-polygon shape", zap.String("layer", layer.Name), zap.Int("shape", idx))
			continue
		}

		attrs := make(map[string]string, len(fields))
		for i, f := range fields {
			attrs[f.String()] = decodeDBFText(strings.TrimSpace(r.ReadAttribute(idx, i)))
		}
		layer.Features = append(layer.Features, types.Feature{Geometry: geom, Attrs: attrs, Index: idx})
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return layer, nil
}

func shapefileCRS(path string) (projection.CRS, error) {
	prj := strings.TrimSuffix(path, ".shp") + ".prj"
	if strings.HasSuffix(path, ".SHP") {
		prj = strings.TrimSuffix(path, ".SHP") + ".PRJ"
	}
	data, err := os.ReadFile(prj)
	if errors.Is(err, os.ErrNotExist) {
		// Without a .prj the CRS is unknown; an explicit source CRS must
		// be supplied before reprojection.
		return projection.CRS{}, nil
	}
	if err != nil {
		return projection.CRS{}, err
	}
	c, err := projection.FromPRJ(string(data))
	if err != nil {
		return projection.CRS{}, fmt.Errorf("%s: %w", prj, err)
	}
	return c, nil
}

// ringsToMultiPolygon splits the flat point list into parts and groups them
// into polygons. Shapefile outer rings run clockwise and holes counter
// clockwise; each hole joins the outer ring that contains it.
func ringsToMultiPolygon(parts []int32, points []shp.Point) orb.MultiPolygon {
	var mp orb.MultiPolygon
	numParts := len(parts)
	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := parts[partIdx]
		end := int32(len(points))
		if partIdx+1 < numParts {
			end = parts[partIdx+1]
		}
		ring := make(orb.Ring, 0, int(end-start))
		for i := start; i < end; i++ {
			ring = append(ring, orb.Point{points[i].X, points[i].Y})
		}
		if len(ring) < 3 {
			continue
		}

		if ring.Orientation() == orb.CCW && len(mp) > 0 {
			owner := len(mp) - 1
			for j := range mp {
				if planar.RingContains(mp[j][0], ring[0]) {
					owner = j
					break
				}
			}
			mp[owner] = append(mp[owner], ring)
			continue
		}
		mp = append(mp, orb.Polygon{ring})
	}
	return mp
}

// dbfCodePages are tried in order for DBF text that is not UTF-8. Windows-1252
// is the usual code page of German and other western European exports.
var dbfCodePages = []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1}

// decodeDBFText returns s unchanged when it is valid UTF-8 and otherwise
// decodes it with the first code page that accepts it.
func decodeDBFText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	for _, cp := range dbfCodePages {
		if out, err := cp.NewDecoder().String(s); err == nil {
			return out
		}
	}
	return s
}
