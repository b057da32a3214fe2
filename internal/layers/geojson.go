package layers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"citymap/internal/projection"
	"citymap/internal/types"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

type rawCollection struct {
	Type     string          `json:"type"`
	CRS      *namedCRS       `json:"crs"`
	Features []rawFeature    `json:"features"`
	Geometry json.RawMessage `json:"geometry"`
	Props    json.RawMessage `json:"properties"`
}

// namedCRS is the pre-RFC 7946 "crs" member still written by many GIS
// exports, e.g. {"type":"name","properties":{"name":"urn:ogc:def:crs:EPSG::25832"}}.
type namedCRS struct {
	Type       string `json:"type"`
	Properties struct {
		Name string `json:"name"`
		Code int    `json:"code"`
	} `json:"properties"`
}

type rawFeature struct {
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

// LoadGeoJSON reads a FeatureCollection (or a single Feature). Columns keep
// the order in which property names first appear in the document.
func LoadGeoJSON(path string, log *zap.Logger) (*types.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeGeoJSON(data, layerName(path), log)
}

func decodeGeoJSON(data []byte, name string, log *zap.Logger) (*types.Layer, error) {
	var fc rawCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	switch strings.ToLower(fc.Type) {
	case "featurecollection":
	case "feature":
		fc.Features = []rawFeature{{Geometry: fc.Geometry, Properties: fc.Props}}
	default:
		return nil, fmt.Errorf("parse geojson: unexpected type %q", fc.Type)
	}

	crs, err := collectionCRS(fc.CRS)
	if err != nil {
		return nil, err
	}

	layer := &types.Layer{Name: name, CRS: crs.String()}
	seen := make(map[string]bool)
	for i, rf := range fc.Features {
		geom, ok, err := decodeAreal(rf.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		if !ok {
			log.Warn("skipping non-areal feature", zap.String("layer", name), zap.Int("feature", i))
			continue
		}

		keys, err := propertyKeys(rf.Properties)
		if err != nil {
			return nil, fmt.Errorf("feature %d properties: %w", i, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				layer.Columns = append(layer.Columns, k)
			}
		}
		attrs, err := propertyValues(rf.Properties)
		if err != nil {
			return nil, fmt.Errorf("feature %d properties: %w", i, err)
		}
		layer.Features = append(layer.Features, types.Feature{Geometry: geom, Attrs: attrs, Index: i})
	}
	return layer, nil
}

func collectionCRS(c *namedCRS) (projection.CRS, error) {
	if c == nil {
		return projection.WGS84, nil
	}
	if c.Properties.Name != "" {
		return projection.Parse(c.Properties.Name)
	}
	if c.Properties.Code != 0 {
		return projection.Parse(fmt.Sprint(c.Properties.Code))
	}
	return projection.WGS84, nil
}

// decodeAreal returns the polygonal part of a GeoJSON geometry. A null
// geometry yields an empty multipolygon; ok is false for points and lines.
func decodeAreal(raw json.RawMessage) (orb.MultiPolygon, bool, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, false, err
	}
	return toMultiPolygon(g.Geometry())
}

func toMultiPolygon(g orb.Geometry) (orb.MultiPolygon, bool, error) {
	switch g := g.(type) {
	case nil:
		return nil, true, nil
	case orb.Polygon:
		return orb.MultiPolygon{g}, true, nil
	case orb.MultiPolygon:
		return g, true, nil
	case orb.Collection:
		var mp orb.MultiPolygon
		for _, sub := range g {
			part, ok, err := toMultiPolygon(sub)
			if err != nil {
				return nil, false, err
			}
			if ok {
				mp = append(mp, part...)
			}
		}
		return mp, len(mp) > 0, nil
	default:
		return nil, false, nil
	}
}

// propertyKeys lists the keys of a JSON object in document order.
func propertyKeys(raw json.RawMessage) ([]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("properties is not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func propertyValues(raw json.RawMessage) (map[string]string, error) {
	attrs := make(map[string]string)
	if len(bytes.TrimSpace(raw)) == 0 {
		return attrs, nil
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	for k, v := range values {
		attrs[k] = jsonText(v)
	}
	return attrs, nil
}

// jsonText renders a property value as label text: strings unquoted,
// numbers as written, null as the empty string.
func jsonText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	switch {
	case len(v) == 0, bytes.Equal(v, []byte("null")):
		return ""
	case v[0] == '"':
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return string(v)
}
