// Package layers loads the boundary collections drawn on the map and
// prepares them for rendering: name field selection, reprojection and label
// anchors.
package layers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"citymap/internal/projection"
	"citymap/internal/types"

	"go.uber.org/zap"
)

var (
	ErrUnsupportedSource = errors.New("layers: unsupported source")
	ErrNoFeatures        = errors.New("layers: source has no features")
	ErrEmptyGeometry     = errors.New("layers: empty geometry")
)

// OraclePrefix marks a source that is read from an Oracle Spatial table,
// e.g. "oracle:STADTTEILE" or "oracle:STADTTEILE.GEOM".
const OraclePrefix = "oracle:"

// TableLoader reads a layer from a spatial database table.
type TableLoader interface {
	LoadLayer(ctx context.Context, table, geomColumn string) (*types.Layer, error)
}

// Options controls how a source is opened.
type Options struct {
	// SourceCRS, when set, replaces whatever CRS the source declares.
	SourceCRS string
	// Tables serves "oracle:" sources. Nil disables them.
	Tables TableLoader
	Logger *zap.Logger
}

// Open loads the layer at source. The layer name defaults to the file's base
// name without extension.
func Open(ctx context.Context, source string, opts Options) (*types.Layer, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var (
		layer *types.Layer
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(source)); {
	case strings.HasPrefix(source, OraclePrefix):
		layer, err = openTable(ctx, strings.TrimPrefix(source, OraclePrefix), opts.Tables)
	case ext == ".geojson", ext == ".json":
		layer, err = LoadGeoJSON(source, log)
	case ext == ".shp":
		layer, err = LoadShapefile(source, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, source)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", source, err)
	}
	if len(layer.Features) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFeatures, source)
	}

	if opts.SourceCRS != "" {
		c, err := projection.Parse(opts.SourceCRS)
		if err != nil {
			return nil, fmt.Errorf("source crs override: %w", err)
		}
		layer.CRS = c.String()
	}

	log.Debug("layer loaded",
		zap.String("source", source),
		zap.String("layer", layer.Name),
		zap.Int("features", len(layer.Features)),
		zap.String("crs", layer.CRS),
	)
	return layer, nil
}

func openTable(ctx context.Context, ref string, tables TableLoader) (*types.Layer, error) {
	if tables == nil {
		return nil, fmt.Errorf("%w: no database configured for %s%s", ErrUnsupportedSource, OraclePrefix, ref)
	}
	table, column, _ := strings.Cut(ref, ".")
	if column == "" {
		column = "GEOM"
	}
	return tables.LoadLayer(ctx, table, column)
}

func layerName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
