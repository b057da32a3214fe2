package render

import (
	"fmt"
	"image/color"
	"math"

	"citymap/internal/layers"
	"citymap/internal/types"

	"github.com/paulmach/orb"
)

const (
	pointsPerInch = 72.0
	// Blank border kept around the content after cropping.
	cropPad = 0.1 * pointsPerInch
	// Fraction of the data extent added on every side of the view.
	viewMargin = 0.05
	titleGap   = 6.0
)

// Canvas is a drawing surface measured in points with the origin at the top
// left. Rings are closed implicitly.
type Canvas interface {
	FillPolygon(rings []orb.Ring, c color.NRGBA)
	StrokePolygon(rings []orb.Ring, c color.NRGBA, width float64)
	Text(x, y float64, s string, size float64, bold bool, c color.NRGBA) // x, y: start of baseline
}

// Artist is one layer of the figure.
type Artist interface {
	Kind() string
	Draw(c Canvas) error
}

// Figure is the composed map page: size in points and artists back to front.
type Figure struct {
	Width, Height float64

	// MapBox is the page area the view is drawn into.
	MapBox orb.Bound
	// View is the map-unit window shown in MapBox.
	View orb.Bound
	// Scale is points per map unit.
	Scale float64

	artists []Artist
}

// Artists returns the artists in drawing order.
func (f *Figure) Artists() []Artist { return f.artists }

func (f *Figure) add(a Artist) { f.artists = append(f.artists, a) }

// Draw renders every artist onto c in order.
func (f *Figure) Draw(c Canvas) error {
	for _, a := range f.artists {
		if err := a.Draw(c); err != nil {
			return fmt.Errorf("draw %s: %w", a.Kind(), err)
		}
	}
	return nil
}

// toPage maps a projected coordinate onto the page.
func (f *Figure) toPage(p orb.Point) orb.Point {
	return orb.Point{
		f.MapBox.Min[0] + (p[0]-f.View.Min[0])*f.Scale,
		f.MapBox.Min[1] + (f.View.Max[1]-p[1])*f.Scale,
	}
}

// Build lays out the map of districts over sub-districts. Both layers must
// already share a projected CRS and have their name fields selected.
//
// Artists are stacked back to front: sub-district fills, district outlines,
// district labels, sub-district labels, scale bar. The title sits above the
// map box and never overlaps them.
func Build(districts, subDistricts *types.Layer, style Style) (*Figure, error) {
	if districts.CRS != subDistricts.CRS {
		return nil, fmt.Errorf("layers are in different systems: %s and %s", districts.CRS, subDistricts.CRS)
	}
	data, err := layers.Bounds(districts, subDistricts)
	if err != nil {
		return nil, err
	}

	fig, err := layout(data, style)
	if err != nil {
		return nil, err
	}

	titleArtist, err := newTitle(fig, style)
	if err != nil {
		return nil, err
	}
	fig.add(titleArtist)

	fig.add(&polygonLayer{
		kind:  "sub-district fills",
		rings: fig.pageRings(subDistricts),
		fill:  style.SubDistrictFill,
		edge:  style.SubDistrictEdge,
		width: style.SubDistrictEdgeWidth,
	})
	fig.add(&polygonLayer{
		kind:  "district outlines",
		rings: fig.pageRings(districts),
		edge:  style.DistrictEdge,
		width: style.DistrictEdgeWidth,
	})

	districtLabels, err := fig.labels("district labels", districts, style.DistrictLabel)
	if err != nil {
		return nil, err
	}
	fig.add(districtLabels)

	subLabels, err := fig.labels("sub-district labels", subDistricts, style.SubDistrictLabel)
	if err != nil {
		return nil, err
	}
	fig.add(subLabels)

	bar, err := newScaleBar(fig, style.ScaleBarFontSize)
	if err != nil {
		return nil, err
	}
	fig.add(bar)
	return fig, nil
}

// layout fits the padded data bound into the square page at equal aspect
// and crops the page to the content.
func layout(data orb.Bound, style Style) (*Figure, error) {
	if style.FigureSize <= 0 {
		return nil, fmt.Errorf("figure size must be positive, got %v", style.FigureSize)
	}

	dx, dy := data.Max[0]-data.Min[0], data.Max[1]-data.Min[1]
	if dx <= 0 && dy <= 0 {
		dx, dy = 1, 1
	} else if dx <= 0 {
		dx = dy
	} else if dy <= 0 {
		dy = dx
	}
	cx, cy := (data.Min[0]+data.Max[0])/2, (data.Min[1]+data.Max[1])/2
	vw, vh := dx*(1+2*viewMargin), dy*(1+2*viewMargin)
	view := orb.Bound{
		Min: orb.Point{cx - vw/2, cy - vh/2},
		Max: orb.Point{cx + vw/2, cy + vh/2},
	}

	page := style.FigureSize * pointsPerInch
	titleHeight := 0.0
	titleWidth := 0.0
	if style.Title != "" {
		m, err := measureText(style.Title, style.TitleSize, false)
		if err != nil {
			return nil, err
		}
		titleHeight = m.ascent + m.descent + titleGap
		titleWidth = m.width
	}

	availW := page - 2*cropPad
	availH := page - 2*cropPad - titleHeight
	if availW <= 0 || availH <= 0 {
		return nil, fmt.Errorf("figure size %vin leaves no room for the map", style.FigureSize)
	}
	scale := math.Min(availW/vw, availH/vh)
	mapW, mapH := vw*scale, vh*scale

	contentW := math.Max(mapW, math.Min(titleWidth, availW))
	left := cropPad + (contentW-mapW)/2
	top := cropPad + titleHeight

	return &Figure{
		Width:  contentW + 2*cropPad,
		Height: top + mapH + cropPad,
		MapBox: orb.Bound{Min: orb.Point{left, top}, Max: orb.Point{left + mapW, top + mapH}},
		View:   view,
		Scale:  scale,
	}, nil
}

// pageRings converts every feature's rings to page coordinates, outer rings
// counter clockwise and holes clockwise in map space so both fill rules
// agree.
func (f *Figure) pageRings(l *types.Layer) [][]orb.Ring {
	out := make([][]orb.Ring, 0, len(l.Features))
	for _, feat := range l.Features {
		var rings []orb.Ring
		for _, poly := range feat.Geometry {
			for i, ring := range poly {
				if len(ring) < 3 {
					continue
				}
				r := ring.Clone()
				wantCCW := i == 0
				if (r.Orientation() == orb.CCW) != wantCCW {
					r.Reverse()
				}
				for k := range r {
					r[k] = f.toPage(r[k])
				}
				rings = append(rings, r)
			}
		}
		out = append(out, rings)
	}
	return out
}

func (f *Figure) labels(kind string, l *types.Layer, style LabelStyle) (*labelLayer, error) {
	ll := &labelLayer{kind: kind, style: style}
	for i, feat := range l.Features {
		anchor, err := layers.RepresentativePoint(feat.Geometry)
		if err != nil {
			return nil, fmt.Errorf("%s feature %d: %w", l.Name, i, err)
		}
		text := l.Label(i)
		m, err := measureText(text, style.Size, style.Bold)
		if err != nil {
			return nil, err
		}
		ll.items = append(ll.items, label{at: f.toPage(anchor), text: text, metrics: m})
	}
	return ll, nil
}
