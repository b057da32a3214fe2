package render

import (
	"image/color"
	"math"

	"github.com/paulmach/orb"
)

// polygonLayer fills and/or outlines one ring set per feature. A zero fill
// or edge colour skips that part.
type polygonLayer struct {
	kind  string
	rings [][]orb.Ring
	fill  color.NRGBA
	edge  color.NRGBA
	width float64
}

func (p *polygonLayer) Kind() string { return p.kind }

func (p *polygonLayer) Draw(c Canvas) error {
	for _, rings := range p.rings {
		if len(rings) == 0 {
			continue
		}
		if p.fill.A > 0 {
			c.FillPolygon(rings, p.fill)
		}
		if p.edge.A > 0 && p.width > 0 {
			c.StrokePolygon(rings, p.edge, p.width)
		}
	}
	return nil
}

type label struct {
	at      orb.Point // page position of the anchor
	text    string
	metrics textMetrics
}

// labelLayer centres each text on its anchor. There is no collision
// handling; later labels simply paint over earlier ones.
type labelLayer struct {
	kind  string
	style LabelStyle
	items []label
}

func (l *labelLayer) Kind() string { return l.kind }

func (l *labelLayer) Draw(c Canvas) error {
	pad := 0.2 * l.style.Size
	for _, it := range l.items {
		m := it.metrics
		x := it.at[0] - m.width/2
		top := it.at[1] - (m.ascent+m.descent)/2
		if l.style.BoxColor.A > 0 {
			box := roundedRect(x-pad, top-pad, m.width+2*pad, m.ascent+m.descent+2*pad, pad)
			c.FillPolygon([]orb.Ring{box}, l.style.BoxColor)
		}
		c.Text(x, top+m.ascent, it.text, l.style.Size, l.style.Bold, l.style.Color)
	}
	return nil
}

type title struct {
	text string
	size float64
	x, y float64
}

func newTitle(fig *Figure, style Style) (Artist, error) {
	t := &title{text: style.Title, size: style.TitleSize}
	if t.text == "" {
		return t, nil
	}
	m, err := measureText(t.text, t.size, false)
	if err != nil {
		return nil, err
	}
	t.x = (fig.Width - m.width) / 2
	t.y = cropPad + m.ascent
	return t, nil
}

func (t *title) Kind() string { return "title" }

func (t *title) Draw(c Canvas) error {
	if t.text != "" {
		c.Text(t.x, t.y, t.text, t.size, false, color.NRGBA{A: 0xff})
	}
	return nil
}

// scaleBar is a framed bar in the lower left corner of the map with its
// length written underneath.
type scaleBar struct {
	length float64 // map units
	text   string
	size   float64

	frame     orb.Ring
	bar       orb.Ring
	textX     float64
	baselineY float64
}

const (
	scaleBarPad       = 0.4 // of the font size, inside the frame
	scaleBarBorderPad = 0.5 // of the font size, between frame and map edge
	scaleBarSep       = 6.0 // points between bar and text
	scaleBarThickness = 1.0
)

func newScaleBar(fig *Figure, fontSize float64) (*scaleBar, error) {
	length := NiceScaleLength(fig.View.Max[0] - fig.View.Min[0])
	text := ScaleLabel(length)
	m, err := measureText(text, fontSize, false)
	if err != nil {
		return nil, err
	}

	barW := length * fig.Scale
	pad := scaleBarPad * fontSize
	contentW := math.Max(barW, m.width)
	contentH := scaleBarThickness + scaleBarSep + m.ascent + m.descent
	boxW, boxH := contentW+2*pad, contentH+2*pad

	left := fig.MapBox.Min[0] + scaleBarBorderPad*fontSize
	bottom := fig.MapBox.Max[1] - scaleBarBorderPad*fontSize
	top := bottom - boxH

	barX := left + pad + (contentW-barW)/2
	barY := top + pad
	return &scaleBar{
		length:    length,
		text:      text,
		size:      fontSize,
		frame:     rect(left, top, boxW, boxH),
		bar:       rect(barX, barY, barW, scaleBarThickness),
		textX:     left + pad + (contentW-m.width)/2,
		baselineY: barY + scaleBarThickness + scaleBarSep + m.ascent,
	}, nil
}

func (s *scaleBar) Kind() string { return "scale bar" }

func (s *scaleBar) Draw(c Canvas) error {
	c.FillPolygon([]orb.Ring{s.frame}, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xcc})
	c.StrokePolygon([]orb.Ring{s.frame}, color.NRGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xcc}, 0.8)
	c.FillPolygon([]orb.Ring{s.bar}, color.NRGBA{A: 0xff})
	c.Text(s.textX, s.baselineY, s.text, s.size, false, color.NRGBA{A: 0xff})
	return nil
}

func rect(x, y, w, h float64) orb.Ring {
	return orb.Ring{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}, {x, y}}
}

// roundedRect approximates each corner with a quarter circle of eight
// segments.
func roundedRect(x, y, w, h, r float64) orb.Ring {
	r = math.Min(r, math.Min(w, h)/2)
	if r <= 0 {
		return rect(x, y, w, h)
	}
	corners := []struct{ cx, cy, start float64 }{
		{x + w - r, y + r, -math.Pi / 2},
		{x + w - r, y + h - r, 0},
		{x + r, y + h - r, math.Pi / 2},
		{x + r, y + r, math.Pi},
	}
	const steps = 8
	ring := make(orb.Ring, 0, 4*(steps+1)+1)
	for _, c := range corners {
		for i := 0; i <= steps; i++ {
			a := c.start + float64(i)*(math.Pi/2)/steps
			ring = append(ring, orb.Point{c.cx + r*math.Cos(a), c.cy + r*math.Sin(a)})
		}
	}
	return append(ring, ring[0])
}
