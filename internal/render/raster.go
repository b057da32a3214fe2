package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"github.com/paulmach/orb"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// rasterCanvas draws onto an RGBA image; page points are scaled by dpi/72.
type rasterCanvas struct {
	img   *image.RGBA
	scale float64
	faces *faceCache
	ras   *vector.Rasterizer
	err   error
}

func newRasterCanvas(widthPt, heightPt, dpi float64) *rasterCanvas {
	scale := dpi / pointsPerInch
	w := int(math.Ceil(widthPt * scale))
	h := int(math.Ceil(heightPt * scale))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return &rasterCanvas{
		img:   img,
		scale: scale,
		faces: newFaceCache(dpi),
		ras:   vector.NewRasterizer(0, 0),
	}
}

// fill rasterizes rings given in pixels. Only the rings' bounding box is
// rasterized and composited.
func (rc *rasterCanvas) fill(rings []orb.Ring, c color.NRGBA) {
	var b orb.Bound
	first := true
	for _, r := range rings {
		if len(r) == 0 {
			continue
		}
		if first {
			b, first = r.Bound(), false
			continue
		}
		b = b.Union(r.Bound())
	}
	if first {
		return
	}
	area := image.Rect(
		int(math.Floor(b.Min[0])), int(math.Floor(b.Min[1])),
		int(math.Ceil(b.Max[0]))+1, int(math.Ceil(b.Max[1]))+1,
	).Intersect(rc.img.Bounds())
	if area.Empty() {
		return
	}

	ox, oy := float64(area.Min.X), float64(area.Min.Y)
	rc.ras.Reset(area.Dx(), area.Dy())
	for _, r := range rings {
		if len(r) < 3 {
			continue
		}
		rc.ras.MoveTo(float32(r[0][0]-ox), float32(r[0][1]-oy))
		for _, p := range r[1:] {
			rc.ras.LineTo(float32(p[0]-ox), float32(p[1]-oy))
		}
		rc.ras.ClosePath()
	}
	rc.ras.Draw(rc.img, area, image.NewUniform(c), image.Point{})
}

func (rc *rasterCanvas) toPixels(rings []orb.Ring) []orb.Ring {
	out := make([]orb.Ring, len(rings))
	for i, r := range rings {
		pr := make(orb.Ring, len(r))
		for k, p := range r {
			pr[k] = orb.Point{p[0] * rc.scale, p[1] * rc.scale}
		}
		out[i] = pr
	}
	return out
}

func (rc *rasterCanvas) FillPolygon(rings []orb.Ring, c color.NRGBA) {
	rc.fill(rc.toPixels(rings), c)
}

// StrokePolygon outlines every ring. Each edge becomes a quad extended by
// half the width at both ends, which also closes the joins; all quads share
// one winding direction so overlaps do not cancel out.
func (rc *rasterCanvas) StrokePolygon(rings []orb.Ring, c color.NRGBA, width float64) {
	half := math.Max(width*rc.scale, 1) / 2
	var quads []orb.Ring
	for _, r := range rc.toPixels(rings) {
		n := len(r)
		for i := 0; i < n; i++ {
			a, b := r[i], r[(i+1)%n]
			dx, dy := b[0]-a[0], b[1]-a[1]
			l := math.Hypot(dx, dy)
			if l == 0 {
				continue
			}
			ux, uy := dx/l*half, dy/l*half // along the edge
			nx, ny := -uy, ux              // across the edge
			a0 := orb.Point{a[0] - ux, a[1] - uy}
			b0 := orb.Point{b[0] + ux, b[1] + uy}
			quads = append(quads, orb.Ring{
				{a0[0] + nx, a0[1] + ny},
				{b0[0] + nx, b0[1] + ny},
				{b0[0] - nx, b0[1] - ny},
				{a0[0] - nx, a0[1] - ny},
			})
		}
	}
	rc.fill(quads, c)
}

func (rc *rasterCanvas) Text(x, y float64, s string, size float64, bold bool, c color.NRGBA) {
	face, err := rc.faces.face(size, bold)
	if err != nil {
		if rc.err == nil {
			rc.err = err
		}
		return
	}
	d := &font.Drawer{
		Dst:  rc.img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(math.Round(x * rc.scale * 64)),
			Y: fixed.Int26_6(math.Round(y * rc.scale * 64)),
		},
	}
	d.DrawString(s)
}

// RenderImage rasterizes the figure at the given resolution.
func RenderImage(fig *Figure, dpi float64) (*image.RGBA, error) {
	if dpi <= 0 {
		return nil, fmt.Errorf("dpi must be positive, got %v", dpi)
	}
	rc := newRasterCanvas(fig.Width, fig.Height, dpi)
	if err := fig.Draw(rc); err != nil {
		return nil, err
	}
	if rc.err != nil {
		return nil, rc.err
	}
	return rc.img, nil
}

// SavePNG writes the figure as a PNG image.
func SavePNG(fig *Figure, path string, dpi float64) error {
	img, err := RenderImage(fig, dpi)
	if err != nil {
		return err
	}
	return writePNG(img, path)
}

func writePNG(img image.Image, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
