package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	fontsOnce   sync.Once
	regularFont *opentype.Font
	boldFont    *opentype.Font
	fontsErr    error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		if regularFont, fontsErr = opentype.Parse(goregular.TTF); fontsErr != nil {
			fontsErr = fmt.Errorf("parse regular font: %w", fontsErr)
			return
		}
		if boldFont, fontsErr = opentype.Parse(gobold.TTF); fontsErr != nil {
			fontsErr = fmt.Errorf("parse bold font: %w", fontsErr)
		}
	})
	return fontsErr
}

func fontBytes(bold bool) []byte {
	if bold {
		return gobold.TTF
	}
	return goregular.TTF
}

type faceKey struct {
	size float64
	bold bool
}

// faceCache hands out font faces for one output resolution.
type faceCache struct {
	dpi float64

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

func newFaceCache(dpi float64) *faceCache {
	return &faceCache{dpi: dpi, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(size float64, bold bool) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	key := faceKey{size: size, bold: bold}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	src := regularFont
	if bold {
		src = boldFont
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     c.dpi,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %.1fpt: %w", size, err)
	}
	c.faces[key] = f
	return f, nil
}

// pointFaces measure text in points (72 dpi).
var pointFaces = newFaceCache(72)

// textMetrics is the extent of a run of text in points; descent is positive.
type textMetrics struct {
	width, ascent, descent float64
}

func measureText(s string, size float64, bold bool) (textMetrics, error) {
	f, err := pointFaces.face(size, bold)
	if err != nil {
		return textMetrics{}, err
	}
	m := f.Metrics()
	return textMetrics{
		width:   float64(font.MeasureString(f, s)) / 64,
		ascent:  float64(m.Ascent) / 64,
		descent: float64(m.Descent) / 64,
	}, nil
}
