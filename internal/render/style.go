package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// LabelStyle describes how feature names are written.
type LabelStyle struct {
	Size  float64 // points
	Bold  bool
	Color color.NRGBA

	// Box draws a rounded background behind the text when BoxColor is not
	// fully transparent.
	BoxColor color.NRGBA
}

// Style gathers every visual constant of the map.
type Style struct {
	Title     string
	TitleSize float64

	// FigureSize is the edge of the square page the map is fitted into,
	// in inches, before the blank margins are cropped.
	FigureSize float64

	SubDistrictFill      color.NRGBA
	SubDistrictEdge      color.NRGBA
	SubDistrictEdgeWidth float64

	DistrictEdge      color.NRGBA
	DistrictEdgeWidth float64

	DistrictLabel    LabelStyle
	SubDistrictLabel LabelStyle

	ScaleBarFontSize float64
}

// ParseHex reads "#rrggbb" or "#rrggbbaa".
func ParseHex(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// WithAlpha replaces the opacity of c; alpha is clamped to [0, 1].
func WithAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	switch {
	case alpha < 0:
		alpha = 0
	case alpha > 1:
		alpha = 1
	}
	c.A = uint8(alpha*255 + 0.5)
	return c
}
