package render

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"citymap/internal/layers"
	"citymap/internal/projection"
	"citymap/internal/types"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) orb.MultiPolygon {
	return orb.MultiPolygon{{{{x, y}, {x + size, y}, {x + size, y + size}, {x, y + size}, {x, y}}}}
}

// sampleLayers returns two districts split into four sub-districts, in
// metres.
func sampleLayers(t *testing.T) (*types.Layer, *types.Layer) {
	t.Helper()
	districts := &types.Layer{
		Name:    "stadtbezirke",
		Columns: []string{"BEZ_NAME"},
		CRS:     "EPSG:25832",
		Features: []types.Feature{
			{Geometry: orb.MultiPolygon{{{{360000, 5700000}, {364000, 5700000}, {364000, 5704000}, {360000, 5704000}, {360000, 5700000}}}}, Attrs: map[string]string{"BEZ_NAME": "Stadtbezirk I"}},
			{Geometry: orb.MultiPolygon{{{{364000, 5700000}, {368000, 5700000}, {368000, 5704000}, {364000, 5704000}, {364000, 5700000}}}}, Attrs: map[string]string{"BEZ_NAME": "Stadtbezirk II"}},
		},
	}
	subs := &types.Layer{Name: "stadtteile", Columns: []string{"id"}, CRS: "EPSG:25832"}
	for i := 0; i < 4; i++ {
		subs.Features = append(subs.Features, types.Feature{
			Geometry: square(360000+float64(i)*2000, 5701000, 2000),
			Attrs:    map[string]string{"id": "x"},
			Index:    i,
		})
	}
	layers.SelectNameField(districts, []string{"name", "bezirk"}, "__bname")
	layers.SelectNameField(subs, []string{"name", "stadtteil"}, "__tname")
	require.NoError(t, layers.Reproject(districts, projection.WebMercator))
	require.NoError(t, layers.Reproject(subs, projection.WebMercator))
	return districts, subs
}

func testStyle() Style {
	black := color.NRGBA{A: 0xff}
	return Style{
		Title:                "Stadtbezirke und Stadtteile",
		TitleSize:            14,
		FigureSize:           12,
		SubDistrictFill:      color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x99},
		SubDistrictEdge:      color.NRGBA{R: 0x44, G: 0x44, B: 0x44, A: 0x99},
		SubDistrictEdgeWidth: 0.4,
		DistrictEdge:         black,
		DistrictEdgeWidth:    1.4,
		DistrictLabel:        LabelStyle{Size: 10, Bold: true, Color: black, BoxColor: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x99}},
		SubDistrictLabel:     LabelStyle{Size: 6, Color: black},
		ScaleBarFontSize:     9,
	}
}

type call struct {
	op   string
	text string
}

type recordingCanvas struct {
	calls []call
}

func (r *recordingCanvas) FillPolygon(rings []orb.Ring, c color.NRGBA) {
	r.calls = append(r.calls, call{op: "fill"})
}

func (r *recordingCanvas) StrokePolygon(rings []orb.Ring, c color.NRGBA, width float64) {
	r.calls = append(r.calls, call{op: "stroke"})
}

func (r *recordingCanvas) Text(x, y float64, s string, size float64, bold bool, c color.NRGBA) {
	r.calls = append(r.calls, call{op: "text", text: s})
}

func TestBuild_DrawOrder(t *testing.T) {
	districts, subs := sampleLayers(t)

	fig, err := Build(districts, subs, testStyle())
	require.NoError(t, err)

	var kinds []string
	for _, a := range fig.Artists() {
		kinds = append(kinds, a.Kind())
	}
	assert.Equal(t, []string{
		"title",
		"sub-district fills",
		"district outlines",
		"district labels",
		"sub-district labels",
		"scale bar",
	}, kinds)

	rec := &recordingCanvas{}
	require.NoError(t, fig.Draw(rec))

	var texts []string
	for _, c := range rec.calls {
		if c.op == "text" {
			texts = append(texts, c.text)
		}
	}
	require.Len(t, texts, 1+2+4+1)
	assert.Equal(t, []string{"Stadtbezirk I", "Stadtbezirk II", "0", "1", "2", "3"}, texts[1:7])
	assert.Equal(t, ScaleLabel(NiceScaleLength(fig.View.Max[0]-fig.View.Min[0])), texts[7])
}

func TestBuild_Layout(t *testing.T) {
	districts, subs := sampleLayers(t)
	fig, err := Build(districts, subs, testStyle())
	require.NoError(t, err)

	assert.LessOrEqual(t, fig.Width, 12*pointsPerInch)
	assert.LessOrEqual(t, fig.Height, 12*pointsPerInch)

	// Equal aspect: the page box has the view's proportions.
	viewRatio := (fig.View.Max[0] - fig.View.Min[0]) / (fig.View.Max[1] - fig.View.Min[1])
	boxRatio := (fig.MapBox.Max[0] - fig.MapBox.Min[0]) / (fig.MapBox.Max[1] - fig.MapBox.Min[1])
	assert.InDelta(t, viewRatio, boxRatio, 1e-9)

	// The view keeps a margin around the data.
	data, err := layers.Bounds(districts, subs)
	require.NoError(t, err)
	assert.Less(t, fig.View.Min[0], data.Min[0])
	assert.Greater(t, fig.View.Max[1], data.Max[1])

	corner := fig.toPage(fig.View.Min)
	assert.InDelta(t, fig.MapBox.Min[0], corner[0], 1e-9)
	assert.InDelta(t, fig.MapBox.Max[1], corner[1], 1e-9)
}

func TestBuild_Errors(t *testing.T) {
	districts, subs := sampleLayers(t)

	subs.CRS = "EPSG:4326"
	_, err := Build(districts, subs, testStyle())
	assert.Error(t, err)
	subs.CRS = districts.CRS

	subs.Features = append(subs.Features, types.Feature{Attrs: map[string]string{"__tname": "4"}})
	_, err = Build(districts, subs, testStyle())
	assert.ErrorIs(t, err, layers.ErrEmptyGeometry)

	style := testStyle()
	style.FigureSize = 0
	_, err = Build(districts, &types.Layer{CRS: districts.CRS}, style)
	assert.Error(t, err)
}

func TestSaveOutputs(t *testing.T) {
	districts, subs := sampleLayers(t)
	style := testStyle()
	style.FigureSize = 4

	fig, err := Build(districts, subs, style)
	require.NoError(t, err)

	dir := t.TempDir()
	pngPath := filepath.Join(dir, "map.png")
	pdfPath := filepath.Join(dir, "map.pdf")
	require.NoError(t, SavePNG(fig, pngPath, 100))
	require.NoError(t, SavePDF(fig, pdfPath))

	f, err := os.Open(pngPath)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.InDelta(t, fig.Width*100/72, img.Bounds().Dx(), 1)
	assert.InDelta(t, fig.Height*100/72, img.Bounds().Dy(), 1)

	// Centre of the first district's interior is drawn in the fill colour,
	// not left white.
	centre := fig.toPage(orb.Point{
		(subs.Features[0].Geometry.Bound().Min[0] + subs.Features[0].Geometry.Bound().Max[0]) / 2,
		subs.Features[0].Geometry.Bound().Max[1] - 10,
	})
	r, g, b, _ := img.At(int(centre[0]*100/72), int(centre[1]*100/72)).RGBA()
	assert.False(t, r == 0xffff && g == 0xffff && b == 0xffff, "sub-district fill missing")

	data, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	require.Greater(t, len(data), 5)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#1f77b4")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, c)

	c, err = ParseHex("ffffff99")
	require.NoError(t, err)
	assert.Equal(t, uint8(0x99), c.A)

	_, err = ParseHex("#12345")
	assert.Error(t, err)
	_, err = ParseHex("#zzzzzz")
	assert.Error(t, err)

	assert.Equal(t, uint8(153), WithAlpha(c, 0.6).A)
	assert.Equal(t, uint8(255), WithAlpha(c, 7).A)
}

func TestRoundedRect(t *testing.T) {
	r := roundedRect(0, 0, 10, 4, 1)
	b := r.Bound()
	assert.InDelta(t, 0, b.Min[0], 1e-9)
	assert.InDelta(t, 10, b.Max[0], 1e-9)
	assert.InDelta(t, 4, b.Max[1], 1e-9)
	assert.Equal(t, r[0], r[len(r)-1])
}
