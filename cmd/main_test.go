package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDistricts = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"BEZ_NR": "I", "BEZ_NAME": "Stadtbezirk I"},
     "geometry": {"type": "Polygon", "coordinates": [[[7.00,51.40],[7.05,51.40],[7.05,51.45],[7.00,51.45],[7.00,51.40]]]}},
    {"type": "Feature", "properties": {"BEZ_NR": "II", "BEZ_NAME": "Stadtbezirk II"},
     "geometry": {"type": "Polygon", "coordinates": [[[7.05,51.40],[7.10,51.40],[7.10,51.45],[7.05,51.45],[7.05,51.40]]]}}
  ]
}`

const testSubDistricts = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"id": 10},
     "geometry": {"type": "Polygon", "coordinates": [[[7.00,51.40],[7.05,51.40],[7.05,51.45],[7.00,51.45],[7.00,51.40]]]}},
    {"type": "Feature", "properties": {"id": 11},
     "geometry": {"type": "Polygon", "coordinates": [[[7.05,51.40],[7.10,51.40],[7.10,51.45],[7.05,51.45],[7.05,51.40]]]}}
  ]
}`

// setupDir writes both inputs and a small config into a temp directory.
func setupDir(t *testing.T) string {
	t.Helper()
	t.Setenv("CITYMAP_SOURCE_CRS", "")
	t.Setenv("CITYMAP_TARGET_CRS", "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stadtbezirke.geojson"), []byte(testDistricts), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stadtteile.geojson"), []byte(testSubDistricts), 0644))
	cfg := "output:\n  dpi: 40\nstyle:\n  figure_size: 4\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "citymap.yaml"), []byte(cfg), 0644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_WritesOutputs(t *testing.T) {
	dir := setupDir(t)

	out, err := execute(t, "--dir", dir, "--config", filepath.Join(dir, "citymap.yaml"), "--no-show")
	require.NoError(t, err)

	assert.Contains(t, out, "District columns: [BEZ_NR BEZ_NAME geometry]")
	assert.Contains(t, out, "Sub-district columns: [id geometry]")

	pngPath := filepath.Join(dir, "essen_bezirke_stadtteile.png")
	pdfPath := filepath.Join(dir, "essen_bezirke_stadtteile.pdf")
	assert.Contains(t, out, "Saved: "+pngPath+" and "+pdfPath)
	for _, p := range []string{pngPath, pdfPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), p)
	}
}

func TestRootCmd_OutFlag(t *testing.T) {
	dir := setupDir(t)

	out, err := execute(t, "--dir", dir, "--config", filepath.Join(dir, "citymap.yaml"), "--no-show", "--out", "karte", "--target-crs", "EPSG:25832")
	require.NoError(t, err)
	assert.Contains(t, out, "karte.png")
	assert.FileExists(t, filepath.Join(dir, "karte.pdf"))
}

func TestRootCmd_Errors(t *testing.T) {
	dir := setupDir(t)
	cfg := filepath.Join(dir, "citymap.yaml")

	_, err := execute(t, "--dir", dir, "--config", cfg, "--no-show", "--target-crs", "EPSG:4326")
	assert.Error(t, err, "geographic target")

	_, err = execute(t, "--dir", dir, "--config", cfg, "--no-show", "--districts", "missing.geojson")
	assert.Error(t, err)

	_, err = execute(t, "--dir", dir, "--config", cfg, "--no-show", "--districts", "bezirke.csv")
	assert.Error(t, err)

	_, err = execute(t, "--dir", dir, "--config", cfg, "--no-show", "stray-arg")
	assert.Error(t, err)
}

func TestLocateCmd(t *testing.T) {
	dir := setupDir(t)
	cfg := filepath.Join(dir, "citymap.yaml")

	out, err := execute(t, "locate", "--dir", dir, "--config", cfg, "7.07", "51.42")
	require.NoError(t, err)
	assert.Contains(t, out, "District     : Stadtbezirk II")
	assert.Contains(t, out, "Sub-district : 1")

	out, err = execute(t, "locate", "--dir", dir, "--config", cfg, "6,5", "51,0")
	require.NoError(t, err)
	assert.Contains(t, out, "District     : outside")

	_, err = execute(t, "locate", "--dir", dir, "--config", cfg, "east", "51")
	assert.Error(t, err)
}

func TestLocateCmd_NegativeCoordinates(t *testing.T) {
	dir := setupDir(t)
	cfg := filepath.Join(dir, "citymap.yaml")

	_, err := execute(t, "locate", "--dir", dir, "--config", cfg, "-97.33", "32.75")
	assert.Error(t, err, "unseparated negative longitude is read as a flag")

	out, err := execute(t, "locate", "--dir", dir, "--config", cfg, "--", "-97.33", "32.75")
	require.NoError(t, err)
	assert.Contains(t, out, "District     : outside")
	assert.Contains(t, out, "Sub-district : outside")
}

func TestInitCmd(t *testing.T) {
	t.Setenv("CITYMAP_SOURCE_CRS", "")
	t.Setenv("CITYMAP_TARGET_CRS", "")
	path := filepath.Join(t.TempDir(), "conf", "bochum.yaml")

	out, err := execute(t, "init", "--config", path, "--districts", "bezirke.shp", "--source-crs", "EPSG:25832")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "source: bezirke.shp")
	assert.Contains(t, string(data), "source_crs: EPSG:25832")
	assert.Contains(t, string(data), "source: stadtteile.geojson")

	_, err = execute(t, "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	require.NoError(t, os.WriteFile(path, []byte("city: Bochum\n"), 0644))
	_, err = execute(t, "init", "--config", path, "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "city: Bochum")
	assert.Contains(t, string(data), "source: stadtbezirke.geojson")
	assert.Contains(t, string(data), "dpi: 300")
	assert.NotContains(t, string(data), "source_crs")
}

func TestParseLonLat(t *testing.T) {
	p, err := parseLonLat("7.0116", "51,4556")
	require.NoError(t, err)
	assert.InDelta(t, 7.0116, p[0], 1e-12)
	assert.InDelta(t, 51.4556, p[1], 1e-12)

	_, err = parseLonLat("200", "0")
	assert.Error(t, err)
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{3600, 3600, 80, 44, 44, 44},
		{3600, 1800, 80, 44, 80, 40},
		{40, 20, 80, 44, 40, 20},
		{1000, 1, 10, 10, 10, 1},
		{0, 10, 10, 10, 1, 1},
	}
	for _, tt := range tests {
		w, h := fitSize(tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.wantW, w, "%dx%d in %dx%d", tt.w, tt.h, tt.maxW, tt.maxH)
		assert.Equal(t, tt.wantH, h, "%dx%d in %dx%d", tt.w, tt.h, tt.maxW, tt.maxH)
	}
}

func TestWriteHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	img.Set(0, 1, color.RGBA{B: 255, A: 255})
	img.Set(1, 0, color.White)
	img.Set(1, 1, color.White)

	var buf bytes.Buffer
	writeHalfBlocks(&buf, img)
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.True(t, strings.HasPrefix(lines[0], "\033[38;2;255;0;0m\033[48;2;0;0;255m▀"))
	assert.Contains(t, lines[0], "\033[38;2;255;255;255m\033[48;2;255;255;255m▀")
	assert.Equal(t, 2, strings.Count(lines[1], "\033[49m▀"), "odd last row has no background")
	for _, l := range lines {
		assert.True(t, strings.HasSuffix(l, "\033[0m"))
	}
}
