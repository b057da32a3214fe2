// Package config holds the settings of a map run and their YAML form.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"citymap/internal/layers"
	"citymap/internal/projection"
	"citymap/internal/render"

	"gopkg.in/yaml.v3"
)

// LayerConfig describes one input collection.
type LayerConfig struct {
	// Source is a .geojson/.json/.shp path (relative to the base directory)
	// or "oracle:TABLE[.COLUMN]".
	Source string `yaml:"source"`
	// Keywords are matched case-insensitively against the column names to
	// find the label column.
	Keywords []string `yaml:"keywords"`
	// Fallback names the index column added when no keyword matches.
	Fallback string `yaml:"fallback"`
}

// OutputConfig controls the written files.
type OutputConfig struct {
	// Base is the file name without extension; ".png" and ".pdf" are added.
	Base string  `yaml:"base"`
	DPI  float64 `yaml:"dpi"`
}

// PolygonStyleConfig is a fill plus outline.
type PolygonStyleConfig struct {
	Fill      string  `yaml:"fill,omitempty"`
	FillAlpha float64 `yaml:"fill_alpha,omitempty"`
	Edge      string  `yaml:"edge"`
	EdgeAlpha float64 `yaml:"edge_alpha"`
	EdgeWidth float64 `yaml:"edge_width"`
}

// LabelConfig styles feature names.
type LabelConfig struct {
	Size     float64 `yaml:"size"`
	Bold     bool    `yaml:"bold"`
	Color    string  `yaml:"color"`
	Alpha    float64 `yaml:"alpha"`
	Box      string  `yaml:"box,omitempty"`
	BoxAlpha float64 `yaml:"box_alpha,omitempty"`
}

// StyleConfig is the YAML form of render.Style.
type StyleConfig struct {
	Title            string             `yaml:"title"`
	TitleSize        float64            `yaml:"title_size"`
	FigureSize       float64            `yaml:"figure_size"`
	SubDistricts     PolygonStyleConfig `yaml:"subdistricts"`
	Districts        PolygonStyleConfig `yaml:"districts"`
	DistrictLabel    LabelConfig        `yaml:"district_label"`
	SubDistrictLabel LabelConfig        `yaml:"subdistrict_label"`
	ScaleBarFontSize float64            `yaml:"scale_bar_font_size"`
}

// Config is the complete configuration of a run.
type Config struct {
	City         string      `yaml:"city"`
	Districts    LayerConfig `yaml:"districts"`
	SubDistricts LayerConfig `yaml:"subdistricts"`

	// SourceCRS overrides the CRS declared by both sources when set.
	SourceCRS string `yaml:"source_crs,omitempty"`
	TargetCRS string `yaml:"target_crs"`

	Output OutputConfig `yaml:"output"`
	Style  StyleConfig  `yaml:"style"`

	// Show opens the terminal preview after saving.
	Show bool `yaml:"show"`
	// EnvFile holds the database credentials for oracle: sources.
	EnvFile string `yaml:"env_file"`
}

// DefaultConfig returns the Essen district map settings.
func DefaultConfig() *Config {
	return &Config{
		City: "Essen",
		Districts: LayerConfig{
			Source:   "stadtbezirke.geojson",
			Keywords: []string{"name", "bezirk"},
			Fallback: "__bname",
		},
		SubDistricts: LayerConfig{
			Source:   "stadtteile.geojson",
			Keywords: []string{"name", "stadtteil"},
			Fallback: "__tname",
		},
		TargetCRS: projection.WebMercator.String(),
		Output: OutputConfig{
			Base: "essen_bezirke_stadtteile",
			DPI:  300,
		},
		Style: StyleConfig{
			Title:      "Essen: Stadtbezirke (schwarz) und Stadtteile (gefüllt) mit Namen",
			TitleSize:  14,
			FigureSize: 12,
			SubDistricts: PolygonStyleConfig{
				Fill:      "#1f77b4",
				FillAlpha: 0.6,
				Edge:      "#444444",
				EdgeAlpha: 0.6,
				EdgeWidth: 0.4,
			},
			Districts: PolygonStyleConfig{
				Edge:      "#000000",
				EdgeAlpha: 1,
				EdgeWidth: 1.4,
			},
			DistrictLabel: LabelConfig{
				Size:     10,
				Bold:     true,
				Color:    "#000000",
				Alpha:    1,
				Box:      "#ffffff",
				BoxAlpha: 0.6,
			},
			SubDistrictLabel: LabelConfig{
				Size:  6,
				Color: "#000000",
				Alpha: 0.9,
			},
			ScaleBarFontSize: 9,
		},
		Show:    true,
		EnvFile: ".env",
	}
}

// Load reads a YAML file over the defaults. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CITYMAP_SOURCE_CRS"); v != "" {
		c.SourceCRS = v
	}
	if v := os.Getenv("CITYMAP_TARGET_CRS"); v != "" {
		c.TargetCRS = v
	}
}

// Validate checks the configuration before any file is read.
func (c *Config) Validate() error {
	var errs []error

	for _, l := range []struct {
		name string
		cfg  LayerConfig
	}{{"districts", c.Districts}, {"subdistricts", c.SubDistricts}} {
		if l.cfg.Source == "" {
			errs = append(errs, fmt.Errorf("%s: source is empty", l.name))
		}
		if len(l.cfg.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("%s: no name keywords", l.name))
		}
		if l.cfg.Fallback == "" {
			errs = append(errs, fmt.Errorf("%s: fallback column is empty", l.name))
		}
	}

	if c.SourceCRS != "" {
		if _, err := projection.Parse(c.SourceCRS); err != nil {
			errs = append(errs, fmt.Errorf("source_crs: %w", err))
		}
	}
	if target, err := projection.Parse(c.TargetCRS); err != nil {
		errs = append(errs, fmt.Errorf("target_crs: %w", err))
	} else if err := projection.ValidateTarget(target); err != nil {
		errs = append(errs, fmt.Errorf("target_crs: %w", err))
	}

	if c.Output.Base == "" {
		errs = append(errs, errors.New("output.base is empty"))
	}
	if c.Output.DPI <= 0 {
		errs = append(errs, fmt.Errorf("output.dpi must be positive, got %v", c.Output.DPI))
	}
	if c.Style.FigureSize <= 0 {
		errs = append(errs, fmt.Errorf("style.figure_size must be positive, got %v", c.Style.FigureSize))
	}

	if _, err := c.RenderStyle(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RenderStyle converts the style section into a render.Style.
func (c *Config) RenderStyle() (render.Style, error) {
	s := c.Style
	out := render.Style{
		Title:                s.Title,
		TitleSize:            s.TitleSize,
		FigureSize:           s.FigureSize,
		SubDistrictEdgeWidth: s.SubDistricts.EdgeWidth,
		DistrictEdgeWidth:    s.Districts.EdgeWidth,
		ScaleBarFontSize:     s.ScaleBarFontSize,
	}

	var err error
	if out.SubDistrictFill, err = colour("style.subdistricts.fill", s.SubDistricts.Fill, s.SubDistricts.FillAlpha); err != nil {
		return render.Style{}, err
	}
	if out.SubDistrictEdge, err = colour("style.subdistricts.edge", s.SubDistricts.Edge, s.SubDistricts.EdgeAlpha); err != nil {
		return render.Style{}, err
	}
	if out.DistrictEdge, err = colour("style.districts.edge", s.Districts.Edge, s.Districts.EdgeAlpha); err != nil {
		return render.Style{}, err
	}
	if out.DistrictLabel, err = labelStyle("style.district_label", s.DistrictLabel); err != nil {
		return render.Style{}, err
	}
	if out.SubDistrictLabel, err = labelStyle("style.subdistrict_label", s.SubDistrictLabel); err != nil {
		return render.Style{}, err
	}
	return out, nil
}

func labelStyle(key string, l LabelConfig) (render.LabelStyle, error) {
	if l.Size <= 0 {
		return render.LabelStyle{}, fmt.Errorf("%s.size must be positive, got %v", key, l.Size)
	}
	text, err := colour(key+".color", l.Color, l.Alpha)
	if err != nil {
		return render.LabelStyle{}, err
	}
	box, err := colour(key+".box", l.Box, l.BoxAlpha)
	if err != nil {
		return render.LabelStyle{}, err
	}
	return render.LabelStyle{Size: l.Size, Bold: l.Bold, Color: text, BoxColor: box}, nil
}

// colour parses hex with an opacity in [0, 1]. An empty hex is "none" and
// comes back fully transparent.
func colour(key, hex string, alpha float64) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, nil
	}
	if alpha < 0 || alpha > 1 {
		return color.NRGBA{}, fmt.Errorf("%s: alpha %v outside [0, 1]", key, alpha)
	}
	c, err := render.ParseHex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%s: %w", key, err)
	}
	return render.WithAlpha(c, alpha), nil
}

// ResolveBaseDir picks the directory input files and outputs are resolved
// against: dir when given, else the executable's directory when both file
// inputs exist there, else the working directory.
func (c *Config) ResolveBaseDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("working directory: %w", err)
	}
	exe, err := os.Executable()
	if err != nil {
		return cwd, nil
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return c.pickBaseDir(filepath.Dir(exe), cwd), nil
}

func (c *Config) pickBaseDir(exeDir, cwd string) string {
	found := false
	for _, src := range []string{c.Districts.Source, c.SubDistricts.Source} {
		if isTable(src) || filepath.IsAbs(src) {
			continue
		}
		if _, err := os.Stat(filepath.Join(exeDir, src)); err != nil {
			return cwd
		}
		found = true
	}
	if !found {
		return cwd
	}
	return exeDir
}

// SourcePath resolves a layer source against base. Table sources and
// absolute paths are returned unchanged.
func SourcePath(base, source string) string {
	if isTable(source) || filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(base, source)
}

// OutputPaths returns the PNG and PDF paths for the run.
func (c *Config) OutputPaths(base string) (pngPath, pdfPath string) {
	stem := c.Output.Base
	if !filepath.IsAbs(stem) {
		stem = filepath.Join(base, stem)
	}
	return stem + ".png", stem + ".pdf"
}

// UsesDatabase reports whether any source reads from Oracle.
func (c *Config) UsesDatabase() bool {
	return isTable(c.Districts.Source) || isTable(c.SubDistricts.Source)
}

func isTable(source string) bool {
	return strings.HasPrefix(source, layers.OraclePrefix)
}
