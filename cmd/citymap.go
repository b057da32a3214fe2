package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"citymap/internal/config"
	"citymap/internal/database"
	"citymap/internal/layers"
	"citymap/internal/projection"
	"citymap/internal/render"
	"citymap/internal/types"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// loadConfig reads the configuration file and applies the flags on top.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.districts != "" {
		cfg.Districts.Source = opts.districts
	}
	if opts.subDistricts != "" {
		cfg.SubDistricts.Source = opts.subDistricts
	}
	if opts.sourceCRS != "" {
		cfg.SourceCRS = opts.sourceCRS
	}
	if opts.targetCRS != "" {
		cfg.TargetCRS = opts.targetCRS
	}
	if opts.out != "" {
		cfg.Output.Base = opts.out
	}
	if f := cmd.Flags().Lookup("show"); f != nil && f.Changed {
		cfg.Show = opts.show
	}
	if opts.noShow {
		cfg.Show = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openTables connects to Oracle only when a source asks for it. The
// returned close func is never nil.
func openTables(ctx context.Context, cfg *config.Config, base string, log *zap.Logger) (layers.TableLoader, func(), error) {
	if !cfg.UsesDatabase() {
		return nil, func() {}, nil
	}
	envFile := cfg.EnvFile
	if envFile != "" && !filepath.IsAbs(envFile) {
		envFile = filepath.Join(base, envFile)
	}
	dbCfg := database.LoadDatabaseConfig(envFile)
	if !dbCfg.Configured() {
		return nil, nil, fmt.Errorf("oracle source requested but DB_HOST/DB_USERNAME are not set (env file %s)", envFile)
	}
	db, err := database.NewDatabase(ctx, dbCfg, log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Warn("closing database", zap.Error(err))
		}
	}, nil
}

// loadLayers opens both collections and picks their label columns. The
// column lists are printed first so a wrong guess is easy to spot.
func loadLayers(ctx context.Context, cmd *cobra.Command, cfg *config.Config, base string, log *zap.Logger) (*types.Layer, *types.Layer, error) {
	tables, closeTables, err := openTables(ctx, cfg, base, log)
	if err != nil {
		return nil, nil, err
	}
	defer closeTables()

	lopts := layers.Options{SourceCRS: cfg.SourceCRS, Tables: tables, Logger: log}
	districts, err := layers.Open(ctx, config.SourcePath(base, cfg.Districts.Source), lopts)
	if err != nil {
		return nil, nil, err
	}
	subDistricts, err := layers.Open(ctx, config.SourcePath(base, cfg.SubDistricts.Source), lopts)
	if err != nil {
		return nil, nil, err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "District columns: %v\n", withGeometry(districts.Columns))
	fmt.Fprintf(out, "Sub-district columns: %v\n", withGeometry(subDistricts.Columns))

	districtField := layers.SelectNameField(districts, cfg.Districts.Keywords, cfg.Districts.Fallback)
	subField := layers.SelectNameField(subDistricts, cfg.SubDistricts.Keywords, cfg.SubDistricts.Fallback)
	log.Info("name fields selected",
		zap.String("districts", districtField),
		zap.String("subdistricts", subField),
	)
	return districts, subDistricts, nil
}

// withGeometry lists the attribute columns followed by the geometry column.
func withGeometry(columns []string) []string {
	return append(slices.Clone(columns), "geometry")
}

func runMap(ctx context.Context, cmd *cobra.Command, opts *options, log *zap.Logger) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	base, err := cfg.ResolveBaseDir(opts.dir)
	if err != nil {
		return err
	}
	log.Debug("base directory", zap.String("dir", base))

	districts, subDistricts, err := loadLayers(ctx, cmd, cfg, base, log)
	if err != nil {
		return err
	}

	target, err := projection.Parse(cfg.TargetCRS)
	if err != nil {
		return err
	}
	for _, l := range []*types.Layer{districts, subDistricts} {
		if err := layers.Reproject(l, target); err != nil {
			return err
		}
	}

	style, err := cfg.RenderStyle()
	if err != nil {
		return err
	}
	fig, err := render.Build(districts, subDistricts, style)
	if err != nil {
		return fmt.Errorf("build figure: %w", err)
	}
	log.Debug("figure laid out",
		zap.Float64("width_pt", fig.Width),
		zap.Float64("height_pt", fig.Height),
		zap.Float64("view_width_m", fig.View.Max[0]-fig.View.Min[0]),
	)

	pngPath, pdfPath := cfg.OutputPaths(base)
	if err := render.SavePNG(fig, pngPath, cfg.Output.DPI); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	if err := render.SavePDF(fig, pdfPath); err != nil {
		return fmt.Errorf("save pdf: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved: %s and %s\n", pngPath, pdfPath)

	if cfg.Show {
		if err := showPreview(pngPath, log); err != nil {
			log.Warn("preview failed", zap.Error(err))
		}
	}
	return nil
}
