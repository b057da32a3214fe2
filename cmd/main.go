package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// options holds the command line flags. Empty values leave the configured
// setting alone.
type options struct {
	configPath   string
	dir          string
	districts    string
	subDistricts string
	sourceCRS    string
	targetCRS    string
	out          string
	show         bool
	noShow       bool
	verbose      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	var logger *zap.Logger

	root := &cobra.Command{
		Use:   "citymap",
		Short: "Render a city's districts and sub-districts to PNG and PDF",
		Long: `citymap draws the district boundaries of a city over its filled
sub-districts, labels both, adds a scale bar and writes the map as a 300 dpi
PNG and a vector PDF.

Inputs are GeoJSON files, shapefiles or Oracle Spatial tables
("oracle:TABLE[.COLUMN]", credentials from the .env file).`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd.Context(), cmd, opts, logger)
		},
	}

	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "citymap.yaml", "YAML configuration file (defaults apply when missing)")
	f.StringVar(&opts.dir, "dir", "", "base directory for inputs and outputs")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	f.StringVar(&opts.districts, "districts", "", "district source (file or oracle:TABLE[.COLUMN])")
	f.StringVar(&opts.subDistricts, "subdistricts", "", "sub-district source (file or oracle:TABLE[.COLUMN])")
	f.StringVar(&opts.sourceCRS, "source-crs", "", "CRS assumed for both sources, e.g. EPSG:25832")

	rf := root.Flags()
	rf.StringVar(&opts.targetCRS, "target-crs", "", "metre-based CRS the map is drawn in")
	rf.StringVarP(&opts.out, "out", "o", "", "output path without extension, relative to the base directory")
	rf.BoolVar(&opts.show, "show", true, "preview the map in the terminal after saving")
	rf.BoolVar(&opts.noShow, "no-show", false, "skip the terminal preview")

	root.AddCommand(newLocateCmd(opts, &logger), newInitCmd(opts, &logger))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
