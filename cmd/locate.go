package main

import (
	"fmt"
	"strconv"
	"strings"

	"citymap/internal/layers"
	"citymap/internal/types"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLocateCmd(opts *options, logger **zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "locate LON LAT",
		Short: "Print the district and sub-district containing a WGS84 position",
		Long: `locate prints the district and sub-district containing a WGS84 position.
Put negative coordinates after "--" so they are not read as flags.`,
		Example: `  citymap locate 7.0116 51.4556
  citymap locate --subdistricts stadtteile.shp 7.0116 51.4556
  citymap locate -- -97.33 32.75`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := parseLonLat(args[0], args[1])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			base, err := cfg.ResolveBaseDir(opts.dir)
			if err != nil {
				return err
			}
			districts, subDistricts, err := loadLayers(cmd.Context(), cmd, cfg, base, *logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, row := range []struct {
				title string
				layer *types.Layer
			}{{"District", districts}, {"Sub-district", subDistricts}} {
				i, err := layers.Locate(row.layer, pt)
				if err != nil {
					return err
				}
				if i < 0 {
					fmt.Fprintf(out, "%-13s: outside\n", row.title)
					continue
				}
				fmt.Fprintf(out, "%-13s: %s\n", row.title, row.layer.Label(i))
			}
			return nil
		},
	}
}

// parseLonLat accepts decimal degrees with either a point or a comma as the
// decimal separator.
func parseLonLat(lonStr, latStr string) (orb.Point, error) {
	parse := func(s string) (float64, error) {
		return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	}
	lon, err := parse(lonStr)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid longitude %q", lonStr)
	}
	lat, err := parse(latStr)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid latitude %q", latStr)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return orb.Point{}, fmt.Errorf("position %v, %v out of range", lon, lat)
	}
	return orb.Point{lon, lat}, nil
}
