package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newInitCmd(opts *options, logger **zap.Logger) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the --config file",
		Long: `init writes the effective configuration to the --config path so it can
be edited: the file's own settings (if any) over the defaults, with the
environment overrides and source flags applied. An existing file is left
alone unless --force is given.`,
		Example: `  citymap init
  citymap init --config bochum.yaml --districts bezirke.shp --source-crs EPSG:25832`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", opts.configPath)
			}
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if err := cfg.Save(opts.configPath); err != nil {
				return err
			}
			(*logger).Debug("configuration written", zap.String("path", opts.configPath))
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", opts.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
