package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/beatvideo/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a configuration file with the defaults",
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg := config.Defaults()
			if err := cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "beatvideo.yaml", "Destination path")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), keyValueTable([][]string{
				{"Resolution", fmt.Sprintf("%dx%d @ %d fps", cfg.Render.Width, cfg.Render.Height, cfg.Render.FPS)},
				{"Workers", fmt.Sprint(cfg.WorkerCount())},
				{"Encoder", fmt.Sprintf("%s (%s, q=%d)", cfg.Encoder.Codec, cfg.Encoder.Preset, cfg.Encoder.Quality)},
				{"Output", cfg.Output.Dir},
				{"Store", cfg.Store.Driver},
			}))
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}

	cmd.AddCommand(initCmd, validateCmd)
	return cmd
}
