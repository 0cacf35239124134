package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lydakis/blackfast/internal/config"
	"github.com/lydakis/blackfast/internal/formatter"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the daemon configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.paths()
			if err != nil {
				return err
			}
			if p.ConfigFile == "" {
				return fmt.Errorf("no config path: home directory unavailable")
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ConfigFile)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.paths()
			if err != nil {
				return err
			}
			if err := config.Init(p.ConfigFile); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p.ConfigFile)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.paths()
			if err != nil {
				return err
			}
			cfg, err := config.LoadFrom(p.ConfigFile)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if err := formatter.CheckCommand(cfg.Formatter); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration OK")
			return nil
		},
	})

	return configCmd
}
