package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/lydakis/blackfast/internal/paths"
)

const appName = "blackfast"

var (
	buildVersion = "dev"
	loadPathsFn  = paths.Load
)

// commandContext carries the resolved locations shared by every subcommand.
type commandContext struct {
	configFlag string
}

func (c *commandContext) paths() (paths.Paths, error) {
	p, err := loadPathsFn(appName)
	if err != nil {
		return paths.Paths{}, err
	}
	if c.configFlag != "" {
		p.ConfigFile = c.configFlag
	}
	return p, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "blackfast-server",
		Short:         "Manage the blackfast formatting daemon",
		Version:       resolveBuildVersion(buildVersion),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")

	for _, cmd := range newDaemonCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}

func resolveBuildVersion(defaultVersion string) string {
	if defaultVersion != "" && defaultVersion != "dev" {
		return defaultVersion
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return defaultVersion
	}
	if info.Main.Version == "" || info.Main.Version == "(devel)" {
		return defaultVersion
	}
	return info.Main.Version
}
