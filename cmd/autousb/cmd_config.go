package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autousb/cmd/autousb/ui"
	"autousb/internal/config"
	"autousb/internal/tactile"
	"autousb/internal/types"
)

var forceInit bool

// configCmd groups config file helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the AutoUSB config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Writes the default settings to ~/.autousb/config.yaml (or --config) so
they can be edited. An existing file is kept unless --force is given.`,
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), resolvedConfigPath())
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	const op = "cli.config"
	path := resolvedConfigPath()
	if tactile.FileExists(path) && !forceInit {
		return types.Errorf(types.KindInvalidInput, op, "%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return types.NewError(types.KindIOFailure, op, "could not write "+path, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.DefaultStyles().Success.Render("Config written to "+path))
	return nil
}
