package main

import (
	"fmt"

	"github.com/vanderheijden86/conceptgraph/pkg/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}
	cmd.AddCommand(
		configInitCmd(g),
		configShowCmd(g),
		configPathCmd(g),
	)
	return cmd
}

// target is the config file the config subcommands act on.
func (g *globalFlags) target() string {
	if g.configPath != "" {
		return g.configPath
	}
	return config.ConfigPath()
}

func configInitCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Walk through the main settings and save them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.target()
			if path == "" {
				return fmt.Errorf("cannot determine config directory")
			}
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			cfg, err = config.RunWizard(cfg)
			if err != nil {
				return err
			}
			if err := config.SaveTo(cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s saved %s\n", good.Sprint("✓"), path)
			return nil
		},
	}
}

func configShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func configPathCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), g.target())
		},
	}
}
