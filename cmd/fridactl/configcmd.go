package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"fridactl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change fridactl settings",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(_ *cobra.Command, _ []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default settings",
	RunE: func(_ *cobra.Command, _ []string) error {
		path := flagConfig
		if path == "" {
			path = config.DefaultPath()
		}
		if err := config.Save(config.Default(), path); err != nil {
			return err
		}
		fmt.Printf("%s Wrote %s\n", okMark, path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one configuration key",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := config.SetValue(flagConfig, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("%s %s = %s\n", okMark, args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
