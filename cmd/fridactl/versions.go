package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	versionsLimit int
	versionsJSON  bool
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List available frida-server releases",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		available, err := a.dl.AvailableVersions(cmd.Context(), versionsLimit)
		if err != nil {
			return err
		}

		installed := ""
		if device, err := a.device(cmd.Context()); err == nil {
			if server := a.inv.DeviceServer(cmd.Context(), device.Serial); server.Installed {
				installed = server.Version
			}
		}

		if versionsJSON {
			return printJSON(map[string]any{
				"versions":  available,
				"installed": installed,
			})
		}

		for i, v := range available {
			switch {
			case v == installed:
				fmt.Printf("%s %s (installed)\n", okMark, v)
			case i == 0:
				fmt.Printf("  %s (latest)\n", v)
			default:
				fmt.Printf("  %s\n", v)
			}
		}
		return nil
	},
}

func init() {
	versionsCmd.Flags().IntVarP(&versionsLimit, "limit", "n", 10, "number of releases to list")
	versionsCmd.Flags().BoolVar(&versionsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(versionsCmd)
}
