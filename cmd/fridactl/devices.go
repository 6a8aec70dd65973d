package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	devicesDetailed bool
	devicesWait     time.Duration
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		if devicesWait > 0 {
			if err := a.adb.WaitForDevice(cmd.Context(), a.cfg.DefaultDevice, devicesWait); err != nil {
				return err
			}
		}

		devices, err := a.adb.Devices(cmd.Context())
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			fmt.Println("No devices connected")
			return nil
		}

		for _, d := range devices {
			mark := okMark
			if !d.Authorized() {
				mark = warnMark
			}
			fmt.Printf("%s %s\n", mark, d)

			if devicesDetailed && d.Authorized() {
				facts := a.inv.Facts(cmd.Context(), d.Serial)
				if facts == nil {
					continue
				}
				fmt.Printf("    Android %d (SDK %d), %s\n", facts.AndroidVersion, facts.SDKVersion, facts.ABI)
				if facts.Manufacturer != "" || facts.Model != "" {
					fmt.Printf("    %s %s\n", facts.Manufacturer, facts.Model)
				}
				if facts.SecurityPatch != "" {
					fmt.Printf("    Security patch: %s\n", facts.SecurityPatch)
				}
			}
		}
		return nil
	},
}

func init() {
	devicesCmd.Flags().BoolVarP(&devicesDetailed, "detailed", "d", false, "show Android version and hardware details")
	devicesCmd.Flags().DurationVar(&devicesWait, "wait", 0, "wait up to this long for an authorized device")
	rootCmd.AddCommand(devicesCmd)
}
