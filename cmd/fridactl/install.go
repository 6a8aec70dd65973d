package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	installLatest bool
	installForce  bool
)

var installCmd = &cobra.Command{
	Use:   "install [version]",
	Short: "Install frida-server on the device",
	Long: `Install downloads the frida-server build matching the device
architecture and pushes it to the device. Without an explicit version the
host frida client's version is used, so both sides agree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		device, err := a.device(ctx)
		if err != nil {
			return err
		}

		version := ""
		if len(args) > 0 {
			version = args[0]
		}
		if version == "" && !installLatest {
			version = a.cfg.DefaultVersion
		}
		if version == "" && !installLatest {
			if client := a.inv.HostClient(ctx); client.Installed {
				version = client.Version
				fmt.Printf("Using host client version v%s\n", version)
			}
		}
		if version == "" {
			version, err = a.dl.LatestVersion(ctx)
			if err != nil {
				return fmt.Errorf("resolve latest version: %w", err)
			}
			fmt.Printf("Using latest release v%s\n", version)
		}

		facts := a.inv.Facts(ctx, device.Serial)
		if facts == nil || facts.Arch == "unknown" {
			return errors.New("could not determine device architecture")
		}

		path, err := a.mgr.Install(ctx, device.Serial, version, facts.Arch, installForce)
		if err != nil {
			return err
		}
		fmt.Printf("%s Installed frida-server v%s at %s\n", okMark, version, path)

		if a.cfg.AutoStart {
			pid, err := a.mgr.Start(ctx, device.Serial, path, true)
			if err != nil {
				fmt.Printf("%s Server installed but failed to start: %v\n", warnMark, err)
				return nil
			}
			fmt.Printf("%s Server started (pid %d)\n", okMark, pid)
		}
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVar(&installLatest, "latest", false, "install the latest release")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "reinstall even if already present")
	rootCmd.AddCommand(installCmd)
}
