package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [version]",
	Short: "Start frida-server on the device",
	Args:  cobra.MaximumNArgs(1),
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

		if status := a.mgr.Status(ctx, device.Serial); status.Running {
			fmt.Printf("%s Server already running (pid %d)\n", okMark, status.Instances[0].PID)
			return nil
		}

		var serverPath string
		if len(args) > 0 {
			facts := a.inv.Facts(ctx, device.Serial)
			if facts == nil || facts.Arch == "unknown" {
				return errors.New("could not determine device architecture")
			}
			path, ok := a.mgr.IsInstalled(ctx, device.Serial, args[0], facts.Arch)
			if !ok {
				return fmt.Errorf("frida-server v%s is not installed (run: fridactl install %s)", args[0], args[0])
			}
			serverPath = path
		} else {
			installed := a.mgr.ListInstalled(ctx, device.Serial)
			if len(installed) == 0 {
				return errors.New("no frida-server installed (run: fridactl install)")
			}
			serverPath = installed[0]
		}

		pid, err := a.mgr.Start(ctx, device.Serial, serverPath, true)
		if err != nil {
			return err
		}
		fmt.Printf("%s Server started (pid %d)\n", okMark, pid)
		return nil
	},
}

var stopPID int

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop frida-server on the device",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		device, err := a.device(ctx)
		if err != nil {
			return err
		}

		if stopPID > 0 {
			if err := a.mgr.Stop(ctx, device.Serial, stopPID); err != nil {
				return err
			}
			fmt.Printf("%s Stopped pid %d\n", okMark, stopPID)
			return nil
		}

		running := a.mgr.Running(ctx, device.Serial)
		if len(running) == 0 {
			fmt.Println("Server is not running")
			return nil
		}
		if err := a.mgr.StopAll(ctx, device.Serial); err != nil {
			return err
		}
		fmt.Printf("%s Stopped %d instance(s)\n", okMark, len(running))
		return nil
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart frida-server on the device",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		device, err := a.device(ctx)
		if err != nil {
			return err
		}

		var serverPath string
		if running := a.mgr.Running(ctx, device.Serial); len(running) > 0 && running[0].Path != "" {
			serverPath = running[0].Path
		} else if installed := a.mgr.ListInstalled(ctx, device.Serial); len(installed) > 0 {
			serverPath = installed[0]
		} else {
			return errors.New("no frida-server installed (run: fridactl install)")
		}

		pid, err := a.mgr.Restart(ctx, device.Serial, serverPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s Server restarted (pid %d)\n", okMark, pid)
		return nil
	},
}

var uninstallAll bool

var uninstallCmd = &cobra.Command{
	Use:   "uninstall [version]",
	Short: "Remove frida-server binaries from the device",
	Args:  cobra.MaximumNArgs(1),
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

		if len(args) == 0 && !uninstallAll {
			return errors.New("specify a version or --all")
		}

		if err := a.mgr.StopAll(ctx, device.Serial); err != nil {
			fmt.Printf("%s Could not stop running server: %v\n", warnMark, err)
		}

		if uninstallAll {
			if err := a.mgr.UninstallAll(ctx, device.Serial); err != nil {
				return err
			}
			fmt.Printf("%s Removed all frida-server binaries\n", okMark)
			return nil
		}

		facts := a.inv.Facts(ctx, device.Serial)
		if facts == nil || facts.Arch == "unknown" {
			return errors.New("could not determine device architecture")
		}
		if err := a.mgr.Uninstall(ctx, device.Serial, args[0], facts.Arch); err != nil {
			return err
		}
		fmt.Printf("%s Removed frida-server v%s\n", okMark, args[0])
		return nil
	},
}

func init() {
	stopCmd.Flags().IntVar(&stopPID, "pid", 0, "stop a single instance by pid")
	uninstallCmd.Flags().BoolVar(&uninstallAll, "all", false, "remove every installed version")
	rootCmd.AddCommand(startCmd, stopCmd, restartCmd, uninstallCmd)
}
