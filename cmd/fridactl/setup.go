package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	setupFix  bool
	setupJSON bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Analyze the device and optionally fix what is broken",
	Long: `Setup inspects host and device and reports every issue standing
between you and a working frida session. With --fix it applies the
remediation steps itself, installing and starting a version-matched
frida-server and relaxing SELinux where it would block instrumentation.`,
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

		result := a.automator(device.Serial).Run(ctx, setupFix)
		if setupJSON {
			if err := printJSON(result); err != nil {
				return err
			}
			if !result.Success {
				return errors.New("setup failed")
			}
			return nil
		}

		report := result.Analysis
		fmt.Printf("%s\n\n", bold("Device: ")+device.String())
		printReport(report)

		if len(report.Issues) == 0 {
			fmt.Printf("%s Everything looks good\n", okMark)
			return nil
		}

		if !setupFix {
			fmt.Println()
			fmt.Println("Run with --fix to apply these actions")
			return nil
		}

		fmt.Println()
		fmt.Println(bold("Applying fixes"))
		for _, outcome := range result.ActionsTaken {
			mark := okMark
			if !outcome.Success {
				mark = failMark
			}
			fmt.Printf("  %s %s: %s\n", mark, outcome.Action.Description, outcome.Message)
		}

		if status := result.FinalStatus; status != nil {
			fmt.Println()
			if status.Running && status.PortListening {
				fmt.Printf("%s Server running and listening on port %d\n", okMark, a.cfg.Port)
			} else if status.Running {
				fmt.Printf("%s Server running but not listening yet\n", warnMark)
			}
		}

		if !result.Success {
			return errors.New("setup failed")
		}
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVar(&setupFix, "fix", false, "apply the planned remediation steps")
	setupCmd.Flags().BoolVar(&setupJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(setupCmd)
}
