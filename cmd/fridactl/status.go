package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fridactl/internal/automator"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show component versions and compatibility",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		device, err := a.device(cmd.Context())
		if err != nil {
			return err
		}

		report := a.automator(device.Serial).Analyze(cmd.Context())
		if statusJSON {
			return printJSON(report)
		}

		fmt.Printf("%s\n\n", bold("Device: ")+device.String())
		printReport(report)
		return nil
	},
}

func printReport(report *automator.Report) {
	if report.Device != nil && report.Device.AndroidVersion > 0 {
		fmt.Println(bold("System"))
		fmt.Printf("  %s\n", report.Device)
		if report.Device.SecurityPatch != "" {
			fmt.Printf("  Security patch: %s\n", report.Device.SecurityPatch)
		}
		fmt.Println()
	}

	fmt.Println(bold("Components"))
	fmt.Printf("  %s %s\n", versionMark(report.Client), report.Client)
	fmt.Printf("  %s %s\n", versionMark(report.Tools), report.Tools)
	fmt.Printf("  %s %s\n", versionMark(report.Server), report.Server)
	fmt.Println()

	fmt.Println(bold("Compatibility"))
	fmt.Printf("  %s %s\n", compatMark(report.Compatibility.Status), report.Compatibility.Message)
	if report.Compatibility.FixCommand != "" {
		fmt.Printf("    Fix: %s\n", report.Compatibility.FixCommand)
	}
	fmt.Println()

	if status := report.ServerStatus; status != nil {
		fmt.Println(bold("Server"))
		if status.Running {
			for _, p := range status.Instances {
				fmt.Printf("  %s Running (pid %d) %s\n", okMark, p.PID, p.Path)
			}
			mark := warnMark
			listening := "not listening"
			if status.PortListening {
				mark = okMark
				listening = "listening"
			}
			fmt.Printf("  %s Port %s\n", mark, listening)
		} else {
			fmt.Printf("  %s Not running\n", failMark)
		}
		for _, path := range status.InstalledServers {
			fmt.Printf("  Installed: %s\n", path)
		}
		fmt.Println()
	}

	if rec := report.Recommendation; rec != nil {
		fmt.Println(bold("Recommendation"))
		fmt.Printf("  Android %d (%s): frida-server %s (minimum %s)\n",
			rec.AndroidVersion, rec.AndroidCodename, rec.RecommendedVersion, rec.MinVersion)
		for _, note := range rec.Notes {
			fmt.Printf("  Note: %s\n", note)
		}
		fmt.Println()
	}

	if len(report.Issues) > 0 {
		fmt.Println(bold("Issues"))
		for _, issue := range report.Issues {
			fmt.Printf("  %s %s\n", warnMark, issue)
		}
		for _, action := range report.Actions {
			fmt.Printf("    %s: %s\n", action.Description, action.Command)
		}
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}
