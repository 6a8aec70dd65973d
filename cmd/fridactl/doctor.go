package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fridactl/internal/doctor"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common setup problems",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		d := doctor.New(a.adb, a.mgr, a.inv, a.cfg.DefaultDevice, a.cfg.ServerDir, a.cfg.Port)
		checks := d.Run(cmd.Context())
		summary := doctor.Summarize(checks)

		if doctorJSON {
			return printJSON(map[string]any{
				"checks":  checks,
				"summary": summary,
			})
		}

		fmt.Println(bold("Running health checks..."))
		fmt.Println()
		for _, c := range checks {
			fmt.Printf("%s %-18s %s\n", doctorMark(c.Status), c.Name, c.Message)
		}
		fmt.Println()
		fmt.Printf("%d ok, %d warning(s), %d error(s), %d skipped\n",
			summary.OK, summary.Warnings, summary.Errors, summary.Skipped)

		if fixes := doctor.Fixes(checks); len(fixes) > 0 {
			fmt.Println()
			fmt.Println(bold("Suggested fixes"))
			for _, c := range fixes {
				fmt.Printf("  %s: %s\n", c.Name, c.Fix)
			}
		}

		if doctor.HasErrors(checks) {
			return fmt.Errorf("%d check(s) failed", summary.Errors)
		}
		return nil
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(doctorCmd)
}
