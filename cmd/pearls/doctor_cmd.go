package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mrorigo/pearls/internal/doctor"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run consistency checks over the store without modifying it",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newStore()
		report, err := doctor.Run(s)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(report)
		} else {
			for _, f := range report.Findings {
				style := mutedStyle
				if f.Severity == doctor.SeverityError {
					style = failStyle
				}
				fmt.Println(render(style, fmt.Sprintf("[%s] %s: %s", f.Severity, f.Code, f.Message)))
			}
			if report.OK() {
				fmt.Println(render(passStyle, "no errors found"))
			}
		}

		if !report.OK() {
			os.Exit(1)
		}
		return nil
	},
}
