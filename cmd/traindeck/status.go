package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the controller's current training status",
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor, err := newMonitor(cmd, cfgPath)
			if err != nil {
				return err
			}
			report, err := monitor.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !report.IsTraining {
				fmt.Fprintln(out, "idle")
			} else {
				fmt.Fprintf(out, "training  stage %d  epoch %d  loss %.2f\n",
					report.CurrentStage, report.CurrentEpoch, report.CurrentLoss)
			}
			if report.LastUpdate != "" {
				fmt.Fprintf(out, "last update: %s\n", report.LastUpdate)
			}
			return nil
		},
	}
	addConfigFlag(cmd, &cfgPath)
	return cmd
}
