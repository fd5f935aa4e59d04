package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the active training run",
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor, err := newMonitor(cmd, cfgPath)
			if err != nil {
				return err
			}
			if !monitor.StopTraining(cmd.Context()) {
				return fmt.Errorf("stop command was not acknowledged")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stop acknowledged")
			return nil
		},
	}
	addConfigFlag(cmd, &cfgPath)
	return cmd
}
