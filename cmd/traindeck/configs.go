package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
)

func newConfigsCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "List training configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor, err := newMonitor(cmd, cfgPath)
			if err != nil {
				return err
			}
			result := monitor.Configs(cmd.Context())
			if result.Fallback {
				pslog.Ctx(cmd.Context()).Warn("controller unreachable, showing fallback data")
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPATH\tDESCRIPTION")
			for _, preset := range result.Presets {
				fmt.Fprintf(w, "%s\t%s\t%s\n", preset.Name, preset.Path, preset.Description)
			}
			return w.Flush()
		},
	}
	addConfigFlag(cmd, &cfgPath)
	return cmd
}
