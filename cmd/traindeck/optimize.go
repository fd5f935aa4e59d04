package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/traindeck/schema"
)

func newOptimizeCmd() *cobra.Command {
	var cfgPath string
	req := schema.OptimizeRequest{}
	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Optimize a training config for a target device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			monitor, err := newMonitor(cmd, cfgPath)
			if err != nil {
				return err
			}
			path, err := monitor.OptimizeConfig(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	addConfigFlag(cmd, &cfgPath)
	cmd.Flags().StringVar(&req.ConfigPath, "train-config", "", "training config path on the controller")
	cmd.Flags().StringVar(&req.TargetDevice, "device", "", "target device, e.g. cpu or cuda")
	cmd.Flags().Float64Var(&req.MaxParameters, "max-parameters", 0, "parameter budget")
	cmd.Flags().StringSliceVar(&req.OptimizationGoals, "goal", nil, "optimization goal (repeatable)")
	_ = cmd.MarkFlagRequired("train-config")
	return cmd
}
