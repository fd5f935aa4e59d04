package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/traindeck/schema"
)

func newStartCmd() *cobra.Command {
	var cfgPath string
	req := schema.StartRequest{}
	var stage int
	var resumeMode string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a training run",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Stage = schema.Stage(stage)
			req.ResumeMode = schema.ResumeMode(resumeMode)
			if err := req.Validate(); err != nil {
				return err
			}
			monitor, err := newMonitor(cmd, cfgPath)
			if err != nil {
				return err
			}
			result, err := monitor.StartTraining(cmd.Context(), req)
			if err != nil {
				return err
			}
			pslog.Ctx(cmd.Context()).Info("start accepted", "status", result.Status)
			if result.Message != "" {
				fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			}
			return nil
		},
	}
	addConfigFlag(cmd, &cfgPath)
	cmd.Flags().StringVar(&req.ConfigPath, "train-config", "", "training config path on the controller")
	cmd.Flags().IntVar(&stage, "stage", 1, "training stage (1-3)")
	cmd.Flags().StringVar(&resumeMode, "resume", string(schema.ResumeFresh), "resume mode: fresh, latest, or specific")
	cmd.Flags().StringVar(&req.ResumeCheckpoint, "resume-checkpoint", "", "checkpoint id for --resume specific")
	cmd.Flags().StringVar(&req.RunName, "run-name", "", "label for this run")
	cmd.Flags().BoolVar(&req.PreserveLogs, "preserve-logs", false, "keep previous run logs")
	cmd.Flags().BoolVar(&req.AutoOptimize, "auto-optimize", false, "optimize the config before starting")
	cmd.Flags().BoolVar(&req.AutoAnalyze, "auto-analyze", true, "analyze results when the run completes")
	cmd.Flags().Float64Var(&req.TargetLoss, "target-loss", 0, "stop when loss reaches this value")
	cmd.Flags().IntVar(&req.MaxEpochs, "max-epochs", 0, "stop after this many epochs")
	_ = cmd.MarkFlagRequired("train-config")
	return cmd
}
