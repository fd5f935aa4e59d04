package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/traindeck/schema"
)

func newCheckpointsCmd() *cobra.Command {
	var cfgPath string
	var selectID bool
	var resumeStage int
	cmd := &cobra.Command{
		Use:   "checkpoints [id]",
		Short: "List checkpoints or show one checkpoint's details",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			monitor, err := newMonitor(cmd, cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if resumeStage > 0 {
				stage := schema.Stage(resumeStage)
				if !stage.Valid() {
					return fmt.Errorf("stage %d out of range 1..3", resumeStage)
				}
				result := monitor.ResumeCandidates(ctx, stage)
				if result.Fallback {
					pslog.Ctx(ctx).Warn("controller unreachable, showing fallback data")
				}
				for _, c := range result.Selection.AvailableCheckpoints {
					marker := " "
					if c.Recommended {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s  epoch %d  loss %.2f\n", marker, c.ID, c.Epoch, c.Loss)
				}
				return nil
			}

			if len(args) == 1 {
				id := schema.CheckpointID(args[0])
				if selectID {
					result, err := monitor.SelectCheckpoint(ctx, id)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "selected %s\n", id)
					printDetail(out, result.ID, result.Detail)
					return nil
				}
				result := monitor.CheckpointDetail(ctx, id)
				if result.Fallback {
					pslog.Ctx(ctx).Warn("controller unreachable, showing fallback data")
				}
				printDetail(out, result.ID, result.Detail)
				return nil
			}

			result := monitor.Checkpoints(ctx)
			if result.Fallback {
				pslog.Ctx(ctx).Warn("controller unreachable, showing fallback data")
			}
			w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTAGE\tEPOCH\tLOSS")
			for _, c := range result.Checkpoints {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.2f\n", c.ID, c.Stage, c.Epoch, c.Loss)
			}
			return w.Flush()
		},
	}
	addConfigFlag(cmd, &cfgPath)
	cmd.Flags().BoolVar(&selectID, "select", false, "mark the checkpoint as the active selection")
	cmd.Flags().IntVar(&resumeStage, "resume-stage", 0, "list resume candidates for a stage instead")
	return cmd
}

func printDetail(out io.Writer, id schema.CheckpointID, detail schema.CheckpointDetail) {
	fmt.Fprintf(out, "checkpoint %s\n", id)
	fmt.Fprintf(out, "epochs: %d  best loss: %.2f\n", len(detail.Steps), detail.Metrics.BestLoss)
	fmt.Fprintf(out, "params: %d  size: %.1f MB  stability: %.2f\n",
		detail.Metrics.TotalParams, detail.Metrics.ModelSizeMB, detail.Metrics.LearningStability)
	for _, layer := range detail.ModelArchitecture {
		fmt.Fprintf(out, "  %-12s %6d  %s\n", layer.Name, layer.Size, layer.Type)
	}
}
