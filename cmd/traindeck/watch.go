package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/traindeck"
	"pkt.systems/traindeck/core"
	"pkt.systems/traindeck/internal/appconfig"
	"pkt.systems/traindeck/internal/health"
	"pkt.systems/traindeck/internal/logx"
	"pkt.systems/traindeck/schema"
)

func newWatchCmd() *cobra.Command {
	var cfgPath string
	var quietConsole bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a training run live",
		Long:  "Connects to the training controller's websocket and streams updates, alerts, and console output until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			sink := &printSink{
				out: cmd.OutOrStdout(),
				levels: health.Thresholds{
					Warning:  cfg.Health.WarningLoss,
					Critical: cfg.Health.CriticalLoss,
				},
				quietConsole: quietConsole,
			}
			monitor, err := traindeck.NewMonitor(cfg, traindeck.MonitorDeps{
				Logger: pslog.Ctx(cmd.Context()),
				Sinks:  []core.EventSink{sink},
			})
			if err != nil {
				return err
			}
			if err := monitor.Connect(cmd.Context()); err != nil {
				return err
			}
			logx.WithSession(cmd.Context(), monitor.SessionID()).Info("watching")
			<-cmd.Context().Done()
			monitor.Disconnect()
			return nil
		},
	}
	addConfigFlag(cmd, &cfgPath)
	cmd.Flags().BoolVar(&quietConsole, "no-console", false, "suppress console output lines")
	return cmd
}

// printSink renders channel events as terminal lines.
type printSink struct {
	out          io.Writer
	levels       health.Thresholds
	quietConsole bool
}

func (p *printSink) OnConnection(conn schema.ConnectionState) {
	fmt.Fprintf(p.out, "-- %s\n", conn.Phase)
}

func (p *printSink) OnTrainingUpdate(snapshot schema.TrainingSnapshot) {
	if !snapshot.IsTraining {
		fmt.Fprintf(p.out, "idle  epoch %d  loss %.2f\n", snapshot.CurrentEpoch, snapshot.CurrentLoss)
		return
	}
	fmt.Fprintf(p.out, "epoch %d  stage %d  loss %.2f  [%s]  elapsed %s\n",
		snapshot.CurrentEpoch,
		snapshot.CurrentStage,
		snapshot.CurrentLoss,
		p.levels.Classify(snapshot.CurrentLoss),
		core.FormatElapsed(snapshot.ElapsedTime),
	)
}

func (p *printSink) OnAlert(alert schema.Alert) {
	fmt.Fprintf(p.out, "[%s] %s\n", alert.Level, alert.Message)
	if alert.Suggestion != "" {
		fmt.Fprintf(p.out, "       %s\n", alert.Suggestion)
	}
}

func (p *printSink) OnConsole(line schema.ConsoleLine) {
	if p.quietConsole {
		return
	}
	fmt.Fprintln(p.out, line.Message)
}
