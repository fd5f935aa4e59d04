package main

import (
	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/traindeck"
	"pkt.systems/traindeck/core"
	"pkt.systems/traindeck/internal/appconfig"
)

// newMonitor loads config and builds a monitor for one command
// invocation. Commands that only issue requests never connect the
// channel; watch does.
func newMonitor(cmd *cobra.Command, cfgPath string, sinks ...core.EventSink) (*traindeck.Monitor, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return traindeck.NewMonitor(cfg, traindeck.MonitorDeps{
		Logger: pslog.Ctx(cmd.Context()),
		Sinks:  sinks,
	})
}

func addConfigFlag(cmd *cobra.Command, cfgPath *string) {
	cmd.Flags().StringVarP(cfgPath, "config", "c", "", "path to config file")
}
