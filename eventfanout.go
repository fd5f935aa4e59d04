package traindeck

import (
	"pkt.systems/traindeck/core"
	"pkt.systems/traindeck/schema"
)

type eventFanout struct {
	sinks []core.EventSink
}

func (f eventFanout) OnConnection(conn schema.ConnectionState) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnConnection(conn)
	}
}

func (f eventFanout) OnTrainingUpdate(snapshot schema.TrainingSnapshot) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnTrainingUpdate(snapshot)
	}
}

func (f eventFanout) OnAlert(alert schema.Alert) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnAlert(alert)
	}
}

func (f eventFanout) OnConsole(line schema.ConsoleLine) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnConsole(line)
	}
}
