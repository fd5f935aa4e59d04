package core

import "pkt.systems/traindeck/schema"

// EventSink receives state change notifications. Callbacks run on the
// channel's read goroutine after the mutation is committed; sinks must
// not block.
type EventSink interface {
	OnConnection(conn schema.ConnectionState)
	OnTrainingUpdate(snapshot schema.TrainingSnapshot)
	OnAlert(alert schema.Alert)
	OnConsole(line schema.ConsoleLine)
}
