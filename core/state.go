package core

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"pkt.systems/traindeck/internal/health"
	"pkt.systems/traindeck/schema"
)

// Default buffer bounds. Alerts are scarce and actionable; console
// output is chatty scrollback.
const (
	DefaultAlertCapacity   = 5
	DefaultConsoleCapacity = 50
)

// StateConfig tunes the session state holder.
type StateConfig struct {
	AlertCapacity   int
	ConsoleCapacity int
	Thresholds      health.Thresholds
	// Sink, when set, is notified after each committed mutation.
	Sink EventSink
}

// State is the authoritative in-memory model of the remote run. The
// channel's read loop is its only writer; everything else reads
// through snapshot accessors.
type State struct {
	mu       sync.RWMutex
	conn     schema.ConnectionState
	training schema.TrainingSnapshot
	alerts   *ring[schema.Alert]
	console  *ring[schema.ConsoleLine]
	levels   health.Thresholds
	sink     EventSink

	now func() time.Time
}

// NewState constructs session state with the given bounds. Zero values
// fall back to the defaults.
func NewState(cfg StateConfig) *State {
	if cfg.AlertCapacity <= 0 {
		cfg.AlertCapacity = DefaultAlertCapacity
	}
	if cfg.ConsoleCapacity <= 0 {
		cfg.ConsoleCapacity = DefaultConsoleCapacity
	}
	if cfg.Thresholds == (health.Thresholds{}) {
		cfg.Thresholds = health.DefaultThresholds()
	}
	return &State{
		conn:    schema.ConnectionState{Phase: schema.PhaseDisconnected},
		alerts:  newRing[schema.Alert](cfg.AlertCapacity),
		console: newRing[schema.ConsoleLine](cfg.ConsoleCapacity),
		levels:  cfg.Thresholds,
		sink:    cfg.Sink,
		now:     time.Now,
	}
}

// Connection returns the current connection state.
func (s *State) Connection() schema.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// Training returns a copy of the current training snapshot.
func (s *State) Training() schema.TrainingSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.training
}

// Alerts returns the alert buffer, newest first.
func (s *State) Alerts() []schema.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alerts.Snapshot()
}

// Console returns the console buffer, newest first.
func (s *State) Console() []schema.ConsoleLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.console.Snapshot()
}

// Snapshot returns a point-in-time copy of everything.
func (s *State) Snapshot() schema.StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return schema.StateSnapshot{
		Connection: s.conn,
		Training:   s.training,
		Alerts:     s.alerts.Snapshot(),
		Console:    s.console.Snapshot(),
	}
}

// ClassifyLoss grades a loss value against the configured thresholds.
func (s *State) ClassifyLoss(loss float64) health.Status {
	return s.levels.Classify(loss)
}

// setConnection records a phase transition. Channel use only.
func (s *State) setConnection(phase schema.ConnectionPhase, session schema.SessionID) {
	conn := schema.ConnectionState{Phase: phase, Session: session}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	if s.sink != nil {
		s.sink.OnConnection(conn)
	}
}

// apply decodes and applies one inbound envelope. Events mutate state
// strictly in call order; unknown types are a silent no-op and a
// malformed payload is reported without mutating anything.
func (s *State) apply(env schema.Envelope) error {
	switch env.Type {
	case schema.EventTrainingUpdate:
		var data schema.TrainingUpdateData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		s.applyUpdate(data)
	case schema.EventTrainingAlert:
		var data schema.TrainingAlertData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		s.pushAlert(data.Level, data.Message, data.Suggestion)
	case schema.EventConsoleOutput:
		var data schema.ConsoleOutputData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		s.pushConsole(data.Message)
	case schema.EventTrainingCompleted:
		var data schema.TrainingCompletedData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		s.finishRun()
		level := schema.AlertSuccess
		msg := fmt.Sprintf("Training completed with final loss %.2f", data.FinalLoss)
		if !data.Success {
			level = schema.AlertError
			msg = fmt.Sprintf("Training exited with code %d at loss %.2f", data.ReturnCode, data.FinalLoss)
		}
		s.pushAlert(level, msg, "")
	case schema.EventTrainingError:
		var data schema.TrainingErrorData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		s.finishRun()
		s.pushAlert(schema.AlertError, fmt.Sprintf("Training failed: %s", data.Error), "Check the console buffer for the failing output")
	case schema.EventTrainingStopped:
		var data schema.TrainingStoppedData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		s.finishRun()
		s.pushAlert(schema.AlertInfo, fmt.Sprintf("Training stopped at epoch %d (loss %.2f)", data.FinalEpoch, data.FinalLoss), "")
	case schema.EventConfigOptimized:
		var data schema.ConfigOptimizedData
		if err := decode(env.Data, &data); err != nil {
			return err
		}
		s.pushAlert(schema.AlertSuccess, fmt.Sprintf("Configuration optimized: %s", data.OptimizedConfigPath), "")
	default:
		// Unrecognized types are forward-compatibility, not errors.
	}
	return nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty event payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode event payload: %w", err)
	}
	return nil
}

// applyUpdate merges a partial update. Absent fields keep prior values.
func (s *State) applyUpdate(data schema.TrainingUpdateData) {
	s.mu.Lock()
	if data.Epoch != nil {
		s.training.CurrentEpoch = *data.Epoch
	}
	if data.Loss != nil {
		s.training.CurrentLoss = *data.Loss
	}
	if data.Stage != nil && data.Stage.Valid() {
		s.training.CurrentStage = *data.Stage
	}
	if data.IsTraining != nil {
		s.training.IsTraining = *data.IsTraining
	}
	if data.ElapsedTime != nil {
		s.training.ElapsedTime = *data.ElapsedTime
	}
	s.training.LastUpdateAt = s.now()
	snapshot := s.training
	s.mu.Unlock()
	if s.sink != nil {
		s.sink.OnTrainingUpdate(snapshot)
	}
}

// mergeStatus folds a request/response status report into the
// snapshot. Used to recover from updates missed during an outage.
func (s *State) mergeStatus(report schema.StatusReport) {
	s.mu.Lock()
	s.training.IsTraining = report.IsTraining
	s.training.CurrentEpoch = report.CurrentEpoch
	s.training.CurrentLoss = report.CurrentLoss
	if report.CurrentStage.Valid() {
		s.training.CurrentStage = report.CurrentStage
	}
	s.training.LastUpdateAt = s.now()
	snapshot := s.training
	s.mu.Unlock()
	if s.sink != nil {
		s.sink.OnTrainingUpdate(snapshot)
	}
}

func (s *State) finishRun() {
	s.mu.Lock()
	s.training.IsTraining = false
	s.training.LastUpdateAt = s.now()
	snapshot := s.training
	s.mu.Unlock()
	if s.sink != nil {
		s.sink.OnTrainingUpdate(snapshot)
	}
}

func (s *State) pushAlert(level schema.AlertLevel, message, suggestion string) {
	alert := schema.Alert{
		ID:         uuid.NewString(),
		Level:      level,
		Message:    message,
		Suggestion: suggestion,
		ReceivedAt: s.now(),
	}
	s.mu.Lock()
	s.alerts.Push(alert)
	s.mu.Unlock()
	if s.sink != nil {
		s.sink.OnAlert(alert)
	}
}

func (s *State) pushConsole(message string) {
	line := schema.ConsoleLine{
		ID:         uuid.NewString(),
		Message:    message,
		ReceivedAt: s.now(),
	}
	s.mu.Lock()
	s.console.Push(line)
	s.mu.Unlock()
	if s.sink != nil {
		s.sink.OnConsole(line)
	}
}

// FormatElapsed renders whole seconds as zero-padded HH:MM:SS,
// truncating fractions. The hour field widens past 99 hours instead of
// rolling over into days.
func FormatElapsed(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}
