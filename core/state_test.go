package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"pkt.systems/traindeck/internal/health"
	"pkt.systems/traindeck/schema"
)

func mustEnvelope(t *testing.T, eventType schema.EventType, data any) schema.Envelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return schema.Envelope{Type: eventType, Data: raw}
}

func applyJSON(t *testing.T, s *State, eventType schema.EventType, payload string) {
	t.Helper()
	env := schema.Envelope{Type: eventType, Data: json.RawMessage(payload)}
	if err := s.apply(env); err != nil {
		t.Fatalf("apply %s: %v", eventType, err)
	}
}

func TestApplyUpdateMergesPartialFields(t *testing.T) {
	s := NewState(StateConfig{})
	applyJSON(t, s, schema.EventTrainingUpdate, `{"epoch":3,"loss":88.5,"stage":2,"is_training":true}`)
	applyJSON(t, s, schema.EventTrainingUpdate, `{"loss":42.1}`)
	applyJSON(t, s, schema.EventTrainingUpdate, `{"epoch":4}`)

	got := s.Training()
	if got.CurrentEpoch != 4 {
		t.Fatalf("expected epoch 4, got %d", got.CurrentEpoch)
	}
	if got.CurrentLoss != 42.1 {
		t.Fatalf("expected loss 42.1, got %v", got.CurrentLoss)
	}
	if got.CurrentStage != 2 {
		t.Fatalf("expected stage 2 retained, got %d", got.CurrentStage)
	}
	if !got.IsTraining {
		t.Fatalf("expected is_training retained from first event")
	}
}

func TestApplyUpdateIgnoresOutOfRangeStage(t *testing.T) {
	s := NewState(StateConfig{})
	applyJSON(t, s, schema.EventTrainingUpdate, `{"stage":2}`)
	applyJSON(t, s, schema.EventTrainingUpdate, `{"stage":7}`)
	if got := s.Training().CurrentStage; got != 2 {
		t.Fatalf("expected stage 2 preserved, got %d", got)
	}
}

func TestAlertBufferBoundedNewestFirst(t *testing.T) {
	s := NewState(StateConfig{})
	for i := 0; i < 9; i++ {
		env := mustEnvelope(t, schema.EventTrainingAlert, schema.TrainingAlertData{
			Level:   schema.AlertWarning,
			Message: fmt.Sprintf("alert %d", i),
		})
		if err := s.apply(env); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	alerts := s.Alerts()
	if len(alerts) != DefaultAlertCapacity {
		t.Fatalf("expected %d alerts, got %d", DefaultAlertCapacity, len(alerts))
	}
	if alerts[0].Message != "alert 8" {
		t.Fatalf("expected newest alert first, got %q", alerts[0].Message)
	}
	if alerts[len(alerts)-1].Message != "alert 4" {
		t.Fatalf("expected oldest surviving alert last, got %q", alerts[len(alerts)-1].Message)
	}
}

func TestConsoleBufferBounded(t *testing.T) {
	s := NewState(StateConfig{ConsoleCapacity: 50})
	for i := 0; i < 120; i++ {
		applyJSON(t, s, schema.EventConsoleOutput, fmt.Sprintf(`{"message":"line %d"}`, i))
	}
	lines := s.Console()
	if len(lines) != 50 {
		t.Fatalf("expected 50 console lines, got %d", len(lines))
	}
	if lines[0].Message != "line 119" {
		t.Fatalf("expected newest line first, got %q", lines[0].Message)
	}
}

func TestTrainingCompletedSynthesizesSuccessAlert(t *testing.T) {
	s := NewState(StateConfig{})
	applyJSON(t, s, schema.EventTrainingUpdate, `{"is_training":true,"epoch":12}`)
	applyJSON(t, s, schema.EventTrainingCompleted, `{"return_code":0,"success":true,"final_epoch":12,"final_loss":28.4,"total_time":3600}`)

	if s.Training().IsTraining {
		t.Fatalf("expected training flag cleared")
	}
	alerts := s.Alerts()
	if len(alerts) != 1 || alerts[0].Level != schema.AlertSuccess {
		t.Fatalf("expected one success alert, got %+v", alerts)
	}
	if want := "28.40"; !strings.Contains(alerts[0].Message, want) {
		t.Fatalf("expected final loss in alert message, got %q", alerts[0].Message)
	}
}

func TestTrainingCompletedFailureSynthesizesErrorAlert(t *testing.T) {
	s := NewState(StateConfig{})
	applyJSON(t, s, schema.EventTrainingCompleted, `{"return_code":137,"success":false,"final_loss":612.2}`)
	alerts := s.Alerts()
	if len(alerts) != 1 || alerts[0].Level != schema.AlertError {
		t.Fatalf("expected one error alert, got %+v", alerts)
	}
}

func TestTrainingErrorAndStoppedClearRunningFlag(t *testing.T) {
	s := NewState(StateConfig{})
	applyJSON(t, s, schema.EventTrainingUpdate, `{"is_training":true}`)
	applyJSON(t, s, schema.EventTrainingError, `{"error":"CUDA out of memory"}`)
	if s.Training().IsTraining {
		t.Fatalf("expected training flag cleared after error")
	}

	applyJSON(t, s, schema.EventTrainingUpdate, `{"is_training":true}`)
	applyJSON(t, s, schema.EventTrainingStopped, `{"final_epoch":7,"final_loss":55}`)
	if s.Training().IsTraining {
		t.Fatalf("expected training flag cleared after stop")
	}
	if len(s.Alerts()) != 2 {
		t.Fatalf("expected alerts for both terminal events, got %d", len(s.Alerts()))
	}
}

func TestApplyUnknownEventIsNoop(t *testing.T) {
	s := NewState(StateConfig{})
	env := schema.Envelope{Type: "telemetry_v2", Data: json.RawMessage(`{"whatever":1}`)}
	if err := s.apply(env); err != nil {
		t.Fatalf("unknown event must not error: %v", err)
	}
	if len(s.Alerts()) != 0 || len(s.Console()) != 0 {
		t.Fatalf("unknown event must not mutate state")
	}
}

func TestApplyMalformedPayloadErrorsWithoutMutation(t *testing.T) {
	s := NewState(StateConfig{})
	env := schema.Envelope{Type: schema.EventTrainingUpdate, Data: json.RawMessage(`{"epoch":"three"`)}
	if err := s.apply(env); err == nil {
		t.Fatalf("expected decode error")
	}
	if got := s.Training(); got.CurrentEpoch != 0 {
		t.Fatalf("malformed payload must not mutate snapshot, got %+v", got)
	}
}

func TestExplosionScenario(t *testing.T) {
	// The critical alert and the numeric classification are independent
	// signals; 493.74 stays in the warning band even though the server
	// raised an explosion alert.
	s := NewState(StateConfig{})
	applyJSON(t, s, schema.EventTrainingUpdate, `{"epoch":1,"loss":48.46}`)
	applyJSON(t, s, schema.EventTrainingUpdate, `{"epoch":2,"loss":493.74}`)
	applyJSON(t, s, schema.EventTrainingAlert, `{"level":"critical","message":"Loss explosion"}`)

	got := s.Training()
	if got.CurrentEpoch != 2 || got.CurrentLoss != 493.74 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	alerts := s.Alerts()
	if len(alerts) != 1 || alerts[0].Level != schema.AlertCritical {
		t.Fatalf("expected one critical alert, got %+v", alerts)
	}
	if status := s.ClassifyLoss(got.CurrentLoss); status != health.StatusWarning {
		t.Fatalf("expected warning classification for 493.74, got %q", status)
	}
}

func TestMergeStatusOverwritesSnapshot(t *testing.T) {
	s := NewState(StateConfig{})
	applyJSON(t, s, schema.EventTrainingUpdate, `{"epoch":2,"loss":90,"is_training":true}`)
	s.mergeStatus(schema.StatusReport{
		IsTraining:   false,
		CurrentEpoch: 9,
		CurrentLoss:  31.5,
		CurrentStage: 3,
	})
	got := s.Training()
	if got.IsTraining || got.CurrentEpoch != 9 || got.CurrentLoss != 31.5 || got.CurrentStage != 3 {
		t.Fatalf("unexpected snapshot after merge: %+v", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "00:00:00"},
		{59.9, "00:00:59"},
		{61, "00:01:01"},
		{3661.7, "01:01:01"},
		{-5, "00:00:00"},
		{100*3600 + 62, "100:01:02"},
	}
	for _, tc := range cases {
		if got := FormatElapsed(tc.in); got != tc.want {
			t.Fatalf("FormatElapsed(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type countingSink struct {
	updates  int
	alerts   int
	consoles int
	conns    int
}

func (c *countingSink) OnConnection(schema.ConnectionState)      { c.conns++ }
func (c *countingSink) OnTrainingUpdate(schema.TrainingSnapshot) { c.updates++ }
func (c *countingSink) OnAlert(schema.Alert)                     { c.alerts++ }
func (c *countingSink) OnConsole(schema.ConsoleLine)             { c.consoles++ }

func TestSinkNotifiedPerMutation(t *testing.T) {
	sink := &countingSink{}
	s := NewState(StateConfig{Sink: sink})
	applyJSON(t, s, schema.EventTrainingUpdate, `{"epoch":1,"loss":50,"is_training":true}`)
	applyJSON(t, s, schema.EventTrainingAlert, `{"level":"warning","message":"loss rising"}`)
	applyJSON(t, s, schema.EventConsoleOutput, `{"message":"step 1"}`)
	s.setConnection(schema.PhaseConnected, "s1")
	if sink.updates != 1 || sink.alerts != 1 || sink.consoles != 1 || sink.conns != 1 {
		t.Fatalf("unexpected sink counts: %+v", sink)
	}
	// A terminal event notifies both the snapshot change and the alert.
	applyJSON(t, s, schema.EventTrainingStopped, `{"final_epoch":1,"final_loss":50}`)
	if sink.updates != 2 || sink.alerts != 2 {
		t.Fatalf("unexpected sink counts after stop: %+v", sink)
	}
}
