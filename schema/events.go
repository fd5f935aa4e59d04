package schema

import "encoding/json"

// EventType is the envelope tag on server-to-client messages.
type EventType string

const (
	// EventConnectionEstablished confirms the session after connect.
	EventConnectionEstablished EventType = "connection_established"
	// EventTrainingUpdate carries a partial training snapshot.
	EventTrainingUpdate EventType = "training_update"
	// EventTrainingAlert carries an operator alert.
	EventTrainingAlert EventType = "training_alert"
	// EventConsoleOutput carries one line of process output.
	EventConsoleOutput EventType = "console_output"
	// EventTrainingCompleted reports the run finished.
	EventTrainingCompleted EventType = "training_completed"
	// EventTrainingError reports the run failed out-of-band.
	EventTrainingError EventType = "training_error"
	// EventTrainingStopped reports the run was stopped on request.
	EventTrainingStopped EventType = "training_stopped"
	// EventConfigOptimized reports a finished config optimization.
	EventConfigOptimized EventType = "config_optimized"
	// EventHeartbeat is a server liveness probe; the client answers
	// with a ping control message.
	EventHeartbeat EventType = "heartbeat"
	// EventPong answers a client ping.
	EventPong EventType = "pong"
)

// Envelope is the wire shape of every inbound message. Data stays raw
// until the type is known; unrecognized types are ignored.
type Envelope struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// ConnectionEstablishedData confirms the server accepted the session.
type ConnectionEstablishedData struct {
	Message  string `json:"message,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// TrainingUpdateData is a partial-field merge into the training
// snapshot. Pointer fields distinguish "absent" from zero values.
type TrainingUpdateData struct {
	Epoch       *int     `json:"epoch,omitempty"`
	Loss        *float64 `json:"loss,omitempty"`
	Stage       *Stage   `json:"stage,omitempty"`
	IsTraining  *bool    `json:"is_training,omitempty"`
	ElapsedTime *float64 `json:"elapsed_time,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
}

// TrainingAlertData is the payload of a training_alert event.
type TrainingAlertData struct {
	Level      AlertLevel `json:"level"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
	Epoch      int        `json:"epoch,omitempty"`
	Timestamp  string     `json:"timestamp,omitempty"`
}

// ConsoleOutputData is one line of training process output.
type ConsoleOutputData struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TrainingCompletedData closes out a run.
type TrainingCompletedData struct {
	ReturnCode int     `json:"return_code"`
	Success    bool    `json:"success"`
	FinalEpoch int     `json:"final_epoch"`
	FinalLoss  float64 `json:"final_loss"`
	TotalTime  float64 `json:"total_time"`
}

// TrainingErrorData reports an out-of-band run failure.
type TrainingErrorData struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

// TrainingStoppedData reports an operator-requested stop.
type TrainingStoppedData struct {
	Timestamp  string  `json:"timestamp,omitempty"`
	FinalEpoch int     `json:"final_epoch"`
	FinalLoss  float64 `json:"final_loss"`
}

// ConfigOptimizedData reports a finished optimization pass.
type ConfigOptimizedData struct {
	OptimizedConfigPath string `json:"optimized_config_path,omitempty"`
	Status              string `json:"status,omitempty"`
}

// PingMessage is the client-to-server heartbeat reply.
type PingMessage struct {
	Type string `json:"type"`
}

// NewPing returns the canonical heartbeat reply.
func NewPing() PingMessage {
	return PingMessage{Type: "ping"}
}
