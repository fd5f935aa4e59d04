package schema

import "time"

// TrainingSnapshot is the latest known state of the remote run. Fields
// update by partial merge: an event that omits a field leaves the prior
// value in place.
type TrainingSnapshot struct {
	IsTraining   bool      `json:"is_training"`
	CurrentEpoch int       `json:"current_epoch"`
	CurrentLoss  float64   `json:"current_loss"`
	CurrentStage Stage     `json:"current_stage"`
	ElapsedTime  float64   `json:"elapsed_time"`
	LastUpdateAt time.Time `json:"last_update_at"`
}

// Alert is one entry in the bounded alert buffer.
type Alert struct {
	ID         string     `json:"id"`
	Level      AlertLevel `json:"level"`
	Message    string     `json:"message"`
	Suggestion string     `json:"suggestion,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
}

// ConsoleLine is one entry in the bounded console buffer.
type ConsoleLine struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"received_at"`
}

// StateSnapshot is a point-in-time copy of the whole session state,
// safe for callers to keep.
type StateSnapshot struct {
	Connection ConnectionState  `json:"connection"`
	Training   TrainingSnapshot `json:"training"`
	Alerts     []Alert          `json:"alerts"`
	Console    []ConsoleLine    `json:"console"`
}

// Checkpoint is one saved snapshot of the training process. Immutable
// once fetched; identity is ID.
type Checkpoint struct {
	ID        CheckpointID `json:"id"`
	Name      string       `json:"name"`
	Stage     Stage        `json:"stage"`
	Epoch     int          `json:"epoch"`
	Loss      float64      `json:"loss"`
	Timestamp string       `json:"timestamp"`
	FilePath  string       `json:"file_path,omitempty"`
}

// CheckpointDetail is the per-checkpoint analysis bundle.
type CheckpointDetail struct {
	Steps             []int               `json:"steps"`
	LossCurve         []float64           `json:"loss_curve"`
	LRCurve           []float64           `json:"lr_curve"`
	BiasCurve         []float64           `json:"bias_curve"`
	VarianceCurve     []float64           `json:"variance_curve"`
	ModelArchitecture []ArchitectureLayer `json:"model_architecture"`
	Metrics           CheckpointMetrics   `json:"metrics"`
}

// ArchitectureLayer describes one layer in the model architecture view.
type ArchitectureLayer struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	Type       string `json:"type"`
	Params     int    `json:"params"`
	Activation string `json:"activation"`
}

// CheckpointMetrics summarizes a checkpoint's model.
type CheckpointMetrics struct {
	TotalParams       int     `json:"total_params"`
	TrainableParams   int     `json:"trainable_params"`
	ModelSizeMB       float64 `json:"model_size_mb"`
	TrainingTimeHours float64 `json:"training_time_hours"`
	BestLoss          float64 `json:"best_loss"`
	LearningStability float64 `json:"learning_stability"`
}

// ResumeCandidate is a checkpoint summary offered for resume selection.
type ResumeCandidate struct {
	ID          CheckpointID `json:"id"`
	Name        string       `json:"name"`
	Epoch       int          `json:"epoch"`
	Loss        float64      `json:"loss"`
	Timestamp   string       `json:"timestamp"`
	Recommended bool         `json:"recommended"`
}

// ConfigPreset describes one selectable training configuration file.
type ConfigPreset struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	Description  string `json:"description"`
	Device       string `json:"device,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// StatusReport is the server's request/response view of the run,
// used to refresh the snapshot after a reconnect. Elapsed time is not
// part of the status payload; it keeps flowing via training_update.
type StatusReport struct {
	IsTraining   bool    `json:"is_training"`
	CurrentEpoch int     `json:"current_epoch"`
	CurrentLoss  float64 `json:"current_loss"`
	CurrentStage Stage   `json:"current_stage"`
	LastUpdate   string  `json:"last_update,omitempty"`
}
