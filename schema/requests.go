package schema

import "fmt"

// StartRequest is the body of a start-training command.
type StartRequest struct {
	ConfigPath       string     `json:"config_path"`
	Stage            Stage      `json:"stage"`
	ResumeMode       ResumeMode `json:"resume_mode"`
	ResumeCheckpoint string     `json:"resume_checkpoint,omitempty"`
	RunName          string     `json:"run_name,omitempty"`
	PreserveLogs     bool       `json:"preserve_logs,omitempty"`
	AutoOptimize     bool       `json:"auto_optimize,omitempty"`
	AutoAnalyze      bool       `json:"auto_analyze"`
	TargetLoss       float64    `json:"target_loss,omitempty"`
	MaxEpochs        int        `json:"max_epochs,omitempty"`
}

// Validate enforces the cross-field invariants before the request is
// sent. A specific resume mode without a checkpoint is a client bug,
// not something to let the server reject.
func (r StartRequest) Validate() error {
	if r.ConfigPath == "" {
		return fmt.Errorf("%w: config_path is required", ErrInvalidRequest)
	}
	if !r.Stage.Valid() {
		return fmt.Errorf("%w: stage %d out of range 1..3", ErrInvalidRequest, r.Stage)
	}
	if !r.ResumeMode.Valid() {
		return fmt.Errorf("%w: unknown resume_mode %q", ErrInvalidRequest, r.ResumeMode)
	}
	if r.ResumeMode == ResumeSpecific && r.ResumeCheckpoint == "" {
		return fmt.Errorf("%w: resume_mode %q requires resume_checkpoint", ErrInvalidRequest, ResumeSpecific)
	}
	return nil
}

// OptimizeRequest asks the server to optimize a configuration for a
// target device under parameter constraints.
type OptimizeRequest struct {
	ConfigPath        string   `json:"config_path"`
	TargetDevice      string   `json:"target_device,omitempty"`
	MaxParameters     float64  `json:"max_parameters,omitempty"`
	OptimizationGoals []string `json:"optimization_goals,omitempty"`
}

// Validate checks the request before sending.
func (r OptimizeRequest) Validate() error {
	if r.ConfigPath == "" {
		return fmt.Errorf("%w: config_path is required", ErrInvalidRequest)
	}
	return nil
}

// ResumeSelectionRequest filters resume candidates by stage.
type ResumeSelectionRequest struct {
	Stage         Stage  `json:"stage"`
	LogsDirectory string `json:"logs_directory,omitempty"`
}

// StartResult is the server's acknowledgment of a start command. It
// means "accepted for execution", not "now running"; the running bit
// only ever arrives over the live channel.
type StartResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ResumeSelection is the server's answer to a resume selection query.
type ResumeSelection struct {
	AvailableCheckpoints []ResumeCandidate `json:"available_checkpoints"`
	Stage                Stage             `json:"stage"`
	TotalFound           int               `json:"total_found"`
	Latest               *ResumeCandidate  `json:"latest_checkpoint,omitempty"`
}
