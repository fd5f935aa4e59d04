package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed command payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrAlreadyConnected indicates a connect on a live channel.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrChannelClosed indicates use of a torn-down channel.
	ErrChannelClosed = errors.New("channel closed")
	// ErrTrainingActive indicates a start while a run is in progress.
	ErrTrainingActive = errors.New("training is already running")
	// ErrNoTraining indicates a stop with no run in progress.
	ErrNoTraining = errors.New("no training is currently running")
	// ErrCheckpointNotFound indicates an unknown checkpoint id.
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	// ErrSelectionSuperseded indicates a detail fetch resolved after a
	// newer selection replaced it.
	ErrSelectionSuperseded = errors.New("selection superseded")
	// ErrCommandFailed indicates the server rejected a command.
	ErrCommandFailed = errors.New("command failed")
)
