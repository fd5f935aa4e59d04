package schema

// SessionID identifies one logical live-channel session. It is generated
// client-side and passed to the server as a connection parameter.
type SessionID string

// CheckpointID identifies a saved training checkpoint.
type CheckpointID string

// Stage is one of the three sequential training phases of the remote
// process. The monitor treats it as opaque beyond the 1..3 range.
type Stage int

// Valid reports whether the stage is in the supported range.
func (s Stage) Valid() bool {
	return s >= 1 && s <= 3
}

// ResumeMode selects how a training run resumes from prior state.
type ResumeMode string

const (
	// ResumeFresh starts from scratch, ignoring prior checkpoints.
	ResumeFresh ResumeMode = "fresh"
	// ResumeLatest resumes from the newest checkpoint for the stage.
	ResumeLatest ResumeMode = "latest"
	// ResumeSpecific resumes from an explicitly named checkpoint.
	ResumeSpecific ResumeMode = "specific"
)

// Valid reports whether the resume mode is a known value.
func (m ResumeMode) Valid() bool {
	switch m {
	case ResumeFresh, ResumeLatest, ResumeSpecific:
		return true
	}
	return false
}

// ConnectionPhase describes the live channel's lifecycle position.
type ConnectionPhase string

const (
	// PhaseDisconnected means no connection exists and none is pending.
	PhaseDisconnected ConnectionPhase = "disconnected"
	// PhaseConnecting means a dial attempt is in flight.
	PhaseConnecting ConnectionPhase = "connecting"
	// PhaseConnected means the channel is open and receiving events.
	PhaseConnected ConnectionPhase = "connected"
	// PhaseDegraded means the connection dropped abnormally and a
	// reconnect is pending.
	PhaseDegraded ConnectionPhase = "degraded"
	// PhaseReconnecting means the backoff delay elapsed and a new dial
	// is about to start.
	PhaseReconnecting ConnectionPhase = "reconnecting"
)

// CloseReason classifies why a connection ended. It is decided at the
// transport boundary so the state machine never inspects close codes.
type CloseReason int

const (
	// CloseAbnormal is an unexpected transport failure; the channel
	// degrades and schedules a reconnect.
	CloseAbnormal CloseReason = iota
	// CloseNormal is a server-initiated orderly shutdown; no reconnect.
	CloseNormal
	// CloseByRequest is an explicit client Disconnect; no reconnect.
	CloseByRequest
)

func (r CloseReason) String() string {
	switch r {
	case CloseNormal:
		return "normal"
	case CloseByRequest:
		return "by-request"
	default:
		return "abnormal"
	}
}

// ConnectionState is the channel's externally visible status.
type ConnectionState struct {
	Phase   ConnectionPhase `json:"phase"`
	Session SessionID       `json:"session_id"`
}

// AlertLevel grades a training alert.
type AlertLevel string

const (
	// AlertInfo is informational.
	AlertInfo AlertLevel = "info"
	// AlertSuccess reports a positive outcome.
	AlertSuccess AlertLevel = "success"
	// AlertWarning reports a condition worth watching.
	AlertWarning AlertLevel = "warning"
	// AlertCritical reports a condition needing operator action.
	AlertCritical AlertLevel = "critical"
	// AlertError reports a failure in the training process itself.
	AlertError AlertLevel = "error"
)
