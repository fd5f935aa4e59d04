// Package traindeck composes the live training monitor: one websocket
// channel feeding session state, a command dispatcher, and a
// checkpoint repository client, all built from a single config.
package traindeck

import (
	"context"
	"net/http"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traindeck/core"
	"pkt.systems/traindeck/internal/appconfig"
	"pkt.systems/traindeck/internal/checkpoints"
	"pkt.systems/traindeck/internal/dispatch"
	"pkt.systems/traindeck/internal/health"
	"pkt.systems/traindeck/schema"
)

// Monitor is the compositor. It owns the channel, the session state,
// and the request/response clients that share the controller base URL.
type Monitor struct {
	cfg         appconfig.Config
	state       *core.State
	channel     *core.Channel
	commands    *dispatch.Client
	checkpoints *checkpoints.Client
	log         pslog.Logger
}

// MonitorDeps captures optional dependencies for the monitor.
type MonitorDeps struct {
	// Dialer overrides the websocket transport. Tests only.
	Dialer core.Dialer
	// HTTPClient is shared by the dispatch and checkpoint clients.
	HTTPClient *http.Client
	Logger     pslog.Logger
	// Sinks receive state change notifications.
	Sinks []core.EventSink
}

// NewMonitor builds a monitor from config. The channel is not
// connected yet; call Connect.
func NewMonitor(cfg appconfig.Config, deps MonitorDeps) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	wsURL, err := cfg.WebsocketURL()
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	requestTimeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	commands := dispatch.New(dispatch.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: requestTimeout,
	}, dispatch.Deps{
		HTTPClient: deps.HTTPClient,
		Logger:     logger,
	})
	repo := checkpoints.New(checkpoints.Config{
		BaseURL: cfg.Server.BaseURL,
		Timeout: requestTimeout,
	}, checkpoints.Deps{
		HTTPClient: deps.HTTPClient,
		Logger:     logger,
	})

	var sink core.EventSink
	switch len(deps.Sinks) {
	case 0:
	case 1:
		sink = deps.Sinks[0]
	default:
		sink = eventFanout{sinks: deps.Sinks}
	}

	state := core.NewState(core.StateConfig{
		AlertCapacity:   cfg.Buffers.AlertMax,
		ConsoleCapacity: cfg.Buffers.ConsoleMax,
		Thresholds: health.Thresholds{
			Warning:  cfg.Health.WarningLoss,
			Critical: cfg.Health.CriticalLoss,
		},
		Sink: sink,
	})
	channel := core.NewChannel(core.ChannelConfig{
		URL:              wsURL,
		DialTimeout:      time.Duration(cfg.Channel.DialTimeoutSeconds) * time.Second,
		ReconnectInitial: time.Duration(cfg.Channel.ReconnectInitialSeconds) * time.Second,
		ReconnectMax:     time.Duration(cfg.Channel.ReconnectMaxSeconds) * time.Second,
	}, state, core.ChannelDeps{
		Dialer: deps.Dialer,
		Status: commands,
		Logger: logger,
	})

	return &Monitor{
		cfg:         cfg,
		state:       state,
		channel:     channel,
		commands:    commands,
		checkpoints: repo,
		log:         logger,
	}, nil
}

// Connect starts the live channel.
func (m *Monitor) Connect(ctx context.Context) error {
	return m.channel.Connect(ctx)
}

// Disconnect tears the live channel down permanently.
func (m *Monitor) Disconnect() {
	m.channel.Disconnect()
}

// SessionID returns the channel's session identifier.
func (m *Monitor) SessionID() schema.SessionID {
	return m.channel.SessionID()
}

// State exposes the session state for read access.
func (m *Monitor) State() *core.State {
	return m.state
}

// StartTraining dispatches a start command.
func (m *Monitor) StartTraining(ctx context.Context, req schema.StartRequest) (schema.StartResult, error) {
	return m.commands.Start(ctx, req)
}

// StopTraining dispatches a stop command and reports acknowledgment.
func (m *Monitor) StopTraining(ctx context.Context) bool {
	return m.commands.Stop(ctx)
}

// OptimizeConfig asks the controller to tune a training config and
// returns the optimized config path.
func (m *Monitor) OptimizeConfig(ctx context.Context, req schema.OptimizeRequest) (string, error) {
	return m.commands.Optimize(ctx, req)
}

// Status fetches the controller's status over request/response.
func (m *Monitor) Status(ctx context.Context) (schema.StatusReport, error) {
	return m.commands.Status(ctx)
}

// Checkpoints lists available checkpoints.
func (m *Monitor) Checkpoints(ctx context.Context) checkpoints.ListResult {
	return m.checkpoints.List(ctx)
}

// CheckpointDetail fetches one checkpoint's curves and architecture.
func (m *Monitor) CheckpointDetail(ctx context.Context, id schema.CheckpointID) checkpoints.DetailResult {
	return m.checkpoints.Detail(ctx, id)
}

// SelectCheckpoint marks a checkpoint as the active selection.
func (m *Monitor) SelectCheckpoint(ctx context.Context, id schema.CheckpointID) (checkpoints.DetailResult, error) {
	return m.checkpoints.Select(ctx, id)
}

// SelectedCheckpoint returns the current selection, if any.
func (m *Monitor) SelectedCheckpoint() schema.CheckpointID {
	return m.checkpoints.Current()
}

// Configs lists the training configuration presets.
func (m *Monitor) Configs(ctx context.Context) checkpoints.ConfigsResult {
	return m.checkpoints.Configs(ctx)
}

// ResumeCandidates lists checkpoints usable to resume a stage.
func (m *Monitor) ResumeCandidates(ctx context.Context, stage schema.Stage) checkpoints.ResumeResult {
	return m.checkpoints.ResumeCandidates(ctx, stage)
}
