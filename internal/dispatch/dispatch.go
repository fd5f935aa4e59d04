// Package dispatch sends control commands to the training controller.
// Every call is a plain request/response exchange, independent of the
// live channel's transport. A successful start is an acknowledgment
// only; the "now running" bit always arrives later over the channel,
// never from here. Flipping it optimistically would drift from server
// truth whenever a run is accepted but fails to attach.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traindeck/schema"
)

// DefaultTimeout bounds one command round trip.
const DefaultTimeout = 15 * time.Second

// Config configures the dispatcher.
type Config struct {
	// BaseURL is the controller's HTTP root, e.g. http://host:8000.
	BaseURL string
	// Timeout bounds each command. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Deps captures optional dependencies for the dispatcher.
type Deps struct {
	HTTPClient *http.Client
	Logger     pslog.Logger
}

// Client issues start/stop/optimize commands. Commands are never
// retried automatically; retrying a start could double-start a run.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     pslog.Logger
}

// New constructs a dispatcher.
func New(cfg Config, deps Deps) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Client{
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		http:    httpClient,
		log:     logger,
	}
}

// Start asks the controller to begin a training run. The returned
// result means "accepted for execution", nothing more.
func (c *Client) Start(ctx context.Context, req schema.StartRequest) (schema.StartResult, error) {
	if err := req.Validate(); err != nil {
		return schema.StartResult{}, err
	}
	c.log.Info("dispatching start", "config", req.ConfigPath, "stage", req.Stage, "resume_mode", req.ResumeMode)
	var result schema.StartResult
	if err := c.post(ctx, "/api/training/start", req, &result); err != nil {
		return schema.StartResult{}, fmt.Errorf("start training: %w", err)
	}
	return result, nil
}

// Stop asks the controller to terminate the current run. It degrades
// to a boolean: stop failures are rare and carry little the operator
// can act on.
func (c *Client) Stop(ctx context.Context) bool {
	var result struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/api/training/stop", nil, &result); err != nil {
		c.log.Warn("stop command failed", "err", err)
		return false
	}
	return true
}

// Optimize asks the controller to optimize a configuration and
// returns the path of the optimized file.
func (c *Client) Optimize(ctx context.Context, req schema.OptimizeRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	c.log.Info("dispatching optimize", "config", req.ConfigPath, "device", req.TargetDevice)
	var result struct {
		Status              string `json:"status"`
		OptimizedConfigPath string `json:"optimized_config_path"`
	}
	if err := c.post(ctx, "/api/config/optimize", req, &result); err != nil {
		return "", fmt.Errorf("optimize config: %w", err)
	}
	if result.OptimizedConfigPath == "" {
		return "", fmt.Errorf("%w: optimizer returned status %q without a config path", schema.ErrCommandFailed, result.Status)
	}
	return result.OptimizedConfigPath, nil
}

// Status fetches the controller's request/response view of the run.
// The live channel uses it to refresh the snapshot after reconnects.
func (c *Client) Status(ctx context.Context) (schema.StatusReport, error) {
	var payload struct {
		ServerStatus   string `json:"server_status"`
		TrainingStatus struct {
			IsTraining   bool         `json:"is_training"`
			CurrentEpoch int          `json:"current_epoch"`
			CurrentLoss  float64      `json:"current_loss"`
			CurrentStage schema.Stage `json:"current_stage"`
			LastUpdate   string       `json:"last_update"`
		} `json:"training_status"`
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return schema.StatusReport{}, err
	}
	if err := c.do(req, &payload); err != nil {
		return schema.StatusReport{}, fmt.Errorf("fetch status: %w", err)
	}
	return schema.StatusReport{
		IsTraining:   payload.TrainingStatus.IsTraining,
		CurrentEpoch: payload.TrainingStatus.CurrentEpoch,
		CurrentLoss:  payload.TrainingStatus.CurrentLoss,
		CurrentStage: payload.TrainingStatus.CurrentStage,
		LastUpdate:   payload.TrainingStatus.LastUpdate,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body any, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", schema.ErrCommandFailed, errorDetail(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts the controller's error message; its error
// bodies carry it in a "detail" field.
func errorDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var fields struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &fields) == nil && fields.Detail != "" {
			return fields.Detail
		}
	}
	return fmt.Sprintf("unexpected status %d", resp.StatusCode)
}
