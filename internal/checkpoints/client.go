// Package checkpoints fetches checkpoint history from the training
// controller. Read failures never propagate: the client substitutes
// deterministic synthetic data so callers keep working offline, with a
// Fallback marker so the substitution is never mistaken for live data.
package checkpoints

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/traindeck/internal/logx"
	"pkt.systems/traindeck/schema"
)

// DefaultTimeout bounds one request/response round trip.
const DefaultTimeout = 15 * time.Second

// Config configures the repository client.
type Config struct {
	// BaseURL is the controller's HTTP root, e.g. http://host:8000.
	BaseURL string
	// Timeout bounds each fetch. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Deps captures optional dependencies for the client.
type Deps struct {
	HTTPClient *http.Client
	Logger     pslog.Logger
}

// Client is the checkpoint repository client. Safe for concurrent use;
// cached details are immutable per id.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     pslog.Logger

	mu      sync.Mutex
	details map[schema.CheckpointID]schema.CheckpointDetail
	seq     uint64
	current schema.CheckpointID
}

// New constructs a repository client.
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
		details: make(map[schema.CheckpointID]schema.CheckpointDetail),
	}
}

// ListResult carries the checkpoint list and its provenance.
type ListResult struct {
	Checkpoints []schema.Checkpoint
	Fallback    bool
}

// List fetches every known checkpoint. On any fetch failure the fixed
// fallback list is returned instead; List itself never fails.
func (c *Client) List(ctx context.Context) ListResult {
	var out []schema.Checkpoint
	if err := c.getJSON(ctx, "/api/checkpoints", &out); err != nil {
		c.log.Warn("checkpoint list fetch failed, using fallback", "err", err)
		return ListResult{Checkpoints: fallbackCheckpoints(), Fallback: true}
	}
	return ListResult{Checkpoints: out}
}

// DetailResult carries one checkpoint's analysis bundle.
type DetailResult struct {
	ID       schema.CheckpointID
	Detail   schema.CheckpointDetail
	Fallback bool
}

// Detail fetches the analysis bundle for one checkpoint, serving from
// the session cache when possible. Fallback data is synthesized on
// fetch failure and is not cached, so a later call can still pick up
// live data.
func (c *Client) Detail(ctx context.Context, id schema.CheckpointID) DetailResult {
	c.mu.Lock()
	if detail, ok := c.details[id]; ok {
		c.mu.Unlock()
		return DetailResult{ID: id, Detail: detail}
	}
	c.mu.Unlock()

	log := logx.WithCheckpoint(c.log, id)
	var detail schema.CheckpointDetail
	if err := c.getJSON(ctx, "/api/checkpoint/"+string(id), &detail); err != nil {
		log.Warn("checkpoint detail fetch failed, using fallback", "err", err)
		return DetailResult{ID: id, Detail: syntheticDetail(epochFromID(id)), Fallback: true}
	}
	c.mu.Lock()
	c.details[id] = detail
	c.mu.Unlock()
	return DetailResult{ID: id, Detail: detail}
}

// Select fetches the detail for a newly selected checkpoint. Each call
// supersedes earlier in-flight selections: a fetch that resolves after
// a newer Select returns ErrSelectionSuperseded instead of its result,
// so a slow response can never overwrite a newer choice.
func (c *Client) Select(ctx context.Context, id schema.CheckpointID) (DetailResult, error) {
	c.mu.Lock()
	c.seq++
	token := c.seq
	c.mu.Unlock()

	result := c.Detail(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		return DetailResult{}, fmt.Errorf("checkpoint %s: %w", id, schema.ErrSelectionSuperseded)
	}
	c.current = id
	return result, nil
}

// Current returns the id of the latest accepted selection.
func (c *Client) Current() schema.CheckpointID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ConfigsResult carries the configuration presets and provenance.
type ConfigsResult struct {
	Presets  []schema.ConfigPreset
	Fallback bool
}

// Configs lists the training configuration presets.
func (c *Client) Configs(ctx context.Context) ConfigsResult {
	var out []schema.ConfigPreset
	if err := c.getJSON(ctx, "/api/configs/available", &out); err != nil {
		c.log.Warn("config preset fetch failed, using fallback", "err", err)
		return ConfigsResult{Presets: fallbackPresets(), Fallback: true}
	}
	return ConfigsResult{Presets: out}
}

// ResumeResult carries resume candidates for a stage and provenance.
type ResumeResult struct {
	Selection schema.ResumeSelection
	Fallback  bool
}

// ResumeCandidates lists the checkpoints available for resuming the
// given stage.
func (c *Client) ResumeCandidates(ctx context.Context, stage schema.Stage) ResumeResult {
	req := schema.ResumeSelectionRequest{Stage: stage}
	var out schema.ResumeSelection
	if err := c.postJSON(ctx, "/api/checkpoints/select", req, &out); err != nil {
		c.log.Warn("resume candidate fetch failed, using fallback", "stage", stage, "err", err)
		return ResumeResult{Selection: fallbackResumeSelection(stage), Fallback: true}
	}
	return ResumeResult{Selection: out}
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, v)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
