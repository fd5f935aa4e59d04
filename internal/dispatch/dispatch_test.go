package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pkt.systems/traindeck/core"
	"pkt.systems/traindeck/schema"
)

func validStart() schema.StartRequest {
	return schema.StartRequest{
		ConfigPath:  "config/bailando_config_stable.yaml",
		Stage:       1,
		ResumeMode:  schema.ResumeFresh,
		AutoAnalyze: true,
	}
}

func newTestClient(serverURL string) *Client {
	return New(Config{BaseURL: serverURL, Timeout: 2 * time.Second}, Deps{})
}

func TestStartSendsRequestBody(t *testing.T) {
	var received schema.StartRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/training/start" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(schema.StartResult{Status: "training_started", Message: "Training started with resume mode: fresh"})
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Start(context.Background(), validStart())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Status != "training_started" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if received.ConfigPath != "config/bailando_config_stable.yaml" || received.Stage != 1 {
		t.Fatalf("unexpected body: %+v", received)
	}
}

func TestStartDoesNotTouchSessionState(t *testing.T) {
	// Start is an acknowledgment only: the running flag must stay
	// false until a training_update arrives over the live channel.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(schema.StartResult{Status: "training_started"})
	}))
	defer srv.Close()

	state := core.NewState(core.StateConfig{})
	if _, err := newTestClient(srv.URL).Start(context.Background(), validStart()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if state.Training().IsTraining {
		t.Fatalf("start acknowledgment must not flip the running flag")
	}
}

func TestStartValidatesCrossFieldInvariant(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1")
	req := validStart()
	req.ResumeMode = schema.ResumeSpecific
	_, err := client.Start(context.Background(), req)
	if !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	req.ResumeCheckpoint = "training_state_stage_1_epoch_40"
	// Now only the unreachable server should fail, not validation.
	_, err = client.Start(context.Background(), req)
	if errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestStartSurfacesServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Training is already running"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Start(context.Background(), validStart())
	if !errors.Is(err, schema.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "Training is already running") {
		t.Fatalf("expected server detail in error, got %v", err)
	}
}

func TestStopDegradesToBoolean(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/training/stop" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "training_stopped"})
	}))
	defer srv.Close()

	if !newTestClient(srv.URL).Stop(context.Background()) {
		t.Fatalf("expected stop success")
	}
	if newTestClient("http://127.0.0.1:1").Stop(context.Background()) {
		t.Fatalf("expected stop failure for unreachable server")
	}
}

func TestOptimizeReturnsPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":                "optimization_complete",
			"optimized_config_path": "config/bailando_config_optimized_20260830_101500.yaml",
		})
	}))
	defer srv.Close()

	path, err := newTestClient(srv.URL).Optimize(context.Background(), schema.OptimizeRequest{ConfigPath: "config/base.yaml"})
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if path != "config/bailando_config_optimized_20260830_101500.yaml" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestOptimizeRejectsMissingPathInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "optimization_failed"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Optimize(context.Background(), schema.OptimizeRequest{ConfigPath: "config/base.yaml"})
	if !errors.Is(err, schema.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
}

func TestOptimizeValidatesRequest(t *testing.T) {
	_, err := newTestClient("http://127.0.0.1:1").Optimize(context.Background(), schema.OptimizeRequest{})
	if !errors.Is(err, schema.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestStatusMapsServerPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"server_status": "running",
			"training_status": {
				"is_training": true,
				"current_epoch": 17,
				"current_loss": 83.4,
				"current_stage": 2,
				"last_update": "2026-08-30T10:00:00"
			}
		}`))
	}))
	defer srv.Close()

	report, err := newTestClient(srv.URL).Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !report.IsTraining || report.CurrentEpoch != 17 || report.CurrentLoss != 83.4 || report.CurrentStage != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestCommandTimesOutInsteadOfHanging(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	client := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, Deps{})
	start := time.Now()
	_, err := client.Start(context.Background(), validStart())
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout took too long")
	}
}
