package checkpoints

import (
	"math"
	"reflect"
	"testing"

	"pkt.systems/traindeck/schema"
)

func TestSyntheticDetailIsDeterministic(t *testing.T) {
	a := syntheticDetail(40)
	b := syntheticDetail(40)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("synthetic detail must be deterministic")
	}
}

func TestSyntheticDetailCurveShape(t *testing.T) {
	detail := syntheticDetail(40)
	if len(detail.Steps) != 40 || len(detail.LossCurve) != 40 {
		t.Fatalf("expected 40 steps, got %d/%d", len(detail.Steps), len(detail.LossCurve))
	}
	// Ramp, bump, recovery: the three regimes of the synthetic curve.
	if got := detail.LossCurve[0]; got != 55 {
		t.Fatalf("step 1 loss = %v, want 55", got)
	}
	if got := detail.LossCurve[9]; got != 100 {
		t.Fatalf("step 10 loss = %v, want 100", got)
	}
	if got := detail.LossCurve[29]; got != 400 {
		t.Fatalf("step 30 loss = %v, want 400", got)
	}
	if got := detail.LossCurve[39]; got != 370 {
		t.Fatalf("step 40 loss = %v, want 370", got)
	}
	for i, loss := range detail.LossCurve {
		if math.Abs(detail.BiasCurve[i]-loss*0.12) > 1e-9 {
			t.Fatalf("bias curve mismatch at %d", i)
		}
		if math.Abs(detail.VarianceCurve[i]-loss*0.08) > 1e-9 {
			t.Fatalf("variance curve mismatch at %d", i)
		}
	}
	if detail.Metrics.BestLoss != 55 {
		t.Fatalf("best loss = %v, want 55", detail.Metrics.BestLoss)
	}
}

func TestEpochFromID(t *testing.T) {
	cases := []struct {
		id   string
		want int
	}{
		{"training_state_stage_1_epoch_40", 40},
		{"training_state_stage_2_epoch_7", 7},
		{"no_epoch_marker", defaultFallbackEpochs},
		{"training_state_stage_1_epoch_0", defaultFallbackEpochs},
	}
	for _, tc := range cases {
		if got := epochFromID(schema.CheckpointID(tc.id)); got != tc.want {
			t.Fatalf("epochFromID(%q) = %d, want %d", tc.id, got, tc.want)
		}
	}
}

func TestFallbackListStable(t *testing.T) {
	if !reflect.DeepEqual(fallbackCheckpoints(), fallbackCheckpoints()) {
		t.Fatalf("fallback list must be stable")
	}
}
