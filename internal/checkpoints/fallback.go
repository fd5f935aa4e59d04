package checkpoints

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"pkt.systems/traindeck/schema"
)

// defaultFallbackEpochs seeds synthetic curves when an id carries no
// epoch marker.
const defaultFallbackEpochs = 50

// fallbackCheckpoints is the fixed offline checkpoint list. The shape
// mirrors what the controller reports for a short healthy run so demo
// sessions exercise the same rendering paths as live ones.
func fallbackCheckpoints() []schema.Checkpoint {
	return []schema.Checkpoint{
		{
			ID:        "training_state_stage_1_epoch_20",
			Name:      "Stage 1 Epoch 20",
			Stage:     1,
			Epoch:     20,
			Loss:      245.0,
			Timestamp: "2026-01-10T08:30:00",
		},
		{
			ID:        "training_state_stage_1_epoch_40",
			Name:      "Stage 1 Epoch 40",
			Stage:     1,
			Epoch:     40,
			Loss:      370.0,
			Timestamp: "2026-01-10T11:45:00",
		},
		{
			ID:        "training_state_stage_2_epoch_10",
			Name:      "Stage 2 Epoch 10",
			Stage:     2,
			Epoch:     10,
			Loss:      95.0,
			Timestamp: "2026-01-11T09:15:00",
		},
	}
}

// fallbackPresets is the fixed offline configuration list.
func fallbackPresets() []schema.ConfigPreset {
	return []schema.ConfigPreset{
		{
			Name:        "bailando_config_stable.yaml",
			Path:        "config/bailando_config_stable.yaml",
			Description: "Stable CPU configuration",
			Device:      "cpu",
		},
	}
}

// fallbackResumeSelection synthesizes resume candidates from the fixed
// checkpoint list, filtered by stage.
func fallbackResumeSelection(stage schema.Stage) schema.ResumeSelection {
	var candidates []schema.ResumeCandidate
	for _, cp := range fallbackCheckpoints() {
		if cp.Stage != stage {
			continue
		}
		candidates = append(candidates, schema.ResumeCandidate{
			ID:          cp.ID,
			Name:        fmt.Sprintf("Epoch %d", cp.Epoch),
			Epoch:       cp.Epoch,
			Loss:        cp.Loss,
			Timestamp:   cp.Timestamp,
			Recommended: cp.Loss < 100,
		})
	}
	sel := schema.ResumeSelection{
		AvailableCheckpoints: candidates,
		Stage:                stage,
		TotalFound:           len(candidates),
	}
	if len(candidates) > 0 {
		latest := candidates[len(candidates)-1]
		sel.Latest = &latest
	}
	return sel
}

var epochPattern = regexp.MustCompile(`epoch_(\d+)`)

// epochFromID extracts the epoch count encoded in a checkpoint id.
func epochFromID(id schema.CheckpointID) int {
	match := epochPattern.FindStringSubmatch(string(id))
	if match == nil {
		return defaultFallbackEpochs
	}
	epoch, err := strconv.Atoi(match[1])
	if err != nil || epoch <= 0 {
		return defaultFallbackEpochs
	}
	return epoch
}

// syntheticDetail generates the deterministic offline analysis bundle.
// The loss curve rises into an instability bump and recovers, keyed
// only by the epoch count, matching the controller's own synthetic
// curve so offline and live charts look alike.
func syntheticDetail(epochs int) schema.CheckpointDetail {
	if epochs <= 0 {
		epochs = defaultFallbackEpochs
	}
	steps := make([]int, epochs)
	lossCurve := make([]float64, epochs)
	lrCurve := make([]float64, epochs)
	biasCurve := make([]float64, epochs)
	varianceCurve := make([]float64, epochs)
	best := math.MaxFloat64
	for i := 0; i < epochs; i++ {
		step := i + 1
		steps[i] = step
		var loss float64
		switch {
		case step < 10:
			loss = 50 + float64(step)*5
		case step < 30:
			loss = 100 + float64(step-10)*15
		default:
			loss = 400 - float64(step-30)*3
		}
		lossCurve[i] = loss
		lrCurve[i] = 0.0001 * math.Pow(0.98, float64(step)/10)
		biasCurve[i] = loss * 0.12
		varianceCurve[i] = loss * 0.08
		if loss < best {
			best = loss
		}
	}
	return schema.CheckpointDetail{
		Steps:             steps,
		LossCurve:         lossCurve,
		LRCurve:           lrCurve,
		BiasCurve:         biasCurve,
		VarianceCurve:     varianceCurve,
		ModelArchitecture: fallbackArchitecture(),
		Metrics: schema.CheckpointMetrics{
			TotalParams:       927048,
			TrainableParams:   927048,
			ModelSizeMB:       3.5,
			TrainingTimeHours: float64(epochs) * 0.06,
			BestLoss:          best,
			LearningStability: 0.7,
		},
	}
}

func fallbackArchitecture() []schema.ArchitectureLayer {
	return []schema.ArchitectureLayer{
		{Name: "Input Layer", Size: 72, Type: "input", Params: 0, Activation: "None"},
		{Name: "Encoder 1", Size: 512, Type: "dense", Params: 36864, Activation: "ReLU"},
		{Name: "Encoder 2", Size: 256, Type: "dense", Params: 131328, Activation: "ReLU"},
		{Name: "Latent", Size: 256, Type: "latent", Params: 65792, Activation: "Linear"},
		{Name: "VQ Layer", Size: 1024, Type: "quantize", Params: 262144, Activation: "Quantize"},
		{Name: "Decoder 1", Size: 256, Type: "dense", Params: 262400, Activation: "ReLU"},
		{Name: "Decoder 2", Size: 512, Type: "dense", Params: 131584, Activation: "ReLU"},
		{Name: "Output Layer", Size: 72, Type: "output", Params: 36936, Activation: "Linear"},
	}
}
