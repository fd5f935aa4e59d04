// Package health derives operator-facing signals from loss values and
// loss curves. It is the single home of the classification thresholds;
// every other component depends on it rather than re-declaring the
// numbers.
package health

import "math"

// Status classifies a loss value.
type Status string

const (
	// StatusNormal means loss is inside the calibrated healthy band.
	StatusNormal Status = "normal"
	// StatusWarning means loss is elevated but not yet exploding.
	StatusWarning Status = "warning"
	// StatusCritical means loss crossed the explosion threshold.
	StatusCritical Status = "critical"
)

// ConvergenceLabel labels the variance of the recent loss window.
type ConvergenceLabel string

const (
	// ConvergenceStable indicates low recent variance.
	ConvergenceStable ConvergenceLabel = "Stable"
	// ConvergenceModerate indicates middling recent variance.
	ConvergenceModerate ConvergenceLabel = "Moderate"
	// ConvergenceUnstable indicates high recent variance.
	ConvergenceUnstable ConvergenceLabel = "Unstable"
)

// Thresholds holds the domain-calibrated loss boundaries. The warning
// tier includes both of its boundaries: normal < Warning <= warning
// <= Critical < critical.
type Thresholds struct {
	Warning  float64
	Critical float64
}

// DefaultThresholds are calibrated against the three-stage trainer.
// Do not change casually; alert semantics downstream depend on them.
func DefaultThresholds() Thresholds {
	return Thresholds{Warning: 100, Critical: 500}
}

// Classify grades loss against the thresholds.
func (t Thresholds) Classify(loss float64) Status {
	switch {
	case loss > t.Critical:
		return StatusCritical
	case loss >= t.Warning:
		return StatusWarning
	default:
		return StatusNormal
	}
}

// StatusOf grades loss against the default thresholds.
func StatusOf(loss float64) Status {
	return DefaultThresholds().Classify(loss)
}

// Stability scores a loss curve by relative spread: 1 - stddev/mean,
// clamped to [0,1]. The score is deliberately scale-sensitive only in
// relative terms; a smooth curve at high absolute loss still counts as
// stable (that is a learning-rate problem, not a stability problem).
// Curves shorter than two points score 0.
func Stability(curve []float64) float64 {
	if len(curve) < 2 {
		return 0
	}
	mean := mean(curve)
	if mean == 0 {
		return 0
	}
	score := 1 - stdDev(curve, mean)/mean
	return clamp01(score)
}

// recentWindow is the number of trailing points Convergence examines.
const recentWindow = 10

// Convergence labels the population variance of the last ten points.
// Shorter curves use every available point.
func Convergence(curve []float64) ConvergenceLabel {
	recent := curve
	if len(recent) > recentWindow {
		recent = recent[len(recent)-recentWindow:]
	}
	v := variance(recent)
	switch {
	case v < 10:
		return ConvergenceStable
	case v < 100:
		return ConvergenceModerate
	default:
		return ConvergenceUnstable
	}
}

// Recommendation suggests an operator action for a loss value.
func Recommendation(loss float64) string {
	switch StatusOf(loss) {
	case StatusCritical:
		return "Loss has exploded; stop training and apply a stable configuration"
	case StatusWarning:
		return "Loss is elevated; consider lowering the learning rate or resuming from an earlier checkpoint"
	default:
		return "Training is healthy; no action needed"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
