package triage

import "math"

// Weights scales the heuristic auto-process score. A zero or negative value is treated as 1.
type Weights struct {
	Similarity float64 `json:"similarity"`
	Provider   float64 `json:"provider"`
	Duplicate  float64 `json:"duplicate"`
	Priority   float64 `json:"priority"`
}

// DefaultWeights returns the neutral weight set used when no configuration row exists.
func DefaultWeights() Weights {
	return Weights{Similarity: 1, Provider: 1, Duplicate: 1, Priority: 1}
}

// Normalized replaces unset coefficients with the neutral value.
func (w Weights) Normalized() Weights {
	return Weights{
		Similarity: orOne(w.Similarity),
		Provider:   orOne(w.Provider),
		Duplicate:  orOne(w.Duplicate),
		Priority:   orOne(w.Priority),
	}
}

const (
	weightSuccessDelta = 0.02
	weightFailureDelta = -0.03
	weightFloor        = 0.5
	// MaxWeight is the upper bound admins may configure and feedback may reach.
	MaxWeight = 3.0
)

// AdjustWeights nudges the similarity, duplicate and provider coefficients after a feedback signal.
// The priority coefficient drives the acceptance threshold and is left for admins to tune.
func AdjustWeights(w Weights, success bool) Weights {
	delta := weightFailureDelta
	if success {
		delta = weightSuccessDelta
	}

	next := w.Normalized()
	next.Similarity = round4(clampFloat(next.Similarity+delta, weightFloor, MaxWeight))
	next.Duplicate = round4(clampFloat(next.Duplicate+delta, weightFloor, MaxWeight))
	next.Provider = round4(clampFloat(next.Provider+delta, weightFloor, MaxWeight))
	return next
}

func orOne(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
