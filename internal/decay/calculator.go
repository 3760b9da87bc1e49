// Package decay implements the Memory Manager (C4): the forgetting-curve
// scoring and retention policy of spec §4.4, layered over the
// Tensor-Graph's access_score/accessed_at bookkeeping.
package decay

import "math"

// Model selects which forgetting curve a Calculator applies.
type Model string

const (
	Exponential Model = "exponential"
	PowerLaw    Model = "power_law"
	Linear      Model = "linear"
)

// Calculator is the decay capability contract — swappable the same way
// Embedder and vector.Index are (spec §9 "Dynamic dispatch"), so a test
// can substitute a deterministic curve without touching the Manager.
type Calculator interface {
	// Decay returns the decayed score for a node that held `score` at its
	// last touch, elapsedDays ago.
	Decay(score float64, elapsedDays float64) float64
	Model() Model
}

// ExponentialCalculator implements score' = score * exp(-Δ/S), the
// default curve (spec §4.4).
type ExponentialCalculator struct {
	// Scale is S, the decay scale in days (default 20).
	Scale float64
}

func NewExponentialCalculator(scale float64) ExponentialCalculator {
	if scale <= 0 {
		scale = 20
	}
	return ExponentialCalculator{Scale: scale}
}

func (c ExponentialCalculator) Decay(score, elapsedDays float64) float64 {
	if elapsedDays <= 0 {
		return score
	}
	return score * math.Exp(-elapsedDays/c.Scale)
}

func (c ExponentialCalculator) Model() Model { return Exponential }

// PowerLawCalculator implements score' = score * (1 + Δ)^(-α).
type PowerLawCalculator struct {
	Alpha float64
}

func NewPowerLawCalculator(alpha float64) PowerLawCalculator {
	if alpha <= 0 {
		alpha = 0.5
	}
	return PowerLawCalculator{Alpha: alpha}
}

func (c PowerLawCalculator) Decay(score, elapsedDays float64) float64 {
	if elapsedDays <= 0 {
		return score
	}
	return score * math.Pow(1+elapsedDays, -c.Alpha)
}

func (c PowerLawCalculator) Model() Model { return PowerLaw }

// LinearCalculator implements score' = score * max(0, 1 - Δ/T).
type LinearCalculator struct {
	// HorizonDays is T, the number of days until the score reaches zero.
	HorizonDays float64
}

func NewLinearCalculator(horizonDays float64) LinearCalculator {
	if horizonDays <= 0 {
		horizonDays = 60
	}
	return LinearCalculator{HorizonDays: horizonDays}
}

func (c LinearCalculator) Decay(score, elapsedDays float64) float64 {
	if elapsedDays <= 0 {
		return score
	}
	remaining := 1 - elapsedDays/c.HorizonDays
	if remaining < 0 {
		remaining = 0
	}
	return score * remaining
}

func (c LinearCalculator) Model() Model { return Linear }

// New builds a Calculator for the named model with its one tuning
// parameter (scale/alpha/horizon, depending on model).
func New(model Model, param float64) Calculator {
	switch model {
	case PowerLaw:
		return NewPowerLawCalculator(param)
	case Linear:
		return NewLinearCalculator(param)
	default:
		return NewExponentialCalculator(param)
	}
}
