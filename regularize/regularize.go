// Package regularize provides penalties on parameter values to prevent
// overfitting.
package regularize

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Regularizer is a type that puts pressure on the values of parameters.
type Regularizer interface {
	// Loss is how much penalty is generated by the parameter values.
	Loss(parameters []float64) float64

	// LossDeriv returns the penalty and stores its derivative with
	// respect to the parameters in place. The writer may assume
	// len(parameters) == len(derivative) but not that derivative is
	// zeroed.
	LossDeriv(parameters, derivative []float64) float64

	// LossAddDeriv adds the derivative rather than storing in place.
	LossAddDeriv(parameters, derivative []float64) float64
}

// TwoNorm is the penalty ɣ||w||₂².
type TwoNorm struct {
	Gamma float64 // Relative weight compared to the loss function
}

func (t TwoNorm) Loss(parameters []float64) float64 {
	return t.Gamma * math.Pow(floats.Norm(parameters, 2), 2)
}

func (t TwoNorm) LossDeriv(parameters, derivative []float64) float64 {
	loss := t.Loss(parameters)
	for i, p := range parameters {
		derivative[i] = t.Gamma * 2 * p
	}
	return loss
}

func (t TwoNorm) LossAddDeriv(parameters, derivative []float64) float64 {
	loss := t.Loss(parameters)
	for i, p := range parameters {
		derivative[i] += t.Gamma * 2 * p
	}
	return loss
}

// None represents no regularizer.
type None struct{}

func (n None) Loss(parameters []float64) float64 {
	return 0
}

func (n None) LossDeriv(parameters, derivative []float64) float64 {
	for i := range derivative {
		derivative[i] = 0
	}
	return 0
}

func (n None) LossAddDeriv(parameters, derivative []float64) float64 {
	return 0
}
