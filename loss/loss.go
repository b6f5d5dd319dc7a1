// Package loss provides the loss functions the classifier trains and
// validates with.
package loss

import "math"

var lenMismatch string = "length mismatch"

// clamp keeps probabilities away from 0 and 1 so the logarithm stays
// finite.
const probEps = 1e-12

// Losser is an interface for a loss function. A loss function is a measure
// of the quality of a prediction, with a lower value being better;
// typically zero iff prediction == truth and always non-negative. A Losser
// panics if len(prediction) != len(truth) and does not modify the slices.
type Losser interface {
	Loss(prediction, truth []float64) float64
}

// A DerivLosser is a loss function which can compute the loss and also the
// derivative of the loss with respect to the prediction, stored in place
// into the derivative slice. Panics if the three lengths differ.
type DerivLosser interface {
	Losser
	LossDeriv(prediction, truth, derivative []float64) float64
}

// CrossEntropy is the mean binary cross-entropy between predicted positive
// class probabilities and 0/1 truth labels.
type CrossEntropy struct{}

func (CrossEntropy) Loss(prediction, truth []float64) (loss float64) {
	if len(prediction) != len(truth) {
		panic(lenMismatch)
	}
	for i, p := range prediction {
		p = clampProb(p)
		loss -= truth[i]*math.Log(p) + (1-truth[i])*math.Log(1-p)
	}
	loss /= float64(len(prediction))
	return loss
}

func (CrossEntropy) LossDeriv(prediction, truth, derivative []float64) (loss float64) {
	if len(prediction) != len(truth) || len(prediction) != len(derivative) {
		panic(lenMismatch)
	}
	n := float64(len(prediction))
	for i, p := range prediction {
		p = clampProb(p)
		loss -= truth[i]*math.Log(p) + (1-truth[i])*math.Log(1-p)
		derivative[i] = (p - truth[i]) / (p * (1 - p)) / n
	}
	loss /= n
	return loss
}

// Convex allows CrossEntropy to be used where a convex loss is required.
func (CrossEntropy) Convex() {}

func clampProb(p float64) float64 {
	if p < probEps {
		return probEps
	}
	if p > 1-probEps {
		return 1 - probEps
	}
	return p
}

// SquaredDistance is the two-norm of (prediction - truth) divided by the
// length.
type SquaredDistance struct{}

func (SquaredDistance) Loss(prediction, truth []float64) (loss float64) {
	if len(prediction) != len(truth) {
		panic(lenMismatch)
	}
	for i := range prediction {
		diff := prediction[i] - truth[i]
		loss += diff * diff
	}
	loss /= float64(len(prediction))
	return loss
}

func (SquaredDistance) LossDeriv(prediction, truth, derivative []float64) (loss float64) {
	if len(prediction) != len(truth) || len(prediction) != len(derivative) {
		panic(lenMismatch)
	}
	for i := range prediction {
		diff := prediction[i] - truth[i]
		derivative[i] = 2 * diff / float64(len(prediction))
		loss += diff * diff
	}
	loss /= float64(len(prediction))
	return loss
}

// Convex allows SquaredDistance to be used where a convex loss is required.
func (SquaredDistance) Convex() {}
