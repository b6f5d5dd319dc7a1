// Package classify trains and applies the binary logistic model over the
// projected feature space. Hyperparameter selection is stratified k-fold
// cross-validation over the L2 penalty strength; the fitted model is
// immutable and safe for concurrent prediction.
package classify

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
	"github.com/trialign/trialign/session"
)

const (
	minGrain = 64
	maxGrain = 1024
)

// Logistic is a fitted binary logistic decision function. Weights has one
// entry per input feature; Gamma records the selected L2 strength.
type Logistic struct {
	Weights []float64
	Bias    float64
	Gamma   float64
}

// InputDim returns the expected feature vector length.
func (l *Logistic) InputDim() int {
	return len(l.Weights)
}

// PredictProb returns the calibrated probability of the positive class
// (a successful trial) for a single feature vector.
func (l *Logistic) PredictProb(input []float64) (float64, error) {
	if len(input) != len(l.Weights) {
		return 0, common.SchemaMismatch{Stage: "classify/predict", Expected: len(l.Weights), Actual: len(input), Column: -1}
	}
	return sigmoid(l.Bias + floats.Dot(l.Weights, input)), nil
}

// Predict returns the class label for a single feature vector.
func (l *Logistic) Predict(input []float64) (float64, error) {
	p, err := l.PredictProb(input)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return session.OutcomeSuccess, nil
	}
	return session.OutcomeFailure, nil
}

// PredictBatch predicts every row of inputs concurrently, returning labels
// and positive-class probabilities by row.
func (l *Logistic) PredictBatch(inputs *mat.Dense) (labels, probs []float64, err error) {
	if inputs == nil {
		return nil, nil, common.NoData
	}
	rows, dim := inputs.Dims()
	if dim != len(l.Weights) {
		return nil, nil, common.SchemaMismatch{Stage: "classify/predict", Expected: len(l.Weights), Actual: dim, Column: -1}
	}
	if rows == 0 {
		return nil, nil, common.EmptyInput{Stage: "classify/predict"}
	}

	labels = make([]float64, rows)
	probs = make([]float64, rows)
	f := func(start, end int) {
		for i := start; i < end; i++ {
			p := sigmoid(l.Bias + floats.Dot(l.Weights, inputs.RawRowView(i)))
			probs[i] = p
			if p >= 0.5 {
				labels[i] = session.OutcomeSuccess
			} else {
				labels[i] = session.OutcomeFailure
			}
		}
	}
	common.ParallelFor(rows, common.GetGrainSize(rows, minGrain, maxGrain), f)
	return labels, probs, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
