// Package trialign aligns heterogeneous neural-recording trial data into a
// fixed-width feature space, reduces it with a PCA basis fitted once on
// training data, and classifies trial outcomes with a single logistic model.
//
// The packages are layered leaves-first: session holds raw per-session trial
// records, feature flattens and assembles them into a rectangular table,
// scale and pca implement the fitted standardize/project transform, classify
// trains and applies the model, eval scores predictions, and transform ties
// the fitted pieces into a persistable artifact that reproduces the exact
// training-time feature space on unseen data. pipeline wires the whole flow.
package trialign

import "gonum.org/v1/gonum/mat"

// A Transformer is a reusable fit/apply stage. Fit learns parameters from
// training rows; Apply re-applies exactly those parameters to new rows and
// never refits. Implementations are immutable after Fit and safe for
// concurrent Apply calls.
type Transformer interface {
	// Apply transforms the rows of data using the fitted parameters,
	// returning a new matrix. The column schema of data must match the
	// schema seen at fit time.
	Apply(data *mat.Dense) (*mat.Dense, error)

	// Dimensions returns the number of input columns the fit saw.
	Dimensions() int
}

// A Predictor is a fitted decision function over a fixed-width feature
// space. Implementations are immutable after training.
type Predictor interface {
	// Predict returns the class label for a single feature vector.
	Predict(input []float64) (float64, error)

	// PredictProb returns the probability of the positive class.
	PredictProb(input []float64) (float64, error)

	// InputDim returns the expected feature vector length.
	InputDim() int
}
