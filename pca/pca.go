// Package pca computes an orthogonal linear basis capturing the directions
// of maximal variance in a standardized feature table, and projects rows
// onto the stored basis. Apply is a matrix multiplication against the
// fitted loading matrix and never refits.
package pca

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
)

// DefaultComponents caps the retained component count when the caller does
// not choose one.
const DefaultComponents = 50

// Projector holds the fitted loading matrix. Loadings has one row per
// input column and one column per retained component. Immutable after Fit
// and safe for concurrent Apply calls.
type Projector struct {
	Loadings   *mat.Dense
	Components int
	InputDim   int
}

// NewProjector reconstructs a fitted projector from a persisted loading
// matrix.
func NewProjector(loadings *mat.Dense) *Projector {
	d, k := loadings.Dims()
	return &Projector{Loadings: loadings, Components: k, InputDim: d}
}

// Fit computes the top components of the standardized data by thin SVD.
// The retained count is min(components, columns, rows); components <= 0
// means DefaultComponents. The sign of each loading column is fixed so the
// entry of largest magnitude is positive, making refits deterministic.
func (p *Projector) Fit(data *mat.Dense, components int) error {
	if data == nil {
		return common.NoData
	}
	rows, cols := data.Dims()
	if rows == 0 {
		return common.EmptyInput{Stage: "pca/fit"}
	}
	if components <= 0 {
		components = DefaultComponents
	}
	k := components
	if cols < k {
		k = cols
	}
	if rows < k {
		k = rows
	}

	var svd mat.SVD
	if ok := svd.Factorize(data, mat.SVDThin); !ok {
		return common.NumericInstability{Stage: "pca/fit", Row: -1, Col: -1}
	}
	var v mat.Dense
	svd.VTo(&v)

	loadings := mat.NewDense(cols, k, nil)
	for j := 0; j < k; j++ {
		// Resolve the SVD sign ambiguity per component.
		pivot := 0
		for i := 1; i < cols; i++ {
			if math.Abs(v.At(i, j)) > math.Abs(v.At(pivot, j)) {
				pivot = i
			}
		}
		sign := 1.0
		if v.At(pivot, j) < 0 {
			sign = -1.0
		}
		for i := 0; i < cols; i++ {
			loadings.Set(i, j, sign*v.At(i, j))
		}
	}

	p.Loadings = loadings
	p.Components = k
	p.InputDim = cols
	return nil
}

// Dimensions returns the number of input columns the fit saw.
func (p *Projector) Dimensions() int {
	return p.InputDim
}

// Apply projects the rows of data onto the stored basis, returning a
// rows x Components matrix. The input must carry exactly the fitted column
// count; a non-finite value in the output is fatal.
func (p *Projector) Apply(data *mat.Dense) (*mat.Dense, error) {
	if p.Loadings == nil {
		return nil, common.DegenerateData{Stage: "pca/apply", Reason: "projector not fitted"}
	}
	rows, cols := data.Dims()
	if cols != p.InputDim {
		return nil, common.SchemaMismatch{Stage: "pca/apply", Expected: p.InputDim, Actual: cols, Column: -1}
	}
	if rows == 0 {
		return nil, common.EmptyInput{Stage: "pca/apply"}
	}

	out := mat.NewDense(rows, p.Components, nil)
	out.Mul(data, p.Loadings)
	for i := 0; i < rows; i++ {
		for j := 0; j < p.Components; j++ {
			v := out.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, common.NumericInstability{Stage: "pca/apply", Row: i, Col: j}
			}
		}
	}
	return out, nil
}
