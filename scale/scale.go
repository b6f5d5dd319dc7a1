// Package scale standardizes feature columns using parameters learned once
// from training data. Apply never recomputes statistics from the table it
// transforms; the fitted mean and deviation travel with the column schema
// and every apply call is validated against it.
package scale

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
)

// Scaler is a fitted column-wise transformation. Fit learns parameters
// from training rows for the identified columns; Apply re-applies exactly
// those parameters to new rows carrying the same columns.
type Scaler interface {
	Fit(data *mat.Dense, columns []int) error
	Apply(data *mat.Dense, columns []int) (*mat.Dense, error)
	IsScaled() bool
	Dimensions() int
}

// Standardizer scales each fitted column to mean 0 and standard deviation 1
// using the population deviation of the training rows. Immutable after Fit
// and safe for concurrent Apply calls.
type Standardizer struct {
	Mu      []float64
	Sigma   []float64
	Columns []int
	Scaled  bool
}

// NewStandardizer reconstructs a fitted standardizer from persisted
// parameters.
func NewStandardizer(columns []int, mu, sigma []float64) *Standardizer {
	return &Standardizer{Mu: mu, Sigma: sigma, Columns: columns, Scaled: true}
}

// IsScaled returns true if the scale has been set.
func (s *Standardizer) IsScaled() bool {
	return s.Scaled
}

// Dimensions returns the number of fitted columns.
func (s *Standardizer) Dimensions() int {
	return len(s.Columns)
}

// Fit computes the per-column mean and population standard deviation of
// data, whose columns carry the identities in columns. A zero-deviation
// column is degenerate here: the variance filter upstream must remove it
// before standardization, so reaching one is an error, not a warning.
func (s *Standardizer) Fit(data *mat.Dense, columns []int) error {
	if data == nil {
		return common.NoData
	}
	rows, dim := data.Dims()
	if dim != len(columns) {
		return common.SchemaMismatch{Stage: "scale/fit", Expected: len(columns), Actual: dim, Column: -1}
	}
	if rows < 2 {
		return common.DegenerateData{Stage: "scale/fit", Reason: "fewer than two rows"}
	}

	mean := make([]float64, dim)
	for i := 0; i < rows; i++ {
		for j := 0; j < dim; j++ {
			v := data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return common.NumericInstability{Stage: "scale/fit", Row: i, Col: j}
			}
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(rows)
	}

	std := make([]float64, dim)
	for i := 0; i < rows; i++ {
		for j := 0; j < dim; j++ {
			diff := data.At(i, j) - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(rows))
		if std[j] == 0 {
			return common.DegenerateData{
				Stage:  "scale/fit",
				Reason: fmt.Sprintf("column %v has zero variance", columns[j]),
			}
		}
	}

	s.Mu = mean
	s.Sigma = std
	s.Columns = append([]int(nil), columns...)
	s.Scaled = true
	return nil
}

// Apply standardizes data column-wise using only the stored fit
// parameters, returning a new matrix. The column identities must match the
// fitted schema exactly, in count, identity, and order.
func (s *Standardizer) Apply(data *mat.Dense, columns []int) (*mat.Dense, error) {
	if !s.Scaled {
		return nil, common.DegenerateData{Stage: "scale/apply", Reason: "standardizer not fitted"}
	}
	if err := checkSchema("scale/apply", s.Columns, columns); err != nil {
		return nil, err
	}
	rows, dim := data.Dims()
	if dim != len(s.Columns) {
		return nil, common.SchemaMismatch{Stage: "scale/apply", Expected: len(s.Columns), Actual: dim, Column: -1}
	}
	if rows == 0 {
		return nil, common.EmptyInput{Stage: "scale/apply"}
	}

	out := mat.NewDense(rows, dim, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < dim; j++ {
			v := data.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, common.NumericInstability{Stage: "scale/apply", Row: i, Col: j}
			}
			out.Set(i, j, (v-s.Mu[j])/s.Sigma[j])
		}
	}
	return out, nil
}

// None passes data through unchanged. It still records and validates the
// column schema so a pipeline stage can be disabled without losing the
// alignment checks.
type None struct {
	Columns []int
	Scaled  bool
}

func (n *None) IsScaled() bool {
	return n.Scaled
}

func (n *None) Dimensions() int {
	return len(n.Columns)
}

func (n *None) Fit(data *mat.Dense, columns []int) error {
	if data == nil {
		return common.NoData
	}
	_, dim := data.Dims()
	if dim != len(columns) {
		return common.SchemaMismatch{Stage: "scale/fit", Expected: len(columns), Actual: dim, Column: -1}
	}
	n.Columns = append([]int(nil), columns...)
	n.Scaled = true
	return nil
}

func (n *None) Apply(data *mat.Dense, columns []int) (*mat.Dense, error) {
	if err := checkSchema("scale/apply", n.Columns, columns); err != nil {
		return nil, err
	}
	rows, dim := data.Dims()
	out := mat.NewDense(rows, dim, nil)
	out.Copy(data)
	return out, nil
}

func checkSchema(stage string, fitted, columns []int) error {
	if len(columns) != len(fitted) {
		return common.SchemaMismatch{Stage: stage, Expected: len(fitted), Actual: len(columns), Column: -1}
	}
	for i, c := range columns {
		if c != fitted[i] {
			return common.SchemaMismatch{Stage: stage, Expected: len(fitted), Actual: len(columns), Column: c}
		}
	}
	return nil
}
