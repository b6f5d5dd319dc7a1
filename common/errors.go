package common

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var NoData error = errors.New("trialign: nil data")

// SchemaMismatch reports a disagreement between the column set a stage was
// fitted with and the column set it was applied to. Stage names the stage,
// Expected and Actual give the column counts. Column is the first differing
// column identity, or -1 when only the counts disagree.
type SchemaMismatch struct {
	Stage    string
	Expected int
	Actual   int
	Column   int
}

func (s SchemaMismatch) Error() string {
	if s.Column >= 0 {
		return fmt.Sprintf("trialign: %v: schema mismatch at column %v (expected %v columns, got %v)",
			s.Stage, s.Column, s.Expected, s.Actual)
	}
	return fmt.Sprintf("trialign: %v: schema mismatch (expected %v columns, got %v)",
		s.Stage, s.Expected, s.Actual)
}

// DegenerateData reports data that cannot be transformed, such as a
// zero-variance column reaching standardization.
type DegenerateData struct {
	Stage  string
	Reason string
}

func (d DegenerateData) Error() string {
	return fmt.Sprintf("trialign: %v: degenerate data: %v", d.Stage, d.Reason)
}

// EmptyInput reports that a stage was left with zero rows after filtering
// or alignment. All stages treat this as fatal.
type EmptyInput struct {
	Stage string
}

func (e EmptyInput) Error() string {
	return fmt.Sprintf("trialign: %v: no rows remain", e.Stage)
}

// NumericInstability reports a non-finite value surviving into a stage that
// forbids it. Row and Col locate the first offending cell.
type NumericInstability struct {
	Stage string
	Row   int
	Col   int
}

func (n NumericInstability) Error() string {
	return fmt.Sprintf("trialign: %v: non-finite value at row %v, column %v", n.Stage, n.Row, n.Col)
}

// VerifyInputs returns an error if inputs is nil or the number of rows in
// inputs does not match the length of labels. As a special case a zero
// length label slice is allowed.
func VerifyInputs(inputs mat.Matrix, labels []float64) error {
	if inputs == nil {
		return NoData
	}
	nSamples, _ := inputs.Dims()
	if len(labels) != 0 && nSamples != len(labels) {
		return SchemaMismatch{Stage: "inputs", Expected: nSamples, Actual: len(labels), Column: -1}
	}
	return nil
}
