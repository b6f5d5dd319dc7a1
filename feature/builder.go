package feature

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
)

const (
	minGrain = 16
	maxGrain = 256
)

// flattenAll flattens every trial concurrently. Each trial is independent,
// so the work is chunked across workers and merged by index.
func flattenAll(trials []Source) ([][]float64, []Ref) {
	flat := make([][]float64, len(trials))
	refs := make([]Ref, len(trials))
	f := func(start, end int) {
		for i := start; i < end; i++ {
			flat[i] = Flatten(trials[i].Trial)
			refs[i] = Ref{SessionID: trials[i].SessionID, TrialIndex: trials[i].TrialIndex}
		}
	}
	common.ParallelFor(len(trials), common.GetGrainSize(len(trials), minGrain, maxGrain), f)
	return flat, refs
}

// Padded flattens every trial and right-pads each row with the missing
// marker to the given width, truncating rows that are longer. A width of
// zero means the maximum observed length across the whole input set, which
// is what training uses; inference passes the stored training width so new
// data lands in the training schema no matter its own shape. Non-finite
// values are replaced by the missing marker.
func Padded(trials []Source, width int) (*mat.Dense, []Ref, error) {
	if len(trials) == 0 {
		return nil, nil, common.EmptyInput{Stage: "feature/pad"}
	}
	flat, refs := flattenAll(trials)
	if width <= 0 {
		for _, row := range flat {
			if len(row) > width {
				width = len(row)
			}
		}
	}

	data := mat.NewDense(len(flat), width, nil)
	f := func(start, end int) {
		for i := start; i < end; i++ {
			row := flat[i]
			for j := 0; j < width; j++ {
				switch {
				case j >= len(row):
					data.Set(i, j, Missing)
				case math.IsInf(row[j], 0) || math.IsNaN(row[j]):
					data.Set(i, j, Missing)
				default:
					data.Set(i, j, row[j])
				}
			}
		}
	}
	common.ParallelFor(len(flat), common.GetGrainSize(len(flat), minGrain, maxGrain), f)
	return data, refs, nil
}

// CompleteRows returns the indices of rows carrying no missing value, in
// order. Rows are dropped, never imputed.
func CompleteRows(data *mat.Dense) []int {
	r, c := data.Dims()
	var kept []int
rows:
	for i := 0; i < r; i++ {
		row := data.RawRowView(i)
		for j := 0; j < c; j++ {
			if IsMissing(row[j]) {
				continue rows
			}
		}
		kept = append(kept, i)
	}
	return kept
}

// Build assembles the trials of all sessions into one feature table:
// flatten and pad to the global maximum width, mark non-finite values
// missing, drop incomplete rows, then drop feature columns whose variance
// across the surviving rows is exactly zero. Ending with zero rows is a
// fatal configuration error, not a silent skip.
func Build(trials []Source) (*Table, error) {
	padded, refs, err := Padded(trials, 0)
	if err != nil {
		return nil, err
	}
	_, width := padded.Dims()

	kept := CompleteRows(padded)
	if len(kept) == 0 {
		return nil, common.EmptyInput{Stage: "feature/build"}
	}

	columns := retainedColumns(padded, kept, width)
	schema := Schema{PaddedWidth: width, Columns: columns}

	data := mat.NewDense(len(kept), len(columns), nil)
	outRefs := make([]Ref, len(kept))
	for i, r := range kept {
		row := padded.RawRowView(r)
		for j, c := range columns {
			data.Set(i, j, row[c])
		}
		outRefs[i] = refs[r]
	}
	return &Table{Data: data, Schema: schema, Refs: outRefs}, nil
}

// retainedColumns returns the reserved columns plus every feature column
// with nonzero variance over the kept rows, ascending.
func retainedColumns(data *mat.Dense, kept []int, width int) []int {
	columns := make([]int, 0, width)
	for j := 0; j < NumReserved; j++ {
		columns = append(columns, j)
	}
	n := float64(len(kept))
	for j := NumReserved; j < width; j++ {
		var mean float64
		for _, r := range kept {
			mean += data.At(r, j)
		}
		mean /= n
		var variance float64
		for _, r := range kept {
			d := data.At(r, j) - mean
			variance += d * d
		}
		if variance != 0 {
			columns = append(columns, j)
		}
	}
	return columns
}
