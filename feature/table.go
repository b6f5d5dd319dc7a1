package feature

import (
	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
)

// Schema is the ordered identity of the columns a table carries: the padded
// row width the flattener produced, and the original column indices that
// survived filtering, reserved columns first. The schema travels with the
// fitted transform and every apply call validates against it.
type Schema struct {
	PaddedWidth int
	Columns     []int
}

// Width returns the number of retained columns.
func (s Schema) Width() int {
	return len(s.Columns)
}

// FeatureColumns returns the retained spike-feature column identities,
// excluding the reserved columns.
func (s Schema) FeatureColumns() []int {
	return s.Columns[NumReserved:]
}

// Equal reports whether two schemas agree in padded width, column count,
// and column identity/order.
func (s Schema) Equal(o Schema) bool {
	if s.PaddedWidth != o.PaddedWidth || len(s.Columns) != len(o.Columns) {
		return false
	}
	for i, c := range s.Columns {
		if c != o.Columns[i] {
			return false
		}
	}
	return true
}

// Table is a rectangular collection of feature rows sharing one schema.
// Data column j holds the values of original column Schema.Columns[j];
// Refs[i] names the trial behind row i.
type Table struct {
	Data   *mat.Dense
	Schema Schema
	Refs   []Ref
}

// Rows returns the number of feature rows.
func (t *Table) Rows() int {
	if t.Data == nil {
		return 0
	}
	r, _ := t.Data.Dims()
	return r
}

// Labels returns the outcome column.
func (t *Table) Labels() []float64 {
	out := make([]float64, t.Rows())
	for i := range out {
		out[i] = t.Data.At(i, ColOutcome)
	}
	return out
}

// Select returns a new table holding the given rows, in the given order,
// with the same schema.
func (t *Table) Select(rows []int) (*Table, error) {
	if len(rows) == 0 {
		return nil, common.EmptyInput{Stage: "feature/select"}
	}
	data := mat.NewDense(len(rows), t.Schema.Width(), nil)
	refs := make([]Ref, len(rows))
	for i, r := range rows {
		data.SetRow(i, t.Data.RawRowView(r))
		refs[i] = t.Refs[r]
	}
	return &Table{Data: data, Schema: t.Schema, Refs: refs}, nil
}
