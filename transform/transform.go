// Package transform ties the standardizer and the PCA projector into one
// fitted artifact that reproduces the exact training-time feature space on
// new data. The artifact owns the column schema: which original columns
// survived filtering, in what order, with what centering and scaling, and
// the padded width the flattener used. Apply-side calls validate against
// the schema and fail rather than guess, because silently substituting a
// column would invalidate the statistical guarantees of the fit.
package transform

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
	"github.com/trialign/trialign/feature"
	"github.com/trialign/trialign/pca"
	"github.com/trialign/trialign/scale"
)

// Fitted is the persisted standardization + projection basis learned once
// from the training table. Immutable after Fit and safe for concurrent use
// across inference calls.
type Fitted struct {
	ID        string
	Schema    feature.Schema
	Scaler    *scale.Standardizer
	Projector *pca.Projector
}

// Projected is the output of a fitted transform: one feature row per
// surviving input row, laid out [contrast_left, contrast_right,
// component_1 .. component_k], plus labels and back-references.
type Projected struct {
	Features *mat.Dense
	Labels   []float64
	Refs     []feature.Ref
}

// Rows returns the number of projected rows.
func (p *Projected) Rows() int {
	r, _ := p.Features.Dims()
	return r
}

// Fit learns the transform from a training feature table: standardizer on
// the table's spike-feature columns, then PCA on the standardized values.
// components <= 0 selects the default cap.
func Fit(tbl *feature.Table, components int) (*Fitted, error) {
	if tbl == nil {
		return nil, common.NoData
	}
	if tbl.Rows() == 0 {
		return nil, common.EmptyInput{Stage: "transform/fit"}
	}
	if len(tbl.Schema.FeatureColumns()) == 0 {
		return nil, common.DegenerateData{Stage: "transform/fit", Reason: "no feature columns survived variance filtering"}
	}

	featMat := featureMatrix(tbl)
	cols := tbl.Schema.FeatureColumns()

	scaler := &scale.Standardizer{}
	if err := scaler.Fit(featMat, cols); err != nil {
		return nil, err
	}
	std, err := scaler.Apply(featMat, cols)
	if err != nil {
		return nil, err
	}

	proj := &pca.Projector{}
	if err := proj.Fit(std, components); err != nil {
		return nil, err
	}

	return &Fitted{
		ID:        uuid.NewString(),
		Schema:    tbl.Schema,
		Scaler:    scaler,
		Projector: proj,
	}, nil
}

// Project applies the fitted transform to a table carrying exactly the
// fitted schema. Rows still holding a missing marker (alignment
// placeholders) are dropped first; zero surviving rows is fatal. The same
// input always yields the same output.
func (f *Fitted) Project(tbl *feature.Table) (*Projected, error) {
	if tbl == nil {
		return nil, common.NoData
	}
	if err := f.checkSchema("transform/project", tbl.Schema); err != nil {
		return nil, err
	}

	kept := feature.CompleteRows(tbl.Data)
	if len(kept) == 0 {
		return nil, common.EmptyInput{Stage: "transform/project"}
	}
	clean, err := tbl.Select(kept)
	if err != nil {
		return nil, err
	}

	std, err := f.Scaler.Apply(featureMatrix(clean), f.Schema.FeatureColumns())
	if err != nil {
		return nil, err
	}
	scores, err := f.Projector.Apply(std)
	if err != nil {
		return nil, err
	}

	rows := clean.Rows()
	k := f.Projector.Components
	features := mat.NewDense(rows, 2+k, nil)
	for i := 0; i < rows; i++ {
		features.Set(i, 0, clean.Data.At(i, feature.ColContrastLeft))
		features.Set(i, 1, clean.Data.At(i, feature.ColContrastRight))
		for j := 0; j < k; j++ {
			features.Set(i, 2+j, scores.At(i, j))
		}
	}
	return &Projected{Features: features, Labels: clean.Labels(), Refs: clean.Refs}, nil
}

// Align reproduces the training-time table schema from new raw trials:
// flatten with the stored padded width (never recomputed), keep only the
// fitted columns in fitted order, and fill any expected column absent from
// the new data with the missing marker. This is the only place the
// pipeline constructs a missing-value substitute; everything downstream
// still refuses to compute on it.
func (f *Fitted) Align(trials []feature.Source) (*feature.Table, error) {
	padded, refs, err := feature.Padded(trials, f.Schema.PaddedWidth)
	if err != nil {
		return nil, err
	}

	data := mat.NewDense(len(refs), f.Schema.Width(), nil)
	for i := 0; i < len(refs); i++ {
		row := padded.RawRowView(i)
		for j, c := range f.Schema.Columns {
			data.Set(i, j, row[c])
		}
	}
	return &feature.Table{Data: data, Schema: f.Schema, Refs: refs}, nil
}

// AlignProject runs Align then Project, the full inference-side transform.
func (f *Fitted) AlignProject(trials []feature.Source) (*Projected, error) {
	tbl, err := f.Align(trials)
	if err != nil {
		return nil, err
	}
	return f.Project(tbl)
}

func (f *Fitted) checkSchema(stage string, got feature.Schema) error {
	if f.Schema.Equal(got) {
		return nil
	}
	col := -1
	if len(f.Schema.Columns) == len(got.Columns) {
		for i, c := range got.Columns {
			if c != f.Schema.Columns[i] {
				col = c
				break
			}
		}
	}
	return common.SchemaMismatch{
		Stage:    stage,
		Expected: f.Schema.Width(),
		Actual:   got.Width(),
		Column:   col,
	}
}

// featureMatrix returns the spike-feature columns of a table as a dense
// matrix. The reserved columns lead the schema, so this is a contiguous
// slice of the data.
func featureMatrix(tbl *feature.Table) *mat.Dense {
	rows := tbl.Rows()
	width := tbl.Schema.Width()
	return tbl.Data.Slice(0, rows, feature.NumReserved, width).(*mat.Dense)
}
