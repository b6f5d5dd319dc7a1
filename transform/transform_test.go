package transform

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
	"github.com/trialign/trialign/feature"
	"github.com/trialign/trialign/session"
)

// trainTrials yields trials with 1x2 spike matrices, so the padded width is
// 5 and the feature columns are 3 and 4.
func trainTrials() []feature.Source {
	vals := [][]float64{{1, 5}, {2, 3}, {4, 8}, {3, 1}, {6, 2}, {5, 9}}
	out := make([]feature.Source, len(vals))
	for i, v := range vals {
		outcome := session.OutcomeSuccess
		if i%2 == 1 {
			outcome = session.OutcomeFailure
		}
		out[i] = feature.Source{
			SessionID:  "train",
			TrialIndex: i,
			Trial: session.Trial{
				Outcome:       outcome,
				ContrastLeft:  float64(i) / 10,
				ContrastRight: float64(5-i) / 10,
				Spikes:        [][]float64{{v[0], v[1]}},
			},
		}
	}
	return out
}

func fitOnTrainTrials(t *testing.T) (*Fitted, *feature.Table) {
	t.Helper()
	tbl, err := feature.Build(trainTrials())
	require.NoError(t, err)
	f, err := Fit(tbl, 2)
	require.NoError(t, err)
	return f, tbl
}

func TestFitProjectShape(t *testing.T) {
	f, tbl := fitOnTrainTrials(t)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, 5, f.Schema.PaddedWidth)
	assert.Equal(t, []int{3, 4}, f.Schema.FeatureColumns())

	proj, err := f.Project(tbl)
	require.NoError(t, err)
	rows, cols := proj.Features.Dims()
	assert.Equal(t, tbl.Rows(), rows)
	// Two contrast covariates plus the retained components.
	assert.Equal(t, 2+f.Projector.Components, cols)
	assert.Equal(t, tbl.Labels(), proj.Labels)
	assert.Equal(t, tbl.Refs, proj.Refs)
}

func TestProjectIdempotent(t *testing.T) {
	f, tbl := fitOnTrainTrials(t)
	a, err := f.Project(tbl)
	require.NoError(t, err)
	b, err := f.Project(tbl)
	require.NoError(t, err)
	assert.True(t, mat.Equal(a.Features, b.Features), "repeated project on the same input differs")
}

func TestProjectSchemaMismatch(t *testing.T) {
	f, tbl := fitOnTrainTrials(t)

	other := &feature.Table{
		Data:   tbl.Data,
		Schema: feature.Schema{PaddedWidth: tbl.Schema.PaddedWidth, Columns: []int{0, 1, 2, 3, 6}},
		Refs:   tbl.Refs,
	}
	_, err := f.Project(other)
	var mismatch common.SchemaMismatch
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 6, mismatch.Column)
}

func TestAlignFillsAbsentColumns(t *testing.T) {
	f, _ := fitOnTrainTrials(t)

	// New trials carry 1x1 spike matrices: column 4 is absent and must come
	// back as the missing marker, in fitted order.
	short := []feature.Source{
		{SessionID: "test", TrialIndex: 0, Trial: session.Trial{
			Outcome: session.OutcomeSuccess, ContrastLeft: 0.5, ContrastRight: 0.5,
			Spikes: [][]float64{{7}},
		}},
	}
	tbl, err := f.Align(short)
	require.NoError(t, err)
	require.True(t, tbl.Schema.Equal(f.Schema))
	assert.Equal(t, 7.0, tbl.Data.At(0, 3))
	assert.True(t, feature.IsMissing(tbl.Data.At(0, 4)), "absent column must be the missing marker")

	// Projecting a table of nothing but placeholder rows is fatal.
	_, err = f.Project(tbl)
	var empty common.EmptyInput
	require.ErrorAs(t, err, &empty)
}

func TestAlignTruncatesLongTrials(t *testing.T) {
	f, _ := fitOnTrainTrials(t)

	long := []feature.Source{
		{SessionID: "test", TrialIndex: 0, Trial: session.Trial{
			Outcome: session.OutcomeFailure, ContrastLeft: 0.2, ContrastRight: 0.8,
			Spikes: [][]float64{{1, 2, 3, 4}},
		}},
	}
	tbl, err := f.Align(long)
	require.NoError(t, err)
	_, cols := tbl.Data.Dims()
	assert.Equal(t, f.Schema.Width(), cols)

	proj, err := f.Project(tbl)
	require.NoError(t, err)
	assert.Equal(t, 1, proj.Rows())
}

func TestAlignSkipsDroppedColumns(t *testing.T) {
	// Training data where the first spike column is constant, so the fitted
	// schema omits original column 3. New data with the same shape must have
	// that column discarded and the rest kept in schema order.
	trials := trainTrials()
	for i := range trials {
		trials[i].Trial.Spikes[0][0] = 42
	}
	tbl, err := feature.Build(trials)
	require.NoError(t, err)
	require.Equal(t, []int{4}, tbl.Schema.FeatureColumns())

	f, err := Fit(tbl, 1)
	require.NoError(t, err)

	aligned, err := f.Align(trainTrials())
	require.NoError(t, err)
	_, cols := aligned.Data.Dims()
	assert.Equal(t, 4, cols)
	// Position 3 in the aligned table is original column 4.
	assert.Equal(t, 5.0, aligned.Data.At(0, 3))
}

func TestFitNoFeatureColumns(t *testing.T) {
	// Identical spike matrices across all trials leave every feature column
	// constant, so the builder retains only the reserved columns.
	trials := trainTrials()
	for i := range trials {
		trials[i].Trial.Spikes = [][]float64{{1, 2}}
	}
	tbl, err := feature.Build(trials)
	require.NoError(t, err)
	require.Empty(t, tbl.Schema.FeatureColumns())

	_, err = Fit(tbl, 2)
	var degen common.DegenerateData
	require.ErrorAs(t, err, &degen)
}

func TestAlignNoTrials(t *testing.T) {
	f, _ := fitOnTrainTrials(t)
	_, err := f.Align(nil)
	var empty common.EmptyInput
	require.True(t, errors.As(err, &empty))
}

func TestArtifactRoundTrip(t *testing.T) {
	f, tbl := fitOnTrainTrials(t)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, f))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, f.ID, loaded.ID)
	assert.True(t, loaded.Schema.Equal(f.Schema))

	// The reader must reconstruct apply behavior exactly from the artifact.
	want, err := f.Project(tbl)
	require.NoError(t, err)
	got, err := loaded.Project(tbl)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want.Features, got.Features), "loaded artifact projects differently")
}

func TestLoadRejectsCorruptArtifact(t *testing.T) {
	cases := map[string]string{
		"mean length":     `{"columns":[0,1,2,3],"mean":[0],"std":[1,2],"components":1,"loading_rows":1,"loadings":[1]}`,
		"zero components": `{"columns":[0,1,2,3],"mean":[0],"std":[1],"components":0,"loading_rows":1,"loadings":[]}`,
		"no loading rows": `{"columns":[0,1,2],"mean":[],"std":[],"components":2,"loading_rows":0,"loadings":[]}`,
	}
	for name, payload := range cases {
		_, err := Load(bytes.NewReader([]byte(payload)))
		require.Error(t, err, name)
	}
}
