package transform

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/feature"
	"github.com/trialign/trialign/pca"
	"github.com/trialign/trialign/scale"
)

// artifact is the wire form of a fitted transform. It carries everything a
// reader needs to reconstruct Apply behavior exactly: the retained column
// identities, the per-column mean/deviation pairs, the loading matrix in
// row-major order, the retained component count, and the training-time
// padded width.
type artifact struct {
	ID          string    `json:"id"`
	PaddedWidth int       `json:"padded_width"`
	Columns     []int     `json:"columns"`
	Mean        []float64 `json:"mean"`
	Std         []float64 `json:"std"`
	Components  int       `json:"components"`
	LoadingRows int       `json:"loading_rows"`
	Loadings    []float64 `json:"loadings"`
}

func (f *Fitted) MarshalJSON() ([]byte, error) {
	raw := f.Projector.Loadings.RawMatrix()
	loadings := make([]float64, 0, raw.Rows*raw.Cols)
	for i := 0; i < raw.Rows; i++ {
		loadings = append(loadings, raw.Data[i*raw.Stride:i*raw.Stride+raw.Cols]...)
	}
	return json.Marshal(artifact{
		ID:          f.ID,
		PaddedWidth: f.Schema.PaddedWidth,
		Columns:     f.Schema.Columns,
		Mean:        f.Scaler.Mu,
		Std:         f.Scaler.Sigma,
		Components:  f.Projector.Components,
		LoadingRows: raw.Rows,
		Loadings:    loadings,
	})
}

func (f *Fitted) UnmarshalJSON(data []byte) error {
	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	nFeat := len(a.Columns) - feature.NumReserved
	if nFeat < 0 {
		return fmt.Errorf("transform: artifact has %v columns, need at least %v", len(a.Columns), feature.NumReserved)
	}
	if len(a.Mean) != nFeat || len(a.Std) != nFeat {
		return fmt.Errorf("transform: artifact mean/std length %v/%v, want %v", len(a.Mean), len(a.Std), nFeat)
	}
	if a.LoadingRows != nFeat {
		return fmt.Errorf("transform: artifact loading rows %v, want %v", a.LoadingRows, nFeat)
	}
	if a.Components <= 0 || a.LoadingRows <= 0 {
		return fmt.Errorf("transform: artifact has %v components over %v loading rows, want both positive", a.Components, a.LoadingRows)
	}
	if len(a.Loadings) != a.LoadingRows*a.Components {
		return fmt.Errorf("transform: artifact loadings length %v, want %v", len(a.Loadings), a.LoadingRows*a.Components)
	}

	schema := feature.Schema{PaddedWidth: a.PaddedWidth, Columns: a.Columns}
	f.ID = a.ID
	f.Schema = schema
	f.Scaler = scale.NewStandardizer(schema.FeatureColumns(), a.Mean, a.Std)
	f.Projector = pca.NewProjector(mat.NewDense(a.LoadingRows, a.Components, a.Loadings))
	return nil
}

// Save writes the fitted transform artifact to w as JSON.
func Save(w io.Writer, f *Fitted) error {
	return json.NewEncoder(w).Encode(f)
}

// Load reads a fitted transform artifact written by Save.
func Load(r io.Reader) (*Fitted, error) {
	f := &Fitted{}
	if err := json.NewDecoder(r).Decode(f); err != nil {
		return nil, err
	}
	return f, nil
}
