package scale

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
)

func dense(data [][]float64) *mat.Dense {
	r := len(data)
	c := len(data[0])
	m := mat.NewDense(r, c, nil)
	for i := range data {
		if len(data[i]) != c {
			panic("ragged test data")
		}
		m.SetRow(i, data[i])
	}
	return m
}

type standardizerTest struct {
	name    string
	columns []int
	data    [][]float64
	scaled  [][]float64
	mu      []float64
	sigma   []float64
}

func TestStandardizer(t *testing.T) {
	cases := []standardizerTest{
		{
			name:    "OneD",
			columns: []int{3},
			data:    [][]float64{{1}, {2}, {-3}, {-4}},
			scaled: [][]float64{
				{2 / math.Sqrt(6.5)},
				{3 / math.Sqrt(6.5)},
				{-2 / math.Sqrt(6.5)},
				{-3 / math.Sqrt(6.5)},
			},
			mu:    []float64{-1},
			sigma: []float64{math.Sqrt(6.5)},
		},
		{
			name:    "TwoD",
			columns: []int{3, 7},
			data:    [][]float64{{1, 4}, {2, 9}, {-3, 12}, {-4, 15}},
			scaled: [][]float64{
				{2 / math.Sqrt(6.5), -6 / math.Sqrt(16.5)},
				{3 / math.Sqrt(6.5), -1 / math.Sqrt(16.5)},
				{-2 / math.Sqrt(6.5), 2 / math.Sqrt(16.5)},
				{-3 / math.Sqrt(6.5), 5 / math.Sqrt(16.5)},
			},
			mu:    []float64{-1, 10},
			sigma: []float64{math.Sqrt(6.5), math.Sqrt(16.5)},
		},
	}
	for _, c := range cases {
		s := &Standardizer{}
		data := dense(c.data)
		if err := s.Fit(data, c.columns); err != nil {
			t.Errorf("case %v: unexpected fit error: %v", c.name, err)
			continue
		}
		if !floats.EqualApprox(s.Mu, c.mu, 1e-14) {
			t.Errorf("case %v: Mu mismatch. Expected: %v, Found: %v", c.name, c.mu, s.Mu)
		}
		if !floats.EqualApprox(s.Sigma, c.sigma, 1e-14) {
			t.Errorf("case %v: Sigma mismatch. Expected: %v, Found: %v", c.name, c.sigma, s.Sigma)
		}

		got, err := s.Apply(data, c.columns)
		if err != nil {
			t.Errorf("case %v: unexpected apply error: %v", c.name, err)
			continue
		}
		if !mat.EqualApprox(got, dense(c.scaled), 1e-14) {
			t.Errorf("case %v: improper scaling. Expected: %v, Found: %v", c.name, c.scaled, got)
		}

		// Applying to the exact fit table yields mean 0, deviation 1.
		rows, dim := got.Dims()
		for j := 0; j < dim; j++ {
			var mean, sq float64
			for i := 0; i < rows; i++ {
				mean += got.At(i, j)
			}
			mean /= float64(rows)
			for i := 0; i < rows; i++ {
				d := got.At(i, j) - mean
				sq += d * d
			}
			std := math.Sqrt(sq / float64(rows))
			if math.Abs(mean) > 1e-12 || math.Abs(std-1) > 1e-12 {
				t.Errorf("case %v: column %v mean %v std %v, want 0 and 1", c.name, j, mean, std)
			}
		}
	}
}

func TestStandardizerDeterminism(t *testing.T) {
	data := dense([][]float64{{1, 4}, {2, 9}, {-3, 12}, {-4, 15}})
	s := &Standardizer{}
	if err := s.Fit(data, []int{3, 4}); err != nil {
		t.Fatal(err)
	}
	a, err := s.Apply(data, []int{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Apply(data, []int{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a, b) {
		t.Error("repeated apply on the same input differs")
	}
}

func TestStandardizerSchemaMismatch(t *testing.T) {
	data := dense([][]float64{{1, 4}, {2, 9}, {-3, 12}})
	s := &Standardizer{}
	if err := s.Fit(data, []int{3, 4}); err != nil {
		t.Fatal(err)
	}

	var mismatch common.SchemaMismatch
	if _, err := s.Apply(data, []int{3, 5}); !errors.As(err, &mismatch) {
		t.Errorf("wrong column identity: got %v, want SchemaMismatch", err)
	} else if mismatch.Column != 5 {
		t.Errorf("mismatch column: got %v, want 5", mismatch.Column)
	}

	if _, err := s.Apply(dense([][]float64{{1}, {2}}), []int{3}); !errors.As(err, &mismatch) {
		t.Errorf("wrong column count: got %v, want SchemaMismatch", err)
	}
}

func TestStandardizerZeroVarianceIsDegenerate(t *testing.T) {
	data := dense([][]float64{{1, 4}, {2, 4}, {-3, 4}})
	s := &Standardizer{}
	err := s.Fit(data, []int{3, 4})
	var degen common.DegenerateData
	if !errors.As(err, &degen) {
		t.Fatalf("got %v, want DegenerateData", err)
	}
}

func TestStandardizerRejectsNonFinite(t *testing.T) {
	s := &Standardizer{}
	if err := s.Fit(dense([][]float64{{1}, {2}, {3}}), []int{3}); err != nil {
		t.Fatal(err)
	}
	bad := dense([][]float64{{1}, {math.NaN()}})
	var instab common.NumericInstability
	if _, err := s.Apply(bad, []int{3}); !errors.As(err, &instab) {
		t.Errorf("got %v, want NumericInstability", err)
	}
}

func TestStandardizerUnfitted(t *testing.T) {
	s := &Standardizer{}
	if _, err := s.Apply(dense([][]float64{{1}}), []int{0}); err == nil {
		t.Error("apply before fit: expected error")
	}
}

func TestNonePassthrough(t *testing.T) {
	data := dense([][]float64{{1, 4}, {2, 9}})
	n := &None{}
	if err := n.Fit(data, []int{0, 1}); err != nil {
		t.Fatal(err)
	}
	got, err := n.Apply(data, []int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(got, data) {
		t.Error("None changed the data")
	}
	if _, err := n.Apply(data, []int{0, 2}); err == nil {
		t.Error("None must still validate the schema")
	}
}
