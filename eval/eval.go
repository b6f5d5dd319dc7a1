// Package eval scores predictions against ground truth with
// confusion-matrix metrics and ROC-AUC. F1 is reported genuinely per
// class; collapsing the two into one aggregate hides imbalance, so callers
// that want a single number decide the equivalence themselves.
package eval

import (
	"sort"

	"github.com/trialign/trialign/common"
)

// Metrics is the evaluation record. All fields are in [0, 1].
type Metrics struct {
	Accuracy          float64 `json:"accuracy"`
	PrecisionPositive float64 `json:"precision_positive"`
	PrecisionNegative float64 `json:"precision_negative"`
	RecallPositive    float64 `json:"recall_positive"`
	RecallNegative    float64 `json:"recall_negative"`
	F1Positive        float64 `json:"f1_positive"`
	F1Negative        float64 `json:"f1_negative"`
	AUC               float64 `json:"auc"`
}

// Confusion counts prediction outcomes. The positive class is a label > 0.
type Confusion struct {
	TP, FP, TN, FN int
}

// NewConfusion tallies predictions against truth.
func NewConfusion(predicted, truth []float64) (Confusion, error) {
	if len(predicted) != len(truth) {
		return Confusion{}, common.SchemaMismatch{Stage: "eval/confusion", Expected: len(truth), Actual: len(predicted), Column: -1}
	}
	if len(predicted) == 0 {
		return Confusion{}, common.EmptyInput{Stage: "eval/confusion"}
	}
	var c Confusion
	for i, p := range predicted {
		switch {
		case p > 0 && truth[i] > 0:
			c.TP++
		case p > 0:
			c.FP++
		case truth[i] > 0:
			c.FN++
		default:
			c.TN++
		}
	}
	return c, nil
}

func (c Confusion) total() int {
	return c.TP + c.FP + c.TN + c.FN
}

func (c Confusion) Accuracy() float64 {
	return safeDiv(float64(c.TP+c.TN), float64(c.total()))
}

func (c Confusion) PrecisionPositive() float64 {
	return safeDiv(float64(c.TP), float64(c.TP+c.FP))
}

func (c Confusion) PrecisionNegative() float64 {
	return safeDiv(float64(c.TN), float64(c.TN+c.FN))
}

func (c Confusion) RecallPositive() float64 {
	return safeDiv(float64(c.TP), float64(c.TP+c.FN))
}

func (c Confusion) RecallNegative() float64 {
	return safeDiv(float64(c.TN), float64(c.TN+c.FP))
}

func (c Confusion) F1Positive() float64 {
	p, r := c.PrecisionPositive(), c.RecallPositive()
	return safeDiv(2*p*r, p+r)
}

func (c Confusion) F1Negative() float64 {
	p, r := c.PrecisionNegative(), c.RecallNegative()
	return safeDiv(2*p*r, p+r)
}

// AUC computes the area under the ROC curve from positive-class
// probabilities via the rank-sum statistic, with midranks for tied scores.
// Requires both classes present.
func AUC(probs, truth []float64) (float64, error) {
	if len(probs) != len(truth) {
		return 0, common.SchemaMismatch{Stage: "eval/auc", Expected: len(truth), Actual: len(probs), Column: -1}
	}
	if len(probs) == 0 {
		return 0, common.EmptyInput{Stage: "eval/auc"}
	}

	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return probs[idx[a]] < probs[idx[b]]
	})

	ranks := make([]float64, len(probs))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && probs[idx[j]] == probs[idx[i]] {
			j++
		}
		// Midrank across the tie group; ranks are 1-based.
		mid := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[idx[k]] = mid
		}
		i = j
	}

	var nPos, nNeg int
	var rankSum float64
	for i, t := range truth {
		if t > 0 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, common.DegenerateData{Stage: "eval/auc", Reason: "only one class present"}
	}
	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// Evaluate builds the full metrics record from hard predictions,
// positive-class probabilities, and ground truth.
func Evaluate(predicted, probs, truth []float64) (Metrics, error) {
	c, err := NewConfusion(predicted, truth)
	if err != nil {
		return Metrics{}, err
	}
	auc, err := AUC(probs, truth)
	if err != nil {
		return Metrics{}, err
	}
	return Metrics{
		Accuracy:          c.Accuracy(),
		PrecisionPositive: c.PrecisionPositive(),
		PrecisionNegative: c.PrecisionNegative(),
		RecallPositive:    c.RecallPositive(),
		RecallNegative:    c.RecallNegative(),
		F1Positive:        c.F1Positive(),
		F1Negative:        c.F1Negative(),
		AUC:               auc,
	}, nil
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
