package classify

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/trialign/trialign/common"
	"github.com/trialign/trialign/loss"
	"github.com/trialign/trialign/regularize"
)

// Config controls training. Zero values select the defaults.
type Config struct {
	LearnRate float64   // gradient step size
	MaxIter   int       // iteration cap for the descent
	Tol       float64   // stop when the gradient norm falls below this
	Gammas    []float64 // L2 strengths searched by cross-validation
	Folds     int       // cross-validation fold count
	Seed      int64     // fold assignment seed
}

func (c Config) withDefaults() Config {
	if c.LearnRate == 0 {
		c.LearnRate = 0.1
	}
	if c.MaxIter == 0 {
		c.MaxIter = 2000
	}
	if c.Tol == 0 {
		c.Tol = 1e-8
	}
	if len(c.Gammas) == 0 {
		c.Gammas = []float64{0, 1e-4, 1e-3, 1e-2, 1e-1}
	}
	if c.Folds == 0 {
		c.Folds = 5
	}
	return c
}

// Train fits a logistic model on features and ±1 labels. The L2 strength
// is chosen by stratified k-fold cross-validation, folds trained
// concurrently and scored by validation cross-entropy; the winning
// strength is refitted on all rows.
func Train(features *mat.Dense, labels []float64, cfg Config) (*Logistic, error) {
	if features == nil {
		return nil, common.NoData
	}
	if err := common.VerifyInputs(features, labels); err != nil {
		return nil, err
	}
	rows, _ := features.Dims()
	if rows == 0 || len(labels) == 0 {
		return nil, common.EmptyInput{Stage: "classify/train"}
	}

	y := make([]float64, len(labels))
	var nPos int
	for i, l := range labels {
		if l > 0 {
			y[i] = 1
			nPos++
		}
	}
	if nPos == 0 || nPos == len(labels) {
		return nil, common.DegenerateData{Stage: "classify/train", Reason: "all labels belong to one class"}
	}

	cfg = cfg.withDefaults()
	all := make([]int, rows)
	for i := range all {
		all[i] = i
	}

	gamma := cfg.Gammas[0]
	if len(cfg.Gammas) > 1 && cfg.Folds >= 2 && rows >= 2*cfg.Folds {
		rng := rand.New(rand.NewSource(cfg.Seed))
		folds := StratifiedFolds(labels, cfg.Folds, rng)
		gamma = selectGamma(features, y, folds, cfg)
	}

	w, b := descend(features, y, all, gamma, cfg)
	return &Logistic{Weights: w, Bias: b, Gamma: gamma}, nil
}

// selectGamma returns the L2 strength with the lowest mean validation
// cross-entropy across the folds. Folds are independent, so each gamma's
// folds train concurrently; results aggregate by averaging, with no shared
// mutable state beyond the per-fold result slot.
func selectGamma(features *mat.Dense, y []float64, folds [][]int, cfg Config) float64 {
	ce := loss.CrossEntropy{}
	best := cfg.Gammas[0]
	bestScore := math.Inf(1)
	for _, gamma := range cfg.Gammas {
		scores := make([]float64, len(folds))
		var wg sync.WaitGroup
		wg.Add(len(folds))
		for fi := range folds {
			go func(fi int) {
				defer wg.Done()
				val := folds[fi]
				var train []int
				for fj, fold := range folds {
					if fj != fi {
						train = append(train, fold...)
					}
				}
				w, b := descend(features, y, train, gamma, cfg)
				probs := make([]float64, len(val))
				truth := make([]float64, len(val))
				for i, r := range val {
					probs[i] = sigmoid(b + floats.Dot(w, features.RawRowView(r)))
					truth[i] = y[r]
				}
				scores[fi] = ce.Loss(probs, truth)
			}(fi)
		}
		wg.Wait()
		var mean float64
		for _, s := range scores {
			mean += s
		}
		mean /= float64(len(folds))
		if mean < bestScore {
			bestScore = mean
			best = gamma
		}
	}
	return best
}

// descend runs batch gradient descent on the cross-entropy objective plus
// the L2 penalty over the given rows. The per-sample loss and gradient
// accumulate in parallel chunks merged over a channel; the regularizer
// contribution folds in once per step.
func descend(features *mat.Dense, y []float64, rows []int, gamma float64, cfg Config) ([]float64, float64) {
	_, dim := features.Dims()
	var reg regularize.Regularizer = regularize.None{}
	if gamma > 0 {
		reg = regularize.TwoNorm{Gamma: gamma}
	}

	w := make([]float64, dim)
	var b float64
	grad := make([]float64, dim+1)
	grain := common.GetGrainSize(len(rows), minGrain, maxGrain)

	for iter := 0; iter < cfg.MaxIter; iter++ {
		for i := range grad {
			grad[i] = 0
		}
		c := make(chan []float64, 8)
		go func() {
			common.ParallelFor(len(rows), grain, func(start, end int) {
				part := make([]float64, dim+1)
				for _, r := range rows[start:end] {
					x := features.RawRowView(r)
					diff := sigmoid(b+floats.Dot(w, x)) - y[r]
					floats.AddScaled(part[:dim], diff, x)
					part[dim] += diff
				}
				c <- part
			})
			close(c)
		}()
		for part := range c {
			floats.Add(grad, part)
		}
		floats.Scale(1/float64(len(rows)), grad)
		reg.LossAddDeriv(w, grad[:dim])

		if floats.Norm(grad, 2) < cfg.Tol {
			break
		}
		floats.AddScaled(w, -cfg.LearnRate, grad[:dim])
		b -= cfg.LearnRate * grad[dim]
	}
	return w, b
}
