// Package pipeline wires the full flow: session store → flatten → feature
// table → fitted transform → classifier → evaluation, and the inference
// path that re-applies the fitted transform to new raw trials.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/trialign/trialign/classify"
	"github.com/trialign/trialign/common"
	"github.com/trialign/trialign/eval"
	"github.com/trialign/trialign/feature"
	"github.com/trialign/trialign/session"
	"github.com/trialign/trialign/transform"
)

// Config controls the training pipeline. Zero values select the defaults.
type Config struct {
	Components int     // PCA component cap; 0 means the pca default
	Holdout    float64 // stratified holdout fraction; 0 means 0.2
	Seed       int64   // split seed
	Train      classify.Config
}

func (c Config) withDefaults() Config {
	if c.Holdout == 0 {
		c.Holdout = 0.2
	}
	return c
}

// Result is the output of a training run: the fitted transform, the
// trained model, and the metrics on the stratified holdout.
type Result struct {
	Fitted  *transform.Fitted
	Model   *classify.Logistic
	Holdout eval.Metrics
}

// Fit runs the training pipeline on the given trials. The transform and
// the classifier are fitted on the 80% training partition only; the
// holdout never participates in standardizer or PCA fitting, and is scored
// through the same apply path inference uses.
func Fit(trials []feature.Source, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	tbl, err := feature.Build(trials)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	trainIdx, holdIdx := classify.StratifiedSplit(tbl.Labels(), cfg.Holdout, rng)
	if len(trainIdx) == 0 {
		return nil, common.EmptyInput{Stage: "pipeline/train-split"}
	}
	if len(holdIdx) == 0 {
		return nil, common.EmptyInput{Stage: "pipeline/holdout-split"}
	}
	trainTbl, err := tbl.Select(trainIdx)
	if err != nil {
		return nil, err
	}
	holdTbl, err := tbl.Select(holdIdx)
	if err != nil {
		return nil, err
	}

	fitted, err := transform.Fit(trainTbl, cfg.Components)
	if err != nil {
		return nil, err
	}
	projTrain, err := fitted.Project(trainTbl)
	if err != nil {
		return nil, err
	}

	model, err := classify.Train(projTrain.Features, projTrain.Labels, cfg.Train)
	if err != nil {
		return nil, err
	}

	projHold, err := fitted.Project(holdTbl)
	if err != nil {
		return nil, err
	}
	labels, probs, err := model.PredictBatch(projHold.Features)
	if err != nil {
		return nil, err
	}
	metrics, err := eval.Evaluate(labels, probs, projHold.Labels)
	if err != nil {
		return nil, err
	}

	return &Result{Fitted: fitted, Model: model, Holdout: metrics}, nil
}

// Inference is the output of applying a fitted transform and model to new
// raw trials. Truth carries the outcome labels of the surviving rows so
// callers holding labeled test data can score the run.
type Inference struct {
	Labels []float64
	Probs  []float64
	Truth  []float64
	Refs   []feature.Ref
}

// Score evaluates the inference against the carried ground truth.
func (i *Inference) Score() (eval.Metrics, error) {
	return eval.Evaluate(i.Labels, i.Probs, i.Truth)
}

// Infer aligns new raw trials to the fitted schema, projects them, and
// predicts. Zero usable rows after alignment surfaces as an error, never a
// silent skip.
func Infer(fitted *transform.Fitted, model *classify.Logistic, trials []feature.Source) (*Inference, error) {
	proj, err := fitted.AlignProject(trials)
	if err != nil {
		return nil, err
	}
	labels, probs, err := model.PredictBatch(proj.Features)
	if err != nil {
		return nil, err
	}
	return &Inference{Labels: labels, Probs: probs, Truth: proj.Labels, Refs: proj.Refs}, nil
}

// Collect loads the named sessions from a store and concatenates their
// trials into builder input, in the given order.
func Collect(ctx context.Context, store session.Store, ids []string) ([]feature.Source, error) {
	var out []feature.Source
	for _, id := range ids {
		s, ok, err := store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("pipeline: session %v not found", id)
		}
		out = append(out, feature.Sources(s)...)
	}
	return out, nil
}
