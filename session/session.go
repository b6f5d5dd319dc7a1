// Package session holds raw per-session trial records and the stores that
// supply them to the feature pipeline.
package session

import (
	"fmt"
)

// Outcome labels. The positive class is a successful trial.
const (
	OutcomeSuccess = 1.0
	OutcomeFailure = -1.0
)

// Trial is one behavioral event: an outcome label, the two stimulus
// contrasts, and a spike-count matrix of shape neurons x time bins. The
// time-bin count may differ between trials. Trials are immutable once
// recorded.
type Trial struct {
	Outcome       float64
	ContrastLeft  float64
	ContrastRight float64
	Spikes        [][]float64
}

// Neurons returns the neuron count of the trial's spike matrix.
func (t Trial) Neurons() int {
	return len(t.Spikes)
}

// Bins returns the time-bin count of the trial's spike matrix, zero for an
// empty matrix.
func (t Trial) Bins() int {
	if len(t.Spikes) == 0 {
		return 0
	}
	return len(t.Spikes[0])
}

// Session is an ordered collection of trials sharing a neuron population
// and recording geometry.
type Session struct {
	ID      string
	Subject string
	Trials  []Trial
}

// Neurons returns the shared neuron count, zero for an empty session.
func (s Session) Neurons() int {
	if len(s.Trials) == 0 {
		return 0
	}
	return s.Trials[0].Neurons()
}

// Validate checks the session invariants: every trial shares the neuron
// count of the first trial, every spike matrix is rectangular, and the
// outcome is one of the two labels. Stores reject sessions that fail this.
func (s Session) Validate() error {
	neurons := s.Neurons()
	for i, tr := range s.Trials {
		if tr.Neurons() != neurons {
			return fmt.Errorf("session %v: trial %v has %v neurons, session has %v",
				s.ID, i, tr.Neurons(), neurons)
		}
		bins := tr.Bins()
		for n, row := range tr.Spikes {
			if len(row) != bins {
				return fmt.Errorf("session %v: trial %v neuron %v has %v bins, trial has %v",
					s.ID, i, n, len(row), bins)
			}
		}
		if tr.Outcome != OutcomeSuccess && tr.Outcome != OutcomeFailure {
			return fmt.Errorf("session %v: trial %v has outcome %v, want %v or %v",
				s.ID, i, tr.Outcome, OutcomeSuccess, OutcomeFailure)
		}
	}
	return nil
}
