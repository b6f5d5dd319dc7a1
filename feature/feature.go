// Package feature converts variable-shaped trials into the rectangular,
// fixed-width feature table the fitted transform is learned from.
//
// Every feature row has the layout [outcome, contrast_left, contrast_right,
// flattened spikes...], right-padded with the missing marker to a shared
// width. Cleaning applies three filters in a fixed order: non-finite values
// become missing, rows containing a missing value are dropped, and feature
// columns with exactly zero variance are dropped. Reordering these filters
// changes results, so callers go through Build rather than composing them.
package feature

import (
	"math"

	"github.com/trialign/trialign/session"
)

// Reserved leading columns of every feature row.
const (
	ColOutcome       = 0
	ColContrastLeft  = 1
	ColContrastRight = 2
	NumReserved      = 3
)

// Missing is the marker for padded or invalid cells. Padding is marked
// missing, never zero, so short trials cannot masquerade as silent ones.
var Missing = math.NaN()

// IsMissing reports whether a cell holds the missing marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Source is one trial plus the back-reference to where it came from.
type Source struct {
	SessionID  string
	TrialIndex int
	Trial      session.Trial
}

// Ref is the traceability back-reference a feature row keeps to its
// originating trial.
type Ref struct {
	SessionID  string
	TrialIndex int
}

// Sources concatenates the trials of the given sessions, in order, into
// builder input.
func Sources(sessions ...session.Session) []Source {
	var out []Source
	for _, s := range sessions {
		for i, tr := range s.Trials {
			out = append(out, Source{SessionID: s.ID, TrialIndex: i, Trial: tr})
		}
	}
	return out
}

// Flatten converts one trial into [outcome, contrast_left, contrast_right]
// followed by the row-major flattening of its spike matrix. The length
// varies by trial; the caller pads to a shared width. A trial with an empty
// spike matrix yields a 3-element vector.
func Flatten(t session.Trial) []float64 {
	out := make([]float64, NumReserved, NumReserved+t.Neurons()*t.Bins())
	out[ColOutcome] = t.Outcome
	out[ColContrastLeft] = t.ContrastLeft
	out[ColContrastRight] = t.ContrastRight
	for _, neuron := range t.Spikes {
		out = append(out, neuron...)
	}
	return out
}
