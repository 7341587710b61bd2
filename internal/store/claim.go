// Package store contains the database layer for finsweep.
package store

import "errors"

// ErrClaimNotHeld is returned when a write conditioned on a processing claim
// finds the claim gone, meaning another run took the rule over after this
// one's claim went stale. The losing run must not apply its state.
var ErrClaimNotHeld = errors.New("processing claim not held")

// ClaimOutcome is the result of an atomic claim attempt on a rule.
//
// The claim field in durable storage is the only synchronization primitive
// between concurrent sweeps; implementations must perform the claim as a
// single compare-and-swap write, never read-then-write.
type ClaimOutcome int

const (
	// ClaimClaimed means this run now holds the rule exclusively.
	ClaimClaimed ClaimOutcome = iota

	// ClaimAlreadyHeld means another in-flight run holds a fresh claim.
	// Expected race outcome; the sweep skips the rule without error.
	ClaimAlreadyHeld

	// ClaimNotDue means the rule stopped being eligible between selection
	// and claim (processed by a concurrent run, deactivated, or past its
	// end date).
	ClaimNotDue
)

func (o ClaimOutcome) String() string {
	switch o {
	case ClaimClaimed:
		return "claimed"
	case ClaimAlreadyHeld:
		return "already_held"
	case ClaimNotDue:
		return "not_due"
	}
	return "unknown"
}
