// Package combat implements the damage-resolution pipeline for Duskhollow:
// attack rolls, armor and per-school resist mitigation, defender
// taken-modifier folding with a double-dip guard, absorb consumption, and
// crowd-control break-on-damage. The Engine is the single authority that
// subtracts HP.
package combat

// Outcome is the three-tier attack roll result.
type Outcome int

const (
	OutcomeNormal Outcome = iota
	OutcomeCritical
	OutcomeGlancing
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case OutcomeCritical:
		return "critical"
	case OutcomeGlancing:
		return "glancing"
	case OutcomeNormal:
		return "normal"
	default:
		return "unknown"
	}
}

// FloorDamage maps a computed damage value to whole HP: any positive
// sub-1 value floors to 1, zero or negative values resolve to 0.
//
// Postcondition: Returns >= 0; returns >= 1 iff v > 0.
func FloorDamage(v float64) int {
	if v <= 0 {
		return 0
	}
	if v < 1 {
		return 1
	}
	return int(v)
}
