package effect

import (
	"fmt"
	"sort"
	"strings"
)

// ShieldContribution records how much one absorb instance soaked from an
// incoming hit, in consumption order.
type ShieldContribution struct {
	EffectID string
	Priority int
	Absorbed int
}

// AbsorbReport is the outcome of routing one incoming damage amount through
// an actor's absorb shields.
type AbsorbReport struct {
	// Absorbed is the total amount soaked across all shields.
	Absorbed int
	// Remaining is the damage left over after all shields are consumed.
	Remaining int
	// Breakdown lists per-shield contributions in consumption order.
	Breakdown []ShieldContribution
}

// ConsumeAbsorbs walks s's active absorb instances in consumption order,
// priority descending with ties broken oldest application first, subtracting
// amount from each pool until the damage is soaked or the shields are
// exhausted. A pool drained to zero is removed immediately, never left as
// a dead entry.
//
// Precondition: amount >= 0.
// Postcondition: report.Absorbed + report.Remaining == amount.
func ConsumeAbsorbs(s *Store, amount int, nowMs int64) AbsorbReport {
	report := AbsorbReport{Remaining: amount}
	if s == nil || amount <= 0 {
		return report
	}

	var shields []*Instance
	for _, inst := range s.Active(nowMs) {
		if inst.Absorb != nil && inst.Absorb.Remaining > 0 {
			shields = append(shields, inst)
		}
	}
	sort.SliceStable(shields, func(a, b int) bool {
		if shields[a].Absorb.Priority != shields[b].Absorb.Priority {
			return shields[a].Absorb.Priority > shields[b].Absorb.Priority
		}
		return shields[a].AppliedAtMs < shields[b].AppliedAtMs
	})

	for _, inst := range shields {
		if report.Remaining <= 0 {
			break
		}
		soak := inst.Absorb.Remaining
		if soak > report.Remaining {
			soak = report.Remaining
		}
		inst.Absorb.Remaining -= soak
		report.Absorbed += soak
		report.Remaining -= soak
		report.Breakdown = append(report.Breakdown, ShieldContribution{
			EffectID: inst.ID,
			Priority: inst.Absorb.Priority,
			Absorbed: soak,
		})
		if inst.Absorb.Remaining <= 0 {
			s.removeInstance(inst)
		}
	}
	return report
}

// FormatBreakdown renders the per-shield contributions for presentation,
// in consumption order: "rune_ward[p2]=5 lesser_ward[p1]=3".
func (r AbsorbReport) FormatBreakdown() string {
	parts := make([]string, 0, len(r.Breakdown))
	for _, c := range r.Breakdown {
		parts = append(parts, fmt.Sprintf("%s[p%d]=%d", c.EffectID, c.Priority, c.Absorbed))
	}
	return strings.Join(parts, " ")
}
