package combat

import (
	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/dice"
	"github.com/duskhollow/mud/internal/game/effect"
)

// mitigationScale shapes the armor/resist reduction curve:
// reduction = rating / (rating + mitigationScale), capped at maxMitigation.
const (
	mitigationScale = 400.0
	maxMitigation   = 0.75
)

// DamageParams tunes one ComputeDamage call.
type DamageParams struct {
	// BasePower is the channel's base magnitude, added to the attacker's
	// AttackPower before modifiers.
	BasePower int
	// School selects armor (physical) or per-school resist mitigation.
	School effect.School
	// CritChancePct and GlanceChancePct are d100 chances; crit is rolled
	// first. Multipliers <= 0 fall back to 2.0 and 0.5.
	CritChancePct    int
	CritMultiplier   float64
	GlanceChancePct  int
	GlanceMultiplier float64
	// ApplyDefenderTakenMods folds the defender's global and per-school
	// taken percentages into the result. The result is tagged so the
	// applier never folds them in a second time.
	ApplyDefenderTakenMods bool
}

// DamageResult is the pipeline's output, fed to Engine.ApplyCombatResult.
type DamageResult struct {
	AttackerID string
	TargetID   string
	Amount     int
	School     effect.School
	Outcome    Outcome
	// Mitigated is the whole-point damage removed by armor or resist.
	Mitigated int
	// IncludesDefenderTakenMods records whether the defender's
	// taken-modifiers are already folded into Amount.
	IncludesDefenderTakenMods bool
}

// ComputeDamage composes the fixed mitigation order: base power →
// crit/glance roll → armor or per-school resist → optional defender
// taken-modifiers. Both actors' snapshots are computed here from nowMs.
//
// Precondition: attacker, defender, and src must be non-nil.
// Postcondition: result.Amount >= 0; positive pre-floor damage yields >= 1.
func ComputeDamage(attacker, defender *actor.Actor, p DamageParams, src dice.Source, nowMs int64) DamageResult {
	attackerSnap := effect.ComputeSnapshot(attacker.Effects(), nowMs)
	defenderSnap := effect.ComputeSnapshot(defender.Effects(), nowMs)

	raw := float64(p.BasePower+attacker.AttackPower) * attackerSnap.DealtMultiplier(p.School)

	outcome := OutcomeNormal
	switch {
	case dice.PercentRoll(src, p.CritChancePct):
		outcome = OutcomeCritical
		mult := p.CritMultiplier
		if mult <= 0 {
			mult = 2.0
		}
		raw *= mult
	case dice.PercentRoll(src, p.GlanceChancePct):
		outcome = OutcomeGlancing
		mult := p.GlanceMultiplier
		if mult <= 0 {
			mult = 0.5
		}
		raw *= mult
	}

	mitigated := raw * mitigationFor(defender, defenderSnap, p.School)
	raw -= mitigated

	includesTaken := false
	if p.ApplyDefenderTakenMods {
		raw *= defenderSnap.TakenMultiplier(p.School)
		includesTaken = true
	}

	return DamageResult{
		AttackerID:                attacker.ID,
		TargetID:                  defender.ID,
		Amount:                    FloorDamage(raw),
		School:                    p.School,
		Outcome:                   outcome,
		Mitigated:                 int(mitigated),
		IncludesDefenderTakenMods: includesTaken,
	}
}

// mitigationFor returns the fractional reduction from the defender's armor
// (physical) or per-school resist, including snapshot deltas.
//
// Postcondition: Returns a value in [0, maxMitigation].
func mitigationFor(defender *actor.Actor, snap effect.Snapshot, school effect.School) float64 {
	var rating float64
	if school == effect.SchoolPhysical || school == "" {
		rating = float64(defender.Armor+snap.ArmorFlat) * (1 + snap.ArmorPct/100)
	} else {
		rating = float64(defender.Resist(school)+snap.ResistFlat[school]) * (1 + snap.ResistPct[school]/100)
	}
	if rating <= 0 {
		return 0
	}
	reduction := rating / (rating + mitigationScale)
	if reduction > maxMitigation {
		return maxMitigation
	}
	return reduction
}
