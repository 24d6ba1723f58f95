package combat

import (
	"fmt"

	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/effect"
)

// ApplyOutcome reports how one damage application landed on the target.
type ApplyOutcome struct {
	// Requested is the damage amount entering absorb resolution.
	Requested int
	// Absorbed is the total soaked by shields.
	Absorbed int
	// Breakdown lists per-shield contributions in consumption order.
	Breakdown []effect.ShieldContribution
	// HPDamage is the amount actually subtracted from CurrentHP.
	HPDamage int
	// BrokenCC lists the effect ids of hard CC cleared by this hit.
	BrokenCC []string
}

// ApplyCombatResult is the safe entry point for routing a pipeline result
// into the target's HP. When the result already includes the defender's
// taken-modifiers it is applied as-is; otherwise they are folded in here,
// exactly once. Absorb shields are consumed before HP loss, and hard CC
// breaks if the hit exceeds the negligible-damage floor.
//
// Precondition: target must be non-nil.
// Postcondition: the taken-modifier snapshot is folded into the applied
// amount exactly once across pipeline and applier.
func (e *Engine) ApplyCombatResult(target *actor.Actor, res DamageResult, nowMs int64) ApplyOutcome {
	amount := res.Amount
	if !res.IncludesDefenderTakenMods && amount > 0 {
		snap := effect.ComputeSnapshot(target.Effects(), nowMs)
		amount = FloorDamage(float64(amount) * snap.TakenMultiplier(res.School))
	}
	out := e.applyRawDamage(target, amount, nowMs)
	e.logDamage(res.AttackerID, target, out)
	return out
}

// applyRawDamage routes an already-mitigated amount through absorbs, HP,
// and CC break-on-damage. The amount must never be re-scaled here; every
// modifier stage has already run.
func (e *Engine) applyRawDamage(target *actor.Actor, amount int, nowMs int64) ApplyOutcome {
	if amount < 0 {
		amount = 0
	}
	report := effect.ConsumeAbsorbs(target.Effects(), amount, nowMs)
	target.ApplyDamage(report.Remaining)

	out := ApplyOutcome{
		Requested: amount,
		Absorbed:  report.Absorbed,
		Breakdown: report.Breakdown,
		HPDamage:  report.Remaining,
	}

	// Hard CC breaks on any non-negligible hit, absorbed or not. This is
	// an applier side effect; the tick scheduler never clears CC itself.
	cfg := e.governor.Config()
	if amount > cfg.NegligibleDamageFloor {
		removed := target.Effects().ClearByTags(cfg.BreakOnDamageTags, effect.CleanseOptions{}, nowMs)
		for _, inst := range removed {
			out.BrokenCC = append(out.BrokenCC, inst.ID)
		}
		e.dispatchExpired(target, removed)
	}
	return out
}

// DamageLine renders the presentation line for one damage application.
// Absorbed amounts are always shown; withBreakdown additionally renders
// the ordered per-shield contributions exactly as consumed.
//
//	Maeve hits an orc for 7. (5 absorbed)
//	Maeve hits an orc for 7. (5 absorbed: rune_ward[p2]=5)
func DamageLine(attackerName, targetName string, out ApplyOutcome, withBreakdown bool) string {
	line := fmt.Sprintf("%s hits %s for %d.", attackerName, targetName, out.HPDamage)
	if out.Absorbed <= 0 {
		return line
	}
	if withBreakdown {
		report := effect.AbsorbReport{Absorbed: out.Absorbed, Breakdown: out.Breakdown}
		return fmt.Sprintf("%s (%d absorbed: %s)", line, out.Absorbed, report.FormatBreakdown())
	}
	return fmt.Sprintf("%s (%d absorbed)", line, out.Absorbed)
}

// HealLine renders the presentation line for one heal application.
func HealLine(sourceName, targetName string, amount int) string {
	return fmt.Sprintf("%s heals %s for %d.", sourceName, targetName, amount)
}
