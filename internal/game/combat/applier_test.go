package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/cc"
	"github.com/duskhollow/mud/internal/game/combat"
	"github.com/duskhollow/mud/internal/game/dice"
	"github.com/duskhollow/mud/internal/game/effect"
)

func newEngine() *combat.Engine {
	return combat.NewEngine(zap.NewNop(), cc.NewGovernor(cc.DefaultConfig()), dice.NewSeqSource(99))
}

func shield(target *actor.Actor, id string, amount, priority int, nowMs int64) {
	target.Effects().Apply(effect.ApplyRequest{
		ID:         id,
		Policy:     effect.PolicyOverwrite,
		DurationMs: 60_000,
		Absorb:     &effect.AbsorbSpec{Amount: amount, Priority: priority},
	}, nowMs)
}

func TestApplyCombatResult_NoDoubleDip(t *testing.T) {
	e := newEngine()
	attacker := actor.NewCharacter("Maeve", 5, 40)
	defender := actor.NewNPC("orc", 3, 60)
	defender.Effects().Apply(effect.ApplyRequest{
		ID:         "sunder",
		DurationMs: 60_000,
		Modifiers:  effect.Modifiers{DamageTakenPct: 100},
	}, 0)

	// pipeline already folded the +100% taken debuff into the 6-power hit
	res := combat.ComputeDamage(attacker, defender, combat.DamageParams{
		BasePower:              6,
		School:                 effect.SchoolPhysical,
		ApplyDefenderTakenMods: true,
	}, dice.NewSeqSource(99), 1000)
	require.Equal(t, 12, res.Amount)

	out := e.ApplyCombatResult(defender, res, 1000)
	assert.Equal(t, 12, out.HPDamage, "a 6-power hit with +100%% taken yields exactly 12, not 24")
	assert.Equal(t, 48, defender.CurrentHP)
}

func TestApplyCombatResult_FoldsTakenModsWhenPipelineDidNot(t *testing.T) {
	e := newEngine()
	attacker := actor.NewCharacter("Maeve", 5, 40)
	defender := actor.NewNPC("orc", 3, 60)
	defender.Effects().Apply(effect.ApplyRequest{
		ID:         "sunder",
		DurationMs: 60_000,
		Modifiers:  effect.Modifiers{DamageTakenPct: 100},
	}, 0)

	res := combat.ComputeDamage(attacker, defender, combat.DamageParams{
		BasePower: 6,
		School:    effect.SchoolPhysical,
	}, dice.NewSeqSource(99), 1000)
	require.Equal(t, 6, res.Amount)
	require.False(t, res.IncludesDefenderTakenMods)

	out := e.ApplyCombatResult(defender, res, 1000)
	assert.Equal(t, 12, out.HPDamage, "taken mods folded exactly once end-to-end")
}

func TestApplyCombatResult_AbsorbOrder(t *testing.T) {
	e := newEngine()
	defender := actor.NewNPC("orc", 3, 60)
	shield(defender, "elder_ward", 5, 2, 1000)
	shield(defender, "young_ward", 5, 2, 2000)
	shield(defender, "lesser_ward", 5, 1, 1500)

	out := e.ApplyCombatResult(defender, combat.DamageResult{
		Amount: 8, School: effect.SchoolPhysical, IncludesDefenderTakenMods: true,
	}, 3000)

	assert.Equal(t, 8, out.Absorbed)
	assert.Zero(t, out.HPDamage)
	assert.Equal(t, 60, defender.CurrentHP)
	require.Len(t, out.Breakdown, 2)
	assert.Equal(t, "elder_ward", out.Breakdown[0].EffectID)
	assert.Equal(t, "young_ward", out.Breakdown[1].EffectID)
	assert.Equal(t, 5, defender.Effects().FindActive("lesser_ward", 3000).Absorb.Remaining)
}

func TestApplyCombatResult_OverflowHitsHP(t *testing.T) {
	e := newEngine()
	defender := actor.NewNPC("orc", 3, 60)
	shield(defender, "elder_ward", 5, 2, 1000)

	out := e.ApplyCombatResult(defender, combat.DamageResult{
		Amount: 12, School: effect.SchoolPhysical, IncludesDefenderTakenMods: true,
	}, 2000)

	assert.Equal(t, 5, out.Absorbed)
	assert.Equal(t, 7, out.HPDamage)
	assert.Equal(t, 53, defender.CurrentHP)
}

func TestApplyCombatResult_BreaksHardCC(t *testing.T) {
	e := newEngine()
	defender := actor.NewNPC("orc", 3, 60)
	e.ApplyStatusEffect(defender, effect.ApplyRequest{
		ID:         "dreamless_sleep",
		DurationMs: 30_000,
		Tags:       []string{cc.TagSleep},
	}, 1000)
	require.True(t, defender.Effects().HasActive("dreamless_sleep", 1000))

	out := e.ApplyCombatResult(defender, combat.DamageResult{
		Amount: 3, School: effect.SchoolPhysical, IncludesDefenderTakenMods: true,
	}, 2000)

	assert.Equal(t, []string{"dreamless_sleep"}, out.BrokenCC)
	assert.False(t, defender.Effects().HasActive("dreamless_sleep", 2000))
}

func TestApplyCombatResult_StunDoesNotBreak(t *testing.T) {
	e := newEngine()
	defender := actor.NewNPC("orc", 3, 60)
	e.ApplyStatusEffect(defender, effect.ApplyRequest{
		ID:         "hammer_stun",
		DurationMs: 5000,
		Tags:       []string{cc.TagStun},
	}, 1000)

	e.ApplyCombatResult(defender, combat.DamageResult{
		Amount: 3, School: effect.SchoolPhysical, IncludesDefenderTakenMods: true,
	}, 2000)

	assert.True(t, defender.Effects().HasActive("hammer_stun", 2000))
}

func TestApplyCombatResult_NegligibleDamageDoesNotBreakCC(t *testing.T) {
	cfg := cc.DefaultConfig()
	cfg.NegligibleDamageFloor = 5
	e := combat.NewEngine(zap.NewNop(), cc.NewGovernor(cfg), dice.NewSeqSource(99))

	defender := actor.NewNPC("orc", 3, 60)
	e.ApplyStatusEffect(defender, effect.ApplyRequest{
		ID:         "mesmerize",
		DurationMs: 30_000,
		Tags:       []string{cc.TagMez},
	}, 1000)

	e.ApplyCombatResult(defender, combat.DamageResult{
		Amount: 5, School: effect.SchoolPhysical, IncludesDefenderTakenMods: true,
	}, 2000)
	assert.True(t, defender.Effects().HasActive("mesmerize", 2000), "damage at the floor does not break")

	e.ApplyCombatResult(defender, combat.DamageResult{
		Amount: 6, School: effect.SchoolPhysical, IncludesDefenderTakenMods: true,
	}, 3000)
	assert.False(t, defender.Effects().HasActive("mesmerize", 3000))
}

func TestApplyCombatResult_ZeroAmount(t *testing.T) {
	e := newEngine()
	defender := actor.NewNPC("orc", 3, 60)

	out := e.ApplyCombatResult(defender, combat.DamageResult{
		Amount: 0, School: effect.SchoolPhysical,
	}, 1000)
	assert.Zero(t, out.HPDamage)
	assert.Equal(t, 60, defender.CurrentHP)
}

func TestDamageLine(t *testing.T) {
	out := combat.ApplyOutcome{
		Requested: 10,
		Absorbed:  8,
		HPDamage:  2,
		Breakdown: []effect.ShieldContribution{
			{EffectID: "rune_ward", Priority: 2, Absorbed: 5},
			{EffectID: "lesser_ward", Priority: 1, Absorbed: 3},
		},
	}
	assert.Equal(t, "Maeve hits an orc for 2. (8 absorbed)",
		combat.DamageLine("Maeve", "an orc", out, false))
	assert.Equal(t, "Maeve hits an orc for 2. (8 absorbed: rune_ward[p2]=5 lesser_ward[p1]=3)",
		combat.DamageLine("Maeve", "an orc", out, true))

	plain := combat.ApplyOutcome{Requested: 4, HPDamage: 4}
	assert.Equal(t, "Maeve hits an orc for 4.", combat.DamageLine("Maeve", "an orc", plain, true))
}
