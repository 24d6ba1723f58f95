package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/cc"
	"github.com/duskhollow/mud/internal/game/combat"
	"github.com/duskhollow/mud/internal/game/effect"
)

func stunReq(durationMs int64) effect.ApplyRequest {
	return effect.ApplyRequest{
		ID:         "hammer_stun",
		Policy:     effect.PolicyOverwrite,
		DurationMs: durationMs,
		Tags:       []string{cc.TagStun},
	}
}

func TestApplyStatusEffect_DRLadder(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)

	first := e.ApplyStatusEffect(target, stunReq(4000), 1000)
	require.True(t, first.Applied)
	assert.Equal(t, int64(5000), first.Instance.ExpiresAtMs, "first application keeps full duration")

	second := e.ApplyStatusEffect(target, stunReq(4000), 2000)
	require.True(t, second.Applied)
	assert.Equal(t, int64(4000), second.Instance.ExpiresAtMs, "second application within the window is halved")

	third := e.ApplyStatusEffect(target, stunReq(4000), 3000)
	assert.False(t, third.Applied)
	assert.Equal(t, effect.BlockedCCDRImmune, third.Blocked)
	assert.Nil(t, third.Instance)
}

func TestApplyStatusEffect_ImmuneStageLeavesWindowAlone(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)

	e.ApplyStatusEffect(target, stunReq(4000), 1000)
	e.ApplyStatusEffect(target, stunReq(4000), 2000)
	e.ApplyStatusEffect(target, stunReq(4000), 3000)
	e.ApplyStatusEffect(target, stunReq(4000), 4000)

	// Two recorded applications roll off together; the blocked attempts
	// never advanced the window, so the ladder restarts at full duration.
	res := e.ApplyStatusEffect(target, stunReq(4000), 18_000)
	require.True(t, res.Applied)
	assert.Equal(t, int64(22_000), res.Instance.ExpiresAtMs)
}

func TestApplyStatusEffect_WindowIsPerActor(t *testing.T) {
	e := newEngine()
	orc := actor.NewNPC("orc", 3, 60)
	wolf := actor.NewNPC("wolf", 2, 30)

	e.ApplyStatusEffect(orc, stunReq(4000), 1000)
	e.ApplyStatusEffect(orc, stunReq(4000), 2000)

	res := e.ApplyStatusEffect(wolf, stunReq(4000), 3000)
	require.True(t, res.Applied)
	assert.Equal(t, int64(7000), res.Instance.ExpiresAtMs)
}

func TestApplyStatusEffect_NonCCNotGated(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)

	for i := int64(0); i < 5; i++ {
		res := e.ApplyStatusEffect(target, effect.ApplyRequest{
			ID:         "weakness",
			Policy:     effect.PolicyRefresh,
			DurationMs: 10_000,
			Modifiers:  effect.Modifiers{DamageDealtPct: -10},
		}, i*1000)
		require.True(t, res.Applied)
		assert.Equal(t, 10_000+i*1000, res.Instance.ExpiresAtMs, "no DR scaling outside CC buckets")
	}
}

func TestApplyStatusEffect_ImmunityMarkerBlocksCC(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)

	marker := e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "unbreakable_will",
		DurationMs: 30_000,
		Tags:       []string{effect.TagCCImmune},
	}, 1000)
	require.True(t, marker.Applied)

	res := e.ApplyStatusEffect(target, stunReq(4000), 2000)
	assert.False(t, res.Applied)
	assert.Equal(t, effect.BlockedCCImmune, res.Blocked)
	assert.False(t, target.Effects().HasActive("hammer_stun", 2000))

	// Non-CC effects pass the marker untouched.
	dot := e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "serpent_venom",
		DurationMs: 10_000,
		DOT:        &effect.DOTSpec{PerTickDamage: 2, TickIntervalMs: 2000, School: effect.SchoolPoison},
	}, 2000)
	assert.True(t, dot.Applied)
}

func TestCleanseStatusEffects_ProtectsImmunityMarker(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)

	e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "unbreakable_will",
		DurationMs: 30_000,
		Tags:       []string{effect.TagCCImmune, "magic"},
	}, 1000)
	e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "serpent_venom",
		DurationMs: 10_000,
		Tags:       []string{"magic"},
	}, 1000)

	removed := e.CleanseStatusEffects(target, []string{"magic"}, effect.CleanseOptions{}, 2000)
	require.Len(t, removed, 1)
	assert.Equal(t, "serpent_venom", removed[0].ID)
	assert.True(t, target.Effects().HasActive("unbreakable_will", 2000))

	removed = e.CleanseStatusEffects(target, []string{effect.TagCCImmune}, effect.CleanseOptions{}, 2000)
	require.Len(t, removed, 1)
	assert.Equal(t, "unbreakable_will", removed[0].ID)
}

func TestTickStatusEffects_DOTRoutesThroughAbsorbsAndHP(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)
	shield(target, "lesser_ward", 3, 1, 0)
	e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "serpent_venom",
		DurationMs: 10_000,
		DOT:        &effect.DOTSpec{PerTickDamage: 2, TickIntervalMs: 1000, School: effect.SchoolPoison},
	}, 0)

	report := e.TickStatusEffects(target, 3000)
	assert.Equal(t, 3, report.DamageTicks)
	// 6 total venom damage: 3 soaked by the ward, 3 to HP.
	assert.Equal(t, 57, target.CurrentHP)
	assert.False(t, target.Effects().HasActive("lesser_ward", 3000))
}

func TestTickStatusEffects_DOTDamageNotRescaled(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)
	target.Effects().Apply(effect.ApplyRequest{
		ID:         "sunder",
		DurationMs: 60_000,
		Modifiers:  effect.Modifiers{DamageTakenPct: 100},
	}, 0)
	e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "serpent_venom",
		DurationMs: 10_000,
		DOT:        &effect.DOTSpec{PerTickDamage: 2, TickIntervalMs: 1000, School: effect.SchoolPoison},
	}, 0)

	e.TickStatusEffects(target, 1000)
	// The scheduler already doubled the tick to 4; the applier must not
	// fold the taken snapshot a second time.
	assert.Equal(t, 56, target.CurrentHP)
}

func TestTickStatusEffects_HOTHealsThroughActor(t *testing.T) {
	e := newEngine()
	target := actor.NewCharacter("Maeve", 5, 40)
	target.ApplyDamage(20)
	e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "gentle_rain",
		DurationMs: 10_000,
		HOT:        &effect.HOTSpec{PerTickHeal: 3, TickIntervalMs: 2000},
	}, 0)

	report := e.TickStatusEffects(target, 4000)
	assert.Equal(t, 2, report.HealTicks)
	assert.Equal(t, 26, target.CurrentHP)
}

func TestEngineHooks_ApplyAndExpire(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)

	var applied, expired []string
	e.Hooks = combat.EffectHooks{
		OnApply:  func(_ *actor.Actor, inst *effect.Instance) { applied = append(applied, inst.ID) },
		OnExpire: func(_ *actor.Actor, inst *effect.Instance) { expired = append(expired, inst.ID) },
	}

	e.ApplyStatusEffect(target, effect.ApplyRequest{ID: "weakness", DurationMs: 10_000}, 1000)
	e.ClearStatusEffect(target, "weakness")

	assert.Equal(t, []string{"weakness"}, applied)
	assert.Equal(t, []string{"weakness"}, expired)
}

func TestComputeCombatStatusSnapshot(t *testing.T) {
	e := newEngine()
	target := actor.NewNPC("orc", 3, 60)
	e.ApplyStatusEffect(target, effect.ApplyRequest{
		ID:         "sunder",
		DurationMs: 10_000,
		Modifiers:  effect.Modifiers{DamageTakenPct: 50},
	}, 0)

	snap := e.ComputeCombatStatusSnapshot(target, 5000)
	assert.InDelta(t, 1.5, snap.TakenMultiplier(effect.SchoolPhysical), 1e-9)

	snap = e.ComputeCombatStatusSnapshot(target, 10_001)
	assert.InDelta(t, 1.0, snap.TakenMultiplier(effect.SchoolPhysical), 1e-9)
}

func TestHealLine(t *testing.T) {
	assert.Equal(t, "gentle rain heals Maeve for 3.", combat.HealLine("gentle rain", "Maeve", 3))
}
