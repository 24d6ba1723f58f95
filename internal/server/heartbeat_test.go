package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/cc"
	"github.com/duskhollow/mud/internal/game/combat"
	"github.com/duskhollow/mud/internal/game/dice"
	"github.com/duskhollow/mud/internal/game/effect"
)

func newBeatFixture(t *testing.T) (*Heartbeat, *actor.Roster, *combat.Engine) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine := combat.NewEngine(logger, cc.NewGovernor(cc.DefaultConfig()), dice.NewSeqSource(0))
	roster := actor.NewRoster()
	hb := NewHeartbeat(time.Second, engine, roster, logger)
	return hb, roster, engine
}

func TestBeatTicksEveryRosteredActor(t *testing.T) {
	hb, roster, engine := newBeatFixture(t)

	orc := actor.NewNPC("orc", 3, 60)
	wolf := actor.NewNPC("wolf", 2, 30)
	require.NoError(t, roster.Add(orc))
	require.NoError(t, roster.Add(wolf))

	venom := effect.ApplyRequest{
		ID:         "serpent_venom",
		DurationMs: 10_000,
		DOT:        &effect.DOTSpec{PerTickDamage: 2, TickIntervalMs: 1000, School: effect.SchoolPoison},
	}
	engine.ApplyStatusEffect(orc, venom, 0)
	engine.ApplyStatusEffect(wolf, venom, 0)

	hb.Beat(2000)

	assert.Equal(t, 56, orc.CurrentHP)
	assert.Equal(t, 26, wolf.CurrentHP)
}

func TestBeatCatchesUpMissedIntervals(t *testing.T) {
	hb, roster, engine := newBeatFixture(t)
	orc := actor.NewNPC("orc", 3, 60)
	require.NoError(t, roster.Add(orc))

	engine.ApplyStatusEffect(orc, effect.ApplyRequest{
		ID:         "serpent_venom",
		DurationMs: 10_000,
		DOT:        &effect.DOTSpec{PerTickDamage: 1, TickIntervalMs: 1000, School: effect.SchoolPoison},
	}, 0)

	// A single late beat delivers every owed tick.
	hb.Beat(5000)
	assert.Equal(t, 55, orc.CurrentHP)

	// The next beat never re-fires delivered ticks.
	hb.Beat(5500)
	assert.Equal(t, 55, orc.CurrentHP)
}

func TestBeatEmptyRosterNoPanic(t *testing.T) {
	hb, _, _ := newBeatFixture(t)
	assert.NotPanics(t, func() { hb.Beat(1000) })
}

func TestHeartbeatStartStop(t *testing.T) {
	logger := zaptest.NewLogger(t)
	engine := combat.NewEngine(logger, cc.NewGovernor(cc.DefaultConfig()), dice.NewSeqSource(0))
	roster := actor.NewRoster()
	hb := NewHeartbeat(5*time.Millisecond, engine, roster, logger)

	done := make(chan error, 1)
	go func() { done <- hb.Start() }()

	time.Sleep(20 * time.Millisecond)
	hb.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not stop in time")
	}
}
