package server

import (
	"time"

	"go.uber.org/zap"

	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/combat"
	"github.com/duskhollow/mud/internal/game/effect"
)

// Heartbeat drives the simulation clock. On every beat it walks the roster
// and advances each actor's status effects, firing all DOT and HOT ticks
// owed up to the current time. Because the tick scheduler catches up on
// missed intervals, a delayed beat never loses ticks.
//
// Heartbeat implements Service and is driven by Lifecycle.
type Heartbeat struct {
	interval time.Duration
	engine   *combat.Engine
	roster   *actor.Roster
	logger   *zap.Logger

	// now is the millisecond clock, replaceable under test.
	now  func() int64
	done chan struct{}
	stop chan struct{}
}

// NewHeartbeat creates a Heartbeat ticking every interval.
//
// Precondition: interval > 0; engine, roster, and logger must be non-nil.
func NewHeartbeat(interval time.Duration, engine *combat.Engine, roster *actor.Roster, logger *zap.Logger) *Heartbeat {
	return &Heartbeat{
		interval: interval,
		engine:   engine,
		roster:   roster,
		logger:   logger,
		now:      func() int64 { return time.Now().UnixMilli() },
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
}

// Start runs the beat loop. It blocks until Stop is called.
func (h *Heartbeat) Start() error {
	defer close(h.done)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	h.logger.Info("heartbeat started",
		zap.Duration("interval", h.interval),
	)
	for {
		select {
		case <-ticker.C:
			h.Beat(h.now())
		case <-h.stop:
			return nil
		}
	}
}

// Stop terminates the beat loop and waits for it to drain.
func (h *Heartbeat) Stop() {
	close(h.stop)
	<-h.done
	h.logger.Info("heartbeat stopped")
}

// Beat advances every rostered actor's status effects to nowMs. Exposed so
// tests and command handlers can step the simulation without wall-clock
// waits.
func (h *Heartbeat) Beat(nowMs int64) {
	var report effect.TickReport
	for _, a := range h.roster.All() {
		r := h.engine.TickStatusEffects(a, nowMs)
		report.Pruned += r.Pruned
		report.DamageTicks += r.DamageTicks
		report.HealTicks += r.HealTicks
		report.Failures += r.Failures
	}
	if report.Pruned > 0 || report.DamageTicks > 0 || report.HealTicks > 0 || report.Failures > 0 {
		h.logger.Debug("heartbeat",
			zap.Int64("now_ms", nowMs),
			zap.Int("pruned", report.Pruned),
			zap.Int("damage_ticks", report.DamageTicks),
			zap.Int("heal_ticks", report.HealTicks),
			zap.Int("failures", report.Failures),
		)
	}
}
