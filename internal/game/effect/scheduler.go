package effect

import (
	"fmt"

	"go.uber.org/zap"
)

// PayloadKind distinguishes damage ticks from heal ticks.
type PayloadKind int

const (
	PayloadDamage PayloadKind = iota
	PayloadHeal
)

// Payload is one scheduled DOT or HOT tick delivered to the sink.
// For damage the Amount already includes the owner's taken-modifier
// snapshot; the sink must not fold taken-modifiers in again.
type Payload struct {
	Kind   PayloadKind
	Amount int
	School School
	// Source is the instance that produced this tick.
	Source *Instance
}

// PayloadFunc receives one tick. A returned error (or a panic, which is
// recovered) is logged and never aborts the remaining ticks.
type PayloadFunc func(Payload) error

// TickReport summarizes one TickAndApply invocation.
type TickReport struct {
	Pruned      int
	DamageTicks int
	HealTicks   int
	Failures    int
}

// TickAndApply advances every DOT/HOT schedule on s up to nowMs, invoking
// sink once per elapsed interval. The store is pruned before ticking, so
// drained effects never fire while newly-expired ones fire only the ticks
// owed up to their expiry, and pruned again afterwards so an effect that
// ticked exactly at its expiry boundary is removed.
//
// The catch-up loop fires once per elapsed interval, inclusive of the
// expiry boundary, and never retroactively doubles: a late invocation
// fires exactly floor((min(now, expiry) - firstScheduled)/interval) + 1
// times. The owner's taken-modifier snapshot is computed once per
// invocation, not once per tick. Iteration walks a snapshot of the live
// instances, so a sink that mutates the store (absorbs, CC break) cannot
// cause entries to be skipped or double-visited.
//
// Precondition: sink must be non-nil. logger may be nil (no-op).
func TickAndApply(s *Store, nowMs int64, sink PayloadFunc, logger *zap.Logger) TickReport {
	if logger == nil {
		logger = zap.NewNop()
	}
	var report TickReport

	pruned := s.Tick(nowMs)
	report.Pruned += len(pruned)
	snap := ComputeSnapshot(s, nowMs)

	// An effect that expired since the last invocation still owes the ticks
	// scheduled up to its expiry; it fires detached from the store. Effects
	// killed outright (stack count drained to zero) never tick.
	for _, inst := range pruned {
		if inst.StackCount <= 0 {
			continue
		}
		report.tick(s, inst, nowMs, snap, sink, logger, true)
	}
	for _, inst := range s.Active(nowMs) {
		report.tick(s, inst, nowMs, snap, sink, logger, false)
	}

	report.Pruned += len(s.Tick(nowMs))
	return report
}

// tick advances both payload schedules of one instance.
func (r *TickReport) tick(s *Store, inst *Instance, nowMs int64, snap Snapshot, sink PayloadFunc, logger *zap.Logger, detached bool) {
	if inst.DOT != nil {
		r.advance(s, inst, nowMs, dotSchedule{inst: inst, snap: snap}, sink, logger, detached)
	}
	if inst.HOT != nil {
		r.advance(s, inst, nowMs, hotSchedule{inst: inst}, sink, logger, detached)
	}
}

// schedule abstracts the DOT/HOT differences for the shared catch-up loop.
type schedule interface {
	interval() int64
	nextAt() int64
	setNextAt(int64)
	payload() Payload
	count(r *TickReport)
}

type dotSchedule struct {
	inst *Instance
	snap Snapshot
}

func (d dotSchedule) interval() int64   { return d.inst.DOT.TickIntervalMs }
func (d dotSchedule) nextAt() int64     { return d.inst.DOT.NextTickAtMs }
func (d dotSchedule) setNextAt(v int64) { d.inst.DOT.NextTickAtMs = v }

// payload applies the owner's taken-modifier snapshot to the base per-tick
// damage, flooring to a minimum of 1 since the clamped base is positive.
func (d dotSchedule) payload() Payload {
	base := clampMagnitude(d.inst.DOT.PerTickDamage)
	amount := int(float64(base) * d.snap.TakenMultiplier(d.inst.DOT.School))
	if amount < 1 {
		amount = 1
	}
	return Payload{Kind: PayloadDamage, Amount: amount, School: d.inst.DOT.School, Source: d.inst}
}

func (d dotSchedule) count(r *TickReport) { r.DamageTicks++ }

type hotSchedule struct {
	inst *Instance
}

func (h hotSchedule) interval() int64   { return h.inst.HOT.TickIntervalMs }
func (h hotSchedule) nextAt() int64     { return h.inst.HOT.NextTickAtMs }
func (h hotSchedule) setNextAt(v int64) { h.inst.HOT.NextTickAtMs = v }

func (h hotSchedule) payload() Payload {
	return Payload{Kind: PayloadHeal, Amount: clampMagnitude(h.inst.HOT.PerTickHeal), Source: h.inst}
}

func (h hotSchedule) count(r *TickReport) { r.HealTicks++ }

// advance runs the bounded catch-up loop for one schedule. Malformed
// numeric fields are clamped to safe minimums; an unseeded schedule is
// seeded from the application time. The loop terminates in
// O(elapsed/interval) steps.
func (r *TickReport) advance(s *Store, inst *Instance, nowMs int64, sc schedule, sink PayloadFunc, logger *zap.Logger, detached bool) {
	interval := clampInterval(sc.interval())

	if sc.nextAt() <= 0 {
		sc.setNextAt(inst.AppliedAtMs + interval)
	}

	limit := nowMs
	if inst.ExpiresAtMs < limit {
		limit = inst.ExpiresAtMs
	}

	// Boundary inclusive: a tick scheduled exactly at the expiry still fires.
	for sc.nextAt() <= limit {
		if !detached && !s.contains(inst) {
			// The sink removed this effect (cleanse, CC break); stop ticking it.
			return
		}
		if err := guardedInvoke(sink, sc.payload()); err != nil {
			r.Failures++
			logger.Warn("effect tick payload failed",
				zap.String("effect_id", inst.ID),
				zap.String("instance_id", inst.InstanceID),
				zap.Error(err),
			)
		} else {
			sc.count(r)
		}
		sc.setNextAt(sc.nextAt() + interval)
	}
}

// guardedInvoke calls sink, converting a panic into an error so a failing
// payload can never abort the remaining ticks or corrupt scheduling state.
func guardedInvoke(sink PayloadFunc, p Payload) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("payload panic: %v", rec)
		}
	}()
	return sink(p)
}

// contains reports whether inst is still stored.
func (s *Store) contains(target *Instance) bool {
	for _, inst := range s.buckets[target.BucketKey()] {
		if inst == target {
			return true
		}
	}
	return false
}
