package combat

import (
	"go.uber.org/zap"

	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/cc"
	"github.com/duskhollow/mud/internal/game/dice"
	"github.com/duskhollow/mud/internal/game/effect"
)

// EffectHooks are optional lifecycle callbacks dispatched by the Engine.
// Nil fields are skipped. The scripting layer attaches here; the Engine
// has no dependency on any script runtime.
type EffectHooks struct {
	OnApply  func(target *actor.Actor, inst *effect.Instance)
	OnTick   func(target *actor.Actor, p effect.Payload)
	OnExpire func(target *actor.Actor, inst *effect.Instance)
}

// Engine orchestrates the status-effect core for all actors: CC-gated
// application, cleansing, snapshots, DOT/HOT ticking, and safe damage
// application. It owns the CC governor; collaborators (commands, NPC AI,
// quest glue) call only these methods and never reach into bucket state.
type Engine struct {
	logger   *zap.Logger
	governor *cc.Governor
	src      dice.Source

	// Hooks are optional effect lifecycle callbacks.
	Hooks EffectHooks
}

// NewEngine creates an Engine.
//
// Precondition: logger, governor, and src must be non-nil.
func NewEngine(logger *zap.Logger, governor *cc.Governor, src dice.Source) *Engine {
	return &Engine{logger: logger, governor: governor, src: src}
}

// Governor returns the engine's CC governor.
func (e *Engine) Governor() *cc.Governor { return e.governor }

// ApplyStatusEffect applies req to target at nowMs, gated by CC immunity
// and diminishing returns for CC-tagged effects. The DR ladder scales the
// requested duration; an immune stage rejects the application without
// storing it or advancing the window. Rejections are reported in the
// result, never as errors.
//
// Postcondition: on Applied == true the instance is stored and, for
// CC-tagged effects, the actor's DR window has advanced.
func (e *Engine) ApplyStatusEffect(target *actor.Actor, req effect.ApplyRequest, nowMs int64) effect.ApplyResult {
	decision := e.governor.Gate(target.ID, req.Tags, nowMs)
	if decision.Subject {
		if target.Effects().HasActiveTag(effect.TagCCImmune, nowMs) {
			e.logger.Debug("cc application blocked by immunity marker",
				zap.String("target", target.ID),
				zap.String("effect_id", req.ID),
			)
			return effect.ApplyResult{Blocked: effect.BlockedCCImmune}
		}
		if decision.Blocked() {
			e.logger.Debug("cc application blocked by diminishing returns",
				zap.String("target", target.ID),
				zap.String("effect_id", req.ID),
				zap.String("bucket", decision.Bucket),
				zap.Int("stage", decision.Stage),
			)
			return effect.ApplyResult{Blocked: effect.BlockedCCDRImmune}
		}
		if req.DurationMs > 0 {
			req.DurationMs = int64(float64(req.DurationMs) * decision.Multiplier)
		}
	}

	res := target.Effects().Apply(req, nowMs)
	if !res.Applied {
		return res
	}
	if decision.Subject {
		e.governor.Record(target.ID, decision.Bucket, nowMs)
	}
	if e.Hooks.OnApply != nil {
		e.Hooks.OnApply(target, res.Instance)
	}
	e.logger.Debug("status effect applied",
		zap.String("target", target.ID),
		zap.String("effect_id", res.Instance.ID),
		zap.Int("stacks", res.Instance.StackCount),
		zap.Int64("expires_at_ms", res.Instance.ExpiresAtMs),
	)
	return res
}

// ClearStatusEffect removes every instance of effect id from target.
func (e *Engine) ClearStatusEffect(target *actor.Actor, id string) []*effect.Instance {
	removed := target.Effects().Clear(id)
	e.dispatchExpired(target, removed)
	return removed
}

// ClearAllStatusEffects empties target's effect store.
func (e *Engine) ClearAllStatusEffects(target *actor.Actor) int {
	return target.Effects().ClearAll()
}

// CleanseStatusEffects removes active instances matching tags, honoring
// the store's protected-tag rules (cc_immune markers survive unless
// explicitly targeted).
func (e *Engine) CleanseStatusEffects(target *actor.Actor, tags []string, opts effect.CleanseOptions, nowMs int64) []*effect.Instance {
	removed := target.Effects().ClearByTags(tags, opts, nowMs)
	e.dispatchExpired(target, removed)
	return removed
}

// ComputeCombatStatusSnapshot aggregates target's active modifiers at nowMs.
func (e *Engine) ComputeCombatStatusSnapshot(target *actor.Actor, nowMs int64) effect.Snapshot {
	return effect.ComputeSnapshot(target.Effects(), nowMs)
}

// TickStatusEffects prunes target's effects and fires all DOT/HOT ticks
// owed up to nowMs. Damage ticks already include target's taken-modifier
// snapshot, so they route through the raw applier (absorbs, HP, CC break)
// without further modification; heal ticks route to ApplyHeal.
func (e *Engine) TickStatusEffects(target *actor.Actor, nowMs int64) effect.TickReport {
	sink := func(p effect.Payload) error {
		if e.Hooks.OnTick != nil {
			e.Hooks.OnTick(target, p)
		}
		switch p.Kind {
		case effect.PayloadDamage:
			out := e.applyRawDamage(target, p.Amount, nowMs)
			e.logDamage(p.Source.ID, target, out)
		case effect.PayloadHeal:
			target.ApplyHeal(p.Amount)
		}
		return nil
	}
	return effect.TickAndApply(target.Effects(), nowMs, sink, e.logger)
}

// dispatchExpired fires OnExpire for each removed instance.
func (e *Engine) dispatchExpired(target *actor.Actor, removed []*effect.Instance) {
	if e.Hooks.OnExpire == nil {
		return
	}
	for _, inst := range removed {
		e.Hooks.OnExpire(target, inst)
	}
}

func (e *Engine) logDamage(source string, target *actor.Actor, out ApplyOutcome) {
	e.logger.Debug("damage applied",
		zap.String("source", source),
		zap.String("target", target.ID),
		zap.Int("requested", out.Requested),
		zap.Int("absorbed", out.Absorbed),
		zap.Int("hp_damage", out.HPDamage),
		zap.Strings("cc_broken", out.BrokenCC),
	)
}
