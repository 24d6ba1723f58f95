package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/duskhollow/mud/internal/game/dice"
)

// RegisterModules registers the hook.* Lua table into L. Hook scripts call
// these to reach back into the combat core; every callback field left nil
// on the Manager degrades to a logged no-op so a partially wired Manager
// never crashes a script.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: hook global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	hook := L.NewTable()
	L.SetGlobal("hook", hook)

	L.SetField(hook, "roll", L.NewFunction(m.luaRoll))
	L.SetField(hook, "chance", L.NewFunction(m.luaChance))
	L.SetField(hook, "apply_effect", L.NewFunction(m.luaApplyEffect))
	L.SetField(hook, "clear_effect", L.NewFunction(m.luaClearEffect))
	L.SetField(hook, "damage", L.NewFunction(m.luaDamage))
	L.SetField(hook, "heal", L.NewFunction(m.luaHeal))
	L.SetField(hook, "broadcast", L.NewFunction(m.luaBroadcast))
	L.SetField(hook, "log", L.NewFunction(m.luaLog))
}

// luaRoll implements hook.roll(sides) -> integer in [1, sides].
func (m *Manager) luaRoll(L *lua.LState) int {
	sides := int(L.CheckNumber(1))
	if sides < 1 {
		L.ArgError(1, "sides must be >= 1")
		return 0
	}
	L.Push(lua.LNumber(m.src.Intn(sides) + 1))
	return 1
}

// luaChance implements hook.chance(pct) -> boolean.
func (m *Manager) luaChance(L *lua.LState) int {
	pct := int(L.CheckNumber(1))
	L.Push(lua.LBool(dice.PercentRoll(m.src, pct)))
	return 1
}

// luaApplyEffect implements hook.apply_effect(target_id, effect_id, stacks) -> boolean.
func (m *Manager) luaApplyEffect(L *lua.LState) int {
	targetID := L.CheckString(1)
	effectID := L.CheckString(2)
	stacks := int(L.OptNumber(3, 1))

	if m.ApplyEffect == nil {
		m.logNoop("apply_effect")
		L.Push(lua.LFalse)
		return 1
	}
	if err := m.ApplyEffect(targetID, effectID, stacks); err != nil {
		m.logger.Warn("scripting: apply_effect failed",
			zap.String("target_id", targetID),
			zap.String("effect_id", effectID),
			zap.Error(err),
		)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

// luaClearEffect implements hook.clear_effect(target_id, effect_id) -> boolean.
func (m *Manager) luaClearEffect(L *lua.LState) int {
	targetID := L.CheckString(1)
	effectID := L.CheckString(2)

	if m.ClearEffect == nil {
		m.logNoop("clear_effect")
		L.Push(lua.LFalse)
		return 1
	}
	if err := m.ClearEffect(targetID, effectID); err != nil {
		m.logger.Warn("scripting: clear_effect failed",
			zap.String("target_id", targetID),
			zap.String("effect_id", effectID),
			zap.Error(err),
		)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

// luaDamage implements hook.damage(target_id, amount) -> boolean.
func (m *Manager) luaDamage(L *lua.LState) int {
	targetID := L.CheckString(1)
	amount := int(L.CheckNumber(2))

	if m.DealDamage == nil {
		m.logNoop("damage")
		L.Push(lua.LFalse)
		return 1
	}
	if err := m.DealDamage(targetID, amount); err != nil {
		m.logger.Warn("scripting: damage failed",
			zap.String("target_id", targetID),
			zap.Int("amount", amount),
			zap.Error(err),
		)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

// luaHeal implements hook.heal(target_id, amount) -> boolean.
func (m *Manager) luaHeal(L *lua.LState) int {
	targetID := L.CheckString(1)
	amount := int(L.CheckNumber(2))

	if m.Heal == nil {
		m.logNoop("heal")
		L.Push(lua.LFalse)
		return 1
	}
	if err := m.Heal(targetID, amount); err != nil {
		m.logger.Warn("scripting: heal failed",
			zap.String("target_id", targetID),
			zap.Int("amount", amount),
			zap.Error(err),
		)
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LTrue)
	return 1
}

// luaBroadcast implements hook.broadcast(msg).
func (m *Manager) luaBroadcast(L *lua.LState) int {
	msg := L.CheckString(1)
	if m.Broadcast == nil {
		m.logNoop("broadcast")
		return 0
	}
	m.Broadcast(msg)
	return 0
}

// luaLog implements hook.log(msg), routed to the server log at Info level.
func (m *Manager) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	m.logger.Info("scripting: script log",
		zap.String("message", msg),
	)
	return 0
}

func (m *Manager) logNoop(fn string) {
	m.logger.Info("scripting: callback not wired",
		zap.String("function", fn),
	)
}
