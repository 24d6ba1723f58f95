package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/duskhollow/mud/internal/game/dice"
)

// Manager owns one sandboxed LState holding all effect hook scripts and
// exposes hook dispatch. Effect definitions name their hooks (on_apply,
// on_tick, on_expire functions); the combat layer dispatches those names
// through CallHook.
//
// Manager is safe for concurrent CallHook after Load completes. The LState
// is single-threaded; the mutex serializes concurrent calls.
type Manager struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	src    dice.Source
	logger *zap.Logger

	// Injected after construction. nil = no-op in hook.* modules.
	ApplyEffect func(targetID, effectID string, stacks int) error
	ClearEffect func(targetID, effectID string) error
	DealDamage  func(targetID string, amount int) error
	Heal        func(targetID string, amount int) error
	Broadcast   func(msg string)
}

// NewManager creates a Manager.
//
// Precondition: src and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(src dice.Source, logger *zap.Logger) *Manager {
	return &Manager{
		src:    src,
		logger: logger,
	}
}

// Load creates a sandboxed VM, registers all hook.* modules, then executes
// every *.lua file in scriptDir in lexicographic order. Loading again
// replaces the previous VM wholesale.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: The VM is registered; returns error on Lua load failure.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

// Close releases the VM. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.state.Close()
		m.state = nil
		m.cancel = nil
	}
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if the
// hook is not defined or no VM is loaded. Lua runtime errors are logged at
// Warn level and never propagated; a broken hook must not abort combat
// resolution.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		m.logger.Info("scripting: no VM loaded",
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}
	L := m.state

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// EffectTable builds the Lua table passed to effect hooks.
func EffectTable(L *lua.LState, targetID, targetName, effectID string, stacks int) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "target_id", lua.LString(targetID))
	L.SetField(tbl, "target_name", lua.LString(targetName))
	L.SetField(tbl, "effect_id", lua.LString(effectID))
	L.SetField(tbl, "stacks", lua.LNumber(stacks))
	return tbl
}

// State exposes the underlying LState for building hook arguments.
// Returns nil before Load.
func (m *Manager) State() *lua.LState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
