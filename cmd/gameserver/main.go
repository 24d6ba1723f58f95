// Package main provides the combat server binary: it loads effect
// definitions and hook scripts, then runs the heartbeat that drives
// status-effect resolution for every rostered actor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/duskhollow/mud/internal/config"
	"github.com/duskhollow/mud/internal/game/actor"
	"github.com/duskhollow/mud/internal/game/cc"
	"github.com/duskhollow/mud/internal/game/combat"
	"github.com/duskhollow/mud/internal/game/dice"
	"github.com/duskhollow/mud/internal/game/effect"
	"github.com/duskhollow/mud/internal/observability"
	"github.com/duskhollow/mud/internal/scripting"
	"github.com/duskhollow/mud/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	effectsDir := flag.String("effects-dir", "", "path to effect YAML definitions; overrides config")
	scriptsDir := flag.String("scripts-dir", "", "path to Lua hook scripts; empty disables scripting unless configured")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *effectsDir != "" {
		cfg.Content.EffectsDir = *effectsDir
	}
	if *scriptsDir != "" {
		cfg.Content.ScriptsDir = *scriptsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	src := dice.NewCryptoSource()

	ccCfg, err := cfg.CC.Resolve()
	if err != nil {
		logger.Fatal("resolving cc config", zap.Error(err))
	}
	governor := cc.NewGovernor(ccCfg)
	engine := combat.NewEngine(logger, governor, src)
	roster := actor.NewRoster()

	// Load effect definitions.
	defStart := time.Now()
	registry, err := effect.LoadDirectory(cfg.Content.EffectsDir)
	if err != nil {
		logger.Fatal("loading effect definitions", zap.Error(err))
	}
	logger.Info("loaded effect definitions",
		zap.Int("count", len(registry.All())),
		zap.Duration("elapsed", time.Since(defStart)),
	)

	// Initialise scripting and bridge its callbacks into the engine.
	var scriptMgr *scripting.Manager
	if cfg.Content.ScriptsDir != "" {
		scriptStart := time.Now()
		scriptMgr = scripting.NewManager(src, logger)
		if err := scriptMgr.Load(cfg.Content.ScriptsDir, 0); err != nil {
			logger.Fatal("loading hook scripts", zap.Error(err))
		}
		defer scriptMgr.Close()
		wireScripting(scriptMgr, engine, registry, roster, logger)
		logger.Info("scripting initialised",
			zap.String("dir", cfg.Content.ScriptsDir),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
	}

	heartbeat := server.NewHeartbeat(cfg.Heartbeat.Interval, engine, roster, logger)

	lc := server.NewLifecycle(logger)
	lc.Add("heartbeat", heartbeat)

	logger.Info("combat server ready",
		zap.Duration("startup", time.Since(start)),
	)
	if err := lc.Run(ctx); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}

// wireScripting connects the hook VM to the combat engine in both
// directions: engine lifecycle events dispatch the hooks named by each
// effect definition, and hook.* calls route back through the engine.
func wireScripting(mgr *scripting.Manager, engine *combat.Engine, registry *effect.Registry, roster *actor.Roster, logger *zap.Logger) {
	nowMs := func() int64 { return time.Now().UnixMilli() }

	mgr.ApplyEffect = func(targetID, effectID string, stacks int) error {
		target, ok := roster.Get(targetID)
		if !ok {
			return fmt.Errorf("unknown actor %q", targetID)
		}
		def, ok := registry.Get(effectID)
		if !ok {
			return fmt.Errorf("unknown effect %q", effectID)
		}
		req := def.Request()
		req.Stacks = stacks
		engine.ApplyStatusEffect(target, req, nowMs())
		return nil
	}
	mgr.ClearEffect = func(targetID, effectID string) error {
		target, ok := roster.Get(targetID)
		if !ok {
			return fmt.Errorf("unknown actor %q", targetID)
		}
		engine.ClearStatusEffect(target, effectID)
		return nil
	}
	mgr.DealDamage = func(targetID string, amount int) error {
		target, ok := roster.Get(targetID)
		if !ok {
			return fmt.Errorf("unknown actor %q", targetID)
		}
		engine.ApplyCombatResult(target, combat.DamageResult{
			Amount:                    amount,
			School:                    effect.SchoolPhysical,
			IncludesDefenderTakenMods: true,
		}, nowMs())
		return nil
	}
	mgr.Heal = func(targetID string, amount int) error {
		target, ok := roster.Get(targetID)
		if !ok {
			return fmt.Errorf("unknown actor %q", targetID)
		}
		target.ApplyHeal(amount)
		return nil
	}
	mgr.Broadcast = func(msg string) {
		logger.Info("broadcast", zap.String("message", msg))
	}

	dispatch := func(hook string, target *actor.Actor, effectID string, stacks int) {
		if hook == "" {
			return
		}
		L := mgr.State()
		if L == nil {
			return
		}
		tbl := scripting.EffectTable(L, target.ID, target.Name, effectID, stacks)
		mgr.CallHook(hook, tbl) //nolint:errcheck
	}

	engine.Hooks = combat.EffectHooks{
		OnApply: func(target *actor.Actor, inst *effect.Instance) {
			if def, ok := registry.Get(inst.ID); ok {
				dispatch(def.LuaOnApply, target, inst.ID, inst.StackCount)
			}
		},
		OnTick: func(target *actor.Actor, p effect.Payload) {
			if def, ok := registry.Get(p.Source.ID); ok {
				dispatch(def.LuaOnTick, target, p.Source.ID, p.Source.StackCount)
			}
		},
		OnExpire: func(target *actor.Actor, inst *effect.Instance) {
			if def, ok := registry.Get(inst.ID); ok {
				dispatch(def.LuaOnExpire, target, inst.ID, inst.StackCount)
			}
		},
	}
}
