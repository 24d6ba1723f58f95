// Package config provides Viper-based configuration loading for the
// Duskhollow combat server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/duskhollow/mud/internal/game/cc"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// HeartbeatConfig holds the simulation tick settings.
type HeartbeatConfig struct {
	// Interval is the wall-clock spacing between heartbeats.
	Interval time.Duration `mapstructure:"interval"`
}

// CCConfig holds crowd-control governor tuning. A named preset supplies
// the baseline; non-zero fields here override it.
type CCConfig struct {
	// Preset names the baseline ruleset: "default" or "pvp_hard_cc".
	Preset string `mapstructure:"preset"`
	// WindowMs overrides the preset's rolling diminishing-returns window.
	WindowMs int64 `mapstructure:"window_ms"`
	// Ladder overrides the preset's duration multipliers per repeat.
	Ladder []float64 `mapstructure:"ladder"`
	// NegligibleDamageFloor is the largest hit that does not break hard CC.
	NegligibleDamageFloor int `mapstructure:"negligible_damage_floor"`
}

// Resolve builds the governor configuration from the preset plus overrides.
//
// Postcondition: the returned configuration passes cc validation, or a
// non-nil error explains why.
func (c CCConfig) Resolve() (cc.Config, error) {
	cfg, err := cc.PresetByName(c.Preset)
	if err != nil {
		return cc.Config{}, err
	}
	if c.WindowMs > 0 {
		cfg.WindowMs = c.WindowMs
	}
	if len(c.Ladder) > 0 {
		cfg.Ladder = c.Ladder
	}
	if c.NegligibleDamageFloor > 0 {
		cfg.NegligibleDamageFloor = c.NegligibleDamageFloor
	}
	if err := cfg.Validate(); err != nil {
		return cc.Config{}, err
	}
	return cfg, nil
}

// CombatConfig holds damage pipeline tuning.
type CombatConfig struct {
	// CritMultiplier scales damage on a critical outcome.
	CritMultiplier float64 `mapstructure:"crit_multiplier"`
	// GlanceMultiplier scales damage on a glancing outcome.
	GlanceMultiplier float64 `mapstructure:"glance_multiplier"`
	// ShowAbsorbBreakdown renders per-shield amounts in damage lines.
	ShowAbsorbBreakdown bool `mapstructure:"show_absorb_breakdown"`
}

// ContentConfig holds on-disk content locations.
type ContentConfig struct {
	// EffectsDir is the directory of effect definition YAML files.
	EffectsDir string `mapstructure:"effects_dir"`
	// ScriptsDir is the directory of Lua effect hook scripts.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat"`
	CC        CCConfig        `mapstructure:"cc"`
	Combat    CombatConfig    `mapstructure:"combat"`
	Content   ContentConfig   `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Heartbeat.Interval <= 0 {
		errs = append(errs, fmt.Sprintf("heartbeat.interval must be positive, got %s", c.Heartbeat.Interval))
	}
	if _, err := c.CC.Resolve(); err != nil {
		errs = append(errs, fmt.Sprintf("cc: %s", err))
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Content.EffectsDir == "" {
		errs = append(errs, "content.effects_dir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.CritMultiplier < 1 {
		errs = append(errs, fmt.Sprintf("combat.crit_multiplier must be >= 1, got %g", c.CritMultiplier))
	}
	if c.GlanceMultiplier <= 0 || c.GlanceMultiplier > 1 {
		errs = append(errs, fmt.Sprintf("combat.glance_multiplier must be in (0, 1], got %g", c.GlanceMultiplier))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MUD_ prefix
	v.SetEnvPrefix("MUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("heartbeat.interval", "1s")

	v.SetDefault("cc.preset", "default")
	v.SetDefault("cc.negligible_damage_floor", 0)

	v.SetDefault("combat.crit_multiplier", 2.0)
	v.SetDefault("combat.glance_multiplier", 0.5)
	v.SetDefault("combat.show_absorb_breakdown", true)

	v.SetDefault("content.effects_dir", "content/effects")
	v.SetDefault("content.scripts_dir", "content/scripts")
}
