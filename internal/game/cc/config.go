// Package cc implements the crowd-control diminishing-returns governor:
// rolling windows of recent CC applications per actor and DR bucket, a
// multiplier ladder ending in immunity, and break-on-damage classification
// for hard CC.
package cc

import (
	"fmt"
	"strings"
)

// Well-known CC tags.
const (
	TagMez          = "mez"
	TagStun         = "stun"
	TagSleep        = "sleep"
	TagRoot         = "root"
	TagIncapacitate = "incapacitate"
)

// Config is the process-wide diminishing-returns configuration. It is
// resolved once at boot and injected into the Governor; nothing re-reads
// the environment mid-algorithm.
type Config struct {
	// WindowMs is the rolling window within which prior applications count
	// toward the DR stage.
	WindowMs int64
	// Ladder maps stage index to duration multiplier; a 0 entry denotes
	// immunity. The last entry repeats for later stages.
	Ladder []float64
	// Tags lists the tags subject to diminishing returns.
	Tags []string
	// Buckets groups tags into shared DR buckets; a tag absent from the
	// map forms its own bucket under its own name.
	Buckets map[string]string
	// BreakOnDamageTags lists the hard-CC tags cleared when the affected
	// actor takes damage above the negligible floor.
	BreakOnDamageTags []string
	// NegligibleDamageFloor is the damage magnitude at or below which hard
	// CC is not broken.
	NegligibleDamageFloor int
}

// DefaultConfig returns the stock DR tuning: a 15s window with the
// [1, 0.5, 0] ladder over mez, stun, sleep, and incapacitate, each in its
// own bucket, and break-on-damage for the three hard-CC categories.
func DefaultConfig() Config {
	return Config{
		WindowMs:              15_000,
		Ladder:                []float64{1, 0.5, 0},
		Tags:                  []string{TagMez, TagStun, TagSleep, TagIncapacitate},
		Buckets:               map[string]string{},
		BreakOnDamageTags:     []string{TagMez, TagSleep, TagIncapacitate},
		NegligibleDamageFloor: 0,
	}
}

// PvPHardCCPreset returns DefaultConfig with mez and stun grouped into one
// shared "hard_cc" DR bucket, the common PvP tuning.
func PvPHardCCPreset() Config {
	cfg := DefaultConfig()
	cfg.Buckets = map[string]string{
		TagMez:  "hard_cc",
		TagStun: "hard_cc",
	}
	return cfg
}

// PresetByName resolves a named bucket preset from configuration.
//
// Postcondition: Returns a Config or an error for an unknown preset name.
func PresetByName(name string) (Config, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return DefaultConfig(), nil
	case "pvp_hard_cc":
		return PvPHardCCPreset(), nil
	default:
		return Config{}, fmt.Errorf("unknown cc preset %q", name)
	}
}

// Validate checks the configuration invariants.
//
// Postcondition: Returns nil if valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	if c.WindowMs <= 0 {
		errs = append(errs, "cc: window_ms must be positive")
	}
	if len(c.Ladder) == 0 {
		errs = append(errs, "cc: ladder must have at least one stage")
	}
	for i, mult := range c.Ladder {
		if mult < 0 || mult > 1 {
			errs = append(errs, fmt.Sprintf("cc: ladder[%d] = %v out of range [0, 1]", i, mult))
		}
	}
	if len(c.Tags) == 0 {
		errs = append(errs, "cc: tags must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid cc config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// BucketFor returns the DR bucket for the first DR-subject tag in tags,
// and whether any tag is subject to DR at all.
func (c Config) BucketFor(tags []string) (string, bool) {
	for _, tag := range tags {
		for _, subject := range c.Tags {
			if tag != subject {
				continue
			}
			if bucket, ok := c.Buckets[tag]; ok {
				return bucket, true
			}
			return tag, true
		}
	}
	return "", false
}

// IsHardCC reports whether tags include a break-on-damage category.
func (c Config) IsHardCC(tags []string) bool {
	for _, tag := range tags {
		for _, hard := range c.BreakOnDamageTags {
			if tag == hard {
				return true
			}
		}
	}
	return false
}

// multiplierAt returns the ladder multiplier for stage, repeating the last
// entry for stages past the end.
func (c Config) multiplierAt(stage int) float64 {
	if stage < 0 {
		stage = 0
	}
	if stage >= len(c.Ladder) {
		stage = len(c.Ladder) - 1
	}
	return c.Ladder[stage]
}
