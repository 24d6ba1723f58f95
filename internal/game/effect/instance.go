// Package effect implements the status-effect core of the Duskhollow combat
// engine: per-actor stores of timed effect instances, stacking-policy merge
// resolution, DOT/HOT tick scheduling, absorb shields, and the aggregated
// combat-status snapshot.
//
// All operations take an explicit epoch-millisecond "now" so the core is
// deterministically replayable. Nothing in this package reads the wall clock.
package effect

import "math"

// School identifies a damage school for resist and taken/dealt modifiers.
type School string

const (
	SchoolPhysical School = "physical"
	SchoolFire     School = "fire"
	SchoolCold     School = "cold"
	SchoolPoison   School = "poison"
	SchoolShadow   School = "shadow"
	SchoolArcane   School = "arcane"
)

// SourceKind identifies what kind of game object produced an effect.
type SourceKind string

const (
	SourceSpell       SourceKind = "spell"
	SourceSong        SourceKind = "song"
	SourceItem        SourceKind = "item"
	SourceAbility     SourceKind = "ability"
	SourceEnvironment SourceKind = "environment"
)

// ApplierKind identifies what kind of actor applied an effect.
type ApplierKind string

const (
	ApplierCharacter ApplierKind = "character"
	ApplierNPC       ApplierKind = "npc"
	ApplierSystem    ApplierKind = "system"
	ApplierUnknown   ApplierKind = "unknown"
)

// StackingPolicy selects the merge behavior when an effect is applied while
// an instance already occupies its bucket.
type StackingPolicy string

const (
	// PolicyLegacyAdd is the default: one instance per bucket, stacks
	// accumulate up to MaxStacks, expiry extends, payload replaced.
	PolicyLegacyAdd StackingPolicy = "legacy_add"
	// PolicyRefresh keeps the existing stack count and extends expiry;
	// the DOT/HOT schedule is pushed forward, never pulled earlier.
	PolicyRefresh StackingPolicy = "refresh"
	// PolicyStackAdd behaves like legacy_add; kept distinct so content can
	// declare stacking intent explicitly.
	PolicyStackAdd StackingPolicy = "stack_add"
	// PolicyOverwrite replaces the entire instance outright, resetting
	// expiry and tick schedule from the overwrite moment.
	PolicyOverwrite StackingPolicy = "overwrite"
	// PolicyVersionedByApplier allows one instance per distinct applier
	// (or version key) up to MaxStacks instances in the bucket.
	PolicyVersionedByApplier StackingPolicy = "versioned_by_applier"
)

// NeverExpires is the ExpiresAtMs sentinel for effects that last until
// explicitly cleared.
const NeverExpires int64 = math.MaxInt64

// TagCCImmune marks an effect that blocks all crowd-control applications
// while active. It is protected from default-scoped cleanses.
const TagCCImmune = "cc_immune"

// Modifiers is the additive payload an effect contributes to its owner's
// combat-status snapshot. Percentage fields are percent points: 25 = +25%.
type Modifiers struct {
	AttributeFlat  map[string]int     `yaml:"attribute_flat,omitempty"`
	AttributePct   map[string]float64 `yaml:"attribute_pct,omitempty"`
	DamageDealtPct float64            `yaml:"damage_dealt_pct,omitempty"`
	DamageTakenPct float64            `yaml:"damage_taken_pct,omitempty"`
	SchoolDealtPct map[School]float64 `yaml:"school_dealt_pct,omitempty"`
	SchoolTakenPct map[School]float64 `yaml:"school_taken_pct,omitempty"`
	ArmorFlat      int                `yaml:"armor_flat,omitempty"`
	ArmorPct       float64            `yaml:"armor_pct,omitempty"`
	ResistFlat     map[School]int     `yaml:"resist_flat,omitempty"`
	ResistPct      map[School]float64 `yaml:"resist_pct,omitempty"`
}

// DOT is a damage-over-time payload ticking on a fixed interval.
type DOT struct {
	TickIntervalMs int64
	PerTickDamage  int
	School         School
	// NextTickAtMs is the scheduled time of the next tick; 0 means unseeded
	// (the scheduler seeds it from the application time).
	NextTickAtMs int64
}

// HOT is a heal-over-time payload ticking on a fixed interval.
type HOT struct {
	TickIntervalMs int64
	PerTickHeal    int
	NextTickAtMs   int64
}

// Absorb is a finite damage-absorption pool consumed before HP loss.
// Higher Priority pools are consumed first; ties go to the older instance.
type Absorb struct {
	Amount    int
	Remaining int
	Priority  int
}

// Instance is one applied status effect on one actor. Instances are owned
// exclusively by their actor's Store and are never shared across actors.
type Instance struct {
	// InstanceID uniquely identifies this runtime instance.
	InstanceID string
	// ID is the effect type id.
	ID string
	// StackingGroupID is the bucket key; empty means ID.
	StackingGroupID string
	// VersionKey participates only in versioned_by_applier matching;
	// empty means SourceID.
	VersionKey string

	SourceKind    SourceKind
	SourceID      string
	AppliedByKind ApplierKind
	AppliedByID   string

	AppliedAtMs int64
	// ExpiresAtMs == NeverExpires means until explicitly cleared.
	// ExpiresAtMs == now is still active (closed interval at the boundary).
	ExpiresAtMs int64

	StackCount int
	MaxStacks  int

	Policy    StackingPolicy
	Modifiers Modifiers
	Tags      []string

	DOT    *DOT
	HOT    *HOT
	Absorb *Absorb
}

// BucketKey returns the stacking-group key this instance lives under.
func (i *Instance) BucketKey() string {
	if i.StackingGroupID != "" {
		return i.StackingGroupID
	}
	return i.ID
}

// ActiveAt reports whether the instance is active at nowMs.
// The expiry boundary is inclusive: ExpiresAtMs == nowMs is still active.
// Non-positive ExpiresAtMs is treated as never-expiring (fail-soft on
// malformed persisted state).
func (i *Instance) ActiveAt(nowMs int64) bool {
	if i == nil {
		return false
	}
	if i.ExpiresAtMs <= 0 {
		return true
	}
	return i.ExpiresAtMs >= nowMs
}

// HasTag reports whether tag is present on this instance.
func (i *Instance) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether any of tags is present on this instance.
func (i *Instance) HasAnyTag(tags []string) bool {
	for _, t := range tags {
		if i.HasTag(t) {
			return true
		}
	}
	return false
}

// effectiveStacks returns the stack count used when aggregating modifiers,
// never below 1 for an active instance.
func (i *Instance) effectiveStacks() int {
	if i.StackCount < 1 {
		return 1
	}
	return i.StackCount
}
