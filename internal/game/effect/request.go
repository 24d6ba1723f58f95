package effect

import "github.com/google/uuid"

// ApplyRequest describes one application of an effect to an actor.
// Zero values are normalized by the resolver: Stacks and MaxStacks default
// to 1, Policy defaults to legacy_add, DurationMs <= 0 means until cleared.
type ApplyRequest struct {
	ID              string
	StackingGroupID string
	VersionKey      string
	Policy          StackingPolicy

	SourceKind    SourceKind
	SourceID      string
	AppliedByKind ApplierKind
	AppliedByID   string

	// DurationMs is the requested duration; <= 0 means until cleared.
	// CC diminishing returns scale this before the store sees it.
	DurationMs int64

	Stacks    int
	MaxStacks int

	Modifiers Modifiers
	Tags      []string

	DOT    *DOTSpec
	HOT    *HOTSpec
	Absorb *AbsorbSpec
}

// DOTSpec is the requested damage-over-time payload.
type DOTSpec struct {
	TickIntervalMs int64
	PerTickDamage  int
	School         School
}

// HOTSpec is the requested heal-over-time payload.
type HOTSpec struct {
	TickIntervalMs int64
	PerTickHeal    int
}

// AbsorbSpec is the requested absorb-shield payload.
type AbsorbSpec struct {
	Amount   int
	Priority int
}

// BlockedReason explains why an application was rejected.
type BlockedReason string

const (
	// BlockedCCImmune: an active cc_immune-tagged effect blocks all CC.
	BlockedCCImmune BlockedReason = "cc_immune"
	// BlockedCCDRImmune: the diminishing-returns ladder reached stage 0.
	BlockedCCDRImmune BlockedReason = "cc_dr_immune"
	// BlockedVersionedCap: the versioned bucket is at capacity with no
	// matching applier or version key.
	BlockedVersionedCap BlockedReason = "versioned_cap_reached"
)

// ApplyResult is the outcome of one Apply call. Rejections are reported
// here, never as errors; callers must check Applied before surfacing
// "target is immune" style feedback.
type ApplyResult struct {
	Applied bool
	Blocked BlockedReason
	// Instance is the stored (or updated) instance when Applied is true.
	// When a versioned bucket rejects at capacity, Instance carries the
	// oldest existing instance as a stable representative of the bucket;
	// it must not be mutated by the caller.
	Instance *Instance
}

// normalize fills request defaults in place and returns the bucket key.
func (r *ApplyRequest) normalize() string {
	if r.Policy == "" {
		r.Policy = PolicyLegacyAdd
	}
	if r.Stacks < 1 {
		r.Stacks = 1
	}
	if r.MaxStacks < 1 {
		r.MaxStacks = 1
	}
	if r.VersionKey == "" {
		r.VersionKey = r.SourceID
	}
	if r.AppliedByKind == "" {
		r.AppliedByKind = ApplierUnknown
	}
	if r.StackingGroupID != "" {
		return r.StackingGroupID
	}
	return r.ID
}

// expiry resolves the absolute expiry for a request applied at nowMs.
func (r *ApplyRequest) expiry(nowMs int64) int64 {
	if r.DurationMs <= 0 {
		return NeverExpires
	}
	return nowMs + r.DurationMs
}

// instantiate builds a fresh Instance from the request at nowMs.
func (r *ApplyRequest) instantiate(nowMs int64) *Instance {
	inst := &Instance{
		InstanceID:      uuid.NewString(),
		ID:              r.ID,
		StackingGroupID: r.StackingGroupID,
		VersionKey:      r.VersionKey,
		SourceKind:      r.SourceKind,
		SourceID:        r.SourceID,
		AppliedByKind:   r.AppliedByKind,
		AppliedByID:     r.AppliedByID,
		AppliedAtMs:     nowMs,
		ExpiresAtMs:     r.expiry(nowMs),
		StackCount:      r.Stacks,
		MaxStacks:       r.MaxStacks,
		Policy:          r.Policy,
		Modifiers:       r.Modifiers,
		Tags:            append([]string(nil), r.Tags...),
	}
	if inst.StackCount > inst.MaxStacks {
		inst.StackCount = inst.MaxStacks
	}
	if r.DOT != nil {
		inst.DOT = &DOT{
			TickIntervalMs: clampInterval(r.DOT.TickIntervalMs),
			PerTickDamage:  clampMagnitude(r.DOT.PerTickDamage),
			School:         r.DOT.School,
			NextTickAtMs:   nowMs + clampInterval(r.DOT.TickIntervalMs),
		}
	}
	if r.HOT != nil {
		inst.HOT = &HOT{
			TickIntervalMs: clampInterval(r.HOT.TickIntervalMs),
			PerTickHeal:    clampMagnitude(r.HOT.PerTickHeal),
			NextTickAtMs:   nowMs + clampInterval(r.HOT.TickIntervalMs),
		}
	}
	if r.Absorb != nil {
		amount := r.Absorb.Amount
		if amount < 0 {
			amount = 0
		}
		inst.Absorb = &Absorb{
			Amount:    amount,
			Remaining: amount,
			Priority:  r.Absorb.Priority,
		}
	}
	return inst
}

// clampInterval enforces the 1ms minimum tick interval.
func clampInterval(ms int64) int64 {
	if ms < 1 {
		return 1
	}
	return ms
}

// clampMagnitude enforces the minimum per-tick magnitude of 1.
func clampMagnitude(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
