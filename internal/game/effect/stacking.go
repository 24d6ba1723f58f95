package effect

// stacking.go holds the pure merge resolution for the five stacking
// policies. resolveApply never touches the Store; it maps (existing bucket,
// normalized request, now) to the bucket's new contents plus an ApplyResult.

// resolveApply merges req into bucket at nowMs and returns the new bucket
// contents. The input bucket must contain only instances sharing req's
// bucket key; expired instances should be pruned by the caller first.
//
// Postcondition: for non-versioned policies the returned bucket has exactly
// one instance; for versioned_by_applier it has at most req.MaxStacks.
func resolveApply(bucket []*Instance, req *ApplyRequest, nowMs int64) ([]*Instance, ApplyResult) {
	switch req.Policy {
	case PolicyVersionedByApplier:
		return resolveVersioned(bucket, req, nowMs)
	case PolicyOverwrite:
		inst := req.instantiate(nowMs)
		return []*Instance{inst}, ApplyResult{Applied: true, Instance: inst}
	case PolicyRefresh:
		return resolveRefresh(bucket, req, nowMs)
	default: // legacy_add, stack_add, and anything malformed
		return resolveStackAdd(bucket, req, nowMs)
	}
}

// resolveStackAdd implements legacy_add and stack_add: a single instance per
// bucket whose stack count accumulates up to MaxStacks. The latest
// application wins for modifiers, tags, payload numbers, and provenance;
// expiry extends to the later bound.
func resolveStackAdd(bucket []*Instance, req *ApplyRequest, nowMs int64) ([]*Instance, ApplyResult) {
	if len(bucket) == 0 {
		inst := req.instantiate(nowMs)
		return []*Instance{inst}, ApplyResult{Applied: true, Instance: inst}
	}
	existing := bucket[0]

	existing.StackCount += req.Stacks
	existing.MaxStacks = req.MaxStacks
	if existing.StackCount > existing.MaxStacks {
		existing.StackCount = existing.MaxStacks
	}
	existing.ExpiresAtMs = laterOf(existing.ExpiresAtMs, req.expiry(nowMs))
	existing.Policy = req.Policy
	existing.Modifiers = req.Modifiers
	existing.Tags = append([]string(nil), req.Tags...)
	existing.SourceKind = req.SourceKind
	existing.SourceID = req.SourceID
	existing.AppliedByKind = req.AppliedByKind
	existing.AppliedByID = req.AppliedByID

	mergePayloads(existing, req, nowMs)

	return bucket[:1], ApplyResult{Applied: true, Instance: existing}
}

// resolveRefresh implements refresh: stack count unchanged (clamped to the
// cap), expiry extended, and the DOT/HOT schedule pushed to
// refreshTime + interval but never earlier than the pre-refresh schedule.
// Payload magnitudes keep their existing values.
func resolveRefresh(bucket []*Instance, req *ApplyRequest, nowMs int64) ([]*Instance, ApplyResult) {
	if len(bucket) == 0 {
		inst := req.instantiate(nowMs)
		return []*Instance{inst}, ApplyResult{Applied: true, Instance: inst}
	}
	existing := bucket[0]

	if existing.StackCount > existing.MaxStacks {
		existing.StackCount = existing.MaxStacks
	}
	existing.ExpiresAtMs = laterOf(existing.ExpiresAtMs, req.expiry(nowMs))
	existing.Policy = PolicyRefresh

	if existing.DOT != nil {
		existing.DOT.NextTickAtMs = laterOf(existing.DOT.NextTickAtMs, nowMs+existing.DOT.TickIntervalMs)
	}
	if existing.HOT != nil {
		existing.HOT.NextTickAtMs = laterOf(existing.HOT.NextTickAtMs, nowMs+existing.HOT.TickIntervalMs)
	}

	return bucket[:1], ApplyResult{Applied: true, Instance: existing}
}

// resolveVersioned implements versioned_by_applier. Match priority: same
// applier wins, then same version key; otherwise append below the cap.
// At capacity with no match the application is rejected and the oldest
// existing instance is returned as a stable representative.
func resolveVersioned(bucket []*Instance, req *ApplyRequest, nowMs int64) ([]*Instance, ApplyResult) {
	replaceAt := -1
	for idx, inst := range bucket {
		if req.AppliedByID != "" && inst.AppliedByID == req.AppliedByID {
			replaceAt = idx
			break
		}
	}
	if replaceAt < 0 {
		for idx, inst := range bucket {
			if req.VersionKey != "" && inst.VersionKey == req.VersionKey {
				replaceAt = idx
				break
			}
		}
	}

	if replaceAt >= 0 {
		inst := req.instantiate(nowMs)
		bucket[replaceAt] = inst
		return bucket, ApplyResult{Applied: true, Instance: inst}
	}

	if len(bucket) < req.MaxStacks {
		inst := req.instantiate(nowMs)
		return append(bucket, inst), ApplyResult{Applied: true, Instance: inst}
	}

	return bucket, ApplyResult{
		Applied:  false,
		Blocked:  BlockedVersionedCap,
		Instance: oldestInstance(bucket),
	}
}

// mergePayloads folds the request's DOT/HOT/absorb payloads into existing
// for the accumulate policies. Numeric fields take the latest application's
// values; an already-running schedule is kept so re-application cannot pull
// the next tick forward. A payload absent from the request leaves the
// existing one running.
func mergePayloads(existing *Instance, req *ApplyRequest, nowMs int64) {
	if req.DOT != nil {
		interval := clampInterval(req.DOT.TickIntervalMs)
		if existing.DOT == nil {
			existing.DOT = &DOT{NextTickAtMs: nowMs + interval}
		}
		existing.DOT.TickIntervalMs = interval
		existing.DOT.PerTickDamage = clampMagnitude(req.DOT.PerTickDamage)
		existing.DOT.School = req.DOT.School
	}
	if req.HOT != nil {
		interval := clampInterval(req.HOT.TickIntervalMs)
		if existing.HOT == nil {
			existing.HOT = &HOT{NextTickAtMs: nowMs + interval}
		}
		existing.HOT.TickIntervalMs = interval
		existing.HOT.PerTickHeal = clampMagnitude(req.HOT.PerTickHeal)
	}
	if req.Absorb != nil {
		amount := req.Absorb.Amount
		if amount < 0 {
			amount = 0
		}
		// Shield pools never accumulate across recasts.
		existing.Absorb = &Absorb{Amount: amount, Remaining: amount, Priority: req.Absorb.Priority}
	}
}

// oldestInstance returns the instance with the earliest application time.
func oldestInstance(bucket []*Instance) *Instance {
	if len(bucket) == 0 {
		return nil
	}
	oldest := bucket[0]
	for _, inst := range bucket[1:] {
		if inst.AppliedAtMs < oldest.AppliedAtMs {
			oldest = inst
		}
	}
	return oldest
}

func laterOf(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
