package effect

import "sort"

// Store holds every active effect instance on one actor, grouped into
// buckets by stacking-group key. A Store is owned exclusively by its actor;
// the simulation is single-threaded, so no locking is performed, but all
// iteration hands out snapshot slices so callbacks may mutate the store
// mid-walk without skipping or double-visiting entries.
//
// Invariant: every bucket holds at most one instance unless its policy is
// versioned_by_applier; enforced at every mutation site.
type Store struct {
	buckets map[string][]*Instance
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{buckets: make(map[string][]*Instance)}
}

// ensure lazily reconstructs a well-formed container. Malformed persisted
// state degrades to an empty store rather than failing.
func (s *Store) ensure() {
	if s.buckets == nil {
		s.buckets = make(map[string][]*Instance)
	}
}

// Apply merges req into its bucket at nowMs under the request's stacking
// policy and returns the outcome. Rejections (versioned cap) are reported
// in the result, never as an error. CC immunity and diminishing returns are
// gated upstream by the combat engine; the Store only merges.
//
// Postcondition: on Applied == true the returned Instance is stored and
// carries the resolved policy, bucket key, and applier identity.
func (s *Store) Apply(req ApplyRequest, nowMs int64) ApplyResult {
	s.ensure()
	key := req.normalize()

	bucket := s.pruneBucket(key, nowMs)
	bucket, res := resolveApply(bucket, &req, nowMs)
	s.setBucket(key, bucket)
	return res
}

// Tick prunes every bucket: instances with stack count <= 0 are dropped,
// stack counts are clamped to MaxStacks, and expired instances
// (ExpiresAtMs < nowMs; the boundary itself is still active) are removed.
// Returns the pruned instances.
//
// Postcondition: idempotent; a second call at the same or later time with
// nothing newly expired returns an empty slice and mutates nothing else.
func (s *Store) Tick(nowMs int64) []*Instance {
	s.ensure()
	var pruned []*Instance
	for key := range s.buckets {
		before := s.buckets[key]
		kept := before[:0:0]
		for _, inst := range before {
			if inst.StackCount > inst.MaxStacks {
				inst.StackCount = inst.MaxStacks
			}
			if inst.StackCount <= 0 || !inst.ActiveAt(nowMs) {
				pruned = append(pruned, inst)
				continue
			}
			kept = append(kept, inst)
		}
		s.setBucket(key, kept)
	}
	return pruned
}

// Clear removes every instance whose effect id is id, regardless of bucket.
// Returns the removed instances; clearing an absent id is a no-op.
func (s *Store) Clear(id string) []*Instance {
	s.ensure()
	var removed []*Instance
	for key, bucket := range s.buckets {
		kept := bucket[:0:0]
		for _, inst := range bucket {
			if inst.ID == id {
				removed = append(removed, inst)
				continue
			}
			kept = append(kept, inst)
		}
		s.setBucket(key, kept)
	}
	return removed
}

// ClearAll empties the store and returns the number of removed instances.
func (s *Store) ClearAll() int {
	s.ensure()
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	s.buckets = make(map[string][]*Instance)
	return n
}

// CleanseOptions narrows a ClearByTags call.
type CleanseOptions struct {
	// Except skips instances carrying any of these tags.
	Except []string
	// Limit caps the number of removed instances; 0 means unlimited.
	Limit int
}

// ClearByTags removes active instances carrying any of tags, oldest first.
// Instances tagged cc_immune are protected from cleansing unless the call
// explicitly targets that tag. Returns the removed instances.
func (s *Store) ClearByTags(tags []string, opts CleanseOptions, nowMs int64) []*Instance {
	s.ensure()
	targetsImmunity := false
	for _, t := range tags {
		if t == TagCCImmune {
			targetsImmunity = true
		}
	}

	candidates := s.Active(nowMs)
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].AppliedAtMs < candidates[b].AppliedAtMs
	})

	var removed []*Instance
	for _, inst := range candidates {
		if opts.Limit > 0 && len(removed) >= opts.Limit {
			break
		}
		if !inst.HasAnyTag(tags) {
			continue
		}
		if inst.HasTag(TagCCImmune) && !targetsImmunity {
			continue
		}
		if len(opts.Except) > 0 && inst.HasAnyTag(opts.Except) {
			continue
		}
		s.removeInstance(inst)
		removed = append(removed, inst)
	}
	return removed
}

// Active returns a snapshot slice of all instances active at nowMs.
// Mutating the store does not disturb a returned slice.
func (s *Store) Active(nowMs int64) []*Instance {
	s.ensure()
	var out []*Instance
	for _, bucket := range s.buckets {
		for _, inst := range bucket {
			if inst.StackCount > 0 && inst.ActiveAt(nowMs) {
				out = append(out, inst)
			}
		}
	}
	return out
}

// HasActive reports whether an active instance with effect id exists at nowMs.
func (s *Store) HasActive(id string, nowMs int64) bool {
	return s.FindActive(id, nowMs) != nil
}

// FindActive returns the first active instance with effect id, or nil.
func (s *Store) FindActive(id string, nowMs int64) *Instance {
	for _, inst := range s.Active(nowMs) {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

// HasActiveTag reports whether any active instance carries tag at nowMs.
func (s *Store) HasActiveTag(tag string, nowMs int64) bool {
	for _, inst := range s.Active(nowMs) {
		if inst.HasTag(tag) {
			return true
		}
	}
	return false
}

// Bucket returns a copy of the bucket stored under key.
func (s *Store) Bucket(key string) []*Instance {
	s.ensure()
	return append([]*Instance(nil), s.buckets[key]...)
}

// Len returns the total number of stored instances, active or not.
func (s *Store) Len() int {
	s.ensure()
	n := 0
	for _, bucket := range s.buckets {
		n += len(bucket)
	}
	return n
}

// removeInstance drops one instance from its bucket by identity.
func (s *Store) removeInstance(target *Instance) {
	key := target.BucketKey()
	bucket := s.buckets[key]
	kept := bucket[:0:0]
	for _, inst := range bucket {
		if inst != target {
			kept = append(kept, inst)
		}
	}
	s.setBucket(key, kept)
}

// setBucket stores bucket under key, deleting empty buckets and enforcing
// the length invariant fail-soft: a non-versioned bucket that somehow grew
// past one instance keeps only the newest application.
func (s *Store) setBucket(key string, bucket []*Instance) {
	if len(bucket) == 0 {
		delete(s.buckets, key)
		return
	}
	if len(bucket) > 1 && bucket[0].Policy != PolicyVersionedByApplier {
		newest := bucket[0]
		for _, inst := range bucket[1:] {
			if inst.AppliedAtMs > newest.AppliedAtMs {
				newest = inst
			}
		}
		bucket = []*Instance{newest}
	}
	s.buckets[key] = bucket
}

// pruneBucket drops dead and expired instances from one bucket and returns
// the surviving contents.
func (s *Store) pruneBucket(key string, nowMs int64) []*Instance {
	bucket := s.buckets[key]
	kept := bucket[:0:0]
	for _, inst := range bucket {
		if inst.StackCount <= 0 || !inst.ActiveAt(nowMs) {
			continue
		}
		kept = append(kept, inst)
	}
	s.setBucket(key, kept)
	return s.buckets[key]
}
