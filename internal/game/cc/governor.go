package cc

// Governor tracks recent CC applications per actor and DR bucket and
// derives the duration multiplier (or immunity) for the next application.
// It is an owned service: created at boot with its Config and injected
// wherever CC gating happens. The simulation is single-threaded, so the
// Governor performs no locking.
type Governor struct {
	cfg Config
	// windows: actor id -> bucket -> application timestamps (ms), oldest first.
	windows map[string]map[string][]int64
}

// NewGovernor creates a Governor for cfg.
//
// Precondition: cfg must pass Validate.
func NewGovernor(cfg Config) *Governor {
	return &Governor{
		cfg:     cfg,
		windows: make(map[string]map[string][]int64),
	}
}

// Config returns the governor's configuration.
func (g *Governor) Config() Config { return g.cfg }

// Decision is the outcome of gating one CC application.
type Decision struct {
	// Subject is false when the effect's tags carry no DR-subject tag;
	// the application proceeds untouched.
	Subject bool
	// Bucket is the DR bucket the application falls into.
	Bucket string
	// Stage is the ladder stage derived from the rolling window.
	Stage int
	// Multiplier scales the requested duration; 0 means the application
	// must be rejected outright.
	Multiplier float64
}

// Blocked reports whether the application must be rejected (immunity stage).
func (d Decision) Blocked() bool { return d.Subject && d.Multiplier == 0 }

// Gate derives the DR decision for applying an effect with tags to actorID
// at nowMs. Gate never mutates the window: a blocked application must not
// advance the ladder, and a successful store is recorded separately via
// Record.
func (g *Governor) Gate(actorID string, tags []string, nowMs int64) Decision {
	bucket, subject := g.cfg.BucketFor(tags)
	if !subject {
		return Decision{}
	}
	stage := len(g.recent(actorID, bucket, nowMs))
	return Decision{
		Subject:    subject,
		Bucket:     bucket,
		Stage:      stage,
		Multiplier: g.cfg.multiplierAt(stage),
	}
}

// Record advances actorID's rolling window for bucket after a successful
// application at nowMs.
func (g *Governor) Record(actorID, bucket string, nowMs int64) {
	if bucket == "" {
		return
	}
	byBucket, ok := g.windows[actorID]
	if !ok {
		byBucket = make(map[string][]int64)
		g.windows[actorID] = byBucket
	}
	byBucket[bucket] = append(g.recent(actorID, bucket, nowMs), nowMs)
}

// Reset clears all DR tracking for actorID (death, zone transfer).
func (g *Governor) Reset(actorID string) {
	delete(g.windows, actorID)
}

// recent returns actorID's in-window application timestamps for bucket,
// pruning entries older than the rolling window as a side effect.
func (g *Governor) recent(actorID, bucket string, nowMs int64) []int64 {
	byBucket, ok := g.windows[actorID]
	if !ok {
		return nil
	}
	entries := byBucket[bucket]
	cutoff := nowMs - g.cfg.WindowMs
	idx := 0
	for idx < len(entries) && entries[idx] < cutoff {
		idx++
	}
	entries = entries[idx:]
	if len(entries) == 0 {
		delete(byBucket, bucket)
		return nil
	}
	byBucket[bucket] = entries
	return entries
}
