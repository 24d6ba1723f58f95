package effect

// Snapshot is the additive aggregation of every active instance on one
// actor at a point in time. It is pure and derived: recomputed on demand
// from the store and "now", never persisted. Percentage fields are percent
// points; stackable effects contribute their magnitude times stack count.
type Snapshot struct {
	AttributeFlat  map[string]int
	AttributePct   map[string]float64
	DamageDealtPct float64
	DamageTakenPct float64
	SchoolDealtPct map[School]float64
	SchoolTakenPct map[School]float64
	ArmorFlat      int
	ArmorPct       float64
	ResistFlat     map[School]int
	ResistPct      map[School]float64
}

// ComputeSnapshot aggregates all instances on s active at nowMs.
//
// Postcondition: the returned Snapshot has non-nil maps and is independent
// of later store mutations.
func ComputeSnapshot(s *Store, nowMs int64) Snapshot {
	snap := Snapshot{
		AttributeFlat:  make(map[string]int),
		AttributePct:   make(map[string]float64),
		SchoolDealtPct: make(map[School]float64),
		SchoolTakenPct: make(map[School]float64),
		ResistFlat:     make(map[School]int),
		ResistPct:      make(map[School]float64),
	}
	if s == nil {
		return snap
	}
	for _, inst := range s.Active(nowMs) {
		stacks := inst.effectiveStacks()
		m := inst.Modifiers

		for attr, v := range m.AttributeFlat {
			snap.AttributeFlat[attr] += v * stacks
		}
		for attr, v := range m.AttributePct {
			snap.AttributePct[attr] += v * float64(stacks)
		}
		snap.DamageDealtPct += m.DamageDealtPct * float64(stacks)
		snap.DamageTakenPct += m.DamageTakenPct * float64(stacks)
		for school, v := range m.SchoolDealtPct {
			snap.SchoolDealtPct[school] += v * float64(stacks)
		}
		for school, v := range m.SchoolTakenPct {
			snap.SchoolTakenPct[school] += v * float64(stacks)
		}
		snap.ArmorFlat += m.ArmorFlat * stacks
		snap.ArmorPct += m.ArmorPct * float64(stacks)
		for school, v := range m.ResistFlat {
			snap.ResistFlat[school] += v * stacks
		}
		for school, v := range m.ResistPct {
			snap.ResistPct[school] += v * float64(stacks)
		}
	}
	return snap
}

// TakenMultiplier returns the defender-side damage multiplier for school:
// 1 plus the additive global and per-school taken percentages. Never
// negative.
func (snap Snapshot) TakenMultiplier(school School) float64 {
	mult := 1 + (snap.DamageTakenPct+snap.SchoolTakenPct[school])/100
	if mult < 0 {
		return 0
	}
	return mult
}

// DealtMultiplier returns the attacker-side damage multiplier for school:
// 1 plus the additive global and per-school dealt percentages. Never
// negative.
func (snap Snapshot) DealtMultiplier(school School) float64 {
	mult := 1 + (snap.DamageDealtPct+snap.SchoolDealtPct[school])/100
	if mult < 0 {
		return 0
	}
	return mult
}
