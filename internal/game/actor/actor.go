// Package actor provides the unified combatant model for the Duskhollow
// combat core. Player characters and NPC instances share one Actor type;
// each actor exclusively owns its status-effect store, reached only
// through the lazily-initializing Effects accessor.
package actor

import (
	"github.com/google/uuid"

	"github.com/duskhollow/mud/internal/game/effect"
)

// Kind distinguishes player characters from NPC instances.
type Kind int

const (
	KindCharacter Kind = iota
	KindNPC
)

// Actor is one live combatant. HP mutation goes through ApplyDamage and
// ApplyHeal; nothing outside the combat engine writes CurrentHP directly.
type Actor struct {
	// ID uniquely identifies this actor.
	ID string
	// Kind is the actor's combatant kind.
	Kind Kind
	// Name is the display name.
	Name string
	// Level is the actor's level.
	Level int

	MaxHP     int
	CurrentHP int

	// AttackPower is the base power fed into the damage pipeline.
	AttackPower int
	// Armor mitigates physical damage.
	Armor int
	// Resists mitigate non-physical damage per school.
	Resists map[effect.School]int

	// effects is the actor's status-effect store; nil until first use.
	// Characters historically kept this under progression.statusEffects
	// and NPCs under combatStatusEffects; both collapse into one lazily
	// ensured container here.
	effects *effect.Store
}

// NewCharacter creates a player-character actor.
//
// Precondition: name must be non-empty; maxHP > 0.
// Postcondition: CurrentHP equals maxHP.
func NewCharacter(name string, level, maxHP int) *Actor {
	return newActor(KindCharacter, name, level, maxHP)
}

// NewNPC creates an NPC actor.
//
// Precondition: name must be non-empty; maxHP > 0.
// Postcondition: CurrentHP equals maxHP.
func NewNPC(name string, level, maxHP int) *Actor {
	return newActor(KindNPC, name, level, maxHP)
}

func newActor(kind Kind, name string, level, maxHP int) *Actor {
	return &Actor{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      name,
		Level:     level,
		MaxHP:     maxHP,
		CurrentHP: maxHP,
		Resists:   make(map[effect.School]int),
	}
}

// Effects returns the actor's status-effect store, reconstructing an empty
// one if the field is absent or malformed. Callers never reach the bucket
// representation directly; they go through the store's operations.
//
// Postcondition: Returns a non-nil Store owned by this actor.
func (a *Actor) Effects() *effect.Store {
	if a.effects == nil {
		a.effects = effect.NewStore()
	}
	return a.effects
}

// IsPlayer reports whether this actor is a player character.
func (a *Actor) IsPlayer() bool { return a.Kind == KindCharacter }

// IsDead reports whether the actor has zero or fewer hit points.
func (a *Actor) IsDead() bool { return a.CurrentHP <= 0 }

// ApplyDamage reduces CurrentHP by amount, flooring at zero.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP >= 0.
func (a *Actor) ApplyDamage(amount int) {
	a.CurrentHP -= amount
	if a.CurrentHP < 0 {
		a.CurrentHP = 0
	}
}

// ApplyHeal raises CurrentHP by amount, capped at MaxHP. Dead actors are
// not revived by residual heal-over-time ticks.
//
// Precondition: amount must be >= 0.
// Postcondition: CurrentHP <= MaxHP.
func (a *Actor) ApplyHeal(amount int) {
	if a.IsDead() {
		return
	}
	a.CurrentHP += amount
	if a.CurrentHP > a.MaxHP {
		a.CurrentHP = a.MaxHP
	}
}

// Resist returns the actor's base resist value for school.
func (a *Actor) Resist(school effect.School) int {
	if a.Resists == nil {
		return 0
	}
	return a.Resists[school]
}

// HealthDescription returns a visible health state string suitable for
// examine output.
//
// Postcondition: Returns a non-empty string.
func (a *Actor) HealthDescription() string {
	if a.CurrentHP <= 0 {
		return "dead"
	}
	pct := float64(a.CurrentHP) / float64(a.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
