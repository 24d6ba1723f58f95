package actor

import "fmt"

// Roster is the owned registry of live actors the heartbeat walks each
// beat. It replaces the old server-wide mutable buff list: created once at
// boot and injected, never a module-level singleton. The simulation is
// single-threaded, so the Roster performs no locking.
type Roster struct {
	actors map[string]*Actor
	order  []string
}

// NewRoster creates an empty Roster.
func NewRoster() *Roster {
	return &Roster{actors: make(map[string]*Actor)}
}

// Add registers a. Insertion order is preserved so heartbeat processing is
// deterministic.
//
// Precondition: a must be non-nil with a non-empty ID.
// Postcondition: Returns an error if an actor with the same ID is present.
func (r *Roster) Add(a *Actor) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("roster: actor must have an id")
	}
	if _, exists := r.actors[a.ID]; exists {
		return fmt.Errorf("roster: actor %q already registered", a.ID)
	}
	r.actors[a.ID] = a
	r.order = append(r.order, a.ID)
	return nil
}

// Remove unregisters the actor with id; absent ids are a no-op.
func (r *Roster) Remove(id string) {
	if _, ok := r.actors[id]; !ok {
		return
	}
	delete(r.actors, id)
	for i, aid := range r.order {
		if aid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the actor with id, or (nil, false).
func (r *Roster) Get(id string) (*Actor, bool) {
	a, ok := r.actors[id]
	return a, ok
}

// All returns the registered actors in insertion order. The slice is a
// snapshot; mutating it does not affect the roster.
func (r *Roster) All() []*Actor {
	out := make([]*Actor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actors[id])
	}
	return out
}

// Len returns the number of registered actors.
func (r *Roster) Len() int { return len(r.actors) }
