package effect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EffectDef is the static definition of an effect, loaded from YAML content
// files. Definitions carry defaults; an ApplyRequest built from a def can
// still be adjusted per cast (duration scaling, applier identity).
type EffectDef struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	StackingGroup string         `yaml:"stacking_group"` // empty = own id
	Policy        StackingPolicy `yaml:"stacking_policy"`
	MaxStacks     int            `yaml:"max_stacks"`  // <1 = unstackable (1)
	DurationMs    int64          `yaml:"duration_ms"` // <=0 = until cleared
	Tags          []string       `yaml:"tags"`
	Modifiers     Modifiers      `yaml:"modifiers"`

	DOT *struct {
		TickIntervalMs int64  `yaml:"tick_interval_ms"`
		PerTickDamage  int    `yaml:"per_tick_damage"`
		School         School `yaml:"school"`
	} `yaml:"dot"`
	HOT *struct {
		TickIntervalMs int64 `yaml:"tick_interval_ms"`
		PerTickHeal    int   `yaml:"per_tick_heal"`
	} `yaml:"hot"`
	Absorb *struct {
		Amount   int `yaml:"amount"`
		Priority int `yaml:"priority"`
	} `yaml:"absorb"`

	// Lua hook function names dispatched through the scripting manager.
	LuaOnApply  string `yaml:"lua_on_apply"`
	LuaOnTick   string `yaml:"lua_on_tick"`
	LuaOnExpire string `yaml:"lua_on_expire"`
}

// Request builds an ApplyRequest from the definition's defaults.
//
// Precondition: d must not be nil.
// Postcondition: the returned request applies under d.Policy with d's
// payloads; caller fills provenance before applying.
func (d *EffectDef) Request() ApplyRequest {
	req := ApplyRequest{
		ID:              d.ID,
		StackingGroupID: d.StackingGroup,
		Policy:          d.Policy,
		DurationMs:      d.DurationMs,
		MaxStacks:       d.MaxStacks,
		Modifiers:       d.Modifiers,
		Tags:            append([]string(nil), d.Tags...),
	}
	if d.DOT != nil {
		req.DOT = &DOTSpec{
			TickIntervalMs: d.DOT.TickIntervalMs,
			PerTickDamage:  d.DOT.PerTickDamage,
			School:         d.DOT.School,
		}
	}
	if d.HOT != nil {
		req.HOT = &HOTSpec{
			TickIntervalMs: d.HOT.TickIntervalMs,
			PerTickHeal:    d.HOT.PerTickHeal,
		}
	}
	if d.Absorb != nil {
		req.Absorb = &AbsorbSpec{Amount: d.Absorb.Amount, Priority: d.Absorb.Priority}
	}
	return req
}

// Registry holds all known EffectDefs keyed by ID.
type Registry struct {
	defs map[string]*EffectDef
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*EffectDef)}
}

// Register adds def to the registry, overwriting any existing entry with
// the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *EffectDef) {
	r.defs[def.ID] = def
}

// Get returns the EffectDef for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*EffectDef, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered EffectDefs.
func (r *Registry) All() []*EffectDef {
	out := make([]*EffectDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as an
// EffectDef, and returns a populated Registry. Unknown YAML fields are
// rejected so content typos surface at boot.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails
// to parse or a definition has no id.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def EffectDef
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if def.ID == "" {
			return nil, fmt.Errorf("effect def %q has no id", path)
		}
		reg.Register(&def)
	}
	return reg, nil
}
