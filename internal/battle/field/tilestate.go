package field

import "github.com/rollbacknet/battlecore/internal/core/ecs"

// TileEventFunc binds the moving entity id and the tile it moved from,
// per spec.md §4.3 ("entering, leaving, and stopping on a tile bind the
// moving entity id and source coordinates").
type TileEventFunc func(entity ecs.EntityID, sourceX, sourceY int)

// CanReplaceFunc reports whether a tile currently in this state may
// transition to target.
type CanReplaceFunc func(target StateIndex) bool

// ReplaceFunc applies a state transition to (x,y).
type ReplaceFunc func(f *Field, x, y int, target StateIndex)

// StateDef is the fixed, per-state callback table entry. Registered once at
// startup; the registry is immutable after battle start (spec.md §3).
type StateDef struct {
	Name            string
	CleanserElement Element
	CanReplace      CanReplaceFunc
	Replace         ReplaceFunc
	OnEntityEnter   TileEventFunc
	OnEntityLeave   TileEventFunc
	OnEntityStop    TileEventFunc
}

// Registry is the fixed table of tile-state behavior, dispatched by
// StateIndex rather than by Go type switch, so scripts can register new
// tile states without the core knowing their names.
type Registry struct {
	defs map[StateIndex]StateDef
}

func NewRegistry() *Registry {
	return &Registry{defs: make(map[StateIndex]StateDef)}
}

func (r *Registry) Register(idx StateIndex, def StateDef) {
	r.defs[idx] = def
}

func (r *Registry) Def(idx StateIndex) (StateDef, bool) {
	d, ok := r.defs[idx]
	return d, ok
}

// CanReplace dispatches to the registered state's CanReplace, defaulting to
// true when no rule is registered (a state with no guard accepts anything).
func (r *Registry) CanReplace(current StateIndex, target StateIndex) bool {
	def, ok := r.defs[current]
	if !ok || def.CanReplace == nil {
		return true
	}
	return def.CanReplace(target)
}

// Replace dispatches the registered transition, falling back to a bare
// state swap when the state has no custom Replace hook.
func (r *Registry) Replace(f *Field, x, y int, current, target StateIndex) {
	def, ok := r.defs[current]
	if ok && def.Replace != nil {
		def.Replace(f, x, y, target)
		return
	}
	if t, ok := f.TileAt(x, y); ok {
		t.State = target
	}
}

// CleanserElement returns the element that washes a tile out of this state,
// or ElementNone if the state has no cleanser.
func (r *Registry) CleanserElement(idx StateIndex) Element {
	if def, ok := r.defs[idx]; ok {
		return def.CleanserElement
	}
	return ElementNone
}

// DefaultRegistry builds the stock tile-state table named in spec.md §2/§3:
// Normal, Cracked, Broken, Grass, Poison, Ice, Void. Scripts may register
// additional states via Register before battle start.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(StateNormal, StateDef{Name: "normal"})

	r.Register(StateCracked, StateDef{
		Name: "cracked",
		CanReplace: func(target StateIndex) bool {
			return target == StateNormal || target == StateBroken
		},
		Replace: func(f *Field, x, y int, target StateIndex) {
			if t, ok := f.TileAt(x, y); ok {
				t.State = target
			}
		},
	})

	r.Register(StateBroken, StateDef{
		Name: "broken",
		// Broken tiles are a dead end: nothing replaces them back to Normal
		// without an explicit script-driven repair, so CanReplace is nil
		// (registry default is permissive; scripts wanting to forbid repair
		// register their own CanReplace returning false).
	})

	r.Register(StateGrass, StateDef{
		Name:            "grass",
		CleanserElement: ElementNone,
		CanReplace: func(target StateIndex) bool {
			return target == StateNormal
		},
	})

	r.Register(StatePoison, StateDef{
		Name: "poison",
		CanReplace: func(target StateIndex) bool {
			return target == StateNormal
		},
	})

	r.Register(StateIce, StateDef{
		Name:            "ice",
		CleanserElement: ElementAqua,
		CanReplace: func(target StateIndex) bool {
			return target == StateNormal
		},
	})

	r.Register(StateVoid, StateDef{Name: "void"})

	return r
}
