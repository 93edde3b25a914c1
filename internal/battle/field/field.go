// Package field implements the tile grid (spec.md §3 Field, §4.3) and the
// tile-state registry transitions (wash, crack, freeze) that movement and
// attack resolution consult every frame.
//
// Grounded on the teacher's internal/world grid-style bookkeeping
// (per-tile team ownership, reservation handoff) adapted from a world-map
// passability grid into a small fixed battlefield with a dispatch-by-state
// callback table, per spec.md §4.3 ("Tile state callbacks fire by
// dispatch, not inheritance").
package field

import "github.com/rollbacknet/battlecore/internal/core/ecs"

// Team identifies tile/entity ownership. TeamUnset means the tile has no
// side yet and inherits whatever spawns onto it (spec.md §4.1 pre_update
// step 6).
type Team int32

const TeamUnset Team = -1

// Direction is the facing a tile (and the entities that enter it) adopt.
type Direction int8

const (
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
)

// Element tags attacks and tile cleansers for the wash-resolution pass
// (spec.md §4.5 step 2/8).
type Element int8

const (
	ElementNone Element = iota
	ElementFire
	ElementAqua
	ElementElec
	ElementWood
)

// StateIndex is an index into the TileState registry. The zero value is
// Normal by convention.
type StateIndex int

const (
	StateNormal StateIndex = iota
	StateCracked
	StateBroken
	StateGrass
	StatePoison
	StateIce
	StateVoid // impassable hole; no entity may stand here
)

// Tile is one cell of the battlefield.
type Tile struct {
	Team      Team
	Direction Direction
	State     StateIndex
	Highlight bool

	// IgnoredAttackers holds attacker ids this tile will not re-queue a hit
	// for during the remainder of the current attack pass. Retired every
	// frame by ResolveIgnoredAttackers (spec.md §4.5 step 9).
	IgnoredAttackers map[ecs.EntityID]struct{}

	// Reservations tracks entities currently standing on, or queued to move
	// onto, this tile — consulted by Movement's can_move_to validation.
	Reservations map[ecs.EntityID]struct{}
}

func newTile() Tile {
	return Tile{
		State:            StateNormal,
		IgnoredAttackers: make(map[ecs.EntityID]struct{}),
		Reservations:     make(map[ecs.EntityID]struct{}),
	}
}

// Field is the fixed-size row-major battlefield grid. Default size is 8x5
// per spec.md §4.3.
type Field struct {
	Width, Height int
	tiles         []Tile
	registry      *Registry
}

const (
	DefaultWidth  = 8
	DefaultHeight = 5
)

func New(width, height int, registry *Registry) *Field {
	f := &Field{Width: width, Height: height, registry: registry}
	f.tiles = make([]Tile, width*height)
	for i := range f.tiles {
		f.tiles[i] = newTile()
	}
	return f
}

func NewDefault(registry *Registry) *Field {
	return New(DefaultWidth, DefaultHeight, registry)
}

func (f *Field) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

func (f *Field) index(x, y int) int { return y*f.Width + x }

// TileAt returns the tile at (x,y), or false if out of bounds. All hit
// resolution and movement validation silently skip missing tiles per
// spec.md §4.3.
func (f *Field) TileAt(x, y int) (*Tile, bool) {
	if !f.inBounds(x, y) {
		return nil, false
	}
	return &f.tiles[f.index(x, y)], true
}

func (f *Field) Registry() *Registry { return f.registry }

// AddReservation marks an entity as occupying/targeting (x,y).
func (f *Field) AddReservation(id ecs.EntityID, x, y int) {
	if t, ok := f.TileAt(x, y); ok {
		t.Reservations[id] = struct{}{}
	}
}

// RemoveReservation clears an entity's reservation on (x,y). Movement hands
// a reservation off from the source tile to the destination tile on
// completion (spec.md §4.6).
func (f *Field) RemoveReservation(id ecs.EntityID, x, y int) {
	if t, ok := f.TileAt(x, y); ok {
		delete(t.Reservations, id)
	}
}

// AcknowledgeAttacker marks a tile as having seen this attacker during the
// current attack pass (spec.md §4.5 step 2c / step 5).
func (f *Field) AcknowledgeAttacker(x, y int, attacker ecs.EntityID) {
	if t, ok := f.TileAt(x, y); ok {
		t.IgnoredAttackers[attacker] = struct{}{}
	}
}

// IgnoringAttacker reports whether (x,y) already ignores this attacker for
// the current pass.
func (f *Field) IgnoringAttacker(x, y int, attacker ecs.EntityID) bool {
	t, ok := f.TileAt(x, y)
	if !ok {
		return false
	}
	_, ignored := t.IgnoredAttackers[attacker]
	return ignored
}

// ResolveIgnoredAttackers clears every tile's per-attacker ignore set.
// Called once at the end of execute_attacks (spec.md §4.5 step 9).
func (f *Field) ResolveIgnoredAttackers() {
	for i := range f.tiles {
		t := &f.tiles[i]
		for id := range t.IgnoredAttackers {
			delete(t.IgnoredAttackers, id)
		}
	}
}

// RequestHighlight sets the solid highlight flag on (x,y) for this frame.
// Cleared by UpdateAnimations at the start of the next tile update pass.
func (f *Field) RequestHighlight(x, y int) {
	if t, ok := f.TileAt(x, y); ok {
		t.Highlight = true
	}
}

// UpdateAnimations advances per-tile visual state. In this core that is
// limited to clearing the prior frame's highlight request; tile-state
// specific animation (grass sway, lava bubble) is a presentation-sink
// concern outside the simulation's scope (spec.md §1).
func (f *Field) UpdateAnimations() {
	for i := range f.tiles {
		f.tiles[i].Highlight = false
	}
}

// Clone deep-copies the field for BattleSimulation snapshotting.
func (f *Field) Clone() *Field {
	nf := &Field{Width: f.Width, Height: f.Height, registry: f.registry}
	nf.tiles = make([]Tile, len(f.tiles))
	for i, t := range f.tiles {
		nt := newTile()
		nt.Team = t.Team
		nt.Direction = t.Direction
		nt.State = t.State
		nt.Highlight = t.Highlight
		for id := range t.IgnoredAttackers {
			nt.IgnoredAttackers[id] = struct{}{}
		}
		for id := range t.Reservations {
			nt.Reservations[id] = struct{}{}
		}
		nf.tiles[i] = nt
	}
	return nf
}
