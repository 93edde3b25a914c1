// Package entity defines the component tuples BattleSimulation stores
// against a generational ecs.EntityID (spec.md §3 Data Model), the way the
// teacher defines its component structs (internal/component/*.go) as plain
// structs keyed by id in typed ecs.PtrComponentStore instances rather than
// through a type switch or reflection.
package entity

import (
	"github.com/rollbacknet/battlecore/internal/battle/bcallback"
	"github.com/rollbacknet/battlecore/internal/battle/field"
)

// VoidCallback is a zero-argument callback captured by an entity lifecycle
// slot. The scripting package is the only place these are constructed from
// a live VM handle; the core itself only ever calls them.
type VoidCallback = bcallback.Void

// CanMoveToFunc decides whether an entity may occupy (x,y).
type CanMoveToFunc func(x, y int) bool

// Entity is the base component every other component in this package
// requires (spec.md §3: "Every other component on the same id requires
// Entity").
type Entity struct {
	Team      field.Team
	Facing    field.Direction
	X, Y      int
	OffsetX   float64 // render-only movement offset, reset each frame
	OffsetY   float64
	Elevation float64
	Height    float64

	SpriteTreeIndex int
	AnimatorIndex   int

	PendingSpawn  bool
	SpawnX, SpawnY int

	Spawned bool
	OnField bool
	Deleted bool
	Erased  bool

	// TimeFrozenCount > 0 means this entity keeps ticking while the
	// TimeFreezeTracker is Active (spec.md §4.7).
	TimeFrozenCount int
	TimeFrozen      bool // true for every OTHER entity while freeze is Active

	// Updated is reset to false each frame by prepare_updates and set once
	// this entity's update callback has been enqueued this frame, so
	// update_spells/update_artifacts only enqueue once per frame.
	Updated bool

	OnSpawn       VoidCallback
	OnUpdate      VoidCallback
	OnIdle        VoidCallback
	OnDelete      VoidCallback
	OnBattleStart VoidCallback
	CanMoveTo     CanMoveToFunc
}

// NewPending constructs an entity targeted at (x,y), not yet promoted to
// spawned/on_field. BattleSimulation.pre_update's spawn_pending step
// performs the promotion (spec.md §4.1 step 6).
func NewPending(x, y int) *Entity {
	return &Entity{
		Team:            field.TeamUnset,
		Facing:          field.DirectionNone,
		PendingSpawn:    true,
		SpawnX:          x,
		SpawnY:          y,
		AnimatorIndex:   -1,
		SpriteTreeIndex: -1,
	}
}

func (e *Entity) Clone() *Entity {
	c := *e
	return &c
}
