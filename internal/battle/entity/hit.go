package entity

import (
	"github.com/rollbacknet/battlecore/internal/battle/field"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// HitFlag is a bitset of properties an AttackBox's hit carries (spec.md
// Glossary "AttackBox"). Kept as a plain uint64 rather than an enum set so
// scripts can OR in custom bits the core never has to know about.
type HitFlag uint64

const (
	HitFlagNone HitFlag = 1 << iota
	HitFlagFlinch
	HitFlagFlash
	HitFlagShake
	HitFlagPierceInvis
	HitFlagPierceGuard
	HitFlagPierceGround
	HitFlagDrag
	HitFlagImpact
	HitFlagNoCounter
	HitFlagCounterable
)

// DefenseOrder fixes when a DefenseRule runs within execute_attacks' defense
// pass (spec.md §4.5 step 5): Always-order rules run first and may veto a
// hit outright; CollisionOnly rules run second, for every hit that got past
// the Always rules and intangibility, after the collision callback.
type DefenseOrder int

const (
	DefenseOrderAlways DefenseOrder = iota
	DefenseOrderCollisionOnly
)

// HitProps is the payload one AttackBox delivers to a Living (spec.md
// Glossary: "properties (damage, element, flags, drag, context)").
type HitProps struct {
	Damage    int
	Element   field.Element
	Flags     HitFlag
	Drag      *DragProps
	Attacker  ecs.EntityID
	HasDrag   bool
	Context   HitContext
}

// DragProps describes a forced-movement push/pull a hit applies on connect.
type DragProps struct {
	DirX, DirY int
	Duration   int
}

// HitContext carries the origin coordinates a hit was generated from, for
// drag direction and tile wash attribution (spec.md §4.5 step 2).
type HitContext struct {
	SourceX, SourceY int
	AuxPropIndices   []string
}

// DefenseRule is a registered predicate consulted during the defense pass.
// It returns blocked=true to veto the hit outright; consumedDrag reports
// whether it neutralized the hit's drag without blocking the hit itself
// (e.g. a shield that stops knockback but not damage).
type DefenseRule struct {
	Order   DefenseOrder
	Apply   func(props *HitProps) (blocked bool, consumedDrag bool)
	Priority int // lower runs first within the same Order
}

// AuxProp is a script-registered auxiliary reaction attached to a Living —
// a per-hit modifier/observer (damage boosts, on-hit triggers) that may be
// flagged to drop itself after a single attack pass (spec.md §4.5 step 7:
// "hit-related aux props are dropped after each attack pass").
type AuxProp struct {
	Key           string
	HitRelated    bool
	DropAfterHit  bool
	Modify        func(props *HitProps)
	triggered     bool
}
