package entity

import "github.com/rollbacknet/battlecore/internal/core/ecs"

// AttackFunc runs when a Spell's AttackBox connects with a target.
type AttackFunc func(target ecs.EntityID)

// CollisionFunc runs on simple tile/entity collision, independent of the
// attack pipeline (e.g. a projectile despawning on hitting a wall).
type CollisionFunc func(other ecs.EntityID)

// Spell is the component carried by active attack effects: projectiles,
// hitboxes, obstacles that deal damage on contact (spec.md §3 Spell).
type Spell struct {
	HitProps HitProps

	RequestedHighlight bool

	OnAttack    AttackFunc
	OnCollision CollisionFunc
}

func (s *Spell) Clone() *Spell {
	c := *s
	return &c
}
