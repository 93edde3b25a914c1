package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// PreUpdate runs the per-frame steps that happen before a phase State
// dispatches its own logic (spec.md §4.1): animation advance (gated by the
// current phase allowing it), spawning pending entities, and draining
// callbacks those two steps queued.
//
// Grounded on original_source/.../battle_simulation.rs's pre_update; the
// background/camera/fade-sprite steps are dropped as presentation-layer
// concerns outside this core's scope (spec.md §1 Non-goals: graphics).
func (s *BattleSimulation) PreUpdate(allowsAnimationUpdates bool) {
	if allowsAnimationUpdates {
		s.updateAnimations()
	}
	s.spawnPending()
	s.CallPendingCallbacks()
}

// PostUpdate runs the per-frame cleanup steps after a phase State's own
// logic has run: sync-node propagation (left to the animator Arena's
// parent/child sync, already folded into AdvanceAnimators), draining
// callbacks, erasing fully-deleted entities, and advancing the frame clock.
func (s *BattleSimulation) PostUpdate() {
	s.CallPendingCallbacks()
	s.cleanupErasedEntities()
	s.fld.UpdateAnimations()
	s.Time++
}

func (s *BattleSimulation) CallPendingCallbacks() {
	s.PendingCallbacks.Drain()
}

func (s *BattleSimulation) updateAnimations() {
	frozen := s.TimeFreeze.Frozen()

	s.entities.Each(func(id ecs.EntityID, e *entity.Entity) {
		if e.TimeFrozenCount > 0 {
			return
		}
		if living, ok := s.livings.Get(id); ok && living.Statuses.IsInactionable() {
			return
		}
		if a, ok := s.animators.Get(e.AnimatorIndex); ok {
			a.Advance()
		}
	})

	s.actions.EachActive(func(id ecs.EntityID, a *entity.Action) {
		e, ok := s.entities.Get(id)
		if !ok {
			return
		}
		if e.TimeFrozenCount > 0 || (frozen && !a.TimeFreeze) {
			return
		}
		if living, ok := s.livings.Get(id); ok && living.Statuses.IsInactionable() {
			return
		}
		for _, attachIdx := range a.Attachments {
			if anim, ok := s.animators.Get(attachIdx); ok {
				anim.Advance()
			}
		}
	})
}

// spawnPending promotes every entity flagged PendingSpawn onto the field:
// inherits tile team/direction when unset, reserves its tile, enables its
// animator, and queues spawn/init/battle-start callbacks (spec.md §4.1 step
// 6).
func (s *BattleSimulation) spawnPending() {
	s.entities.Each(func(id ecs.EntityID, e *entity.Entity) {
		if !e.PendingSpawn {
			return
		}
		e.PendingSpawn = false
		e.Spawned = true
		e.OnField = true
		e.X, e.Y = e.SpawnX, e.SpawnY

		s.fld.AddReservation(id, e.X, e.Y)
		if tile, ok := s.fld.TileAt(e.X, e.Y); ok {
			if e.Team < 0 {
				e.Team = tile.Team
			}
			if e.Facing == 0 {
				e.Facing = tile.Direction
			}
		}

		if a, ok := s.animators.Get(e.AnimatorIndex); ok {
			a.Paused = false
		}

		if e.OnSpawn != nil {
			s.PendingCallbacks.Push(e.OnSpawn)
		}
		if s.BattleStarted && e.OnBattleStart != nil {
			s.PendingCallbacks.Push(e.OnBattleStart)
		}
	})
}

// cleanupErasedEntities removes every Erased entity's components, field
// reservation, and animator, then finally despawns the id itself (spec.md
// §4.1 step 8 / §3 "erasure vs deletion").
func (s *BattleSimulation) cleanupErasedEntities() {
	var erased []ecs.EntityID
	s.entities.Each(func(id ecs.EntityID, e *entity.Entity) {
		if e.Erased {
			erased = append(erased, id)
		}
	})

	for _, id := range erased {
		e, _ := s.entities.Get(id)
		if e != nil && e.Spawned {
			s.fld.RemoveReservation(id, e.X, e.Y)
			s.animators.Free(e.AnimatorIndex)
		}
		for _, idx := range s.actions.IndicesFor(id) {
			_ = idx // arena entries are freed by DeleteActions before erasure completes
		}
		s.world.MarkForDestruction(id)
	}
	s.world.FlushDestroyQueue()
}
