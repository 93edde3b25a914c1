package sim

import "github.com/rollbacknet/battlecore/internal/core/ecs"

// UseAction attempts to activate a previously Enqueue'd action by index
// against entityID (spec.md §4.2.1 step 5, §7 berr.ActionNotFound /
// ActionAlreadyProcessed). Returns false on any validation failure —
// callers (the scripting boundary) are expected to surface that as a
// recoverable no-op rather than a panic.
//
// Grounded on original_source/.../battle_simulation.rs's use_action: an
// entity may hold at most one non-frozen active action, time-freeze
// actions are routed to the TimeFreezeTracker instead of the entity's own
// slot, and re-using an already-used action is rejected.
func (s *BattleSimulation) UseAction(entityID ecs.EntityID, index uint64) bool {
	if _, ok := s.entities.Get(entityID); !ok {
		return false
	}

	frozen := s.TimeFreeze.Frozen()
	if _, busy := s.actions.ActiveFor(entityID); busy && !frozen {
		return false
	}

	a, err := s.actions.Get(index)
	if err != nil {
		return false
	}
	if a.Processed {
		return false
	}

	if frozen && !a.TimeFreeze {
		return false
	}

	if err := s.actions.MarkProcessed(index, entityID); err != nil {
		return false
	}

	if a.TimeFreeze {
		// A counter landing during the Counterable/Active window replaces
		// the current freeze actor outright; its in-flight action is
		// interrupted rather than left to finish invisibly underneath the
		// new one (spec.md §4.7 "a chain of counters").
		if s.TimeFreeze.HasActive && s.TimeFreeze.ActiveEntity != uint64(entityID) {
			s.actions.Interrupt(ecs.EntityID(s.TimeFreeze.ActiveEntity))
			delete(s.timeFreezeBackups, ecs.EntityID(s.TimeFreeze.ActiveEntity))
		}
		s.TimeFreeze.Trigger(uint64(entityID))
	}

	if !s.actions.Activate(entityID, index) {
		return false
	}
	if a.OnExecute != nil {
		a.OnExecute()
	}
	return true
}

// DeleteActions force-completes every listed action: frees its attachment
// animators, fires its end callback, and removes it from the arena
// (spec.md §4.2.1 step 7). The owning entity's animator is left as it is.
func (s *BattleSimulation) DeleteActions(indices []uint64) {
	for _, index := range indices {
		a, err := s.actions.Get(index)
		if err != nil || a == nil {
			continue
		}

		for _, attachIdx := range a.Attachments {
			s.animators.Free(attachIdx)
		}

		if active, ok := s.actions.ActiveFor(a.Entity); ok && active == a {
			s.actions.Complete(a.Entity)
		} else {
			// queued but never activated: promote and complete it to free its
			// arena entry, then put back whichever action was active before.
			// Its index stays in the pending FIFO; Advance skips it later.
			prev, hadPrev := s.actions.ActiveFor(a.Entity)
			s.actions.Activate(a.Entity, index)
			s.actions.Complete(a.Entity)
			if hadPrev && prev != nil {
				s.actions.Activate(a.Entity, prev.Index)
			}
		}
	}
	s.CallPendingCallbacks()
}

// MarkEntityForErasure clears the entity's delete callback (it has already
// run, or never should) and immediately proceeds to DeleteEntity (spec.md
// §3 "erasure vs deletion": erasure always implies deletion, but deletion
// alone — e.g. a scripted fade-out — does not imply erasure yet).
func (s *BattleSimulation) MarkEntityForErasure(id ecs.EntityID) {
	e, ok := s.entities.Get(id)
	if !ok || e.Erased {
		return
	}
	e.OnDelete = nil
	e.Erased = true
	s.DeleteEntity(id)
}

// DeleteEntity runs an entity's full deletion sequence once: ends any used
// actions, fires its delete callback(s), and marks it Deleted so future
// attack/update passes skip it. The entity's id and component data remain
// until cleanupErasedEntities runs (only entities also marked Erased are
// swept at end of frame).
func (s *BattleSimulation) DeleteEntity(id ecs.EntityID) {
	e, ok := s.entities.Get(id)
	if !ok || e.Deleted {
		return
	}

	usedIndices := s.actions.IndicesFor(id)

	e.Deleted = true
	deleteCallback := e.OnDelete
	e.OnDelete = nil

	s.DeleteActions(usedIndices)

	if deleteCallback != nil {
		s.PendingCallbacks.Push(deleteCallback)
	}
	s.CallPendingCallbacks()
}
