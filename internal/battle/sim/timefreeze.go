package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/timefreeze"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// AdvanceTimeFreeze steps the TimeFreeze tracker and reacts to the phase
// transitions that cross an Active or Idle boundary (spec.md §4.2.1 step 7,
// §4.7). The tracker's own Advance only reports entered-Active and
// entered-Idle-from-FadeOut unambiguously when compared against the phase
// it held before the call, so the transition is detected here rather than
// trusted from Advance's return value.
func (s *BattleSimulation) AdvanceTimeFreeze() {
	before := s.TimeFreeze.Phase
	s.TimeFreeze.Advance()
	after := s.TimeFreeze.Phase

	if before != timefreeze.PhaseActive && after == timefreeze.PhaseActive {
		s.beginTimeFreezeActive()
	}
	if before == timefreeze.PhaseFadeOut && after == timefreeze.PhaseIdle {
		s.endTimeFreeze()
	}
}

// EndTimeFreezeAction transitions Active -> FadeOut once the triggering
// action completes, the caller-facing half of the cycle a script ends by
// calling DeleteActions/Complete on the freeze actor's own action.
func (s *BattleSimulation) EndTimeFreezeAction() {
	s.TimeFreeze.EndActive()
}

// beginTimeFreezeActive snapshots and suspends every entity not already
// exempt (TimeFrozenCount > 0) and not the freeze's own actor, whose action
// keeps ticking by carrying the TimeFreeze flag instead (spec.md §4.7).
func (s *BattleSimulation) beginTimeFreezeActive() {
	active := ecs.EntityID(s.TimeFreeze.ActiveEntity)
	s.entities.Each(func(id ecs.EntityID, e *entity.Entity) {
		if e.Deleted || !e.Spawned || e.TimeFrozenCount > 0 || id == active {
			return
		}
		b := timefreeze.BackupAndPrepare(s, id)
		if b == nil {
			return
		}
		s.timeFreezeBackups[id] = b
		e.TimeFrozen = true
	})
}

// endTimeFreeze restores every backed-up entity once FadeOut completes and
// the tracker returns to Idle.
func (s *BattleSimulation) endTimeFreeze() {
	for id, b := range s.timeFreezeBackups {
		b.Restore(s)
		if e, ok := s.entities.Get(id); ok {
			e.TimeFrozen = false
		}
		delete(s.timeFreezeBackups, id)
	}
}
