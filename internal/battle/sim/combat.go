package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/combat"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// QueueAttack appends an attack box for the next ExecuteAttacks call, the
// way a card or obstacle's script requests a hitbox sweep (spec.md §4.5
// "attack sources append boxes; the simulation resolves them together").
func (s *BattleSimulation) QueueAttack(box combat.AttackBox) {
	s.QueuedAttacks = append(s.QueuedAttacks, box)
}

// ExecuteAttacks runs the combat package's nine-step pipeline against every
// box queued since the last call, consolidates the resulting hits into each
// target Living's health via ProcessHits, and clears both the attack queue
// and the field's per-attacker ignore sets (spec.md §4.2.1 step 10, §4.5
// step 9).
//
// Grounded on combat.ExecuteAttacks' documented contract that callers run
// field.ResolveIgnoredAttackers once per frame after every attack source has
// contributed, not once per pipeline invocation.
func (s *BattleSimulation) ExecuteAttacks() []combat.Hit {
	if len(s.QueuedAttacks) == 0 {
		return nil
	}
	hits := combat.ExecuteAttacks(s, s.QueuedAttacks)
	s.QueuedAttacks = nil

	seen := make(map[ecs.EntityID]struct{}, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.Target]; ok {
			continue
		}
		seen[h.Target] = struct{}{}
		if living, ok := s.livings.Get(h.Target); ok {
			living.ProcessHits()
		}
	}

	s.fld.ResolveIgnoredAttackers()
	return hits
}
