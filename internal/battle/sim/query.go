package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// EachEntity visits every Entity component, including ones not yet promoted
// onto the field (spec.md §4.2.1 steps 3/11/13/14/15 each iterate one
// component kind rather than the whole world).
func (s *BattleSimulation) EachEntity(fn func(ecs.EntityID, *entity.Entity)) {
	s.entities.Each(fn)
}

func (s *BattleSimulation) EachLiving(fn func(ecs.EntityID, *entity.Living)) {
	s.livings.Each(fn)
}

func (s *BattleSimulation) EachCharacter(fn func(ecs.EntityID, *entity.Character)) {
	s.characters.Each(fn)
}

func (s *BattleSimulation) EachPlayer(fn func(ecs.EntityID, *entity.Player)) {
	s.players.Each(fn)
}

func (s *BattleSimulation) EachSpell(fn func(ecs.EntityID, *entity.Spell)) {
	s.spells.Each(fn)
}

func (s *BattleSimulation) EachArtifact(fn func(ecs.EntityID)) {
	s.artifacts.Each(func(id ecs.EntityID, _ *entity.Artifact) { fn(id) })
}

func (s *BattleSimulation) EachObstacle(fn func(ecs.EntityID)) {
	s.obstacles.Each(func(id ecs.EntityID, _ *entity.Obstacle) { fn(id) })
}

// LivingEntityIDs returns every id carrying a Living component whose Entity
// is spawned, on the field, and not yet deleted, ordered by id for
// deterministic iteration (spec.md §4.2.1 step 4 "detect_success_or_failure
// consults every combatant in a stable order").
func (s *BattleSimulation) LivingEntityIDs() []ecs.EntityID {
	var out []ecs.EntityID
	s.livings.Each(func(id ecs.EntityID, _ *entity.Living) {
		if e, ok := s.entities.Get(id); ok && e.Spawned && e.OnField && !e.Deleted {
			out = append(out, id)
		}
	})
	sortIDs(out)
	return out
}

func sortIDs(ids []ecs.EntityID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
