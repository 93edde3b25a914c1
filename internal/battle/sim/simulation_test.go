package sim

import (
	"testing"

	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/config"
)

func testSim() *BattleSimulation {
	return NewSimulation(&config.BattleRules{}, status.NewRegistry(), 1)
}

func TestSpawnEntityAssignsDistinctIDs(t *testing.T) {
	s := testSim()
	a := s.SpawnEntity(&entity.Entity{X: 1, Y: 1})
	b := s.SpawnEntity(&entity.Entity{X: 2, Y: 2})
	if a == b {
		t.Fatalf("expected distinct ids for distinct spawns")
	}
	if !s.Alive(a) || !s.Alive(b) {
		t.Errorf("expected both spawned ids to be alive")
	}
}

func TestEntitiesAtFiltersByPositionAndOnField(t *testing.T) {
	s := testSim()
	onField := s.SpawnEntity(&entity.Entity{X: 3, Y: 2, OnField: true})
	s.SpawnEntity(&entity.Entity{X: 3, Y: 2, OnField: false})
	s.SpawnEntity(&entity.Entity{X: 0, Y: 0, OnField: true})

	ids := s.EntitiesAt(3, 2)
	if len(ids) != 1 || ids[0] != onField {
		t.Errorf("expected exactly the on-field entity at (3,2), got %v", ids)
	}
}

func TestEntitiesAtExcludesDeleted(t *testing.T) {
	s := testSim()
	id := s.SpawnEntity(&entity.Entity{X: 1, Y: 1, OnField: true})
	e, _ := s.Entity(id)
	e.Deleted = true

	if ids := s.EntitiesAt(1, 1); len(ids) != 0 {
		t.Errorf("expected a deleted entity to be excluded, got %v", ids)
	}
}

func TestCloneDeepCopiesEntityState(t *testing.T) {
	s := testSim()
	id := s.SpawnEntity(&entity.Entity{X: 1, Y: 1})
	living := entity.NewLiving(100, status.NewRegistry())
	s.SetLiving(id, living)

	clone := s.Clone()

	cloneEntity, _ := clone.Entity(id)
	cloneEntity.X = 9

	orig, _ := s.Entity(id)
	if orig.X == 9 {
		t.Errorf("expected mutating the clone's entity not to affect the original")
	}

	cloneLiving, _ := clone.Living(id)
	cloneLiving.Health = 1
	origLiving, _ := s.Living(id)
	if origLiving.Health == 1 {
		t.Errorf("expected mutating the clone's Living not to affect the original")
	}
}

func TestCloneFutureSpawnNeverCollidesWithDeadID(t *testing.T) {
	s := testSim()
	dead := s.SpawnEntity(&entity.Entity{})

	clone := s.Clone()
	fresh := clone.SpawnEntity(&entity.Entity{X: 5, Y: 5})
	if fresh == dead {
		t.Errorf("expected a spawn in the clone never to reuse a dead id from the parent's generation history")
	}
}

func TestCloneRNGIsASeparateInstance(t *testing.T) {
	s := testSim()
	clone := s.Clone()
	if clone.RNG == s.RNG {
		t.Errorf("expected Clone to give the clone its own RNG instance")
	}
}
