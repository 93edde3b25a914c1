package rollback

import (
	"testing"

	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/config"
)

func newTestSim(seed uint64) *sim.BattleSimulation {
	cfg := &config.BattleRules{}
	return sim.NewSimulation(cfg, status.NewRegistry(), seed)
}

func TestSnapshotHashDeterministicAcrossIdenticalState(t *testing.T) {
	a := newTestSim(99)
	b := newTestSim(99)

	idA := a.SpawnEntity(&entity.Entity{X: 3, Y: 1})
	idB := b.SpawnEntity(&entity.Entity{X: 3, Y: 1})
	if idA != idB {
		t.Fatalf("expected identical spawn order to assign identical ids, got %d and %d", idA, idB)
	}

	livingA := entity.NewLiving(100, status.NewRegistry())
	livingB := entity.NewLiving(100, status.NewRegistry())
	a.SetLiving(idA, livingA)
	b.SetLiving(idB, livingB)

	if SnapshotHash(a) != SnapshotHash(b) {
		t.Errorf("expected two simulations built identically to hash the same")
	}
}

func TestSnapshotHashDivergesOnPosition(t *testing.T) {
	a := newTestSim(99)
	b := newTestSim(99)

	a.SpawnEntity(&entity.Entity{X: 3, Y: 1})
	b.SpawnEntity(&entity.Entity{X: 4, Y: 1})

	if SnapshotHash(a) == SnapshotHash(b) {
		t.Errorf("expected differing entity positions to produce different hashes")
	}
}

func TestSnapshotHashDivergesOnHealth(t *testing.T) {
	a := newTestSim(99)
	b := newTestSim(99)

	idA := a.SpawnEntity(&entity.Entity{X: 1, Y: 1})
	idB := b.SpawnEntity(&entity.Entity{X: 1, Y: 1})

	livingA := entity.NewLiving(100, status.NewRegistry())
	livingB := entity.NewLiving(100, status.NewRegistry())
	livingB.Health = 50
	a.SetLiving(idA, livingA)
	b.SetLiving(idB, livingB)

	if SnapshotHash(a) == SnapshotHash(b) {
		t.Errorf("expected differing health to produce different hashes")
	}
}

func TestSnapshotHashDivergesOnRNGState(t *testing.T) {
	a := newTestSim(1)
	b := newTestSim(2)

	if SnapshotHash(a) == SnapshotHash(b) {
		t.Errorf("expected different RNG seeds to produce different hashes even with no entities")
	}
}

func TestSnapshotHashIndependentOfEntityDiscoveryOrder(t *testing.T) {
	a := newTestSim(42)
	b := newTestSim(42)

	idA1 := a.SpawnEntity(&entity.Entity{X: 1, Y: 1})
	idA2 := a.SpawnEntity(&entity.Entity{X: 2, Y: 2})
	idB1 := b.SpawnEntity(&entity.Entity{X: 1, Y: 1})
	idB2 := b.SpawnEntity(&entity.Entity{X: 2, Y: 2})

	if idA1 != idB1 || idA2 != idB2 {
		t.Fatalf("expected identical spawn sequences to assign identical ids")
	}

	if SnapshotHash(a) != SnapshotHash(b) {
		t.Errorf("expected two simulations spawned in the same order to hash identically regardless of internal map iteration order")
	}
}
