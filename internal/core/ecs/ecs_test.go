package ecs

import "testing"

func TestEntityIDIndexAndGeneration(t *testing.T) {
	id := NewEntityID(7, 3)
	if id.Index() != 7 {
		t.Errorf("expected Index() == 7, got %d", id.Index())
	}
	if id.Generation() != 3 {
		t.Errorf("expected Generation() == 3, got %d", id.Generation())
	}
	if EntityID(0).IsZero() == false {
		t.Errorf("expected the zero value to report IsZero")
	}
	if id.IsZero() {
		t.Errorf("expected a nonzero id not to report IsZero")
	}
}

func TestEntityPoolCreateAssignsSequentialIndices(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	b := p.Create()
	if a.Index() != 0 || b.Index() != 1 {
		t.Errorf("expected sequential indices 0,1, got %d,%d", a.Index(), b.Index())
	}
	if !p.Alive(a) || !p.Alive(b) {
		t.Errorf("expected both freshly created ids to be alive")
	}
}

func TestEntityPoolDestroyInvalidatesStaleID(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	if p.Alive(a) {
		t.Errorf("expected a destroyed id to no longer be alive")
	}
}

func TestEntityPoolReusesIndexWithNewGeneration(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	b := p.Create()

	if a.Index() != b.Index() {
		t.Fatalf("expected the freed index to be reused, got %d and %d", a.Index(), b.Index())
	}
	if a.Generation() == b.Generation() {
		t.Errorf("expected the reused index to carry a bumped generation")
	}
	if p.Alive(a) {
		t.Errorf("expected the stale id to remain dead after its index is reused")
	}
	if !p.Alive(b) {
		t.Errorf("expected the new id at the reused index to be alive")
	}
}

func TestEntityPoolDoubleDestroyIsNoop(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	p.Destroy(a) // stale reference, must not double-free the index
	b := p.Create()
	c := p.Create()
	if b.Index() == c.Index() {
		t.Errorf("expected a stale double-destroy not to free the same index twice")
	}
}

func TestEntityPoolAliveOnNeverCreatedIndexIsFalse(t *testing.T) {
	p := NewEntityPool()
	if p.Alive(NewEntityID(99, 0)) {
		t.Errorf("expected an id for an index that was never created to be dead")
	}
}

func TestPtrComponentStoreSetGetRemove(t *testing.T) {
	s := NewPtrComponentStore[int]()
	id := NewEntityID(1, 0)

	if _, ok := s.Get(id); ok {
		t.Fatalf("expected an empty store to miss")
	}

	v := 42
	s.Set(id, &v)
	if !s.Has(id) {
		t.Fatalf("expected Has to report true after Set")
	}
	got, ok := s.Get(id)
	if !ok || *got != 42 {
		t.Errorf("expected Get to return the stored value, got %v ok=%v", got, ok)
	}
	if s.Len() != 1 {
		t.Errorf("expected Len() == 1, got %d", s.Len())
	}

	s.Remove(id)
	if s.Has(id) {
		t.Errorf("expected Has to report false after Remove")
	}
}

func TestPtrComponentStoreEachVisitsEveryEntry(t *testing.T) {
	s := NewPtrComponentStore[int]()
	ids := []EntityID{NewEntityID(1, 0), NewEntityID(2, 0), NewEntityID(3, 0)}
	for i, id := range ids {
		v := i
		s.Set(id, &v)
	}

	seen := make(map[EntityID]bool)
	s.Each(func(id EntityID, v *int) { seen[id] = true })
	if len(seen) != len(ids) {
		t.Errorf("expected Each to visit all %d entries, visited %d", len(ids), len(seen))
	}
}

func TestRegistryRemoveAllClearsEveryStore(t *testing.T) {
	reg := NewRegistry()
	a := NewPtrComponentStore[int]()
	b := NewPtrComponentStore[string]()
	reg.Register(a)
	reg.Register(b)

	id := NewEntityID(5, 0)
	av, bv := 1, "x"
	a.Set(id, &av)
	b.Set(id, &bv)

	reg.RemoveAll(id)
	if a.Has(id) || b.Has(id) {
		t.Errorf("expected RemoveAll to clear the entity from every registered store")
	}
}

func TestWorldCreateAndDestroyFlushesStores(t *testing.T) {
	w := NewWorld()
	store := NewPtrComponentStore[int]()
	w.Registry().Register(store)

	id := w.CreateEntity()
	v := 1
	store.Set(id, &v)

	w.MarkForDestruction(id)
	w.FlushDestroyQueue()

	if w.Alive(id) {
		t.Errorf("expected a flushed entity to no longer be alive")
	}
	if store.Has(id) {
		t.Errorf("expected FlushDestroyQueue to clear the entity's components")
	}
}

func TestWorldCreateDeadAdvancesGenerationWithoutLeavingLiveEntity(t *testing.T) {
	w := NewWorld()
	w.CreateDead()
	id := w.CreateEntity()
	if id.Index() != 1 {
		t.Errorf("expected CreateDead to consume index 0 before the next live entity, got index %d", id.Index())
	}
	if !w.Alive(id) {
		t.Errorf("expected the entity created after CreateDead to be alive")
	}
}
