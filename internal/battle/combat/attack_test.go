package combat

import (
	"testing"

	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/field"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// fakeWorld is a minimal combat.World backed by a real field.Field (which
// ExecuteAttacks calls directly) and a plain map of entities by position.
type fakeWorld struct {
	field    *field.Field
	livings  map[ecs.EntityID]*entity.Living
	position map[ecs.EntityID][2]int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		field:    field.New(6, 3, field.NewRegistry()),
		livings:  make(map[ecs.EntityID]*entity.Living),
		position: make(map[ecs.EntityID][2]int),
	}
}

func (w *fakeWorld) Field() *field.Field { return w.field }

func (w *fakeWorld) Living(id ecs.EntityID) (*entity.Living, bool) {
	l, ok := w.livings[id]
	return l, ok
}

func (w *fakeWorld) EntityPosition(id ecs.EntityID) (int, int, bool) {
	p, ok := w.position[id]
	return p[0], p[1], ok
}

func (w *fakeWorld) EntitiesAt(x, y int) []ecs.EntityID {
	var ids []ecs.EntityID
	for id, p := range w.position {
		if p[0] == x && p[1] == y {
			ids = append(ids, id)
		}
	}
	return ids
}

func (w *fakeWorld) Spell(id ecs.EntityID) (*entity.Spell, bool) { return nil, false }

func (w *fakeWorld) place(id ecs.EntityID, x, y int) *entity.Living {
	l := entity.NewLiving(100, status.NewRegistry())
	w.livings[id] = l
	w.position[id] = [2]int{x, y}
	return l
}

func TestExecuteAttacksHitsEntityOnTile(t *testing.T) {
	w := newFakeWorld()
	w.place(2, 3, 1)

	hits := ExecuteAttacks(w, []AttackBox{
		{Attacker: 1, Props: entity.HitProps{Damage: 10}, Tiles: []TilePos{{X: 3, Y: 1}}},
	})

	if len(hits) != 1 {
		t.Fatalf("expected exactly one hit, got %d", len(hits))
	}
	if hits[0].Target != 2 {
		t.Errorf("expected target entity 2, got %d", hits[0].Target)
	}
	if hits[0].Props.Damage != 10 {
		t.Errorf("expected damage 10 to pass through unmodified, got %d", hits[0].Props.Damage)
	}
}

func TestExecuteAttacksSkipsTheAttackerItself(t *testing.T) {
	w := newFakeWorld()
	w.place(1, 3, 1) // attacker occupies the same tile it's attacking

	hits := ExecuteAttacks(w, []AttackBox{
		{Attacker: 1, Props: entity.HitProps{Damage: 10}, Tiles: []TilePos{{X: 3, Y: 1}}},
	})

	if len(hits) != 0 {
		t.Fatalf("expected an attacker never to hit itself, got %d hits", len(hits))
	}
}

func TestExecuteAttacksSkipsDisabledHitbox(t *testing.T) {
	w := newFakeWorld()
	target := w.place(2, 3, 1)
	target.HitboxEnabled = false

	hits := ExecuteAttacks(w, []AttackBox{
		{Attacker: 1, Props: entity.HitProps{Damage: 10}, Tiles: []TilePos{{X: 3, Y: 1}}},
	})

	if len(hits) != 0 {
		t.Errorf("expected a disabled hitbox to never be hit, got %d hits", len(hits))
	}
}

func TestExecuteAttacksAlwaysOrderRuleBlocksHit(t *testing.T) {
	w := newFakeWorld()
	target := w.place(2, 3, 1)
	target.AddDefenseRule(entity.DefenseRule{
		Order: entity.DefenseOrderAlways,
		Apply: func(props *entity.HitProps) (bool, bool) { return true, false },
	})

	hits := ExecuteAttacks(w, []AttackBox{
		{Attacker: 1, Props: entity.HitProps{Damage: 10}, Tiles: []TilePos{{X: 3, Y: 1}}},
	})

	if len(hits) != 0 {
		t.Errorf("expected an Always-order veto to block the hit entirely, got %d hits", len(hits))
	}
}

func TestExecuteAttacksCollisionOnlyRuleConsumesDrag(t *testing.T) {
	w := newFakeWorld()
	target := w.place(2, 3, 1)
	target.AddDefenseRule(entity.DefenseRule{
		Order: entity.DefenseOrderCollisionOnly,
		Apply: func(props *entity.HitProps) (bool, bool) { return false, true },
	})

	hits := ExecuteAttacks(w, []AttackBox{
		{
			Attacker: 1,
			Props:    entity.HitProps{Damage: 10, HasDrag: true, Drag: &entity.DragProps{DirX: 1}},
			Tiles:    []TilePos{{X: 3, Y: 1}},
		},
	})

	if len(hits) != 1 {
		t.Fatalf("expected the hit to still connect when drag is merely consumed, got %d hits", len(hits))
	}
	if hits[0].Props.HasDrag || hits[0].Props.Drag != nil {
		t.Errorf("expected drag to be stripped once a CollisionOnly rule consumes it, got %+v", hits[0].Props)
	}
}

func TestExecuteAttacksDeterministicOrdering(t *testing.T) {
	w := newFakeWorld()
	w.place(20, 3, 1)
	w.place(10, 4, 1)

	hits := ExecuteAttacks(w, []AttackBox{
		{Attacker: 2, Props: entity.HitProps{Damage: 1}, Tiles: []TilePos{{X: 4, Y: 1}}},
		{Attacker: 1, Props: entity.HitProps{Damage: 1}, Tiles: []TilePos{{X: 3, Y: 1}}},
	})

	if len(hits) != 2 {
		t.Fatalf("expected both boxes to connect, got %d hits", len(hits))
	}
	if hits[0].Target != 10 || hits[1].Target != 20 {
		t.Errorf("expected hits sorted by ascending target id, got targets %d then %d", hits[0].Target, hits[1].Target)
	}
}

func TestExecuteAttacksAuxModifierAppliesBeforeDefense(t *testing.T) {
	w := newFakeWorld()
	target := w.place(2, 3, 1)
	target.BindAuxProp(entity.AuxProp{
		Key:        "armor",
		HitRelated: true,
		Modify: func(props *entity.HitProps) {
			props.Damage -= 5
		},
	})
	var seenByDefense entity.HitProps
	target.AddDefenseRule(entity.DefenseRule{
		Order: entity.DefenseOrderAlways,
		Apply: func(props *entity.HitProps) (bool, bool) {
			seenByDefense = *props
			return false, false
		},
	})

	hits := ExecuteAttacks(w, []AttackBox{
		{Attacker: 1, Props: entity.HitProps{Damage: 10}, Tiles: []TilePos{{X: 3, Y: 1}}},
	})

	if len(hits) != 1 {
		t.Fatalf("expected one hit, got %d", len(hits))
	}
	if seenByDefense.Damage != 5 {
		t.Errorf("expected the defense rule to see the already-modified damage 5, got %d", seenByDefense.Damage)
	}
	if hits[0].Props.Damage != 5 {
		t.Errorf("expected the aux modifier to reduce damage to 5, got %d", hits[0].Props.Damage)
	}
}

func TestExecuteAttacksMissesEmptyTile(t *testing.T) {
	w := newFakeWorld()

	hits := ExecuteAttacks(w, []AttackBox{
		{Attacker: 1, Props: entity.HitProps{Damage: 10}, Tiles: []TilePos{{X: 3, Y: 1}}},
	})

	if len(hits) != 0 {
		t.Errorf("expected no hits against an empty tile, got %d", len(hits))
	}
}
