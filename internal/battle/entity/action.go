package entity

import (
	"sort"

	"github.com/rollbacknet/battlecore/internal/battle/berr"
	"github.com/rollbacknet/battlecore/internal/battle/bcallback"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// Action is one queued unit of entity behavior — a card use, an attack
// animation, a scripted cutscene step (spec.md §3 Action, §4.2.1 steps
// 5-6). Actions are addressed by a monotonically increasing Index rather
// than by pointer so the scripting boundary can hold a stable handle across
// frames without risking a dangling reference.
type Action struct {
	Index         uint64
	Entity        ecs.EntityID
	Processed     bool
	Executed      bool
	Interruptible bool
	LockoutFrames int

	// OnFrameUpdate fires once per frame while this action is active,
	// per-action behavior's hook into BattleState step 9
	// (Action::process_actions).
	OnFrameUpdate bcallback.Void

	// TimeFreeze marks an action that keeps animating (and, via
	// TimeFreezeTracker, keeps the battle in the Active phase) instead of
	// suspending like a normal action while time is frozen — a card's
	// time-freeze property (spec.md §4.7).
	TimeFreeze bool

	// Attachments are animator arena indices for this action's visual
	// add-ons (a weapon swing, a shield flash), advanced alongside the
	// owning entity's root animator while the action executes.
	Attachments []int

	OnExecute   bcallback.Void
	OnEndAction bcallback.Void
	OnInterrupt bcallback.Void
}

func (a *Action) clone() *Action {
	c := *a
	c.Attachments = append([]int(nil), a.Attachments...)
	return &c
}

// ActionQueue is the per-simulation action arena: a monotonic index space
// plus a per-entity FIFO of pending action indices and at most one active
// action per entity (spec.md §4.2.1 step 5: "one action executes per
// entity at a time; queued actions wait their turn").
type ActionQueue struct {
	nextIndex uint64
	arena     map[uint64]*Action
	pending   map[ecs.EntityID][]uint64
	active    map[ecs.EntityID]uint64
}

func NewActionQueue() *ActionQueue {
	return &ActionQueue{
		arena:   make(map[uint64]*Action),
		pending: make(map[ecs.EntityID][]uint64),
		active:  make(map[ecs.EntityID]uint64),
	}
}

// Enqueue assigns a fresh index to a and appends it to that entity's FIFO.
func (q *ActionQueue) Enqueue(a *Action) uint64 {
	q.nextIndex++
	idx := q.nextIndex
	a.Index = idx
	q.arena[idx] = a
	q.pending[a.Entity] = append(q.pending[a.Entity], idx)
	return idx
}

func (q *ActionQueue) Get(index uint64) (*Action, error) {
	a, ok := q.arena[index]
	if !ok {
		return nil, berr.ActionNotFound{Index: index}
	}
	return a, nil
}

// MarkProcessed validates and flips an action's Processed bit. It is the
// single place berr.ActionAlreadyProcessed and berr.ActionEntityMismatch
// are raised (spec.md §7 Error Handling).
func (q *ActionQueue) MarkProcessed(index uint64, entity ecs.EntityID) error {
	a, ok := q.arena[index]
	if !ok {
		return berr.ActionNotFound{Index: index}
	}
	if a.Entity != entity {
		return berr.ActionEntityMismatch{ActionIndex: index, EntityID: uint64(entity)}
	}
	if a.Processed {
		return berr.ActionAlreadyProcessed{Index: index}
	}
	a.Processed = true
	return nil
}

// Advance promotes the next pending action for entity into the active slot
// if none is currently active, returning it. Returns false if there is
// nothing to advance to or an action is already active.
func (q *ActionQueue) Advance(entity ecs.EntityID) (*Action, bool) {
	if _, busy := q.active[entity]; busy {
		return nil, false
	}
	for len(q.pending[entity]) > 0 {
		queue := q.pending[entity]
		idx := queue[0]
		q.pending[entity] = queue[1:]

		a, ok := q.arena[idx]
		if !ok {
			// Deleted before it ever activated (DeleteActions ran while
			// still queued); skip the stale index rather than advancing
			// into a nil action.
			continue
		}
		q.active[entity] = idx
		if a.OnExecute != nil {
			a.OnExecute()
		}
		return a, true
	}
	return nil, false
}

// EachActive visits every entity with a currently executing action in
// ascending action Index order. Index is assigned monotonically at Enqueue
// time, so this reproduces insertion order deterministically across peers
// instead of Go's randomized map iteration (spec.md §5(c), §8).
func (q *ActionQueue) EachActive(fn func(entity ecs.EntityID, a *Action)) {
	ordered := make([]*Action, 0, len(q.active))
	for _, idx := range q.active {
		if a, ok := q.arena[idx]; ok {
			ordered = append(ordered, a)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	for _, a := range ordered {
		fn(a.Entity, a)
	}
}

// IndicesFor returns the arena indices of every action (pending or active)
// belonging to entity, used by DeleteEntity to gather indices to tear down.
func (q *ActionQueue) IndicesFor(entity ecs.EntityID) []uint64 {
	var out []uint64
	out = append(out, q.pending[entity]...)
	if idx, ok := q.active[entity]; ok {
		out = append(out, idx)
	}
	return out
}

func (q *ActionQueue) ActiveFor(entity ecs.EntityID) (*Action, bool) {
	idx, ok := q.active[entity]
	if !ok {
		return nil, false
	}
	return q.arena[idx], true
}

// Activate promotes index directly into entity's active slot, bypassing
// the pending FIFO — used when a script selects an out-of-band action index
// (spec.md §4.2.1 "use_action may target any valid action index, not only
// the head of the queue").
func (q *ActionQueue) Activate(entity ecs.EntityID, index uint64) bool {
	a, ok := q.arena[index]
	if !ok {
		return false
	}
	a.Entity = entity
	q.active[entity] = index
	return true
}

// Complete ends the active action for entity, runs OnEndAction, and frees
// its arena slot.
func (q *ActionQueue) Complete(entity ecs.EntityID) {
	idx, ok := q.active[entity]
	if !ok {
		return
	}
	a := q.arena[idx]
	delete(q.active, entity)
	delete(q.arena, idx)
	if a != nil && a.OnEndAction != nil {
		a.OnEndAction()
	}
}

// Interrupt ends the active action for entity without requiring it reach
// natural completion, running OnInterrupt instead of OnEndAction. No-op if
// the active action is not Interruptible.
func (q *ActionQueue) Interrupt(entity ecs.EntityID) bool {
	idx, ok := q.active[entity]
	if !ok {
		return false
	}
	a := q.arena[idx]
	if a == nil || !a.Interruptible {
		return false
	}
	delete(q.active, entity)
	delete(q.arena, idx)
	if a.OnInterrupt != nil {
		a.OnInterrupt()
	}
	return true
}

// DropEntity discards all pending/active action state for a despawned
// entity without running completion callbacks.
func (q *ActionQueue) DropEntity(entity ecs.EntityID) {
	for _, idx := range q.pending[entity] {
		delete(q.arena, idx)
	}
	delete(q.pending, entity)
	if idx, ok := q.active[entity]; ok {
		delete(q.arena, idx)
		delete(q.active, entity)
	}
}

// TakeEntityQueue detaches entity's pending/active action references
// (without discarding the underlying Action arena entries) so a caller can
// temporarily suspend one entity's action state — used by
// timefreeze.EntityBackup to swap in a frozen no-op queue while the entity
// is excluded from a time-freeze window (spec.md §4.7).
func (q *ActionQueue) TakeEntityQueue(entity ecs.EntityID) (pending []uint64, active uint64, hasActive bool) {
	pending = q.pending[entity]
	delete(q.pending, entity)
	active, hasActive = q.active[entity]
	delete(q.active, entity)
	return pending, active, hasActive
}

// RestoreEntityQueue merges a previously taken queue back in, dropping any
// index whose arena entry no longer exists (the action completed or was
// interrupted while the entity was frozen out).
func (q *ActionQueue) RestoreEntityQueue(entity ecs.EntityID, pending []uint64, active uint64, hasActive bool) {
	if hasActive {
		if _, ok := q.arena[active]; ok {
			if _, busy := q.active[entity]; !busy {
				q.active[entity] = active
			}
		}
	}
	var live []uint64
	for _, idx := range pending {
		if _, ok := q.arena[idx]; ok {
			live = append(live, idx)
		}
	}
	if len(live) == 0 {
		return
	}
	q.pending[entity] = append(q.pending[entity], live...)
}

func (q *ActionQueue) Clone() *ActionQueue {
	c := &ActionQueue{
		nextIndex: q.nextIndex,
		arena:     make(map[uint64]*Action, len(q.arena)),
		pending:   make(map[ecs.EntityID][]uint64, len(q.pending)),
		active:    make(map[ecs.EntityID]uint64, len(q.active)),
	}
	for idx, a := range q.arena {
		c.arena[idx] = a.clone()
	}
	for id, idxs := range q.pending {
		c.pending[id] = append([]uint64(nil), idxs...)
	}
	for id, idx := range q.active {
		c.active[id] = idx
	}
	return c
}
