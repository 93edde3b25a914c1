package animator

// Arena owns every Animator in a BattleSimulation, indexed by a stable int
// handle stored on Entity.AnimatorIndex or on an attachment chain —
// independent of ecs.EntityID so a weapon's attachment animator can outlive
// (briefly, during a despawn's final frame) the entity it was attached to.
type Arena struct {
	animators map[int]*Animator
	nextIndex int
}

func NewArena() *Arena {
	return &Arena{animators: make(map[int]*Animator)}
}

// Alloc allocates a new animator and returns its handle.
func (r *Arena) Alloc() int {
	r.nextIndex++
	idx := r.nextIndex
	r.animators[idx] = New()
	return idx
}

func (r *Arena) Get(index int) (*Animator, bool) {
	a, ok := r.animators[index]
	return a, ok
}

func (r *Arena) Free(index int) {
	delete(r.animators, index)
}

// Restore installs a into an already-allocated index, overwriting whatever
// was there. Used by timefreeze.EntityBackup.Restore to reinstate a
// pre-freeze animator snapshot without disturbing the index an Entity's
// AnimatorIndex still points at.
func (r *Arena) Restore(index int, a *Animator) {
	r.animators[index] = a
}

// Attach registers childIndex as a synced attachment of parentIndex.
func (r *Arena) Attach(parentIndex, childIndex int) {
	if p, ok := r.animators[parentIndex]; ok {
		p.Children = append(p.Children, childIndex)
	}
}

// AdvanceAll steps every animator in the arena by one frame, synchronizing
// each parent's state onto its attached children first (spec.md §4.1
// update_animations: "attachment animators advance in lockstep with the
// animator they are synced to").
func (r *Arena) AdvanceAll() {
	for idx, a := range r.animators {
		for _, childIdx := range a.Children {
			child, ok := r.animators[childIdx]
			if !ok {
				continue
			}
			if child.State != a.State {
				child.SetState(a.State, child.Frames, child.LoopMode)
			}
		}
		_ = idx
		a.Advance()
	}
}

func (r *Arena) Clone() *Arena {
	c := &Arena{animators: make(map[int]*Animator, len(r.animators)), nextIndex: r.nextIndex}
	for idx, a := range r.animators {
		c.animators[idx] = a.Clone()
	}
	return c
}
