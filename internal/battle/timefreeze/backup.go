package timefreeze

import (
	"github.com/rollbacknet/battlecore/internal/battle/animator"
	"github.com/rollbacknet/battlecore/internal/battle/bcallback"
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// Host is the slice of BattleSimulation EntityBackup needs, kept as an
// interface so this package never imports `sim` (which imports
// `timefreeze`).
type Host interface {
	Entity(id ecs.EntityID) (*entityComponent, bool)
	Living(id ecs.EntityID) (*entity.Living, bool)
	Animator(index int) (*animator.Animator, bool)
	SetAnimator(index int, a *animator.Animator)
	Actions() *entity.ActionQueue
	TakeMovement(id ecs.EntityID) (*entity.Movement, bool)
	SetMovement(id ecs.EntityID, m *entity.Movement)
	QueuePendingCallback(cb bcallback.Void)
}

// entityComponent aliases entity.Entity so Host's method signature doesn't
// force every caller to import the entity package just to name the type in
// an interface satisfied structurally.
type entityComponent = entity.Entity

type statusBackup struct {
	Flag     status.Flag
	Duration int
}

// EntityBackup snapshots everything about one entity that a time-freeze
// window suspends: its action queue, movement tween, animator, and every
// status not tagged KeepInFreeze — then restores it all afterward,
// possibly merged against statuses the entity picked up during the freeze
// (spec.md §4.7).
type EntityBackup struct {
	EntityID ecs.EntityID

	pendingActions  []uint64
	activeAction    uint64
	hasActiveAction bool

	movement *entity.Movement

	animatorIndex  int
	animatorBackup *animator.Animator

	statuses    []statusBackup
	drag        *status.Drag
	dragLockout int
}

// BackupAndPrepare snapshots id's suspendable state and excludes it from
// the current time-freeze window by clearing what was just backed up.
// Returns nil if the entity does not exist or is already deleted.
func BackupAndPrepare(h Host, id ecs.EntityID) *EntityBackup {
	e, ok := h.Entity(id)
	if !ok || e.Deleted {
		return nil
	}
	e.TimeFrozen = false

	pending, active, hasActive := h.Actions().TakeEntityQueue(id)

	animIdx := e.AnimatorIndex
	var animBackup *animator.Animator
	if a, ok := h.Animator(animIdx); ok {
		animBackup = a.Clone()
		// The live animator keeps playing through the freeze window for any
		// entity participating in it; its callbacks are already captured in
		// animBackup, so clear them here to avoid double-firing on restore.
		a.FrameCallbacks = make(map[int]bcallback.Void)
		a.OnComplete = nil
	}

	var statuses []statusBackup
	var drag *status.Drag
	dragLockout := 0
	if living, ok := h.Living(id); ok {
		for _, s := range living.Statuses.AppliedAndPending() {
			statuses = append(statuses, statusBackup{Flag: s.Flag, Duration: s.Duration})
		}
		drag = living.Statuses.TakeDragForBackup()
		dragLockout = living.Statuses.RemainingDragLockout()
		living.Statuses.ClearStatuses()
		for _, cb := range living.Statuses.TakeReadyDestructors() {
			h.QueuePendingCallback(cb)
		}
	}

	movement, _ := h.TakeMovement(id)

	return &EntityBackup{
		EntityID:        id,
		pendingActions:  pending,
		activeAction:    active,
		hasActiveAction: hasActive,
		movement:        movement,
		animatorIndex:   animIdx,
		animatorBackup:  animBackup,
		statuses:        statuses,
		drag:            drag,
		dragLockout:     dragLockout,
	}
}

// Restore reapplies a backup, merging against any state the entity picked
// up during the freeze (statuses applied mid-freeze are not clobbered;
// see entity.ActionQueue.RestoreEntityQueue for the action-queue merge
// rule).
func (b *EntityBackup) Restore(h Host) {
	e, ok := h.Entity(b.EntityID)
	if !ok {
		return
	}
	e.TimeFrozen = true

	if b.animatorBackup != nil {
		h.SetAnimator(b.animatorIndex, b.animatorBackup)
	}

	if living, ok := h.Living(b.EntityID); ok {
		for _, s := range b.statuses {
			living.Statuses.ReapplyStatus(s.Flag, s.Duration)
		}
		if b.drag != nil {
			living.Statuses.SetDrag(b.drag)
		}
		living.Statuses.SetRemainingDragLockout(b.dragLockout)
	}

	if b.movement != nil {
		h.SetMovement(b.EntityID, b.movement)
	}

	h.Actions().RestoreEntityQueue(b.EntityID, b.pendingActions, b.activeAction, b.hasActiveAction)
}
