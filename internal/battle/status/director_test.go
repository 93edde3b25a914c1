package status

import (
	"testing"

	"github.com/rollbacknet/battlecore/internal/battle/bcallback"
)

func TestDirectorApplyNewStatusesRunsConstructor(t *testing.T) {
	reg := NewRegistry()
	ctorRan := false
	reg.Register(FlagParalyze, func() bcallback.Void { ctorRan = true; return nil }, nil)

	d := NewDirector(reg)
	d.Queue(FlagParalyze, 5)
	if d.Has(FlagParalyze) {
		t.Fatalf("expected Queue alone not to make a status visible via Has")
	}

	d.ApplyNewStatuses()
	if !d.Has(FlagParalyze) {
		t.Errorf("expected ApplyNewStatuses to make the status visible")
	}
	if !ctorRan {
		t.Errorf("expected the registered constructor to run")
	}
}

func TestDirectorUpdateExpiresAndRunsDestructor(t *testing.T) {
	reg := NewRegistry()
	dtorRan := false
	reg.Register(FlagStun, nil, func() bcallback.Void { dtorRan = true; return nil })

	d := NewDirector(reg)
	d.Queue(FlagStun, 2)
	d.ApplyNewStatuses()

	d.Update(false)
	if !d.Has(FlagStun) {
		t.Fatalf("expected status with duration 2 to still be active after one tick")
	}
	d.Update(false)
	if d.Has(FlagStun) {
		t.Errorf("expected status to expire after its duration elapses")
	}
	if !dtorRan {
		t.Errorf("expected destructor to run on expiry")
	}
}

func TestDirectorUpdateDoesNotTickWhileFrozen(t *testing.T) {
	reg := NewRegistry()
	d := NewDirector(reg)
	d.Queue(FlagConfuse, 1)
	d.ApplyNewStatuses()

	d.Update(true)
	if !d.Has(FlagConfuse) {
		t.Errorf("expected a frozen Update not to tick durations down")
	}
}

func TestDirectorIsInactionableReflectsInactionableFlags(t *testing.T) {
	d := NewDirector(NewRegistry())
	if d.IsInactionable() {
		t.Fatalf("expected a fresh director to be actionable")
	}
	d.Queue(FlagParalyze, -1)
	d.ApplyNewStatuses()
	if !d.IsInactionable() {
		t.Errorf("expected FlagParalyze to make the entity inactionable")
	}
}

func TestDirectorIsImmobileCoversDragAndStatuses(t *testing.T) {
	d := NewDirector(NewRegistry())
	if d.IsImmobile() {
		t.Fatalf("expected a fresh director to be mobile")
	}
	d.SetDrag(&Drag{DestX: 1, DestY: 1, Duration: 5})
	if !d.IsImmobile() {
		t.Errorf("expected an active drag to make the entity immobile")
	}
}

func TestDirectorTickDragCompletesAtDuration(t *testing.T) {
	d := NewDirector(NewRegistry())
	d.SetDrag(&Drag{DestX: 1, DestY: 1, Duration: 2})

	if d.TickDrag() {
		t.Fatalf("expected drag not to complete on its first tick")
	}
	if !d.TickDrag() {
		t.Errorf("expected drag to complete once Elapsed reaches Duration")
	}
}

func TestDirectorClearStatusesSkipsKeepInFreeze(t *testing.T) {
	reg := NewRegistry()
	d := NewDirector(reg)
	d.Queue(FlagStun, -1)
	d.Queue(FlagFrozen|FlagKeepInFreeze, -1)
	d.ApplyNewStatuses()

	d.ClearStatuses()
	if d.Has(FlagStun) {
		t.Errorf("expected ClearStatuses to remove a normal status")
	}
	if !d.Has(FlagFrozen) {
		t.Errorf("expected ClearStatuses to keep a KeepInFreeze-tagged status")
	}
}

func TestDirectorAppliedAndPendingExcludesKeepInFreeze(t *testing.T) {
	d := NewDirector(NewRegistry())
	d.Queue(FlagStun, 3)
	d.Queue(FlagFrozen|FlagKeepInFreeze, 3)
	d.ApplyNewStatuses()

	out := d.AppliedAndPending()
	if len(out) != 1 || out[0].Flag != FlagStun {
		t.Errorf("expected only the non-KeepInFreeze status to be reported, got %+v", out)
	}
}

func TestDirectorReapplyStatusSkipsConstructor(t *testing.T) {
	reg := NewRegistry()
	ctorRan := false
	reg.Register(FlagBlind, func() bcallback.Void { ctorRan = true; return nil }, nil)

	d := NewDirector(reg)
	d.ReapplyStatus(FlagBlind, 10)

	if !d.Has(FlagBlind) {
		t.Fatalf("expected ReapplyStatus to make the status visible")
	}
	if ctorRan {
		t.Errorf("expected ReapplyStatus not to run the constructor")
	}
}

func TestDirectorCloneIsIndependent(t *testing.T) {
	d := NewDirector(NewRegistry())
	d.Queue(FlagStun, 5)
	d.ApplyNewStatuses()

	clone := d.Clone()
	clone.Update(false)
	clone.Update(false)
	clone.Update(false)
	clone.Update(false)
	clone.Update(false)

	if !d.Has(FlagStun) {
		t.Errorf("expected ticking the clone not to affect the original")
	}
}
