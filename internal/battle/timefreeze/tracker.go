// Package timefreeze implements the time-freeze state machine and the
// per-entity snapshot/restore it drives (spec.md §4.7).
//
// Grounded directly on
// original_source/client/src/battle/time_freeze_entity_backup.rs — the one
// subsystem with no teacher analogue, since the MMO teacher has no
// freeze-frame mechanic.
package timefreeze

// Phase is the tracker's current state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCounterable
	PhaseActive
	PhaseFadeOut
)

// Tracker drives the Idle -> Counterable -> Active -> FadeOut -> Idle cycle
// (spec.md §4.7). CounterableWindowFrames/FadeOutFrames come from
// config.BattleRules (DESIGN.md Open Question #2).
type Tracker struct {
	Phase Phase

	counterableWindow int
	fadeOutFrames     int

	elapsed int

	// ActiveEntity is the entity whose action triggered the freeze (a card
	// use, a counter) while Phase is Counterable or Active.
	ActiveEntity uint64
	HasActive    bool
}

func NewTracker(counterableWindow, fadeOutFrames int) *Tracker {
	return &Tracker{counterableWindow: counterableWindow, fadeOutFrames: fadeOutFrames}
}

// Trigger starts a freeze for entity, entering the Counterable window.
func (t *Tracker) Trigger(entity uint64) {
	t.Phase = PhaseCounterable
	t.elapsed = 0
	t.ActiveEntity = entity
	t.HasActive = true
}

// Advance steps the tracker by one frame and reports the transition that
// just occurred, if any (Idle when nothing changed).
func (t *Tracker) Advance() (entered Phase) {
	switch t.Phase {
	case PhaseIdle:
		return PhaseIdle
	case PhaseCounterable:
		t.elapsed++
		if t.elapsed >= t.counterableWindow {
			t.Phase = PhaseActive
			t.elapsed = 0
			return PhaseActive
		}
	case PhaseActive:
		// Active has no fixed duration on its own — callers end it
		// explicitly via EndActive once the triggering action completes.
	case PhaseFadeOut:
		t.elapsed++
		if t.elapsed >= t.fadeOutFrames {
			t.Phase = PhaseIdle
			t.elapsed = 0
			t.HasActive = false
			return PhaseIdle
		}
	}
	return PhaseIdle
}

// EndActive transitions Active -> FadeOut.
func (t *Tracker) EndActive() {
	if t.Phase == PhaseActive {
		t.Phase = PhaseFadeOut
		t.elapsed = 0
	}
}

// Frozen reports whether non-participating entities should be treated as
// time-frozen this frame (spec.md §4.7: only during Active).
func (t *Tracker) Frozen() bool { return t.Phase == PhaseActive }

// Counterable reports whether a hit against ActiveEntity during this window
// should trigger a counter instead of normal damage resolution.
func (t *Tracker) Counterable() bool { return t.Phase == PhaseCounterable }

func (t *Tracker) Clone() *Tracker {
	c := *t
	return &c
}
