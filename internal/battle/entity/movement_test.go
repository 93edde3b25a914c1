package entity

import "testing"

func TestMovementTeleportDelaysThenCompletes(t *testing.T) {
	m := NewTeleport(5, 5, 2)

	for i := 0; i < 2; i++ {
		if _, _, _, done := m.Advance(); done {
			t.Fatalf("expected teleport to stay delayed on frame %d", i)
		}
	}
	_, _, _, done := m.Advance()
	if !done {
		t.Errorf("expected teleport to complete once delay elapses")
	}
}

func TestMovementSlideInterpolatesLinearly(t *testing.T) {
	m := NewSlide(10, 0, 4, 0)
	m.SourceX, m.SourceY = 0, 0

	var lastX float64
	for i := 0; i < 4; i++ {
		x, _, _, done := m.Advance()
		lastX = x
		if i < 3 && done {
			t.Fatalf("expected slide not to finish before its duration elapses (frame %d)", i)
		}
	}
	if lastX != 10 {
		t.Errorf("expected slide to reach destination offset 10, got %v", lastX)
	}
}

func TestMovementSlideHonorsEndlag(t *testing.T) {
	m := NewSlide(4, 0, 1, 2)
	m.SourceX, m.SourceY = 0, 0

	_, _, _, done := m.Advance()
	if done {
		t.Fatalf("expected slide with endlag to not finish on the tween's last frame")
	}
	for i := 0; i < 2; i++ {
		_, _, _, done = m.Advance()
	}
	if !done {
		t.Errorf("expected slide to complete once endlag elapses")
	}
}

func TestMovementJumpArcPeaksAtMidpoint(t *testing.T) {
	m := NewJump(0, 0, 4, 10, 0)
	m.SourceX, m.SourceY = 0, 0

	var peak float64
	for i := 0; i < 4; i++ {
		_, _, z, _ := m.Advance()
		if z > peak {
			peak = z
		}
	}
	if peak <= 0 {
		t.Errorf("expected jump offsetZ to rise above 0 somewhere along the arc, got peak %v", peak)
	}
}

func TestMovementProgressCrossesMidpointOnce(t *testing.T) {
	m := NewSlide(4, 0, 4, 0)
	m.SourceX, m.SourceY = 0, 0

	crossed := 0
	for i := 0; i < 4; i++ {
		before := m.Progress
		m.Advance()
		if before < 0.5 && m.Progress >= 0.5 {
			crossed++
		}
	}
	if crossed != 1 {
		t.Errorf("expected Progress to cross 0.5 exactly once, crossed %d times", crossed)
	}
}

func TestMovementAbortEndsImmediatelyAndFiresOnEnd(t *testing.T) {
	m := NewSlide(4, 0, 10, 0)
	m.SourceX, m.SourceY = 0, 0

	fired := false
	m.OnEnd = func() { fired = true }

	m.Advance()
	m.Abort()

	if !fired {
		t.Errorf("expected Abort to fire OnEnd")
	}
	if m.Elapsed != m.Duration {
		t.Errorf("expected Abort to set Elapsed == Duration, got %d/%d", m.Elapsed, m.Duration)
	}
}

func TestMovementCloneIsIndependent(t *testing.T) {
	m := NewSlide(4, 0, 4, 0)
	m.Advance()

	clone := m.Clone()
	clone.Advance()

	if m.Elapsed == clone.Elapsed {
		t.Errorf("expected advancing the clone not to affect the original's Elapsed")
	}
}
