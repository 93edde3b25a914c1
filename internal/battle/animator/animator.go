// Package animator implements the per-entity sprite/state animator arena
// (spec.md §3 Animator, §4.1 update_animations). Animators are allocated in
// an arena rather than as a plain component on Entity because attachment
// animators (a weapon, a shield, an aura) must be advanceable independent of
// which entity owns them and may be synced as a child of another animator.
//
// Grounded on original_source/.../animation.rs's state/frame/loop-mode
// model, adapted from Rust enum dispatch into a small Go struct with a
// LoopMode value and explicit per-frame callback map.
package animator

import "github.com/rollbacknet/battlecore/internal/battle/bcallback"

type LoopMode int

const (
	LoopOnce LoopMode = iota
	LoopForever
	LoopBounce
)

// Frame is one cel of a state's animation.
type Frame struct {
	DurationFrames int
}

// Animator drives a single state's frame progression. The SpriteTree it
// draws into is a presentation-sink concern outside this core (spec.md §1);
// this type only owns timing and the callbacks timing triggers.
type Animator struct {
	State    string
	Frames   []Frame
	LoopMode LoopMode
	Reversed bool
	Paused   bool

	frameIndex   int
	elapsed      int
	bounceFwd    bool

	// FrameCallbacks fires when frameIndex transitions to the given index.
	FrameCallbacks map[int]bcallback.Void
	OnComplete     bcallback.Void

	// Children are attachment animator indices synced to this animator's
	// state changes (spec.md §3: "attachment animators may be synced to a
	// parent's state").
	Children []int
}

func New() *Animator {
	return &Animator{bounceFwd: true, FrameCallbacks: make(map[int]bcallback.Void)}
}

// SetState replaces the animation entirely and resets playback position.
func (a *Animator) SetState(state string, frames []Frame, loop LoopMode) {
	a.State = state
	a.Frames = frames
	a.LoopMode = loop
	a.frameIndex = 0
	a.elapsed = 0
	a.bounceFwd = true
	a.FrameCallbacks = make(map[int]bcallback.Void)
	a.OnComplete = nil
}

func (a *Animator) CurrentFrame() int { return a.frameIndex }

// Advance steps playback by one simulation frame and returns whether a
// non-looping animation just completed (callers consult this to drop an
// Artifact, advance an Action, etc). Does nothing while Paused.
func (a *Animator) Advance() (completed bool) {
	if a.Paused || len(a.Frames) == 0 {
		return false
	}

	a.elapsed++
	dur := a.Frames[a.frameIndex].DurationFrames
	if dur <= 0 {
		dur = 1
	}
	if a.elapsed < dur {
		return false
	}
	a.elapsed = 0

	prevIndex := a.frameIndex
	step := 1
	if a.Reversed {
		step = -1
	}
	if a.LoopMode == LoopBounce && !a.bounceFwd {
		step = -step
	}

	next := prevIndex + step
	switch {
	case next >= len(a.Frames):
		switch a.LoopMode {
		case LoopOnce:
			completed = true
			next = len(a.Frames) - 1
		case LoopForever:
			next = 0
		case LoopBounce:
			a.bounceFwd = false
			next = len(a.Frames) - 1
			if next == prevIndex {
				next = max(0, prevIndex-1)
			}
		}
	case next < 0:
		switch a.LoopMode {
		case LoopOnce:
			completed = true
			next = 0
		case LoopForever:
			next = len(a.Frames) - 1
		case LoopBounce:
			a.bounceFwd = true
			next = 0
		}
	}

	a.frameIndex = next
	if cb, ok := a.FrameCallbacks[a.frameIndex]; ok && cb != nil {
		cb()
	}
	if completed && a.OnComplete != nil {
		a.OnComplete()
	}
	return completed
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (a *Animator) Clone() *Animator {
	c := *a
	c.Frames = append([]Frame(nil), a.Frames...)
	c.Children = append([]int(nil), a.Children...)
	c.FrameCallbacks = make(map[int]bcallback.Void, len(a.FrameCallbacks))
	for k, v := range a.FrameCallbacks {
		c.FrameCallbacks[k] = v
	}
	return &c
}
