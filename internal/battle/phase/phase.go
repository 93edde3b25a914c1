// Package phase implements the battle's ordered state machine (spec.md
// §4.2): Intro, Battle, CardSelect, TimeUp, Exit. Each State drives exactly
// one simulation frame and reports whether the driver should switch to a
// different State before the next one.
//
// Grounded on the teacher's lack of an equivalent (the MMO has no
// frame-phase state machine) crossed with original_source/.../states/
// battle_state.rs for the five-state shape; the Go encoding follows the
// teacher's habit of small interfaces implemented by otherwise-unrelated
// structs (see internal/core/ecs.Registry's component-store interface).
package phase

import (
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// DrawUIState is the minimal UI-facing state a presentation sink reads
// after a frame, kept separate from sim.DrawSnapshot since banner/turn-gauge
// display is phase-specific rather than entity-specific.
type DrawUIState struct {
	Banner        sim.Banner
	BannerElapsed int
	TurnGauge     int
	TurnDuration  int
	GraceElapsed  int
	GraceTotal    int
}

// State is one phase of the battle (spec.md §4.2: "Each implements
// clone_box, next_state, allows_animation_updates, update, draw_ui").
type State interface {
	CloneBox() State
	AllowsAnimationUpdates() bool
	Update(s *sim.BattleSimulation, inputs []netplay.NetplayBufferItem)
	NextState(s *sim.BattleSimulation) State
	DrawUI(s *sim.BattleSimulation) DrawUIState
}
