package phase

import (
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// IntroState holds the battle at its starting tile layout for
// Config.GraceTime frames before handing control to BattleState (spec.md
// §4.2.1 step 1 "detect battle start").
type IntroState struct{}

func (IntroState) CloneBox() State { return IntroState{} }

func (IntroState) AllowsAnimationUpdates() bool { return false }

func (IntroState) Update(s *sim.BattleSimulation, _ []netplay.NetplayBufferItem) {
	if !s.BattleStarted {
		s.BattleStarted = true
		s.EachEntity(func(_ ecs.EntityID, e *entity.Entity) {
			if e.OnBattleStart != nil {
				s.QueuePendingCallback(e.OnBattleStart)
			}
		})
		s.CallPendingCallbacks()
	}
	s.GraceElapsed++
}

func (IntroState) NextState(s *sim.BattleSimulation) State {
	if s.GraceElapsed >= s.Config.GraceTime {
		return &BattleState{}
	}
	return nil
}

func (IntroState) DrawUI(s *sim.BattleSimulation) DrawUIState {
	return DrawUIState{GraceElapsed: s.GraceElapsed, GraceTotal: s.Config.GraceTime}
}
