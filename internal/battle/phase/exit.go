package phase

import (
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// ExitState is terminal: the battle has concluded and statistics have been
// (or are about to be) emitted. The driver is expected to stop polling once
// it observes this state, matching spec.md §4.2's five-state list ending in
// Exit with no further transition.
type ExitState struct{}

func (ExitState) CloneBox() State { return ExitState{} }

func (ExitState) AllowsAnimationUpdates() bool { return false }

func (ExitState) Update(s *sim.BattleSimulation, _ []netplay.NetplayBufferItem) {
	s.WrapUpStatistics()
}

func (ExitState) NextState(s *sim.BattleSimulation) State { return nil }

func (ExitState) DrawUI(s *sim.BattleSimulation) DrawUIState {
	return DrawUIState{Banner: s.Banner, BannerElapsed: s.BannerElapsed}
}
