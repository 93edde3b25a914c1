package phase

import (
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// TimeUpState shows the time-up banner for Config.TotalMessageTime frames
// before handing off to ExitState, entered when BattleState's turn gauge
// exhausts the configured turn limit (spec.md §4.2.1 "next_state returns
// TimeUp if out_of_time").
type TimeUpState struct{}

func (TimeUpState) CloneBox() State { return TimeUpState{} }

func (TimeUpState) AllowsAnimationUpdates() bool { return true }

func (TimeUpState) Update(s *sim.BattleSimulation, _ []netplay.NetplayBufferItem) {
	if s.Banner == sim.BannerNone {
		s.Banner = sim.BannerTimeUp
	}
	s.BannerElapsed++
	if s.BannerElapsed >= s.Config.TotalMessageTime {
		s.Exit = true
	}
}

func (TimeUpState) NextState(s *sim.BattleSimulation) State {
	if s.Exit {
		return &ExitState{}
	}
	return nil
}

func (TimeUpState) DrawUI(s *sim.BattleSimulation) DrawUIState {
	return DrawUIState{Banner: s.Banner, BannerElapsed: s.BannerElapsed}
}
