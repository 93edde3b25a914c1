package phase

import (
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// CardSelectState holds the battle paused on the card-select screen (menus
// and text UI are out of scope, spec.md §1 Non-goals) until the local seat
// confirms, then hands control back to Resume (spec.md §4.2
// "Battle ↔ CardSelect").
type CardSelectState struct {
	Resume          *BattleState
	LocalInputIndex int

	confirmed bool
}

func (c *CardSelectState) CloneBox() State {
	r := *c
	if c.Resume != nil {
		rb := c.Resume.CloneBox().(*BattleState)
		r.Resume = rb
	}
	return &r
}

func (c *CardSelectState) AllowsAnimationUpdates() bool { return true }

func (c *CardSelectState) Update(s *sim.BattleSimulation, inputs []netplay.NetplayBufferItem) {
	if c.LocalInputIndex < 0 || c.LocalInputIndex >= len(inputs) {
		return
	}
	if inputs[c.LocalInputIndex].Pressed.Has(netplay.ButtonConfirm) {
		c.confirmed = true
	}
}

func (c *CardSelectState) NextState(s *sim.BattleSimulation) State {
	if c.confirmed {
		if c.Resume != nil {
			return c.Resume
		}
		return &BattleState{}
	}
	return nil
}

func (c *CardSelectState) DrawUI(s *sim.BattleSimulation) DrawUIState {
	return DrawUIState{Banner: s.Banner, BannerElapsed: s.BannerElapsed}
}
