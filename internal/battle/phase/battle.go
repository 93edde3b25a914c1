package phase

import (
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// BattleState runs the substantive per-frame sequence (spec.md §4.2.1, 22
// numbered steps). CardFactory is installed once by the scripting host
// before the battle starts; LowHPCallback and EndTurnPlayer are thin hooks
// so the core never has to know how a low-HP cue is played or which button
// a particular input scheme maps to "end turn".
type BattleState struct {
	CardFactory     sim.CardActionFactory
	LowHPCallback   func()
	EndTurnPlayer   int // Player.InputIndex consulted for the EndTurn button; -1 disables
}

func (b *BattleState) CloneBox() State {
	c := *b
	return &c
}

func (b *BattleState) AllowsAnimationUpdates() bool { return true }

func (b *BattleState) Update(s *sim.BattleSimulation, inputs []netplay.NetplayBufferItem) {
	// Step 1 (end_message.update / detect battle start) is handled by
	// IntroState before control reaches BattleState; by the time this state
	// is active BattleStarted is already true.

	// Step 2.
	s.PrepareUpdates()

	// Step 3.
	s.MutateCards()

	// Step 4.
	s.ProcessInput(inputs)

	// Step 5.
	s.ProcessCardRequests(b.CardFactory)

	// Step 6.
	s.ProcessActionQueues()

	// Step 7.
	s.AdvanceTimeFreeze()

	// Step 8.
	s.ProcessMovement()

	// Step 9.
	s.ProcessActiveActions()

	// Step 10.
	s.UpdateField()

	// Step 11.
	s.UpdateSpells()

	// Step 12.
	s.ExecuteAttacks()

	// Step 13.
	s.MarkDeletedLivings()

	// Step 14.
	s.UpdateLiving()

	// Step 15.
	s.UpdateArtifacts()

	// Step 16: ActiveBattle-lifetime components are skipped while frozen;
	// Battle-lifetime components run regardless. Both reduce, in this core,
	// to callbacks already enqueued by steps 11/14/15, so this step is their
	// drain point.
	s.CallPendingCallbacks()

	// Step 17 (apply_status_vfx) is a presentation concern (spec.md §1
	// Non-goals: graphics); nothing in this core owns sprite recoloring.

	// Step 18/19.
	if s.Banner == sim.BannerNone && !s.TimeFreeze.Frozen() {
		s.Statistics.Time++
	}
	s.BattleTime++
	s.Time++

	// Step 20.
	s.DetectSuccessOrFailure()

	// Step 21.
	endTurnPressed := false
	if b.EndTurnPlayer >= 0 && b.EndTurnPlayer < len(inputs) {
		endTurnPressed = inputs[b.EndTurnPlayer].Pressed.Has(netplay.ButtonEndTurn)
	}
	s.UpdateTurnGauge(endTurnPressed)

	// Step 22.
	s.PlayLowHPSfx(b.LowHPCallback)

	if s.Exit {
		s.WrapUpStatistics()
	}
}

func (b *BattleState) NextState(s *sim.BattleSimulation) State {
	if s.OutOfTime {
		return &TimeUpState{}
	}
	if s.TurnComplete {
		s.TurnComplete = false
		return &CardSelectState{Resume: b}
	}
	return nil
}

func (b *BattleState) DrawUI(s *sim.BattleSimulation) DrawUIState {
	return DrawUIState{
		Banner:        s.Banner,
		BannerElapsed: s.BannerElapsed,
		TurnGauge:     s.TurnGauge,
		TurnDuration:  s.TurnGaugeDuration,
	}
}
