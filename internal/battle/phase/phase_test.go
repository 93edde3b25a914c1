package phase

import (
	"testing"

	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/config"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

func testSimulation(cfg *config.BattleRules) *sim.BattleSimulation {
	return sim.NewSimulation(cfg, status.NewRegistry(), 1)
}

func TestIntroStateTransitionsAfterGraceTime(t *testing.T) {
	cfg := &config.BattleRules{GraceTime: 2}
	s := testSimulation(cfg)

	var state State = IntroState{}
	for i := 0; i < cfg.GraceTime-1; i++ {
		state.Update(s, nil)
		if next := state.NextState(s); next != nil {
			t.Fatalf("expected IntroState to hold for %d frames, transitioned early at frame %d", cfg.GraceTime, i)
		}
	}

	state.Update(s, nil)
	next := state.NextState(s)
	if _, ok := next.(*BattleState); !ok {
		t.Fatalf("expected IntroState to hand off to *BattleState once GraceTime elapses, got %T", next)
	}
	if !s.BattleStarted {
		t.Errorf("expected BattleStarted to be set once battle-start callbacks have fired")
	}
}

func TestTimeUpStateShowsBannerThenExits(t *testing.T) {
	cfg := &config.BattleRules{TotalMessageTime: 3}
	s := testSimulation(cfg)

	var state State = TimeUpState{}
	for i := 0; i < cfg.TotalMessageTime-1; i++ {
		state.Update(s, nil)
		if s.Banner != sim.BannerTimeUp {
			t.Fatalf("expected Banner == BannerTimeUp immediately on entry, got %v", s.Banner)
		}
		if next := state.NextState(s); next != nil {
			t.Fatalf("expected TimeUpState to hold for %d frames, exited early at frame %d", cfg.TotalMessageTime, i)
		}
	}

	state.Update(s, nil)
	if _, ok := state.NextState(s).(*ExitState); !ok {
		t.Fatalf("expected TimeUpState to hand off to *ExitState once TotalMessageTime elapses")
	}
}

func TestBattleStateNextStateOutOfTimeTakesPriority(t *testing.T) {
	cfg := &config.BattleRules{}
	s := testSimulation(cfg)
	s.OutOfTime = true
	s.TurnComplete = true

	b := &BattleState{EndTurnPlayer: -1}
	next := b.NextState(s)
	if _, ok := next.(*TimeUpState); !ok {
		t.Fatalf("expected OutOfTime to take priority over TurnComplete, got %T", next)
	}
}

func TestBattleStateNextStateTurnCompleteEntersCardSelect(t *testing.T) {
	cfg := &config.BattleRules{}
	s := testSimulation(cfg)
	s.TurnComplete = true

	b := &BattleState{EndTurnPlayer: -1}
	next := b.NextState(s)
	cs, ok := next.(*CardSelectState)
	if !ok {
		t.Fatalf("expected TurnComplete to enter *CardSelectState, got %T", next)
	}
	if cs.Resume != b {
		t.Errorf("expected CardSelectState.Resume to point back at the originating BattleState")
	}
	if s.TurnComplete {
		t.Errorf("expected NextState to clear TurnComplete once consumed")
	}
}

func TestBattleStateNextStateNoTransition(t *testing.T) {
	cfg := &config.BattleRules{}
	s := testSimulation(cfg)

	b := &BattleState{EndTurnPlayer: -1}
	if next := b.NextState(s); next != nil {
		t.Errorf("expected no transition when neither OutOfTime nor TurnComplete is set, got %T", next)
	}
}

func TestCardSelectStateResumesOnConfirm(t *testing.T) {
	cfg := &config.BattleRules{}
	s := testSimulation(cfg)

	resume := &BattleState{EndTurnPlayer: -1}
	cs := &CardSelectState{Resume: resume, LocalInputIndex: 0}

	noPress := netplay.NetplayBufferItem{}
	cs.Update(s, []netplay.NetplayBufferItem{noPress})
	if next := cs.NextState(s); next != nil {
		t.Fatalf("expected no transition before Confirm is pressed, got %T", next)
	}

	confirm := netplay.NetplayBufferItem{}
	confirm.Pressed.Set(netplay.ButtonConfirm)
	cs.Update(s, []netplay.NetplayBufferItem{confirm})

	next := cs.NextState(s)
	if next != State(resume) {
		t.Fatalf("expected CardSelectState to resume the original *BattleState once confirmed")
	}
}

func TestCardSelectStateNoResumeFallsBackToFreshBattleState(t *testing.T) {
	cfg := &config.BattleRules{}
	s := testSimulation(cfg)

	cs := &CardSelectState{LocalInputIndex: 0}
	confirm := netplay.NetplayBufferItem{}
	confirm.Pressed.Set(netplay.ButtonConfirm)
	cs.Update(s, []netplay.NetplayBufferItem{confirm})

	if _, ok := cs.NextState(s).(*BattleState); !ok {
		t.Errorf("expected a fresh *BattleState when CardSelectState has no Resume set")
	}
}

func TestExitStateNeverTransitions(t *testing.T) {
	cfg := &config.BattleRules{}
	s := testSimulation(cfg)

	e := ExitState{}
	e.Update(s, nil)
	if next := e.NextState(s); next != nil {
		t.Errorf("expected ExitState.NextState to always report nil (terminal), got %T", next)
	}
}
