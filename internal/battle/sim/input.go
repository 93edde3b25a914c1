package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// moveSlideDuration/moveSlideEndlag are the default directional-step tween
// parameters. Not named by any shared configuration constant; kept as
// package constants rather than config fields since no battle rule ever
// varies them in the reference implementation.
const (
	moveSlideDuration = 8
	moveSlideEndlag   = 2
)

// CardActionFactory builds the Action a queued Card produces for entity.
// The scripting host installs this once per battle, since card behavior is
// entirely script-defined (spec.md §6 "normal_attack_fn", "charged_card_fn",
// and friends are script entry points, not core logic).
type CardActionFactory func(id ecs.EntityID, card entity.Card) *entity.Action

// MutateCards runs every Character's NextCardMutation against its queue
// head before card requests are processed (spec.md §4.2.1 step 3).
func (s *BattleSimulation) MutateCards() {
	s.characters.Each(func(id ecs.EntityID, ch *entity.Character) {
		if len(ch.Cards) == 0 || ch.NextCardMutation == nil {
			return
		}
		ch.Cards[0] = ch.NextCardMutation(ch.Cards[0])
	})
}

// ProcessInput translates this frame's per-player NetplayBufferItem into
// queued Movement for directional presses, handling Special-vs-charged
// attack dispatch is left to the script host's charge_timing_fn /
// charged_attack_fn callbacks bound on the Player's entity (spec.md §4.2.1
// step 4). inputs is indexed by Player.InputIndex; a nil or short slice
// leaves that seat's input untouched this frame, matching "not yet
// received" (spec.md §6 Input source).
func (s *BattleSimulation) ProcessInput(inputs []netplay.NetplayBufferItem) {
	s.players.Each(func(id ecs.EntityID, p *entity.Player) {
		if p.InputIndex < 0 || p.InputIndex >= len(inputs) {
			return
		}
		item := inputs[p.InputIndex]

		e, ok := s.entities.Get(id)
		if !ok || e.Deleted {
			return
		}
		living, hasLiving := s.livings.Get(id)
		if hasLiving && living.Statuses.IsInactionable() {
			return
		}
		if _, busy := s.actions.ActiveFor(id); busy {
			return
		}
		if _, moving := s.movements.Get(id); moving {
			return
		}

		dx, dy := directionOf(item.Pressed)
		if dx == 0 && dy == 0 {
			return
		}
		destX, destY := e.X+dx, e.Y+dy
		if _, inBounds := s.fld.TileAt(destX, destY); !inBounds {
			return
		}

		m := entity.NewSlide(destX, destY, moveSlideDuration, moveSlideEndlag)
		m.SourceX, m.SourceY = e.X, e.Y
		if p.SlideWhenMoving {
			m.Duration = moveSlideDuration
		}
		s.movements.Set(id, m)

		if item.HasSignal(netplay.SignalAttemptingFlee) {
			s.Fled = false // flee is resolved by the caller's flee handshake, not a move
		}
	})
}

func directionOf(pressed netplay.PressedSet) (dx, dy int) {
	if pressed.Has(netplay.ButtonLeft) {
		dx--
	}
	if pressed.Has(netplay.ButtonRight) {
		dx++
	}
	if pressed.Has(netplay.ButtonUp) {
		dy--
	}
	if pressed.Has(netplay.ButtonDown) {
		dy++
	}
	return dx, dy
}

// ProcessCardRequests consumes the top queued card for every Character
// whose CardUseRequested flag is set, builds its Action via factory, and
// enqueues it (spec.md §4.2.1 step 5). CardUseRequested is cleared once the
// hand is exhausted.
func (s *BattleSimulation) ProcessCardRequests(factory CardActionFactory) {
	if factory == nil {
		return
	}
	s.characters.Each(func(id ecs.EntityID, ch *entity.Character) {
		if !ch.CardUseRequested {
			return
		}
		card, ok := ch.PopCard()
		if !ok {
			ch.CardUseRequested = false
			return
		}
		a := factory(id, card)
		if a != nil {
			a.Entity = id
			s.actions.Enqueue(a)
		}
		if len(ch.Cards) == 0 {
			ch.CardUseRequested = false
		}
	})
}

// ProcessActionQueues promotes the next pending action into the active slot
// for every entity without one already active (spec.md §4.2.1 step 6).
func (s *BattleSimulation) ProcessActionQueues() {
	s.entities.Each(func(id ecs.EntityID, e *entity.Entity) {
		if e.Deleted || !e.Spawned {
			return
		}
		s.actions.Advance(id)
	})
}

// ProcessActiveActions fires each currently-active action's per-frame hook
// and marks it executed (spec.md §4.2.1 step 9). Actions end themselves by
// calling back into DeleteActions/Complete from script logic; the core's
// role here is only to tick them forward.
func (s *BattleSimulation) ProcessActiveActions() {
	frozen := s.TimeFreeze.Frozen()
	s.actions.EachActive(func(id ecs.EntityID, a *entity.Action) {
		e, ok := s.entities.Get(id)
		if !ok || e.Deleted {
			return
		}
		if e.TimeFrozenCount == 0 && frozen && !a.TimeFreeze {
			return
		}
		a.Executed = true
		if a.OnFrameUpdate != nil {
			a.OnFrameUpdate()
		}
	})
}
