package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/field"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// PrepareUpdates clears the per-frame entity flags every BattleState.Update
// pass starts from (spec.md §4.2.1 step 2).
func (s *BattleSimulation) PrepareUpdates() {
	s.entities.Each(func(_ ecs.EntityID, e *entity.Entity) {
		e.Updated = false
		e.OffsetX, e.OffsetY = 0, 0
	})
}

// UpdateField advances tile animations and applies their side effects when
// time is not frozen (spec.md §4.2.1 step 10).
func (s *BattleSimulation) UpdateField() {
	if s.TimeFreeze.Frozen() {
		return
	}
	s.fld.UpdateAnimations()
}

// UpdateSpells enqueues each non-frozen, not-yet-updated spell's update
// callback and requests its tile highlight (spec.md §4.2.1 step 11).
func (s *BattleSimulation) UpdateSpells() {
	s.spells.Each(func(id ecs.EntityID, sp *entity.Spell) {
		e, ok := s.entities.Get(id)
		if !ok || e.Deleted || !e.Spawned || e.Updated {
			return
		}
		if e.TimeFrozenCount == 0 && e.TimeFrozen {
			return
		}
		if sp.RequestedHighlight {
			s.fld.RequestHighlight(e.X, e.Y)
		}
		if e.OnUpdate != nil {
			s.PendingCallbacks.Push(e.OnUpdate)
		}
		e.Updated = true
	})
}

// UpdateArtifacts mirrors UpdateSpells for cosmetic-only entities (spec.md
// §4.2.1 step 15).
func (s *BattleSimulation) UpdateArtifacts() {
	s.artifacts.Each(func(id ecs.EntityID, _ *entity.Artifact) {
		e, ok := s.entities.Get(id)
		if !ok || e.Deleted || !e.Spawned || e.Updated {
			return
		}
		if e.TimeFrozenCount == 0 && e.TimeFrozen {
			return
		}
		if e.OnUpdate != nil {
			s.PendingCallbacks.Push(e.OnUpdate)
		}
		e.Updated = true
	})
}

// MarkDeletedLivings deletes every Living whose health has reached zero
// (spec.md §4.2.1 step 13 "mark_deleted").
func (s *BattleSimulation) MarkDeletedLivings() {
	var dead []ecs.EntityID
	s.livings.Each(func(id ecs.EntityID, l *entity.Living) {
		if l.MaxHealth > 0 && l.Health <= 0 {
			dead = append(dead, id)
		}
	})
	for _, id := range dead {
		if e, ok := s.entities.Get(id); ok && !e.Deleted {
			s.DeleteEntity(id)
		}
	}
}

// UpdateLiving ticks status durations (skipped while frozen), admits newly
// queued statuses, drains ready destructors, and advances any active drag
// (spec.md §4.2.1 step 14, §4.4).
func (s *BattleSimulation) UpdateLiving() {
	frozen := s.TimeFreeze.Frozen()
	s.livings.Each(func(id ecs.EntityID, l *entity.Living) {
		e, ok := s.entities.Get(id)
		if !ok || e.Deleted {
			return
		}
		exempt := e.TimeFrozenCount > 0
		l.Statuses.ApplyNewStatuses()
		if !frozen || exempt {
			if l.Statuses.IsDragged() {
				if l.Statuses.TickDrag() {
					l.Statuses.EndDrag()
				}
			} else {
				l.Statuses.Update(false)
			}
		}
		for _, cb := range l.Statuses.TakeReadyDestructors() {
			s.PendingCallbacks.Push(cb)
		}
	})
}

// DetectSuccessOrFailure checks the local player's survival and the
// opposing team's remaining Characters, setting a Banner the first frame
// the condition holds and advancing BannerElapsed on subsequent frames; once
// the banner has shown for Config.TotalMessageTime frames, Exit is set
// (spec.md §4.2.1 step 20).
func (s *BattleSimulation) DetectSuccessOrFailure() {
	if s.Banner != BannerNone {
		s.BannerElapsed++
		if s.BannerElapsed >= s.Config.TotalMessageTime {
			s.Exit = true
		}
		return
	}

	if s.Fled {
		s.Banner = BannerSuccess
		return
	}

	localMissing := true
	if e, ok := s.entities.Get(s.LocalPlayerID); ok && !e.Deleted {
		localMissing = false
	}
	if localMissing {
		s.Banner = BannerFailed
		return
	}

	enemyRemains := false
	s.characters.Each(func(id ecs.EntityID, _ *entity.Character) {
		if enemyRemains {
			return
		}
		e, ok := s.entities.Get(id)
		if !ok || e.Deleted || e.Team == s.LocalTeam {
			return
		}
		enemyRemains = true
	})
	if !enemyRemains {
		s.Banner = BannerSuccess
	}
}

// UpdateTurnGauge advances the turn timer and, on completion, either ends
// the current turn (automatically, or because EndTurn was pressed) or flags
// OutOfTime once Config.TurnLimit turns have elapsed (spec.md §4.2.1 step
// 21).
func (s *BattleSimulation) UpdateTurnGauge(endTurnPressed bool) {
	if s.Banner != BannerNone {
		return
	}
	s.TurnGauge++
	if s.TurnGauge < s.TurnGaugeDuration {
		return
	}
	if !s.Config.AutomaticTurnEnd && !endTurnPressed {
		return
	}
	s.TurnGauge = 0
	s.Statistics.Turns++
	s.TurnComplete = true

	if s.Config.TurnLimit != nil && s.Statistics.Turns >= int(*s.Config.TurnLimit) {
		s.OutOfTime = true
	}
}

// lowHPCadenceFrames is how often the low-HP cue repeats while the local
// player is alive and below the threshold, matching the 0.5s-at-60fps
// cadence the reference implementation uses for its low-HP heartbeat sfx.
const lowHPCadenceFrames = 30
const lowHPThresholdFraction = 0.25

// PlayLowHPSfx fires cb on the low-HP cadence while the local player is
// alive and below the threshold fraction of max health (spec.md §4.2.1 step
// 22).
func (s *BattleSimulation) PlayLowHPSfx(cb func()) {
	living, ok := s.livings.Get(s.LocalPlayerID)
	if !ok || living.MaxHealth == 0 || living.Dead() {
		s.lowHPCadenceCounter = 0
		return
	}
	if float64(living.Health) > float64(living.MaxHealth)*lowHPThresholdFraction {
		s.lowHPCadenceCounter = 0
		return
	}
	s.lowHPCadenceCounter++
	if s.lowHPCadenceCounter >= lowHPCadenceFrames {
		s.lowHPCadenceCounter = 0
		if cb != nil {
			cb()
		}
	}
}

// WrapUpStatistics finalizes Statistics with the local player's health and
// every surviving combatant, called once when Exit is set (spec.md §6
// "Statistics emitted once on battle end").
func (s *BattleSimulation) WrapUpStatistics() Statistics {
	if living, ok := s.livings.Get(s.LocalPlayerID); ok {
		s.Statistics.Health = living.Health
	}
	s.Statistics.Won = s.Banner == BannerSuccess && !s.Fled
	s.Statistics.Ran = s.Fled

	s.Statistics.AllySurvivors = nil
	s.Statistics.EnemySurvivors = nil
	s.Statistics.NeutralSurvivors = nil

	s.characters.Each(func(id ecs.EntityID, ch *entity.Character) {
		e, ok := s.entities.Get(id)
		if !ok || e.Deleted {
			return
		}
		living, ok := s.livings.Get(id)
		if !ok {
			return
		}
		sv := Survivor{Name: ch.DisplayName, Health: living.Health}
		switch {
		case e.Team == s.LocalTeam:
			s.Statistics.AllySurvivors = append(s.Statistics.AllySurvivors, sv)
		case e.Team == field.TeamUnset:
			s.Statistics.NeutralSurvivors = append(s.Statistics.NeutralSurvivors, sv)
		default:
			s.Statistics.EnemySurvivors = append(s.Statistics.EnemySurvivors, sv)
		}
	})

	s.Statistics.calculateScore()

	if s.StatisticsSink != nil && !s.StatisticsEmitted {
		s.StatisticsEmitted = true
		s.StatisticsSink(s.Statistics)
	}
	return s.Statistics
}
