package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// ProcessMovement advances every entity's queued Movement by one frame
// (spec.md §4.2.1 step 8, §4.6). At the frame progress first crosses 0.5 it
// runs the midpoint can_move_to validation and hands the tile reservation
// from source to destination, queueing the tiles' leave/enter callbacks;
// on arrival it queues the stop callback. All of them go through
// PendingCallbacks rather than being called inline, so
// script-driven field mutations never run mid-iteration over the movement
// store.
//
// Grounded on original_source/.../movement.rs's process_movement, adapted
// from hecs' per-frame system query into an explicit pass over this
// package's movements store.
func (s *BattleSimulation) ProcessMovement() {
	var toRemove []ecs.EntityID

	s.movements.Each(func(id ecs.EntityID, m *entity.Movement) {
		e, ok := s.entities.Get(id)
		if !ok || !e.Spawned || e.Deleted {
			toRemove = append(toRemove, id)
			return
		}
		if e.TimeFrozenCount == 0 && e.TimeFrozen {
			return
		}
		if living, ok := s.livings.Get(id); ok && living.Statuses.IsImmobile() {
			return
		}

		if m.SourceX == 0 && m.SourceY == 0 && (e.X != 0 || e.Y != 0) && m.Progress == 0 {
			m.SourceX, m.SourceY = e.X, e.Y
		}

		prevProgress := m.Progress
		offX, offY, offZ, done := m.Advance()

		if prevProgress < 0.5 && m.Progress >= 0.5 && !m.Validated {
			m.Validated = true
			srcX, srcY := e.X, e.Y

			allowed := true
			if _, inBounds := s.fld.TileAt(m.DestX, m.DestY); !inBounds {
				allowed = false
			} else if e.CanMoveTo != nil {
				allowed = e.CanMoveTo(m.DestX, m.DestY)
			}

			if !allowed {
				m.Success = false
				m.Abort()
				toRemove = append(toRemove, id)
				e.OffsetX, e.OffsetY = 0, 0
				return
			}

			m.Success = true
			s.fld.RemoveReservation(id, srcX, srcY)
			s.fld.AddReservation(id, m.DestX, m.DestY)
			e.X, e.Y = m.DestX, m.DestY

			if tile, ok := s.fld.TileAt(srcX, srcY); ok {
				if def, ok := s.fld.Registry().Def(tile.State); ok && def.OnEntityLeave != nil {
					fn := def.OnEntityLeave
					s.PendingCallbacks.Push(func() { fn(id, srcX, srcY) })
				}
			}
			if tile, ok := s.fld.TileAt(m.DestX, m.DestY); ok {
				if def, ok := s.fld.Registry().Def(tile.State); ok && def.OnEntityEnter != nil {
					fn := def.OnEntityEnter
					s.PendingCallbacks.Push(func() { fn(id, srcX, srcY) })
				}
			}
		}

		e.OffsetX, e.OffsetY = offX, offY
		e.Elevation = offZ

		if done {
			toRemove = append(toRemove, id)
			if m.Success {
				srcX, srcY := m.SourceX, m.SourceY
				if tile, ok := s.fld.TileAt(e.X, e.Y); ok {
					if def, ok := s.fld.Registry().Def(tile.State); ok && def.OnEntityStop != nil {
						fn := def.OnEntityStop
						s.PendingCallbacks.Push(func() { fn(id, srcX, srcY) })
					}
				}
			}
		}
	})

	for _, id := range toRemove {
		s.movements.Remove(id)
	}
}
