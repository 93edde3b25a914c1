// Package sim implements BattleSimulation: the single-threaded, frame
// stepped simulation core every other battle package is wired into (spec.md
// §3 BattleSimulation, §4.1/§4.2).
//
// Grounded on original_source/client/src/battle/battle_simulation.rs's
// struct layout and method set (new/clone/pre_update/post_update/
// use_action/delete_actions/mark_entity_for_erasure/delete_entity), adapted
// from hecs' dynamic archetype World plus a generational_arena per
// component kind into this module's own `ecs.World` plus one
// `ecs.PtrComponentStore[T]` per component type, matching the teacher's
// "typed store per component, looked up by generational id" shape rather
// than hecs' type-erased table.
package sim

import (
	"github.com/rollbacknet/battlecore/internal/battle/animator"
	"github.com/rollbacknet/battlecore/internal/battle/bcallback"
	"github.com/rollbacknet/battlecore/internal/battle/combat"
	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/field"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/battle/timefreeze"
	"github.com/rollbacknet/battlecore/internal/config"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
	"github.com/rollbacknet/battlecore/internal/core/rng"
)

// BattleSimulation is one frame-advanceable, clonable, resimulable instance
// of the battle. The rollback Controller owns a ring of these (spec.md
// §4.8).
type BattleSimulation struct {
	Config *config.BattleRules

	Statistics Statistics
	RNG        *rng.Xoshiro256PP

	Time       int
	BattleTime int

	fld            *field.Field
	StatusRegistry *status.Registry

	world      *ecs.World
	generation []ecs.EntityID // every id ever created, in creation order (spec.md clone() "generation_tracking")

	entities   *ecs.PtrComponentStore[entity.Entity]
	livings    *ecs.PtrComponentStore[entity.Living]
	characters *ecs.PtrComponentStore[entity.Character]
	players    *ecs.PtrComponentStore[entity.Player]
	spells     *ecs.PtrComponentStore[entity.Spell]
	obstacles  *ecs.PtrComponentStore[entity.Obstacle]
	artifacts  *ecs.PtrComponentStore[entity.Artifact]
	movements  *ecs.PtrComponentStore[entity.Movement]

	animators *animator.Arena
	actions   *entity.ActionQueue

	TimeFreeze *timefreeze.Tracker

	// timeFreezeBackups holds one EntityBackup per entity currently excluded
	// from ticking by an Active/FadeOut freeze window, keyed by entity id
	// (spec.md §4.7). Backups are immutable once captured, so a clone may
	// share the same *timefreeze.EntityBackup values as its parent; only the
	// map itself needs copying.
	timeFreezeBackups map[ecs.EntityID]*timefreeze.EntityBackup

	QueuedAttacks []combat.AttackBox

	PendingCallbacks bcallback.Queue

	LocalPlayerID ecs.EntityID
	LocalTeam     field.Team

	BattleStarted  bool
	IntroComplete  bool
	IsResimulation bool
	Exit           bool

	// GraceElapsed counts frames spent in IntroState, compared against
	// Config.GraceTime (spec.md §4.2.1 step 1 "detect battle start").
	GraceElapsed int

	// TurnGauge/TurnComplete/OutOfTime back BattleState step 21
	// (update_turn_gauge); TurnGaugeDuration is fixed per battle rules.
	TurnGauge         int
	TurnGaugeDuration int
	TurnComplete      bool
	OutOfTime         bool

	// Banner/BannerElapsed back BattleState step 20 (detect_success_or_failure)
	// and step 18 (statistics.time gating).
	Banner        Banner
	BannerElapsed int
	Fled          bool

	lowHPCadenceCounter int

	StatisticsEmitted bool
	StatisticsSink    func(Statistics)
}

// Banner is the end-of-battle message kind shown for
// Config.TotalMessageTime frames before Exit is set (spec.md §4.2.1 step 20,
// §7 "a banner is shown").
type Banner int

const (
	BannerNone Banner = iota
	BannerSuccess
	BannerFailed
	BannerTimeUp
)

func NewSimulation(cfg *config.BattleRules, statusRegistry *status.Registry, seed uint64) *BattleSimulation {
	w := ecs.NewWorld()
	s := &BattleSimulation{
		Config:         cfg,
		RNG:            rng.NewSeeded(seed),
		fld:            field.NewDefault(field.DefaultRegistry()),
		StatusRegistry: statusRegistry,
		world:          w,
		entities:       ecs.NewPtrComponentStore[entity.Entity](),
		livings:        ecs.NewPtrComponentStore[entity.Living](),
		characters:     ecs.NewPtrComponentStore[entity.Character](),
		players:        ecs.NewPtrComponentStore[entity.Player](),
		spells:         ecs.NewPtrComponentStore[entity.Spell](),
		obstacles:      ecs.NewPtrComponentStore[entity.Obstacle](),
		artifacts:      ecs.NewPtrComponentStore[entity.Artifact](),
		movements:      ecs.NewPtrComponentStore[entity.Movement](),
		animators:      animator.NewArena(),
		actions:        entity.NewActionQueue(),
		TimeFreeze:     timefreeze.NewTracker(cfg.CounterableWindowFrames, cfg.FadeOutFrames),
		timeFreezeBackups: make(map[ecs.EntityID]*timefreeze.EntityBackup),
		// No turn gauge duration is named in spec.md; it is pinned to
		// TotalMessageTime frames, the one duration constant the shared
		// configuration does name.
		TurnGaugeDuration: cfg.TotalMessageTime,
	}
	w.Registry().Register(s.entities)
	w.Registry().Register(s.livings)
	w.Registry().Register(s.characters)
	w.Registry().Register(s.players)
	w.Registry().Register(s.spells)
	w.Registry().Register(s.obstacles)
	w.Registry().Register(s.artifacts)
	w.Registry().Register(s.movements)
	return s
}

// SeedRandom re-seeds RNG. The rollback controller calls this when starting
// a fresh (non-resimulated) battle so every peer agrees on one seed
// (spec.md §3).
func (s *BattleSimulation) SeedRandom(seed uint64) { s.RNG = rng.NewSeeded(seed) }

// SpawnEntity allocates a fresh id and registers its base Entity component,
// returning the id for the caller to attach further components to before
// the next pre_update's spawn_pending promotes it onto the field.
func (s *BattleSimulation) SpawnEntity(e *entity.Entity) ecs.EntityID {
	id := s.world.CreateEntity()
	s.generation = append(s.generation, id)
	s.entities.Set(id, e)
	return id
}

func (s *BattleSimulation) Alive(id ecs.EntityID) bool { return s.world.Alive(id) }

func (s *BattleSimulation) Entity(id ecs.EntityID) (*entity.Entity, bool) { return s.entities.Get(id) }
func (s *BattleSimulation) Living(id ecs.EntityID) (*entity.Living, bool) { return s.livings.Get(id) }
func (s *BattleSimulation) Character(id ecs.EntityID) (*entity.Character, bool) {
	return s.characters.Get(id)
}
func (s *BattleSimulation) Player(id ecs.EntityID) (*entity.Player, bool) { return s.players.Get(id) }
func (s *BattleSimulation) Spell(id ecs.EntityID) (*entity.Spell, bool)   { return s.spells.Get(id) }

func (s *BattleSimulation) SetLiving(id ecs.EntityID, l *entity.Living)       { s.livings.Set(id, l) }
func (s *BattleSimulation) SetCharacter(id ecs.EntityID, c *entity.Character) { s.characters.Set(id, c) }
func (s *BattleSimulation) SetPlayer(id ecs.EntityID, p *entity.Player)       { s.players.Set(id, p) }
func (s *BattleSimulation) SetSpell(id ecs.EntityID, sp *entity.Spell)        { s.spells.Set(id, sp) }
func (s *BattleSimulation) SetObstacle(id ecs.EntityID)                      { s.obstacles.Set(id, &entity.Obstacle{}) }
func (s *BattleSimulation) SetArtifact(id ecs.EntityID)                      { s.artifacts.Set(id, &entity.Artifact{}) }

// --- combat.World / timefreeze.Host surface ---

func (s *BattleSimulation) Field() *field.Field { return s.fld }

func (s *BattleSimulation) EntityPosition(id ecs.EntityID) (int, int, bool) {
	e, ok := s.entities.Get(id)
	if !ok {
		return 0, 0, false
	}
	return e.X, e.Y, true
}

func (s *BattleSimulation) EntitiesAt(x, y int) []ecs.EntityID {
	var out []ecs.EntityID
	s.entities.Each(func(id ecs.EntityID, e *entity.Entity) {
		if e.OnField && !e.Deleted && e.X == x && e.Y == y {
			out = append(out, id)
		}
	})
	return out
}

func (s *BattleSimulation) Animator(index int) (*animator.Animator, bool) {
	return s.animators.Get(index)
}

// SetAnimator replaces the animator at index in place, used by
// timefreeze.EntityBackup.Restore to reinstate a pre-freeze snapshot.
func (s *BattleSimulation) SetAnimator(index int, a *animator.Animator) {
	s.animators.Restore(index, a)
}

func (s *BattleSimulation) AllocAnimator() int { return s.animators.Alloc() }
func (s *BattleSimulation) FreeAnimator(index int) { s.animators.Free(index) }
func (s *BattleSimulation) AttachAnimator(parent, child int) { s.animators.Attach(parent, child) }
func (s *BattleSimulation) AdvanceAnimators() { s.animators.AdvanceAll() }

func (s *BattleSimulation) Actions() *entity.ActionQueue { return s.actions }

func (s *BattleSimulation) TakeMovement(id ecs.EntityID) (*entity.Movement, bool) {
	m, ok := s.movements.Get(id)
	if ok {
		s.movements.Remove(id)
	}
	return m, ok
}

func (s *BattleSimulation) Movement(id ecs.EntityID) (*entity.Movement, bool) {
	return s.movements.Get(id)
}

func (s *BattleSimulation) SetMovement(id ecs.EntityID, m *entity.Movement) { s.movements.Set(id, m) }

func (s *BattleSimulation) QueuePendingCallback(cb bcallback.Void) { s.PendingCallbacks.Push(cb) }

// Clone deep-copies the simulation for the rollback ring buffer (spec.md
// §4.8). Dead entity ids are replayed into the new world first so a future
// spawn can never collide with an id a script may still hold a stale
// reference to, matching the teacher's generation_tracking replay.
func (s *BattleSimulation) Clone() *BattleSimulation {
	w := ecs.NewWorld()
	for range s.generation {
		w.CreateDead()
	}

	c := &BattleSimulation{
		Config:         s.Config,
		Statistics:     s.Statistics,
		RNG:            s.RNG.Clone(),
		Time:           s.Time,
		BattleTime:     s.BattleTime,
		fld:            s.fld.Clone(),
		StatusRegistry: s.StatusRegistry,
		world:          w,
		generation:     append([]ecs.EntityID(nil), s.generation...),
		entities:       ecs.NewPtrComponentStore[entity.Entity](),
		livings:        ecs.NewPtrComponentStore[entity.Living](),
		characters:     ecs.NewPtrComponentStore[entity.Character](),
		players:        ecs.NewPtrComponentStore[entity.Player](),
		spells:         ecs.NewPtrComponentStore[entity.Spell](),
		obstacles:      ecs.NewPtrComponentStore[entity.Obstacle](),
		artifacts:      ecs.NewPtrComponentStore[entity.Artifact](),
		movements:      ecs.NewPtrComponentStore[entity.Movement](),
		animators:      s.animators.Clone(),
		actions:        s.actions.Clone(),
		TimeFreeze:     s.TimeFreeze.Clone(),
		timeFreezeBackups: func() map[ecs.EntityID]*timefreeze.EntityBackup {
			m := make(map[ecs.EntityID]*timefreeze.EntityBackup, len(s.timeFreezeBackups))
			for id, b := range s.timeFreezeBackups {
				m[id] = b
			}
			return m
		}(),
		LocalPlayerID:  s.LocalPlayerID,
		LocalTeam:      s.LocalTeam,
		BattleStarted:  s.BattleStarted,
		IntroComplete:  s.IntroComplete,
		IsResimulation: s.IsResimulation,
		Exit:           s.Exit,

		GraceElapsed:      s.GraceElapsed,
		TurnGauge:         s.TurnGauge,
		TurnGaugeDuration: s.TurnGaugeDuration,
		TurnComplete:      s.TurnComplete,
		OutOfTime:         s.OutOfTime,
		Banner:            s.Banner,
		BannerElapsed:     s.BannerElapsed,
		Fled:              s.Fled,

		lowHPCadenceCounter: s.lowHPCadenceCounter,
		StatisticsEmitted:   s.StatisticsEmitted,
		StatisticsSink:      s.StatisticsSink,
	}
	w.Registry().Register(c.entities)
	w.Registry().Register(c.livings)
	w.Registry().Register(c.characters)
	w.Registry().Register(c.players)
	w.Registry().Register(c.spells)
	w.Registry().Register(c.obstacles)
	w.Registry().Register(c.artifacts)
	w.Registry().Register(c.movements)

	s.entities.Each(func(id ecs.EntityID, e *entity.Entity) { c.entities.Set(id, e.Clone()) })
	s.livings.Each(func(id ecs.EntityID, l *entity.Living) { c.livings.Set(id, l.Clone()) })
	s.characters.Each(func(id ecs.EntityID, ch *entity.Character) { c.characters.Set(id, ch.Clone()) })
	s.players.Each(func(id ecs.EntityID, p *entity.Player) { c.players.Set(id, p.Clone()) })
	s.spells.Each(func(id ecs.EntityID, sp *entity.Spell) { c.spells.Set(id, sp.Clone()) })
	s.obstacles.Each(func(id ecs.EntityID, _ *entity.Obstacle) { c.obstacles.Set(id, &entity.Obstacle{}) })
	s.artifacts.Each(func(id ecs.EntityID, _ *entity.Artifact) { c.artifacts.Set(id, &entity.Artifact{}) })
	s.movements.Each(func(id ecs.EntityID, m *entity.Movement) { c.movements.Set(id, m.Clone()) })

	return c
}
