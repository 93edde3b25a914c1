// Package status implements per-Living status flags with durations, drag,
// and constructor/destructor dispatch (spec.md §3 Living, §4.4).
//
// Grounded on the teacher's poison/curse tick state machine
// (internal/system/poison.go: TickPlayerPoison/TickPlayerCurse, a small
// int-coded phase machine ticked once per server tick with explicit
// Cure*/apply functions) generalized from two hardcoded ailments into a
// flag-addressable, script-registrable status table per spec.md's "Statuses
// are flag-addressable" requirement.
package status

import (
	"sort"

	"github.com/rollbacknet/battlecore/internal/battle/bcallback"
)

// Flag is a single-bit status identifier. KeepInFreeze is not a gameplay
// status by itself; it is OR'd onto a real flag to mark that status as one
// that should survive a TimeFreezeEntityBackup untouched (spec.md §4.7).
type Flag uint64

const (
	FlagParalyze Flag = 1 << iota
	FlagFrozen
	FlagConfuse
	FlagInvisible
	FlagBubble
	FlagStun
	FlagImmobile
	FlagBlind
	FlagKeepInFreeze
)

// gameplayMask strips the KeepInFreeze tag bit, leaving only real statuses.
const gameplayMask = ^FlagKeepInFreeze

// Inactionable is the set of flags that suppress animator advance and
// action queueing (spec.md §4.1 step 3, §4.2.1 step 4a).
const Inactionable = FlagParalyze | FlagFrozen | FlagStun

type pendingStatus struct {
	flag     Flag
	duration int // frames remaining; -1 == indefinite until explicitly cleared
}

type appliedStatus struct {
	flag     Flag
	duration int
}

// Drag is a forced movement source driven externally (a pull/push effect).
// While active, normal status ticking and update callbacks are suppressed
// on the dragged entity except the drag completion test (spec.md §4.4/§4.6).
type Drag struct {
	DestX, DestY int
	Elapsed      int
	Duration     int
}

func (d *Drag) Done() bool { return d != nil && d.Elapsed >= d.Duration }

// ConstructorFunc runs when a status is newly applied; it may return a
// callback to run immediately for side effects (spawning a status sprite,
// say). DestructorFunc runs the same way when a status expires, except its
// returned callback is queued rather than run immediately, so all
// destructors drain together at a documented point (spec.md §4.4).
type ConstructorFunc func() bcallback.Void
type DestructorFunc func() bcallback.Void

// Registry maps a status flag to its constructor/destructor, analogous to
// spec.md §6's "status registry (flag -> constructor)".
type Registry struct {
	ctor map[Flag]ConstructorFunc
	dtor map[Flag]DestructorFunc
}

func NewRegistry() *Registry {
	return &Registry{ctor: make(map[Flag]ConstructorFunc), dtor: make(map[Flag]DestructorFunc)}
}

func (r *Registry) Register(flag Flag, ctor ConstructorFunc, dtor DestructorFunc) {
	r.ctor[flag&gameplayMask] = ctor
	r.dtor[flag&gameplayMask] = dtor
}

// Director owns one Living's status state.
type Director struct {
	registry *Registry

	applied map[Flag]*appliedStatus
	pending []pendingStatus

	// onApply holds extra user-registered callbacks (scripts) fired
	// alongside the registry constructor when a flag is newly applied.
	onApply map[Flag][]bcallback.Void

	destructorsReady []bcallback.Void

	drag        *Drag
	dragLockout int
}

func NewDirector(registry *Registry) *Director {
	return &Director{
		registry: registry,
		applied:  make(map[Flag]*appliedStatus),
		onApply:  make(map[Flag][]bcallback.Void),
	}
}

// Queue requests a status application. It is not visible via Has until
// ApplyNewStatuses runs — always admitted, even under freeze (spec.md §4.4).
func (d *Director) Queue(flag Flag, duration int) {
	d.pending = append(d.pending, pendingStatus{flag: flag, duration: duration})
}

// AddApplyCallback registers an extra callback fired whenever flag is newly
// applied, alongside the registry's constructor.
func (d *Director) AddApplyCallback(flag Flag, cb bcallback.Void) {
	d.onApply[flag&gameplayMask] = append(d.onApply[flag&gameplayMask], cb)
}

// ApplyNewStatuses drains the pending queue into applied state, running each
// flag's constructor and any user-registered apply callbacks. Always runs,
// frozen or not.
func (d *Director) ApplyNewStatuses() {
	if len(d.pending) == 0 {
		return
	}
	pending := d.pending
	d.pending = nil
	for _, p := range pending {
		real := p.flag & gameplayMask
		keep := p.flag&FlagKeepInFreeze != 0
		d.applied[real] = &appliedStatus{flag: real | boolFlag(keep), duration: p.duration}
		if d.registry != nil {
			if ctor, ok := d.registry.ctor[real]; ok && ctor != nil {
				if cb := ctor(); cb != nil {
					cb()
				}
			}
		}
		for _, cb := range d.onApply[real] {
			if cb != nil {
				cb()
			}
		}
	}
}

func boolFlag(b bool) Flag {
	if b {
		return FlagKeepInFreeze
	}
	return 0
}

// Update ticks durations. Ticking only happens when not frozen; new statuses
// are still admitted under freeze via ApplyNewStatuses (spec.md §4.4).
func (d *Director) Update(frozen bool) {
	if frozen {
		return
	}
	for _, flag := range d.sortedAppliedFlags() {
		st := d.applied[flag]
		if st.duration < 0 {
			continue // indefinite
		}
		st.duration--
		if st.duration <= 0 {
			delete(d.applied, flag)
			if d.registry != nil {
				if dtor, ok := d.registry.dtor[flag]; ok && dtor != nil {
					if cb := dtor(); cb != nil {
						d.destructorsReady = append(d.destructorsReady, cb)
					}
				}
			}
		}
	}
}

// sortedAppliedFlags returns the currently applied flags in ascending order,
// so expiry/destructor dispatch over d.applied is deterministic across peers
// instead of following Go's randomized map iteration (spec.md §5(c), §8).
func (d *Director) sortedAppliedFlags() []Flag {
	flags := make([]Flag, 0, len(d.applied))
	for flag := range d.applied {
		flags = append(flags, flag)
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i] < flags[j] })
	return flags
}

// TakeReadyDestructors drains and returns destructor callbacks produced by
// expired statuses. The caller (BattleSimulation) queues these onto its own
// pending-callback FIFO (spec.md §4.4).
func (d *Director) TakeReadyDestructors() []bcallback.Void {
	out := d.destructorsReady
	d.destructorsReady = nil
	return out
}

func (d *Director) Has(flag Flag) bool {
	_, ok := d.applied[flag&gameplayMask]
	return ok
}

// IsInactionable reports whether any currently-applied status suppresses
// animator/action advance for this entity.
func (d *Director) IsInactionable() bool {
	for flag := range d.applied {
		if flag&Inactionable != 0 {
			return true
		}
	}
	return false
}

func (d *Director) IsImmobile() bool {
	return d.Has(FlagImmobile) || d.Has(FlagParalyze) || d.Has(FlagFrozen) || d.IsDragged()
}

// --- Time-freeze backup/restore support ---

// AppliedAndPending returns (flag, duration) pairs for every applied status
// that is NOT tagged KeepInFreeze — the set a TimeFreezeEntityBackup needs
// to save before clearing (spec.md §4.7).
func (d *Director) AppliedAndPending() []struct {
	Flag     Flag
	Duration int
} {
	out := make([]struct {
		Flag     Flag
		Duration int
	}, 0, len(d.applied))
	for flag, st := range d.applied {
		if st.flag&FlagKeepInFreeze != 0 {
			continue
		}
		out = append(out, struct {
			Flag     Flag
			Duration int
		}{Flag: flag, Duration: st.duration})
	}
	return out
}

// ClearStatuses removes every applied status not tagged KeepInFreeze and
// queues their destructors for the caller to drain (does not run them).
func (d *Director) ClearStatuses() {
	for _, flag := range d.sortedAppliedFlags() {
		st := d.applied[flag]
		if st.flag&FlagKeepInFreeze != 0 {
			continue
		}
		delete(d.applied, flag)
		if d.registry != nil {
			if dtor, ok := d.registry.dtor[flag]; ok && dtor != nil {
				if cb := dtor(); cb != nil {
					d.destructorsReady = append(d.destructorsReady, cb)
				}
			}
		}
	}
}

// ReapplyStatus restores a previously-backed-up status without re-running
// its constructor (it was already constructed before the backup).
func (d *Director) ReapplyStatus(flag Flag, duration int) {
	d.applied[flag&gameplayMask] = &appliedStatus{flag: flag & gameplayMask, duration: duration}
}

func (d *Director) TakeDragForBackup() *Drag {
	drag := d.drag
	d.drag = nil
	return drag
}

func (d *Director) SetDrag(drag *Drag)      { d.drag = drag }
func (d *Director) IsDragged() bool         { return d.drag != nil && !d.drag.Done() }
func (d *Director) RemainingDragLockout() int { return d.dragLockout }
func (d *Director) SetRemainingDragLockout(n int) { d.dragLockout = n }

// TickDrag advances the active drag by one frame and reports completion.
func (d *Director) TickDrag() (done bool) {
	if d.drag == nil {
		return false
	}
	d.drag.Elapsed++
	if d.drag.Done() {
		return true
	}
	return false
}

func (d *Director) EndDrag() { d.drag = nil }

func (d *Director) Clone() *Director {
	c := &Director{
		registry: d.registry,
		applied:  make(map[Flag]*appliedStatus, len(d.applied)),
		onApply:  d.onApply, // callback registrations are shared, not per-snapshot mutable state
		dragLockout: d.dragLockout,
	}
	for k, v := range d.applied {
		cp := *v
		c.applied[k] = &cp
	}
	if d.drag != nil {
		dragCopy := *d.drag
		c.drag = &dragCopy
	}
	return c
}
