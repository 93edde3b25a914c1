// Package rollback implements the rollback Controller (spec.md §4.8): a
// ring of simulation/state backups, per-peer input buffering with
// misprediction detection, pacing between peers, and the deterministic
// resimulation loop that reconciles a late-arriving remote input with
// whatever was predicted in its place.
//
// Grounded on the teacher's absence of an equivalent (the MMO is
// authoritative-server, not lockstep) crossed with
// original_source/.../rollback/controller.rs's tick/resimulate/pacing
// structure; the event notifications on resimulate/desync reuse the
// teacher's internal/core/event double-buffer bus, and frame-rate pacing
// decisions are logged the way the teacher logs its own tick-budget misses.
package rollback

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/rollbacknet/battlecore/internal/battle/berr"
	"github.com/rollbacknet/battlecore/internal/battle/phase"
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/config"
	"github.com/rollbacknet/battlecore/internal/core/event"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

// Resimulated is emitted once per tick that rolled back and replayed frames
// (spec.md §4.8 step 2).
type Resimulated struct {
	FromTime int
	ToTime   int
}

// DesyncFlagged is emitted by FlagDesync when a debug snapshot hash
// comparison disagrees with a remote peer's reported hash for the same
// frame.
type DesyncFlagged struct {
	Frame int
	Err   error
}

// SlowedDown is emitted whenever pacing skips a local simulate step (spec.md
// §4.8 step 3).
type SlowedDown struct {
	PeerIndex int
}

// backup is one ring entry: the simulation and phase state as they stood
// immediately before frame Time was simulated, so restoring it and
// re-running simulate() reproduces that frame exactly (spec.md §4.8
// "backups: a ring of (simulation_clone, state_clone) keyed by time").
type backup struct {
	time int
	sim  *sim.BattleSimulation
	state phase.State
}

// InputBuffer is one player's per-frame input queue, dense from base
// (the oldest buffered frame) through base+len-1.
type InputBuffer struct {
	base  int
	items []netplay.NetplayBufferItem
}

func NewInputBuffer(base int) *InputBuffer { return &InputBuffer{base: base} }

// At returns the buffered item for frame, if any.
func (b *InputBuffer) At(frame int) (netplay.NetplayBufferItem, bool) {
	idx := frame - b.base
	if idx < 0 || idx >= len(b.items) {
		return netplay.NetplayBufferItem{}, false
	}
	return b.items[idx], true
}

// Set installs item at frame, extending the buffer with repeated copies of
// its own last known item (prediction) if frame is beyond the current tail.
// It reports whether the value stored at frame changed from what a caller
// had previously read via At, so the controller can detect a misprediction.
func (b *InputBuffer) Set(frame int, item netplay.NetplayBufferItem) (changed bool) {
	idx := frame - b.base
	if idx < 0 {
		return false // frame already popped off the front, too late to matter
	}
	for idx >= len(b.items) {
		predicted := netplay.NetplayBufferItem{}
		if len(b.items) > 0 {
			predicted = b.items[len(b.items)-1]
		}
		b.items = append(b.items, predicted)
	}
	prev := b.items[idx]
	b.items[idx] = item
	return prev.Pressed != item.Pressed || len(prev.Signals) != len(item.Signals)
}

// Append pushes item onto the tail, the frame immediately after the last
// buffered one (or base if the buffer is empty).
func (b *InputBuffer) Append(item netplay.NetplayBufferItem) {
	b.items = append(b.items, item)
}

func (b *InputBuffer) Len() int { return len(b.items) }

// PopFront removes and returns the oldest buffered item, advancing base.
func (b *InputBuffer) PopFront() (netplay.NetplayBufferItem, bool) {
	if len(b.items) == 0 {
		return netplay.NetplayBufferItem{}, false
	}
	item := b.items[0]
	b.items = b.items[1:]
	b.base++
	return item, true
}

// PlayerController tracks one seat's connection state and buffered input
// (spec.md §4.8 "player_controllers[i]").
type PlayerController struct {
	Connected     bool
	Buffer        *InputBuffer
	LocalAverage  float64
	RemoteAverage float64
}

type incomingFrame struct {
	peerIndex int
	frame     int
	item      netplay.NetplayBufferItem
}

// Controller drives BattleSimulation/phase.State frame by frame, buffering
// multi-peer input and rewinding/resimulating when a prediction turns out
// wrong (spec.md §4.8).
type Controller struct {
	cfg *config.BattleRules
	log *zap.Logger
	bus *event.Bus

	Sim   *sim.BattleSimulation
	State phase.State

	// SyncedTime is the earliest frame for which every peer's input is
	// known and committed; Sim.Time is frames actually simulated locally.
	SyncedTime int

	backups []backup // front = oldest

	Players    []*PlayerController
	LocalIndex int

	slowCooldown int

	// FrozenForDebug disables automatic advance; AdvanceFrame/RewindFrame
	// step explicitly instead (spec.md §4.8 "Frame-by-frame debug").
	FrozenForDebug bool

	// VerifyHashes flags whether the optional blake2b debug snapshot-hash
	// cross-check against a remote-reported hash for the same frame is
	// on (off by default: it requires every peer to also compute and
	// transmit one, an extension the base wire format in spec.md §6
	// does not carry). The Controller never reads it and computes no
	// hash itself; a caller doing the check reports through FlagDesync.
	VerifyHashes bool

	incomingMu sync.Mutex
	incoming   []incomingFrame

	resimulateTime int // math.MaxInt sentinel means "no resimulate pending"
}

// New builds a Controller for numPlayers seats, starting both SyncedTime and
// Sim.Time at frame 0.
func New(cfg *config.BattleRules, log *zap.Logger, bus *event.Bus, initial *sim.BattleSimulation, localIndex, numPlayers int) *Controller {
	players := make([]*PlayerController, numPlayers)
	for i := range players {
		players[i] = &PlayerController{Connected: i == localIndex, Buffer: NewInputBuffer(0)}
	}
	return &Controller{
		cfg:            cfg,
		log:            log,
		bus:            bus,
		Sim:            initial,
		State:          &phase.IntroState{},
		Players:        players,
		LocalIndex:     localIndex,
		resimulateTime: math.MaxInt,
	}
}

// EnqueueRemote records a remote peer's buffer item for frame, to be
// ingested at the start of the next Tick. Safe to call from a connection's
// own read goroutine.
func (c *Controller) EnqueueRemote(peerIndex, frame int, item netplay.NetplayBufferItem) {
	c.incomingMu.Lock()
	c.incoming = append(c.incoming, incomingFrame{peerIndex: peerIndex, frame: frame, item: item})
	c.incomingMu.Unlock()
}

// Connect marks peerIndex as joined, starting its buffer at the controller's
// current synced time.
func (c *Controller) Connect(peerIndex int) {
	c.Players[peerIndex].Connected = true
	if c.Players[peerIndex].Buffer == nil {
		c.Players[peerIndex].Buffer = NewInputBuffer(c.SyncedTime)
	}
}

func (c *Controller) Disconnect(peerIndex int) {
	c.Players[peerIndex].Connected = false
}

// Broadcast is the outbound half of the wire contract (spec.md §6): one
// (item, lead[]) pair per local frame simulated. The caller supplies the
// send function so this package never depends on a concrete transport.
type Broadcast func(item netplay.NetplayBufferItem, leads []netplay.Lead) error

// Tick runs one controller iteration: ingest, resimulate if needed, resolve
// pacing, buffer local input, decide whether to simulate, and advance
// synced_time (spec.md §4.8 steps 1-6).
func (c *Controller) Tick(localItem netplay.NetplayBufferItem, ackSink func(messageID uint64), send Broadcast) error {
	c.ingest()

	if c.resimulateTime < c.Sim.Time {
		c.resimulate()
	}

	leads := c.resolvePacing()

	c.bufferLocalInput(localItem)
	if send != nil {
		if err := send(localItem, leads); err != nil {
			return err
		}
	}

	if !c.FrozenForDebug {
		c.maybeSimulate()
	}

	c.loadCommittedInput(ackSink)
	return nil
}

// AdvanceFrame steps exactly one frame while FrozenForDebug is set.
func (c *Controller) AdvanceFrame() {
	if c.canSimulate() {
		c.simulateOneFrame()
	}
}

// RewindFrame steps SyncedTime back one frame and marks that frame for
// resimulation on the next Tick. It does not clear or restore any buffered
// input: the committed items for that frame have already been popped.
func (c *Controller) RewindFrame() {
	if c.SyncedTime <= 0 {
		return
	}
	c.SyncedTime--
	if c.SyncedTime < c.resimulateTime {
		c.resimulateTime = c.SyncedTime
	}
}

// --- step 1: ingest ---

func (c *Controller) ingest() {
	c.incomingMu.Lock()
	batch := c.incoming
	c.incoming = nil
	c.incomingMu.Unlock()

	for _, f := range batch {
		player := c.Players[f.peerIndex]
		if player.Buffer == nil {
			player.Buffer = NewInputBuffer(f.frame)
		}
		if player.Buffer.Set(f.frame, f.item) && f.frame < c.resimulateTime {
			c.resimulateTime = f.frame
		}
	}
}

// --- step 2: resimulate ---

func (c *Controller) resimulate() {
	target := c.resimulateTime
	idx := target - c.frontTime()
	if idx < 0 || idx >= len(c.backups) {
		// Target fell out of the ring; nothing recorded to restore from, so
		// the best this controller can do is accept the drift and move on.
		if c.log != nil {
			c.log.Warn("resimulate target outside backup ring, skipping", zap.Int("target", target))
		}
		c.resimulateTime = math.MaxInt
		return
	}

	priorTime := c.Sim.Time
	b := c.backups[idx]
	c.Sim = b.sim.Clone()
	c.State = b.state.CloneBox()
	c.backups = c.backups[:idx]

	c.Sim.IsResimulation = true
	for c.Sim.Time < priorTime {
		c.simulateOneFrame()
	}
	c.Sim.IsResimulation = false

	if c.bus != nil {
		event.Emit(c.bus, Resimulated{FromTime: target, ToTime: priorTime})
	}
	if c.log != nil {
		c.log.Debug("resimulated", zap.Int("from", target), zap.Int("to", priorTime))
	}
	c.resimulateTime = math.MaxInt
}

// --- step 3: pacing ---

// resolvePacing updates each remote peer's rolling lead averages and
// applies one deliberate slowdown when this side is running far enough
// ahead of a peer that it should yield (spec.md §4.8 step 3).
func (c *Controller) resolvePacing() []netplay.Lead {
	if c.slowCooldown > 0 {
		c.slowCooldown--
	}

	d := c.Sim.Time - c.SyncedTime
	leads := make([]netplay.Lead, 0, len(c.Players))
	period := c.cfg.LeadAveragePeriod
	if period <= 0 {
		period = 1
	}
	alpha := 1.0 / float64(period)

	for i, p := range c.Players {
		if i == c.LocalIndex || !p.Connected {
			continue
		}
		lead := float64(d - p.Buffer.Len())
		p.LocalAverage += (lead - p.LocalAverage) * alpha
		leads = append(leads, netplay.Lead{PeerIndex: i, Frames: int16(lead)})

		if c.slowCooldown == 0 && p.LocalAverage-p.RemoteAverage > c.cfg.LeadTolerance {
			c.slowCooldown = c.cfg.SlowCooldown
			if c.bus != nil {
				event.Emit(c.bus, SlowedDown{PeerIndex: i})
			}
		}
	}
	return leads
}

// ReportRemoteLead records a peer's self-reported lead value, the
// remote_average half of the pacing comparison.
func (c *Controller) ReportRemoteLead(peerIndex int, frames int16) {
	p := c.Players[peerIndex]
	period := c.cfg.LeadAveragePeriod
	if period <= 0 {
		period = 1
	}
	alpha := 1.0 / float64(period)
	p.RemoteAverage += (float64(frames) - p.RemoteAverage) * alpha
}

// --- step 4: local input ---

func (c *Controller) bufferLocalInput(item netplay.NetplayBufferItem) {
	local := c.Players[c.LocalIndex]
	local.Buffer.Append(item)
}

// --- step 5: decide to simulate ---

func (c *Controller) canSimulate() bool {
	if c.Sim.Time < c.SyncedTime+c.cfg.InputBufferLimit {
		return true
	}
	for _, p := range c.Players {
		if p.Connected && p.Buffer.Len() == 0 {
			return false
		}
	}
	return true
}

func (c *Controller) maybeSimulate() {
	if c.slowCooldown > 0 && c.slowCooldown == c.cfg.SlowCooldown {
		// Cooldown was just (re)armed this tick by resolvePacing; skip this
		// frame's simulate as the deliberate slowdown spec.md step 3 calls for.
		return
	}
	if !c.canSimulate() {
		return
	}
	c.simulateOneFrame()
}

func (c *Controller) simulateOneFrame() {
	c.backups = append(c.backups, backup{time: c.Sim.Time, sim: c.Sim.Clone(), state: c.State.CloneBox()})
	if len(c.backups) > c.cfg.InputBufferLimit {
		c.backups = c.backups[1:]
	}

	inputIndex := c.Sim.Time - c.SyncedTime
	inputs := make([]netplay.NetplayBufferItem, len(c.Players))
	for i, p := range c.Players {
		if item, ok := p.Buffer.At(p.Buffer.base + inputIndex); ok {
			inputs[i] = item
		}
	}

	c.Sim.PreUpdate(c.State.AllowsAnimationUpdates())
	c.State.Update(c.Sim, inputs)
	c.Sim.PostUpdate()

	if next := c.State.NextState(c.Sim); next != nil {
		c.State = next
	}
}

func (c *Controller) frontTime() int {
	if len(c.backups) == 0 {
		return c.Sim.Time
	}
	return c.backups[0].time
}

// --- step 6: load committed input ---

func (c *Controller) loadCommittedInput(ackSink func(messageID uint64)) {
	if c.resimulateTime != math.MaxInt {
		return
	}
	for _, p := range c.Players {
		if p.Connected && p.Buffer.Len() == 0 {
			return
		}
	}
	for _, p := range c.Players {
		item, ok := p.Buffer.PopFront()
		if !ok {
			continue
		}
		if ackSink != nil {
			for _, sig := range item.Signals {
				if sig.Kind == netplay.SignalAcknowledgeServerMessage {
					ackSink(sig.MessageID)
				}
			}
		}
	}
	c.SyncedTime++
}

// FlagDesync reports a debug snapshot-hash mismatch for frame, for a caller
// that compares SnapshotHash against a remote peer's reported hash. Nothing
// in this module calls it.
func (c *Controller) FlagDesync(frame int, reason string) {
	err := berr.DesyncSuspected{Reason: reason}
	if c.bus != nil {
		event.Emit(c.bus, DesyncFlagged{Frame: frame, Err: err})
	}
	if c.log != nil {
		c.log.Warn("desync suspected", zap.Int("frame", frame), zap.String("reason", reason))
	}
}
