// Package recording implements the YAML recording/replay format described
// in spec.md §6 Wire and §9 "Recording and replay": battle metadata, every
// player's full input buffer, external events at their effective times,
// and — when flow recording is enabled — the rollback (resimulate-from)
// events and per-step buffer limits a replay needs to reproduce a live
// run's resimulation pattern exactly, since offline playback can't rely on
// the same packet-arrival timing a live session saw.
//
// Grounded on the teacher's config layer (internal/config) for the
// load-a-struct-from-a-declarative-file idiom, swapped from BurntSushi/toml
// to gopkg.in/yaml.v3 because spec.md's recording format is nested
// (per-player buffers, per-frame event lists) in a way TOML expresses
// awkwardly; original_source/.../recording/tape.rs for the field shape
// (meta/inputs/events/flow).
package recording

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rollbacknet/battlecore/internal/netplay"
)

// Meta is the battle-identifying header every tape carries (spec.md §6
// "meta: seed, encounter, backgrounds, player setups").
type Meta struct {
	Seed       uint64   `yaml:"seed"`
	Encounter  string   `yaml:"encounter"`
	Backgrounds []string `yaml:"backgrounds"`
	PlayerSetups []PlayerSetup `yaml:"player_setups"`
}

type PlayerSetup struct {
	Name     string `yaml:"name"`
	Package  string `yaml:"package"`
	InputIndex int  `yaml:"input_index"`
}

// ExternalEvent is a server-originated event recorded at the frame it took
// effect, replayed at that same frame rather than re-derived.
type ExternalEvent struct {
	Frame   int    `yaml:"frame"`
	Kind    string `yaml:"kind"`
	Payload string `yaml:"payload,omitempty"`
}

// RollbackEvent is one recorded resimulate-from event, present only when
// the tape was captured with flow recording enabled.
type RollbackEvent struct {
	Frame      int `yaml:"frame"`
	ResimulateFrom int `yaml:"resimulate_from"`
}

// Flow is the optional simulation_flow block (spec.md §6 "when flow
// recording is enabled: rollback events plus per-step buffer limits").
type Flow struct {
	Rollbacks   []RollbackEvent `yaml:"rollbacks"`
	BufferLimits []int          `yaml:"buffer_limits"` // one entry per simulated frame
}

// PlayerInputs is one player's complete, frame-dense input buffer for the
// whole recorded battle, starting at frame 0.
type PlayerInputs struct {
	Items []Item `yaml:"items"`
}

// Item is the YAML-serializable mirror of netplay.NetplayBufferItem —
// kept as a distinct type rather than round-tripping NetplayBufferItem
// directly so the wire/runtime type is never coupled to a YAML tag set.
type Item struct {
	Pressed uint16   `yaml:"pressed"`
	Signals []Signal `yaml:"signals,omitempty"`
}

type Signal struct {
	Kind      int    `yaml:"kind"`
	MessageID uint64 `yaml:"message_id,omitempty"`
}

// Tape is the full recording: header, per-player inputs, external events,
// and the optional flow block.
type Tape struct {
	Meta    Meta           `yaml:"meta"`
	Players []PlayerInputs `yaml:"players"`
	Events  []ExternalEvent `yaml:"events,omitempty"`
	Flow    *Flow          `yaml:"flow,omitempty"`
}

func toItem(ni netplay.NetplayBufferItem) Item {
	it := Item{Pressed: uint16(ni.Pressed)}
	for _, s := range ni.Signals {
		it.Signals = append(it.Signals, Signal{Kind: int(s.Kind), MessageID: s.MessageID})
	}
	return it
}

func fromItem(it Item) netplay.NetplayBufferItem {
	ni := netplay.NetplayBufferItem{Pressed: netplay.PressedSet(it.Pressed)}
	for _, s := range it.Signals {
		ni.Signals = append(ni.Signals, netplay.Signal{Kind: netplay.SignalKind(s.Kind), MessageID: s.MessageID})
	}
	return ni
}

// Writer accumulates a recording in memory frame by frame and saves it as
// YAML once the battle ends.
type Writer struct {
	tape      Tape
	flowOn    bool
}

// NewWriter starts a Writer for numPlayers seats. recordFlow enables the
// optional rollback/buffer-limit block (spec.md §9 "gated by
// record_simulation_flow").
func NewWriter(meta Meta, numPlayers int, recordFlow bool) *Writer {
	w := &Writer{tape: Tape{Meta: meta, Players: make([]PlayerInputs, numPlayers)}}
	if recordFlow {
		w.flowOn = true
		w.tape.Flow = &Flow{}
	}
	return w
}

// RecordFrame appends one frame's committed input for every player.
func (w *Writer) RecordFrame(inputs []netplay.NetplayBufferItem) {
	for i, item := range inputs {
		if i >= len(w.tape.Players) {
			break
		}
		w.tape.Players[i].Items = append(w.tape.Players[i].Items, toItem(item))
	}
	if w.flowOn {
		w.tape.Flow.BufferLimits = append(w.tape.Flow.BufferLimits, len(inputs))
	}
}

// RecordEvent appends an external event at its effective frame.
func (w *Writer) RecordEvent(frame int, kind, payload string) {
	w.tape.Events = append(w.tape.Events, ExternalEvent{Frame: frame, Kind: kind, Payload: payload})
}

// RecordRollback appends a resimulate-from event, a no-op unless the
// Writer was built with recordFlow.
func (w *Writer) RecordRollback(frame, resimulateFrom int) {
	if !w.flowOn {
		return
	}
	w.tape.Flow.Rollbacks = append(w.tape.Flow.Rollbacks, RollbackEvent{Frame: frame, ResimulateFrom: resimulateFrom})
}

// Save marshals the accumulated tape as YAML to path.
func (w *Writer) Save(path string) error {
	data, err := yaml.Marshal(w.tape)
	if err != nil {
		return fmt.Errorf("recording: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("recording: write %s: %w", path, err)
	}
	return nil
}

// TapeSource replays a loaded Tape as an netplay.InputSource, the
// "inputs-from-tape" source spec.md §9 calls for so the replay path
// reuses the exact same state machine and driver as a live session.
type TapeSource struct {
	tape Tape
}

// Load reads and parses a tape file.
func Load(path string) (*TapeSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("recording: read %s: %w", path, err)
	}
	var t Tape
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("recording: parse %s: %w", path, err)
	}
	return &TapeSource{tape: t}, nil
}

func (t *TapeSource) Meta() Meta { return t.tape.Meta }

// InputAt implements netplay.InputSource by indexing directly into the
// tape's dense per-player buffer.
func (t *TapeSource) InputAt(frame int, playerIndex int) (netplay.NetplayBufferItem, bool) {
	if playerIndex < 0 || playerIndex >= len(t.tape.Players) {
		return netplay.NetplayBufferItem{}, false
	}
	items := t.tape.Players[playerIndex].Items
	if frame < 0 || frame >= len(items) {
		return netplay.NetplayBufferItem{}, false
	}
	return fromItem(items[frame]), true
}

// RollbackAt reports the resimulate-from frame recorded at frame, if flow
// recording was enabled when the tape was captured.
func (t *TapeSource) RollbackAt(frame int) (int, bool) {
	if t.tape.Flow == nil {
		return 0, false
	}
	for _, r := range t.tape.Flow.Rollbacks {
		if r.Frame == frame {
			return r.ResimulateFrom, true
		}
	}
	return 0, false
}

// BufferLimitAt reports the recorded buffer length for frame, used to
// reproduce the exact pacing decisions a live session made when the
// simulated packet-arrival pattern can't be replayed directly.
func (t *TapeSource) BufferLimitAt(frame int) (int, bool) {
	if t.tape.Flow == nil || frame < 0 || frame >= len(t.tape.Flow.BufferLimits) {
		return 0, false
	}
	return t.tape.Flow.BufferLimits[frame], true
}

var _ netplay.InputSource = (*TapeSource)(nil)
