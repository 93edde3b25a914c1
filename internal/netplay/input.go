// Package netplay defines the wire-level input contract the rollback
// controller consumes: per-frame, per-player button state and out-of-band
// signals, plus the InputSource interface an actual transport or a tape
// replay both satisfy (spec.md §6 "Input source").
package netplay

// Button is one of the eleven digital inputs the core recognizes.
type Button int

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonLeft
	ButtonRight
	ButtonConfirm
	ButtonCancel
	ButtonSpecial
	ButtonEndTurn
	ButtonPause
	ButtonAdvanceFrame
	ButtonRewindFrame

	buttonCount
)

// PressedSet is a bitset over Button, small enough to copy by value into
// every buffered input item without an allocation.
type PressedSet uint16

func (p PressedSet) Has(b Button) bool { return p&(1<<uint(b)) != 0 }

func (p *PressedSet) Set(b Button)   { *p |= 1 << uint(b) }
func (p *PressedSet) Clear(b Button) { *p &^= 1 << uint(b) }

// SignalKind is an out-of-band event carried alongside a frame's button
// state rather than a button itself.
type SignalKind int

const (
	SignalDisconnect SignalKind = iota
	SignalAttemptingFlee
	SignalCompletedFlee
	SignalAcknowledgeServerMessage
)

// Signal is one SignalKind plus its optional payload (only
// AcknowledgeServerMessage carries one).
type Signal struct {
	Kind      SignalKind
	MessageID uint64
}

// NetplayBufferItem is one player's input for one frame (spec.md §6, §4.8
// "buffer holds NetplayBufferItem{pressed, signals} per frame").
type NetplayBufferItem struct {
	Pressed PressedSet
	Signals []Signal
}

// HasSignal reports whether item carries a signal of kind k.
func (item NetplayBufferItem) HasSignal(k SignalKind) bool {
	for _, s := range item.Signals {
		if s.Kind == k {
			return true
		}
	}
	return false
}

// Lead is one peer's (frame-ahead, peer index) pair, transported alongside
// a NetplayBufferItem (spec.md §6 Wire: "(NetplayBufferItem, lead[])").
type Lead struct {
	PeerIndex int
	Frames    int16
}

// InputSource yields buffered input for a given frame and player index,
// returning ok=false when that player's input for that frame has not yet
// arrived (spec.md §6 "either None (not yet received) or NetplayBufferItem").
//
// Grounded on the teacher's internal/net session abstraction (an opaque
// per-connection source the game loop polls) adapted from a byte-stream
// socket read into a buffered-frame query, since lockstep netplay needs
// random access by (frame, player) rather than a sequential stream.
type InputSource interface {
	InputAt(frame int, playerIndex int) (NetplayBufferItem, bool)
}
