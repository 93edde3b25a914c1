// Package transport implements the concrete gorilla/websocket netplay
// transport the spec treats as an external collaborator ("the transport
// that delivers network packets", spec.md §1 Non-goals). The battle core
// never imports this package; only cmd/battlesim wires it to an
// internal/netplay.InputSource.
package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/rollbacknet/battlecore/internal/netplay"
)

// Conn wraps one peer's websocket connection, framing a (netplay.NetplayBufferItem,
// lead[]) pair per spec.md §6 "Wire" as a single binary message.
//
// Grounded on the teacher's internal/net.Session (per-connection read/write
// over a raw net.Conn with a fixed handshake), adapted from the teacher's
// length-prefixed L1J binary protocol onto gorilla/websocket's message
// framing, since the battle core only needs one message per frame per peer
// rather than a byte-stream with its own length prefixes.
type Conn struct {
	ws *websocket.Conn
}

func NewConn(ws *websocket.Conn) *Conn { return &Conn{ws: ws} }

// Send writes one frame's buffer item and lead vector as a binary message.
func (c *Conn) Send(item netplay.NetplayBufferItem, leads []netplay.Lead) error {
	buf := encodeFrame(item, leads)
	return c.ws.WriteMessage(websocket.BinaryMessage, buf)
}

// Recv reads and decodes the next frame message.
func (c *Conn) Recv() (netplay.NetplayBufferItem, []netplay.Lead, error) {
	kind, data, err := c.ws.ReadMessage()
	if err != nil {
		return netplay.NetplayBufferItem{}, nil, err
	}
	if kind != websocket.BinaryMessage {
		return netplay.NetplayBufferItem{}, nil, fmt.Errorf("netplay: unexpected websocket message kind %d", kind)
	}
	return decodeFrame(data)
}

func (c *Conn) Close() error { return c.ws.Close() }

// encodeFrame lays out: pressed (2 bytes) | signal count (1 byte) | signals
// (kind byte + 8-byte message id each) | lead count (1 byte) | leads (4
// bytes peer index + 2 bytes frames each). Small and fixed-width by design —
// this never crosses a trust boundary without the surrounding websocket
// transport's own framing, so it need not be self-describing beyond that.
func encodeFrame(item netplay.NetplayBufferItem, leads []netplay.Lead) []byte {
	buf := make([]byte, 0, 3+len(item.Signals)*9+1+len(leads)*6)
	var pressed [2]byte
	binary.LittleEndian.PutUint16(pressed[:], uint16(item.Pressed))
	buf = append(buf, pressed[:]...)

	buf = append(buf, byte(len(item.Signals)))
	for _, s := range item.Signals {
		buf = append(buf, byte(s.Kind))
		var id [8]byte
		binary.LittleEndian.PutUint64(id[:], s.MessageID)
		buf = append(buf, id[:]...)
	}

	buf = append(buf, byte(len(leads)))
	for _, l := range leads {
		var peer [4]byte
		binary.LittleEndian.PutUint32(peer[:], uint32(l.PeerIndex))
		buf = append(buf, peer[:]...)
		var frames [2]byte
		binary.LittleEndian.PutUint16(frames[:], uint16(l.Frames))
		buf = append(buf, frames[:]...)
	}
	return buf
}

func decodeFrame(data []byte) (netplay.NetplayBufferItem, []netplay.Lead, error) {
	if len(data) < 3 {
		return netplay.NetplayBufferItem{}, nil, fmt.Errorf("netplay: short frame (%d bytes)", len(data))
	}
	item := netplay.NetplayBufferItem{Pressed: netplay.PressedSet(binary.LittleEndian.Uint16(data[0:2]))}
	off := 2

	sigCount := int(data[off])
	off++
	for i := 0; i < sigCount; i++ {
		if off+9 > len(data) {
			return netplay.NetplayBufferItem{}, nil, fmt.Errorf("netplay: truncated signal list")
		}
		item.Signals = append(item.Signals, netplay.Signal{
			Kind:      netplay.SignalKind(data[off]),
			MessageID: binary.LittleEndian.Uint64(data[off+1 : off+9]),
		})
		off += 9
	}

	if off >= len(data) {
		return item, nil, nil
	}
	leadCount := int(data[off])
	off++
	leads := make([]netplay.Lead, 0, leadCount)
	for i := 0; i < leadCount; i++ {
		if off+6 > len(data) {
			return netplay.NetplayBufferItem{}, nil, fmt.Errorf("netplay: truncated lead list")
		}
		leads = append(leads, netplay.Lead{
			PeerIndex: int(binary.LittleEndian.Uint32(data[off : off+4])),
			Frames:    int16(binary.LittleEndian.Uint16(data[off+4 : off+6])),
		})
		off += 6
	}
	return item, leads, nil
}
