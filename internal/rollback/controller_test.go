package rollback

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/battle/status"
	"github.com/rollbacknet/battlecore/internal/config"
	"github.com/rollbacknet/battlecore/internal/core/event"
	"github.com/rollbacknet/battlecore/internal/netplay"
)

func testController(numPlayers int) *Controller {
	cfg := &config.BattleRules{
		InputBufferLimit:  20,
		GraceTime:         5,
		SlowCooldown:      20,
		LeadTolerance:     2.0,
		LeadAveragePeriod: 20,
	}
	statusRegistry := status.NewRegistry()
	s := sim.NewSimulation(cfg, statusRegistry, 1)
	return New(cfg, zap.NewNop(), event.NewBus(), s, 0, numPlayers)
}

func TestControllerTickAdvancesTimeAndSync(t *testing.T) {
	c := testController(2)

	for i := 0; i < 5; i++ {
		if err := c.Tick(netplay.NetplayBufferItem{}, nil, nil); err != nil {
			t.Fatalf("Tick(%d): %v", i, err)
		}
	}

	if c.Sim.Time != 5 {
		t.Errorf("expected Sim.Time == 5 after 5 ticks, got %d", c.Sim.Time)
	}
	if c.SyncedTime != 5 {
		t.Errorf("expected SyncedTime == 5 after 5 ticks (only one connected player), got %d", c.SyncedTime)
	}
}

func TestControllerLoadCommittedInputWaitsOnConnectedPeer(t *testing.T) {
	c := testController(2)
	c.Connect(1) // peer 1 now connected but never supplies input

	for i := 0; i < 3; i++ {
		if err := c.Tick(netplay.NetplayBufferItem{}, nil, nil); err != nil {
			t.Fatalf("Tick(%d): %v", i, err)
		}
	}

	if c.SyncedTime != 0 {
		t.Errorf("expected SyncedTime to stay at 0 while peer 1's buffer is empty, got %d", c.SyncedTime)
	}
	if c.Sim.Time == 0 {
		t.Errorf("expected Sim.Time to keep advancing on prediction while rollback window is open")
	}
}

func TestControllerAckSinkFiresOnCommit(t *testing.T) {
	c := testController(1)

	var acked []uint64
	item := netplay.NetplayBufferItem{Signals: []netplay.Signal{
		{Kind: netplay.SignalAcknowledgeServerMessage, MessageID: 42},
	}}
	if err := c.Tick(item, func(id uint64) { acked = append(acked, id) }, nil); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if len(acked) != 1 || acked[0] != 42 {
		t.Errorf("expected ackSink to fire with messageID 42, got %v", acked)
	}
}

func TestControllerEnqueueRemoteTriggersResimulate(t *testing.T) {
	c := testController(2)
	c.Connect(1)

	// Run a few frames so the misprediction lands inside the backup ring
	// rather than at the current frontier.
	for i := 0; i < 4; i++ {
		if err := c.Tick(netplay.NetplayBufferItem{}, nil, nil); err != nil {
			t.Fatalf("Tick(%d): %v", i, err)
		}
	}
	simTimeBefore := c.Sim.Time

	// Peer 1's real input for frame 1 differs from the zero-value prediction
	// the simulation actually ran with.
	c.EnqueueRemote(1, 1, netplay.NetplayBufferItem{Pressed: 0b1})

	if err := c.Tick(netplay.NetplayBufferItem{}, nil, nil); err != nil {
		t.Fatalf("Tick after enqueue: %v", err)
	}

	if c.resimulateTime != math.MaxInt {
		t.Errorf("expected resimulateTime to be cleared after a resimulate pass, got %d", c.resimulateTime)
	}
	if c.Sim.Time < simTimeBefore {
		t.Errorf("expected resimulate to restore at least as far as the prior frontier, got Sim.Time=%d (was %d)", c.Sim.Time, simTimeBefore)
	}
}

func TestPlayerControllerBuffersIndependently(t *testing.T) {
	c := testController(2)
	c.Connect(1)

	c.EnqueueRemote(1, 0, netplay.NetplayBufferItem{Pressed: 0b1})
	c.ingest()

	item, ok := c.Players[1].Buffer.At(0)
	if !ok || item.Pressed != 0b1 {
		t.Errorf("expected peer 1's buffer to hold the ingested item at frame 0, got %v (ok=%v)", item, ok)
	}
	if c.Players[0].Buffer.Len() != 0 {
		t.Errorf("expected local player's buffer to be untouched by a remote ingest")
	}
}
