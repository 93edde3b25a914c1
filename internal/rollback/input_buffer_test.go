package rollback

import (
	"testing"

	"github.com/rollbacknet/battlecore/internal/netplay"
)

func TestInputBufferAtMiss(t *testing.T) {
	tests := []struct {
		name  string
		base  int
		items []netplay.NetplayBufferItem
		frame int
	}{
		{"before base", 5, nil, 4},
		{"empty buffer at base", 0, nil, 0},
		{"past tail", 0, []netplay.NetplayBufferItem{{}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewInputBuffer(tt.base)
			b.items = tt.items
			if _, ok := b.At(tt.frame); ok {
				t.Errorf("expected At(%d) to miss with base %d", tt.frame, tt.base)
			}
		})
	}
}

func TestInputBufferSetExtendsWithPrediction(t *testing.T) {
	b := NewInputBuffer(10)
	first := netplay.NetplayBufferItem{Pressed: 0b101}
	b.Set(10, first)

	// Set at frame 13 should backfill 11,12 with copies of the last known
	// item (frame 10's) before installing the new value at 13.
	b.Set(13, netplay.NetplayBufferItem{Pressed: 0b010})

	if got, ok := b.At(11); !ok || got.Pressed != first.Pressed {
		t.Errorf("expected frame 11 to predict forward as %v, got %v (ok=%v)", first, got, ok)
	}
	if got, ok := b.At(12); !ok || got.Pressed != first.Pressed {
		t.Errorf("expected frame 12 to predict forward as %v, got %v (ok=%v)", first, got, ok)
	}
	if got, ok := b.At(13); !ok || got.Pressed != 0b010 {
		t.Errorf("expected frame 13 to hold the installed value, got %v (ok=%v)", got, ok)
	}
}

func TestInputBufferSetChangeDetection(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(b *InputBuffer)
		frame       int
		item        netplay.NetplayBufferItem
		wantChanged bool
	}{
		{
			name:        "first value at a fresh frame differing from the empty prediction is a change",
			setup:       func(b *InputBuffer) {},
			frame:       0,
			item:        netplay.NetplayBufferItem{Pressed: 0b1},
			wantChanged: true,
		},
		{
			name: "overwriting a predicted value with a different one is a change",
			setup: func(b *InputBuffer) {
				b.Set(0, netplay.NetplayBufferItem{Pressed: 0b1})
				b.Set(2, netplay.NetplayBufferItem{Pressed: 0b1}) // backfills frame 1 as a prediction
			},
			frame:       1,
			item:        netplay.NetplayBufferItem{Pressed: 0b10},
			wantChanged: true,
		},
		{
			name: "overwriting with the same value is not a change",
			setup: func(b *InputBuffer) {
				b.Set(0, netplay.NetplayBufferItem{Pressed: 0b1})
			},
			frame:       0,
			item:        netplay.NetplayBufferItem{Pressed: 0b1},
			wantChanged: false,
		},
		{
			name: "a frame already popped off the front is too late to matter",
			setup: func(b *InputBuffer) {
				b.Append(netplay.NetplayBufferItem{Pressed: 0b1})
				b.PopFront()
			},
			frame:       0,
			item:        netplay.NetplayBufferItem{Pressed: 0b11},
			wantChanged: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewInputBuffer(0)
			tt.setup(b)
			got := b.Set(tt.frame, tt.item)
			if got != tt.wantChanged {
				t.Errorf("Set(%d, %v) changed = %v, want %v", tt.frame, tt.item, got, tt.wantChanged)
			}
		})
	}
}

func TestInputBufferPopFrontAdvancesBase(t *testing.T) {
	b := NewInputBuffer(5)
	b.Append(netplay.NetplayBufferItem{Pressed: 1})
	b.Append(netplay.NetplayBufferItem{Pressed: 2})

	item, ok := b.PopFront()
	if !ok || item.Pressed != 1 {
		t.Fatalf("expected first pop to return Pressed=1, got %v (ok=%v)", item, ok)
	}
	if b.base != 6 {
		t.Errorf("expected base to advance to 6, got %d", b.base)
	}
	if b.Len() != 1 {
		t.Errorf("expected Len() == 1 after one pop, got %d", b.Len())
	}

	if _, ok := b.At(5); ok {
		t.Errorf("expected frame 5 to no longer be retrievable after popping it")
	}
	if got, ok := b.At(6); !ok || got.Pressed != 2 {
		t.Errorf("expected frame 6 to hold Pressed=2, got %v (ok=%v)", got, ok)
	}
}

func TestInputBufferPopFrontEmpty(t *testing.T) {
	b := NewInputBuffer(0)
	if _, ok := b.PopFront(); ok {
		t.Errorf("expected PopFront on an empty buffer to report ok=false")
	}
}
