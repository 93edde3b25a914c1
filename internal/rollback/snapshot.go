package rollback

import (
	"encoding/binary"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/rollbacknet/battlecore/internal/battle/entity"
	"github.com/rollbacknet/battlecore/internal/battle/sim"
	"github.com/rollbacknet/battlecore/internal/core/ecs"
)

// SnapshotHash folds a simulation's deterministic state into a single
// blake2b-256 digest: frame clock, RNG state, and every entity's position
// and (for Livings) health, visited in ascending entity-id order so two
// peers that ran the same inputs produce identical bytes. It intentionally
// excludes animator/render state, which is cosmetic and permitted to
// diverge without representing a real desync.
func SnapshotHash(s *sim.BattleSimulation) [32]byte {
	h, _ := blake2b.New256(nil)

	var buf [8]byte
	writeU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeI64 := func(v int) { writeU64(uint64(int64(v))) }

	writeI64(s.Time)
	for _, word := range s.RNG.State() {
		writeU64(word)
	}

	var ids []ecs.EntityID
	s.EachEntity(func(id ecs.EntityID, _ *entity.Entity) { ids = append(ids, id) })
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		e, ok := s.Entity(id)
		if !ok {
			continue
		}
		writeU64(uint64(id))
		writeI64(e.X)
		writeI64(e.Y)
		writeI64(int(e.Facing))
		if l, ok := s.Living(id); ok {
			writeI64(l.Health)
		}
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
