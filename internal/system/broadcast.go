package system

import (
	"time"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/core/ecs"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/protocol"
	"github.com/ranchsim/server/internal/world"
)

// FrameSink receives frame snapshots built on the simulation goroutine.
type FrameSink interface {
	BroadcastFrame(msg protocol.FrameMsg)
}

// BroadcastSystem snapshots every transform each interval ticks and hands the
// frame to the sink. Phase 4 (Output).
type BroadcastSystem struct {
	world     *world.State
	sink      FrameSink
	interval  int
	tickCount int
}

func NewBroadcastSystem(ws *world.State, sink FrameSink, intervalTicks int) *BroadcastSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &BroadcastSystem{world: ws, sink: sink, interval: intervalTicks}
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *BroadcastSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	var player *protocol.Transform
	if id, err := s.world.Player(); err == nil {
		if pos, ok := s.world.Positions.Get(id); ok {
			player = &protocol.Transform{Entity: uint64(id), X: pos.X, Y: pos.Y}
		}
	}
	herd := make([]protocol.Transform, 0, s.world.LivestockCount())
	ecs.Each2(s.world.Livestock, s.world.Positions, func(id ecs.EntityID, _ *component.Livestock, pos *component.Position) {
		herd = append(herd, protocol.Transform{Entity: uint64(id), X: pos.X, Y: pos.Y})
	})
	s.sink.BroadcastFrame(protocol.NewFrame(s.world.Tick(), s.world.Ledger.Balance(), player, herd))
}
