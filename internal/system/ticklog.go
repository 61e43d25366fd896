package system

import (
	"time"

	"github.com/ranchsim/server/internal/core/event"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/persist"
	"github.com/ranchsim/server/internal/world"
	"go.uber.org/zap"
)

// TickWriter stores per-frame records.
type TickWriter interface {
	WriteTick(rec persist.TickRecord) error
}

// TickLogSystem writes a summary of every frame. It counts the frame's events
// through bus subscriptions, so it must be registered after
// EventDispatchSystem. Phase 4 (Output).
type TickLogSystem struct {
	world  *world.State
	out    TickWriter
	runID  string
	log    *zap.Logger
	failed bool

	spawned, sold, rejected, ledger int
}

func NewTickLogSystem(ws *world.State, bus *event.Bus, out TickWriter, runID string, log *zap.Logger) *TickLogSystem {
	s := &TickLogSystem{world: ws, out: out, runID: runID, log: log}
	event.Subscribe(bus, func(event.LivestockSpawned) { s.spawned++ })
	event.Subscribe(bus, func(event.LivestockSold) { s.sold++ })
	event.Subscribe(bus, func(event.SpawnRejected) { s.rejected++ })
	event.Subscribe(bus, func(event.LedgerChanged) { s.ledger++ })
	return s
}

func (s *TickLogSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *TickLogSystem) Update(dt time.Duration) {
	rec := persist.TickRecord{
		RunID:     s.runID,
		Tick:      s.world.Tick(),
		DtMicros:  dt.Microseconds(),
		Balance:   s.world.Ledger.Balance(),
		Livestock: s.world.LivestockCount(),
		Spawned:   s.spawned,
		Sold:      s.sold,
		Rejected:  s.rejected,
		Ledger:    s.ledger,
	}
	s.spawned, s.sold, s.rejected, s.ledger = 0, 0, 0, 0

	if err := s.out.WriteTick(rec); err != nil {
		if !s.failed {
			s.log.Error("tick log write failed", zap.Error(err))
			s.failed = true
		}
		return
	}
	s.failed = false
}
