package system

import (
	"time"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/core/ecs"
	"github.com/ranchsim/server/internal/core/event"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/world"
	"go.uber.org/zap"
)

// LifetimeSystem ages every animal and sells the ones whose lifetime fired:
// credit the payout, detach from the herd, destroy. All of it happens inside
// one Update, so no other system ever sees an expired animal.
// Phase 2 (PostUpdate).
type LifetimeSystem struct {
	world   *world.State
	bus     *event.Bus
	log     *zap.Logger
	guard   singletonGuard
	expired []ecs.EntityID
}

func NewLifetimeSystem(ws *world.State, bus *event.Bus, log *zap.Logger) *LifetimeSystem {
	return &LifetimeSystem{
		world:   ws,
		bus:     bus,
		log:     log,
		guard:   singletonGuard{system: "lifetime", log: log},
		expired: make([]ecs.EntityID, 0, 16),
	}
}

func (s *LifetimeSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *LifetimeSystem) Update(dt time.Duration) {
	if s.world.Lifetimes.Len() == 0 {
		return
	}
	herd, err := s.world.Herd()
	if !s.guard.check(err) {
		return
	}

	s.expired = s.expired[:0]
	s.world.Lifetimes.Each(func(id ecs.EntityID, lt *component.Timer) {
		lt.Advance(dt)
		if lt.Fired() {
			s.expired = append(s.expired, id)
		}
	})

	for _, id := range s.expired {
		s.sell(herd, id)
	}
}

func (s *LifetimeSystem) sell(herd, id ecs.EntityID) {
	payout := s.world.Kind.Payout
	if ls, ok := s.world.Livestock.Get(id); ok {
		payout = ls.Payout
	}
	var x, y float64
	if pos, ok := s.world.Positions.Get(id); ok {
		x, y = pos.X, pos.Y
	}

	if err := s.world.Ledger.Credit(payout); err != nil {
		s.log.Error("livestock sale not credited", zap.Uint64("entity", uint64(id)), zap.Error(err))
	}
	s.world.DespawnLivestock(herd, id)

	balance := s.world.Ledger.Balance()
	s.log.Info("livestock sold",
		zap.Uint64("entity", uint64(id)),
		zap.Float64("payout", payout),
		zap.Float64("balance", balance))
	event.Emit(s.bus, event.LivestockSold{
		Tick:    s.world.Tick(),
		Entity:  id,
		X:       x,
		Y:       y,
		Payout:  payout,
		Balance: balance,
	})
}
