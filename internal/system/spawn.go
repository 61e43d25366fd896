package system

import (
	"time"

	"github.com/ranchsim/server/internal/core/event"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/input"
	"github.com/ranchsim/server/internal/world"
	"go.uber.org/zap"
)

// SpawnSystem buys one livestock animal per fresh press of the spawn action
// and places it at the player's position under the herd. Phase 3 (Spawn):
// it runs after wander and lifetime, so a new animal is first aged next frame.
type SpawnSystem struct {
	world   *world.State
	buttons *input.Buttons
	bus     *event.Bus
	log     *zap.Logger
	guard   singletonGuard
}

func NewSpawnSystem(ws *world.State, buttons *input.Buttons, bus *event.Bus, log *zap.Logger) *SpawnSystem {
	return &SpawnSystem{
		world:   ws,
		buttons: buttons,
		bus:     bus,
		log:     log,
		guard:   singletonGuard{system: "spawn", log: log},
	}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *SpawnSystem) Update(_ time.Duration) {
	if !s.buttons.JustPressed(input.ActionSpawn) {
		return
	}

	player, err := s.world.Player()
	if !s.guard.check(err) {
		return
	}
	herd, err := s.world.Herd()
	if !s.guard.check(err) {
		return
	}
	pos, ok := s.world.Positions.Get(player)
	if !s.guard.check(errIf(!ok, world.ErrNoPlayer)) {
		return
	}

	kind := s.world.Kind
	ledger := s.world.Ledger
	if !ledger.TrySpend(kind.Cost) {
		balance := ledger.Balance()
		s.log.Info("insufficient funds",
			zap.String("kind", kind.Name),
			zap.Float64("cost", kind.Cost),
			zap.Float64("balance", balance))
		event.Emit(s.bus, event.SpawnRejected{
			Tick:    s.world.Tick(),
			Cost:    kind.Cost,
			Balance: balance,
		})
		return
	}

	id := s.world.SpawnLivestock(herd, *pos)
	balance := ledger.Balance()
	s.log.Info("livestock bought",
		zap.String("kind", kind.Name),
		zap.Float64("spent", kind.Cost),
		zap.Float64("balance", balance))
	event.Emit(s.bus, event.LivestockSpawned{
		Tick:    s.world.Tick(),
		Entity:  id,
		Herd:    herd,
		Sprite:  kind.Sprite,
		X:       pos.X,
		Y:       pos.Y,
		Cost:    kind.Cost,
		Balance: balance,
	})
}

func errIf(cond bool, err error) error {
	if cond {
		return err
	}
	return nil
}
