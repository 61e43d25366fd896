// Package sim wires the ranch systems into a fixed-step driver.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/ranchsim/server/internal/core/event"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/data"
	"github.com/ranchsim/server/internal/input"
	"github.com/ranchsim/server/internal/ledger"
	"github.com/ranchsim/server/internal/system"
	"github.com/ranchsim/server/internal/world"
	"go.uber.org/zap"
)

// HerdName is the display name of the herd anchor entity.
const HerdName = "Livestock Herd"

// Options configures a new simulation.
type Options struct {
	Step            time.Duration // fixed frame delta
	StartingBalance float64
	PlayerSpeed     float64
	Seed            int64 // 0 = seed from the clock
	Kind            data.LivestockDef
	RunID           uuid.UUID // zero = generate
	Log             *zap.Logger
}

// Sim owns the world and runs its systems one frame at a time. All methods
// must be called from a single goroutine.
type Sim struct {
	State   *world.State
	Bus     *event.Bus
	Buttons *input.Buttons
	Runner  *coresys.Runner

	runID uuid.UUID
	step  time.Duration
	seed  int64
	log   *zap.Logger
}

// New builds the world (ledger, herd anchor, player at the origin) and
// registers the core systems in frame order.
func New(opts Options) (*Sim, error) {
	if opts.Step <= 0 {
		return nil, fmt.Errorf("sim step %v must be positive", opts.Step)
	}
	if err := opts.Kind.Validate(); err != nil {
		return nil, fmt.Errorf("sim livestock: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	l, err := ledger.New(opts.StartingBalance, log.Named("ledger"))
	if err != nil {
		return nil, fmt.Errorf("sim ledger: %w", err)
	}
	ws := world.NewState(l, opts.Kind)
	if _, err := ws.SpawnHerd(HerdName); err != nil {
		return nil, fmt.Errorf("sim herd: %w", err)
	}
	ws.SpawnPlayer(0, 0, opts.PlayerSpeed)

	s := &Sim{
		State:   ws,
		Bus:     event.NewBus(),
		Buttons: input.NewButtons(),
		Runner:  coresys.NewRunner(),
		runID:   runID,
		step:    opts.Step,
		seed:    seed,
		log:     log,
	}
	l.Observe(func(e ledger.Entry) {
		event.Emit(s.Bus, event.LedgerChanged{
			Tick:    ws.Tick(),
			Kind:    string(e.Kind),
			Amount:  e.Amount.InexactFloat64(),
			Balance: e.Balance.InexactFloat64(),
		})
	})
	s.Runner.Register(
		system.NewPlayerMoveSystem(ws, s.Buttons),
		system.NewWanderSystem(ws, rand.New(rand.NewSource(seed))),
		system.NewLifetimeSystem(ws, s.Bus, log.Named("lifetime")),
		system.NewSpawnSystem(ws, s.Buttons, s.Bus, log.Named("spawn")),
		system.NewEventDispatchSystem(s.Bus),
	)
	log.Info("simulation ready",
		zap.String("run_id", runID.String()),
		zap.Int64("seed", seed),
		zap.Duration("step", opts.Step),
		zap.Float64("balance", opts.StartingBalance),
		zap.String("livestock", opts.Kind.Name))
	return s, nil
}

// Register adds output or persistence systems. Systems sharing a phase run
// in registration order, after the core ones.
func (s *Sim) Register(systems ...coresys.System) {
	s.Runner.Register(systems...)
}

func (s *Sim) RunID() uuid.UUID        { return s.runID }
func (s *Sim) StepSize() time.Duration { return s.step }
func (s *Sim) Seed() int64             { return s.seed }

// Step runs one frame with delta dt and latches input edges.
func (s *Sim) Step(dt time.Duration) uint64 {
	tick := s.State.BeginTick()
	s.Runner.Tick(dt)
	s.Buttons.EndFrame()
	return tick
}

// Advance runs whole frames of dt until at least total has elapsed and
// returns the number of frames run. A non-positive dt uses the configured
// step.
func (s *Sim) Advance(total, dt time.Duration) int {
	if dt <= 0 {
		dt = s.step
	}
	frames := 0
	for elapsed := time.Duration(0); elapsed < total; elapsed += dt {
		s.Step(dt)
		frames++
	}
	return frames
}

// Hooks run on the simulation goroutine around every real-time frame.
type Hooks struct {
	Before func() // apply input
	After  func() // draw
}

// Run drives the simulation in real time until ctx is done. Every ticker
// fire advances the world by exactly tickRate.
func (s *Sim) Run(ctx context.Context, tickRate time.Duration, hooks Hooks) error {
	if tickRate <= 0 {
		return fmt.Errorf("sim tick rate %v must be positive", tickRate)
	}
	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if hooks.Before != nil {
				hooks.Before()
			}
			s.Step(tickRate)
			if hooks.After != nil {
				hooks.After()
			}
		}
	}
}
