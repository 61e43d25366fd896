package system

import (
	"time"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/core/ecs"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/input"
	"github.com/ranchsim/server/internal/world"
)

// PlayerMoveSystem moves the player from the held direction buttons. Only one
// direction applies per frame, first match wins: up, down, right, left.
// Phase 0 (Input).
type PlayerMoveSystem struct {
	world   *world.State
	buttons *input.Buttons
}

func NewPlayerMoveSystem(ws *world.State, buttons *input.Buttons) *PlayerMoveSystem {
	return &PlayerMoveSystem{world: ws, buttons: buttons}
}

func (s *PlayerMoveSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *PlayerMoveSystem) Update(dt time.Duration) {
	dx, dy := s.direction()
	if dx == 0 && dy == 0 {
		return
	}
	ecs.Each2(s.world.Players, s.world.Positions, func(_ ecs.EntityID, p *component.Player, pos *component.Position) {
		step := p.Speed * dt.Seconds()
		pos.X += dx * step
		pos.Y += dy * step
	})
}

func (s *PlayerMoveSystem) direction() (dx, dy float64) {
	switch {
	case s.buttons.Pressed(input.ActionUp):
		return 0, 1
	case s.buttons.Pressed(input.ActionDown):
		return 0, -1
	case s.buttons.Pressed(input.ActionRight):
		return 1, 0
	case s.buttons.Pressed(input.ActionLeft):
		return -1, 0
	}
	return 0, 0
}
