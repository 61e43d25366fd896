package system

import (
	"math/rand"
	"time"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/core/ecs"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/world"
)

// WanderSystem nudges each animal by a random offset every time its
// repeating wander timer fires. Phase 1 (Update).
type WanderSystem struct {
	world *world.State
	rng   *rand.Rand
}

func NewWanderSystem(ws *world.State, rng *rand.Rand) *WanderSystem {
	return &WanderSystem{world: ws, rng: rng}
}

func (s *WanderSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WanderSystem) Update(dt time.Duration) {
	jitter := s.world.Kind.WanderJitter
	ecs.Each2(s.world.Wanders, s.world.Positions, func(_ ecs.EntityID, wt *component.Timer, pos *component.Position) {
		wt.Advance(dt)
		if !wt.Fired() {
			return
		}
		pos.X += s.offset(jitter)
		pos.Y += s.offset(jitter)
		wt.Reset()
	})
}

// offset samples uniformly from [-jitter, jitter].
func (s *WanderSystem) offset(jitter float64) float64 {
	return (s.rng.Float64()*2 - 1) * jitter
}
