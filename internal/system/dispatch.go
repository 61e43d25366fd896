package system

import (
	"time"

	"github.com/ranchsim/server/internal/core/event"
	coresys "github.com/ranchsim/server/internal/core/system"
)

// EventDispatchSystem delivers the events emitted during this frame.
// Phase 4 (Output); register it before other Output systems that count events.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.Flush()
}
