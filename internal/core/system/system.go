package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: player movement from held buttons
	PhaseUpdate                  // 1: livestock wander
	PhasePostUpdate              // 2: lifetime expiry + sale
	PhaseSpawn                   // 3: spawn gate; new entities start ticking next frame
	PhaseOutput                  // 4: event dispatch, tick log, frame broadcast
	PhasePersist                 // 5: ledger journal flush
)

var phaseNames = [...]string{"input", "update", "post_update", "spawn", "output", "persist"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// System is the interface every ECS system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
