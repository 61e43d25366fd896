package event

import "github.com/ranchsim/server/internal/core/ecs"

// LivestockSpawned is the render request for a new livestock entity: the
// renderer draws Sprite at (X, Y) until the matching LivestockSold arrives.
type LivestockSpawned struct {
	Tick    uint64
	Entity  ecs.EntityID
	Herd    ecs.EntityID
	Sprite  string
	X, Y    float64
	Cost    float64
	Balance float64
}

// LivestockSold is emitted when a livestock entity expires. The entity is
// already destroyed; renderers drop it.
type LivestockSold struct {
	Tick    uint64
	Entity  ecs.EntityID
	X, Y    float64
	Payout  float64
	Balance float64
}

// SpawnRejected records a spawn command the ledger could not fund.
type SpawnRejected struct {
	Tick    uint64
	Cost    float64
	Balance float64
}

// LedgerChanged mirrors every successful ledger mutation.
type LedgerChanged struct {
	Tick    uint64
	Kind    string
	Amount  float64
	Balance float64
}
