package world

import (
	"errors"
	"fmt"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/core/ecs"
	"github.com/ranchsim/server/internal/data"
	"github.com/ranchsim/server/internal/ledger"
)

var (
	ErrNoPlayer        = errors.New("world: no player entity")
	ErrMultiplePlayers = errors.New("world: more than one player entity")
	ErrNoHerd          = errors.New("world: no herd entity")
	ErrMultipleHerds   = errors.New("world: more than one herd entity")
	ErrHerdExists      = errors.New("world: herd already spawned")
)

// State is the shared entity/component store every system reads and writes
// during a frame. It is owned by the simulation goroutine.
type State struct {
	ECS *ecs.World

	Positions *ecs.PtrComponentStore[component.Position]
	Players   *ecs.PtrComponentStore[component.Player]
	Herds     *ecs.PtrComponentStore[component.Herd]
	Livestock *ecs.PtrComponentStore[component.Livestock]
	Sprites   *ecs.PtrComponentStore[component.Sprite]
	Lifetimes *ecs.PtrComponentStore[component.Timer] // one-shot
	Wanders   *ecs.PtrComponentStore[component.Timer] // repeating

	Ledger *ledger.Ledger
	Kind   data.LivestockDef

	tick uint64
}

func NewState(l *ledger.Ledger, kind data.LivestockDef) *State {
	s := &State{
		ECS:       ecs.NewWorld(),
		Positions: ecs.NewPtrComponentStore[component.Position](),
		Players:   ecs.NewPtrComponentStore[component.Player](),
		Herds:     ecs.NewPtrComponentStore[component.Herd](),
		Livestock: ecs.NewPtrComponentStore[component.Livestock](),
		Sprites:   ecs.NewPtrComponentStore[component.Sprite](),
		Lifetimes: ecs.NewPtrComponentStore[component.Timer](),
		Wanders:   ecs.NewPtrComponentStore[component.Timer](),
		Ledger:    l,
		Kind:      kind,
	}
	s.ECS.Registry().Register(
		s.Positions, s.Players, s.Herds, s.Livestock,
		s.Sprites, s.Lifetimes, s.Wanders,
	)
	return s
}

// Tick returns the number of the frame currently running (1-based).
func (s *State) Tick() uint64 { return s.tick }

// BeginTick advances the frame counter. Called by the driver only.
func (s *State) BeginTick() uint64 {
	s.tick++
	return s.tick
}

// SpawnPlayer creates the player avatar at (x, y).
func (s *State) SpawnPlayer(x, y, speed float64) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Positions.Add(id, component.Position{X: x, Y: y})
	s.Players.Add(id, component.Player{Speed: speed})
	return id
}

// SpawnHerd creates the herd anchor. It may only be called once.
func (s *State) SpawnHerd(name string) (ecs.EntityID, error) {
	if s.Herds.Len() > 0 {
		return 0, ErrHerdExists
	}
	id := s.ECS.CreateEntity()
	s.Herds.Add(id, component.Herd{Name: name})
	return id, nil
}

// Player resolves the single player entity.
func (s *State) Player() (ecs.EntityID, error) {
	id, n := s.Players.Single()
	switch {
	case n == 0:
		return 0, ErrNoPlayer
	case n > 1:
		return 0, fmt.Errorf("%w: found %d", ErrMultiplePlayers, n)
	}
	return id, nil
}

// Herd resolves the single herd anchor.
func (s *State) Herd() (ecs.EntityID, error) {
	id, n := s.Herds.Single()
	switch {
	case n == 0:
		return 0, ErrNoHerd
	case n > 1:
		return 0, fmt.Errorf("%w: found %d", ErrMultipleHerds, n)
	}
	return id, nil
}

// SpawnLivestock creates one animal of the configured kind at pos with fresh
// timers and parents it under herd.
func (s *State) SpawnLivestock(herd ecs.EntityID, pos component.Position) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Positions.Add(id, pos)
	s.Livestock.Add(id, component.Livestock{
		Kind:   s.Kind.Name,
		Cost:   s.Kind.Cost,
		Payout: s.Kind.Payout,
	})
	s.Sprites.Add(id, component.Sprite{ID: s.Kind.Sprite, Glyph: s.Kind.GlyphRune()})
	s.Lifetimes.Add(id, component.NewTimer(s.Kind.Lifetime, component.OneShot))
	s.Wanders.Add(id, component.NewTimer(s.Kind.WanderEvery, component.Repeating))
	s.ECS.Hierarchy().Attach(herd, id)
	return id
}

// DespawnLivestock detaches id from herd and destroys it. It reports false
// if id was not a live animal, so a second call is a no-op.
func (s *State) DespawnLivestock(herd, id ecs.EntityID) bool {
	if !s.Livestock.Has(id) || !s.ECS.Alive(id) {
		return false
	}
	s.ECS.Hierarchy().Detach(herd, id)
	return s.ECS.DestroyEntity(id)
}

// LivestockCount returns the number of live animals.
func (s *State) LivestockCount() int { return s.Livestock.Len() }

// HerdMembers lists the children of herd in ascending id order.
func (s *State) HerdMembers(herd ecs.EntityID) []ecs.EntityID {
	return s.ECS.Hierarchy().Children(herd)
}

// HerdSize returns the number of children parented under herd.
func (s *State) HerdSize(herd ecs.EntityID) int {
	return s.ECS.Hierarchy().ChildCount(herd)
}
