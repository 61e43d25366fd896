package world

import (
	"errors"
	"testing"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/data"
	"github.com/ranchsim/server/internal/ledger"
)

func newState(t *testing.T) *State {
	t.Helper()
	l, err := ledger.New(100, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewState(l, data.DefaultLivestock())
}

func TestSingletonResolution(t *testing.T) {
	s := newState(t)
	if _, err := s.Player(); !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("Player() err = %v, want ErrNoPlayer", err)
	}
	if _, err := s.Herd(); !errors.Is(err, ErrNoHerd) {
		t.Fatalf("Herd() err = %v, want ErrNoHerd", err)
	}

	p := s.SpawnPlayer(0, 0, 100)
	h, err := s.SpawnHerd("herd")
	if err != nil {
		t.Fatalf("SpawnHerd: %v", err)
	}
	if got, err := s.Player(); err != nil || got != p {
		t.Fatalf("Player() = %v, %v; want %v", got, err, p)
	}
	if got, err := s.Herd(); err != nil || got != h {
		t.Fatalf("Herd() = %v, %v; want %v", got, err, h)
	}
	if _, err := s.SpawnHerd("again"); !errors.Is(err, ErrHerdExists) {
		t.Fatalf("second SpawnHerd err = %v, want ErrHerdExists", err)
	}

	s.SpawnPlayer(1, 1, 100)
	if _, err := s.Player(); !errors.Is(err, ErrMultiplePlayers) {
		t.Fatalf("Player() with two players err = %v", err)
	}
}

func TestSpawnAndDespawnLivestock(t *testing.T) {
	s := newState(t)
	h, _ := s.SpawnHerd("herd")
	id := s.SpawnLivestock(h, component.Position{X: 3, Y: 4})

	if got := s.HerdMembers(h); len(got) != 1 || got[0] != id {
		t.Fatalf("herd members = %v, want [%v]", got, id)
	}
	if parent, ok := s.ECS.Hierarchy().Parent(id); !ok || parent != h {
		t.Fatalf("parent = %v, %v", parent, ok)
	}
	lt, ok := s.Lifetimes.Get(id)
	if !ok || lt.Mode != component.OneShot || lt.Duration != s.Kind.Lifetime || lt.Elapsed != 0 {
		t.Fatalf("lifetime = %+v, %v", lt, ok)
	}
	wt, ok := s.Wanders.Get(id)
	if !ok || wt.Mode != component.Repeating || wt.Duration != s.Kind.WanderEvery {
		t.Fatalf("wander = %+v, %v", wt, ok)
	}
	if sp, _ := s.Sprites.Get(id); sp.ID != "pig.png" || sp.Glyph != 'p' {
		t.Fatalf("sprite = %+v", sp)
	}

	if !s.DespawnLivestock(h, id) {
		t.Fatal("DespawnLivestock = false")
	}
	if s.DespawnLivestock(h, id) {
		t.Fatal("second DespawnLivestock = true")
	}
	if s.ECS.Alive(id) || s.Positions.Has(id) || s.Lifetimes.Has(id) || s.HerdSize(h) != 0 {
		t.Fatal("despawned entity left traces")
	}
	if s.LivestockCount() != 0 {
		t.Fatalf("livestock count = %d", s.LivestockCount())
	}
}

func TestDespawnRefusesNonLivestock(t *testing.T) {
	s := newState(t)
	h, _ := s.SpawnHerd("herd")
	p := s.SpawnPlayer(0, 0, 100)
	if s.DespawnLivestock(h, p) {
		t.Fatal("player despawned as livestock")
	}
	if !s.ECS.Alive(p) {
		t.Fatal("player destroyed")
	}
}
