package sim

import (
	"context"
	"testing"
	"time"

	"github.com/ranchsim/server/internal/component"
	"github.com/ranchsim/server/internal/core/ecs"
	"github.com/ranchsim/server/internal/core/event"
	"github.com/ranchsim/server/internal/data"
	"github.com/ranchsim/server/internal/input"
	"github.com/ranchsim/server/internal/persist"
	"github.com/ranchsim/server/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const frame = 100 * time.Millisecond

func newSim(t *testing.T, balance float64) *Sim {
	t.Helper()
	s, err := New(Options{
		Step:            frame,
		StartingBalance: balance,
		PlayerSpeed:     100,
		Seed:            42,
		Kind:            data.DefaultLivestock(),
		Log:             zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func herdSize(t *testing.T, s *Sim) int {
	t.Helper()
	herd, err := s.State.Herd()
	if err != nil {
		t.Fatalf("Herd: %v", err)
	}
	return s.State.HerdSize(herd)
}

type recorder struct {
	spawned  []event.LivestockSpawned
	sold     []event.LivestockSold
	rejected []event.SpawnRejected
	ledger   []event.LedgerChanged
}

func record(s *Sim) *recorder {
	r := &recorder{}
	event.Subscribe(s.Bus, func(e event.LivestockSpawned) { r.spawned = append(r.spawned, e) })
	event.Subscribe(s.Bus, func(e event.LivestockSold) { r.sold = append(r.sold, e) })
	event.Subscribe(s.Bus, func(e event.SpawnRejected) { r.rejected = append(r.rejected, e) })
	event.Subscribe(s.Bus, func(e event.LedgerChanged) { r.ledger = append(r.ledger, e) })
	return r
}

func TestSpawnThenSell(t *testing.T) {
	s := newSim(t, 100)
	rec := record(s)

	s.Buttons.Tap(input.ActionSpawn)
	s.Step(frame)
	if got := s.State.Ledger.Balance(); got != 90 {
		t.Fatalf("balance after spawn = %v, want 90", got)
	}
	if n := s.State.LivestockCount(); n != 1 {
		t.Fatalf("livestock = %d, want 1", n)
	}
	if n := herdSize(t, s); n != 1 {
		t.Fatalf("herd size = %d, want 1", n)
	}
	if len(rec.spawned) != 1 || rec.spawned[0].Sprite != "pig.png" {
		t.Fatalf("spawned events = %+v", rec.spawned)
	}
	if rec.spawned[0].X != 0 || rec.spawned[0].Y != 0 {
		t.Errorf("spawned at (%v, %v), want player position (0, 0)", rec.spawned[0].X, rec.spawned[0].Y)
	}

	// One frame short of the lifetime: still alive.
	s.Advance(5*time.Second-frame, frame)
	if n := s.State.LivestockCount(); n != 1 {
		t.Fatalf("livestock sold early, count = %d", n)
	}
	s.Step(frame)

	if got := s.State.Ledger.Balance(); got != 105 {
		t.Fatalf("balance after sale = %v, want 105", got)
	}
	if n := s.State.LivestockCount(); n != 0 {
		t.Fatalf("livestock = %d, want 0", n)
	}
	if n := herdSize(t, s); n != 0 {
		t.Fatalf("herd size = %d, want 0", n)
	}
	if len(rec.sold) != 1 || rec.sold[0].Entity != rec.spawned[0].Entity || rec.sold[0].Payout != 15 {
		t.Fatalf("sold events = %+v", rec.sold)
	}
	if s.State.ECS.Alive(rec.sold[0].Entity) {
		t.Fatal("sold entity still alive")
	}
	if len(rec.ledger) != 2 || rec.ledger[0].Kind != "spend" || rec.ledger[1].Kind != "credit" {
		t.Fatalf("ledger events = %+v", rec.ledger)
	}
}

func TestSpawnRejectedWithoutFunds(t *testing.T) {
	s := newSim(t, 5)
	rec := record(s)

	s.Buttons.Tap(input.ActionSpawn)
	s.Step(frame)

	if got := s.State.Ledger.Balance(); got != 5 {
		t.Fatalf("balance = %v, want 5", got)
	}
	if n := s.State.LivestockCount(); n != 0 {
		t.Fatalf("livestock = %d, want 0", n)
	}
	if len(rec.rejected) != 1 || rec.rejected[0].Cost != 10 || rec.rejected[0].Balance != 5 {
		t.Fatalf("rejected events = %+v", rec.rejected)
	}
	if len(rec.spawned) != 0 || len(rec.ledger) != 0 {
		t.Fatalf("unexpected events: spawned=%d ledger=%d", len(rec.spawned), len(rec.ledger))
	}
}

func TestTwoSpawnsShareHerd(t *testing.T) {
	s := newSim(t, 100)
	rec := record(s)

	s.Buttons.Tap(input.ActionSpawn)
	s.Step(frame)
	s.Buttons.Tap(input.ActionSpawn)
	s.Step(frame)

	if got := s.State.Ledger.Balance(); got != 80 {
		t.Fatalf("balance = %v, want 80", got)
	}
	if n := herdSize(t, s); n != 2 {
		t.Fatalf("herd size = %d, want 2", n)
	}
	if rec.spawned[0].Herd != rec.spawned[1].Herd {
		t.Fatalf("spawns under different herds: %v, %v", rec.spawned[0].Herd, rec.spawned[1].Herd)
	}

	s.Advance(5*time.Second, frame)

	if got := s.State.Ledger.Balance(); got != 110 {
		t.Fatalf("balance = %v, want 110", got)
	}
	if n := s.State.LivestockCount(); n != 0 {
		t.Fatalf("livestock = %d, want 0", n)
	}
	if len(rec.sold) != 2 {
		t.Fatalf("sold %d, want 2", len(rec.sold))
	}
}

func TestHeldSpawnBuysOnce(t *testing.T) {
	s := newSim(t, 100)
	s.Buttons.Press(input.ActionSpawn)
	s.Advance(time.Second, frame)
	if got := s.State.Ledger.Balance(); got != 90 {
		t.Fatalf("balance = %v, want 90", got)
	}
	s.Buttons.Release(input.ActionSpawn)
	s.Step(frame)
	s.Buttons.Press(input.ActionSpawn)
	s.Step(frame)
	if got := s.State.Ledger.Balance(); got != 80 {
		t.Fatalf("balance after re-press = %v, want 80", got)
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	s := newSim(t, 25)
	for i := 0; i < 10; i++ {
		s.Buttons.Tap(input.ActionSpawn)
		s.Step(frame)
		if b := s.State.Ledger.Balance(); b < 0 {
			t.Fatalf("frame %d: balance %v", i, b)
		}
	}
	if got := s.State.Ledger.Balance(); got != 5 {
		t.Fatalf("balance = %v, want 5", got)
	}
	if n := s.State.LivestockCount(); n != 2 {
		t.Fatalf("livestock = %d, want 2", n)
	}
}

func TestSpawnFollowsPlayer(t *testing.T) {
	s := newSim(t, 100)
	rec := record(s)

	s.Buttons.Press(input.ActionRight)
	s.Advance(time.Second, frame)
	s.Buttons.Release(input.ActionRight)
	s.Buttons.Tap(input.ActionSpawn)
	s.Step(frame)

	if len(rec.spawned) != 1 {
		t.Fatalf("spawned %d", len(rec.spawned))
	}
	if x := rec.spawned[0].X; x < 99.999 || x > 100.001 {
		t.Fatalf("spawn x = %v, want 100", x)
	}
}

func TestMissingPlayerSkipsSpawn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s, err := New(Options{
		Step:            frame,
		StartingBalance: 100,
		Seed:            1,
		Kind:            data.DefaultLivestock(),
		Log:             zap.New(core),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	player, err := s.State.Player()
	if err != nil {
		t.Fatalf("Player: %v", err)
	}
	s.State.ECS.DestroyEntity(player)

	for i := 0; i < 3; i++ {
		s.Buttons.Tap(input.ActionSpawn)
		s.Step(frame)
	}
	if got := s.State.Ledger.Balance(); got != 100 {
		t.Fatalf("balance = %v, want 100", got)
	}
	if n := s.State.LivestockCount(); n != 0 {
		t.Fatalf("livestock = %d, want 0", n)
	}
	if n := logs.FilterMessage("precondition violated, skipping frame work").Len(); n != 1 {
		t.Fatalf("diagnostics logged %d times, want 1", n)
	}
}

func TestSeedReproducesWander(t *testing.T) {
	positions := func() (float64, float64) {
		s := newSim(t, 100)
		s.Buttons.Tap(input.ActionSpawn)
		s.Step(frame)
		s.Advance(2*time.Second, frame)
		var x, y float64
		s.State.Positions.Each(func(id ecs.EntityID, p *component.Position) {
			if s.State.Livestock.Has(id) {
				x, y = p.X, p.Y
			}
		})
		return x, y
	}
	x1, y1 := positions()
	x2, y2 := positions()
	if x1 != x2 || y1 != y2 {
		t.Fatalf("same seed diverged: (%v, %v) vs (%v, %v)", x1, y1, x2, y2)
	}
	if x1 == 0 && y1 == 0 {
		t.Fatal("livestock never wandered")
	}
}

func TestAdvanceCountsWholeFrames(t *testing.T) {
	s := newSim(t, 100)
	if n := s.Advance(0, frame); n != 0 {
		t.Fatalf("Advance(0) ran %d frames", n)
	}
	if n := s.Advance(250*time.Millisecond, frame); n != 3 {
		t.Fatalf("Advance(250ms) ran %d frames, want 3", n)
	}
	if s.State.Tick() != 3 {
		t.Fatalf("tick = %d, want 3", s.State.Tick())
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newSim(t, 100)
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	err := s.Run(ctx, time.Millisecond, Hooks{After: func() {
		frames++
		if frames == 5 {
			cancel()
		}
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.State.Tick() < 5 {
		t.Fatalf("tick = %d, want at least 5", s.State.Tick())
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Kind: data.DefaultLivestock()}); err == nil {
		t.Fatal("zero step accepted")
	}
	if _, err := New(Options{Step: frame, StartingBalance: -1, Kind: data.DefaultLivestock()}); err == nil {
		t.Fatal("negative balance accepted")
	}
}

type tickRecords []persist.TickRecord

func (r *tickRecords) WriteTick(rec persist.TickRecord) error {
	*r = append(*r, rec)
	return nil
}

func TestTickLogCountsLedgerChanges(t *testing.T) {
	s := newSim(t, 100)
	var recs tickRecords
	s.Register(system.NewTickLogSystem(s.State, s.Bus, &recs, s.RunID().String(), zap.NewNop()))

	s.Buttons.Tap(input.ActionSpawn)
	s.Step(frame)
	s.Step(frame)

	if len(recs) != 2 {
		t.Fatalf("records = %d, want 2", len(recs))
	}
	if recs[0].Ledger != 1 || recs[0].Spawned != 1 || recs[0].Balance != 90 {
		t.Fatalf("first record = %+v", recs[0])
	}
	if recs[1].Ledger != 0 {
		t.Fatalf("second record = %+v", recs[1])
	}
}
