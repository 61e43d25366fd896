package system

import (
	"time"

	"github.com/google/uuid"
	coresys "github.com/ranchsim/server/internal/core/system"
	"github.com/ranchsim/server/internal/ledger"
	"github.com/ranchsim/server/internal/persist"
	"github.com/ranchsim/server/internal/world"
)

// JournalSubmitter accepts journal batches without blocking the frame.
type JournalSubmitter interface {
	Submit(batch []persist.JournalEntry) bool
}

// JournalSystem records every ledger entry and hands the pending batch to the
// journal writer every interval ticks. Phase 5 (Persist).
type JournalSystem struct {
	world     *world.State
	writer    JournalSubmitter
	runID     uuid.UUID
	pending   []persist.JournalEntry
	tickCount int
	interval  int
}

func NewJournalSystem(ws *world.State, writer JournalSubmitter, runID uuid.UUID, intervalTicks int) *JournalSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	s := &JournalSystem{
		world:    ws,
		writer:   writer,
		runID:    runID,
		interval: intervalTicks,
	}
	ws.Ledger.Observe(s.record)
	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) record(e ledger.Entry) {
	s.pending = append(s.pending, persist.JournalEntry{
		RunID:      s.runID,
		Seq:        e.Seq,
		Tick:       s.world.Tick(),
		Kind:       string(e.Kind),
		Amount:     e.Amount,
		Balance:    e.Balance,
		RecordedAt: time.Now(),
	})
}

func (s *JournalSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush submits whatever is pending. Called on shutdown as well.
func (s *JournalSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	s.writer.Submit(s.pending)
	s.pending = nil
}

// Pending returns the number of entries not yet submitted.
func (s *JournalSystem) Pending() int { return len(s.pending) }
