package main

import (
	"testing"
	"time"

	"github.com/ranchsim/server/internal/persist"
)

func TestSummarize(t *testing.T) {
	recs := []persist.TickRecord{
		{RunID: "r", Tick: 1, DtMicros: 16000, Balance: 90, Livestock: 1, Spawned: 1, Ledger: 1},
		{RunID: "r", Tick: 2, DtMicros: 16000, Balance: 80, Livestock: 2, Spawned: 1, Ledger: 1},
		{RunID: "r", Tick: 3, DtMicros: 16000, Balance: 80, Livestock: 2, Rejected: 1},
		{RunID: "r", Tick: 4, DtMicros: 16000, Balance: 110, Livestock: 0, Sold: 2, Ledger: 2},
	}
	s := summarize(recs)
	if s.runID != "r" || s.ticks != 4 || s.simulated != 64*time.Millisecond {
		t.Fatalf("summary = %+v", s)
	}
	if s.spawned != 2 || s.sold != 2 || s.rejected != 1 || s.ledger != 4 || s.peakHerd != 2 {
		t.Fatalf("counts = %+v", s)
	}
	if s.first != 90 || s.last != 110 || s.low != 80 || s.high != 110 {
		t.Fatalf("balances = %+v", s)
	}
}
