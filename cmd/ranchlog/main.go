// Command ranchlog summarizes a compressed tick log written by ranchsim.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ranchsim/server/internal/persist"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: ranchlog ticks-<run>.jsonl.zst")
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type summary struct {
	runID                   string
	ticks                   int
	simulated               time.Duration
	spawned, sold, rejected int
	ledger                  int
	peakHerd                int
	first, last             float64
	low, high               float64
}

func summarize(recs []persist.TickRecord) summary {
	var s summary
	for i, r := range recs {
		if i == 0 {
			s.runID = r.RunID
			s.first, s.low, s.high = r.Balance, r.Balance, r.Balance
		}
		s.ticks++
		s.simulated += time.Duration(r.DtMicros) * time.Microsecond
		s.spawned += r.Spawned
		s.sold += r.Sold
		s.rejected += r.Rejected
		s.ledger += r.Ledger
		s.peakHerd = max(s.peakHerd, r.Livestock)
		s.low = min(s.low, r.Balance)
		s.high = max(s.high, r.Balance)
		s.last = r.Balance
	}
	return s
}

func run(path string) error {
	recs, err := persist.ReadTickLog(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(recs) == 0 {
		return fmt.Errorf("%s: no records", path)
	}
	s := summarize(recs)
	fmt.Printf("run       %s\n", s.runID)
	fmt.Printf("ticks     %s (%v simulated)\n", humanize.Comma(int64(s.ticks)), s.simulated.Round(time.Millisecond))
	fmt.Printf("bought    %d\n", s.spawned)
	fmt.Printf("sold      %d\n", s.sold)
	fmt.Printf("rejected  %d\n", s.rejected)
	fmt.Printf("ledger    %d entries\n", s.ledger)
	fmt.Printf("peak herd %d\n", s.peakHerd)
	fmt.Printf("balance   $%s -> $%s (low $%s, high $%s)\n",
		humanize.CommafWithDigits(s.first, 2), humanize.CommafWithDigits(s.last, 2),
		humanize.CommafWithDigits(s.low, 2), humanize.CommafWithDigits(s.high, 2))
	return nil
}
