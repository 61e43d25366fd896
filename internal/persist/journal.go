package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalEntry is one ledger mutation as written to the audit journal.
// The journal is write-only: nothing reads it back into a running session.
type JournalEntry struct {
	RunID      uuid.UUID
	Seq        uint64
	Tick       uint64
	Kind       string // "spend" or "credit"
	Amount     decimal.Decimal
	Balance    decimal.Decimal
	RecordedAt time.Time
}

// Journal appends ledger entries to durable storage.
type Journal interface {
	Append(ctx context.Context, entries []JournalEntry) error
	Close() error
}

// PGJournal writes the journal to Postgres.
type PGJournal struct {
	db *DB
}

func NewPGJournal(db *DB) *PGJournal {
	return &PGJournal{db: db}
}

// Append writes a batch of entries in a single transaction.
func (j *PGJournal) Append(ctx context.Context, entries []JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := j.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ledger_journal (run_id, seq, tick, kind, amount, balance, recorded_at)
			 VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7)
			 ON CONFLICT (run_id, seq) DO NOTHING`,
			e.RunID.String(), int64(e.Seq), int64(e.Tick), e.Kind,
			e.Amount.String(), e.Balance.String(), e.RecordedAt,
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (j *PGJournal) Close() error {
	j.db.Close()
	return nil
}
