// Package ledger holds the player's spendable balance.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNegativeAmount is returned when a credit would lower the balance.
var ErrNegativeAmount = errors.New("ledger: negative amount")

// Kind labels a ledger mutation.
type Kind string

const (
	KindSpend  Kind = "spend"
	KindCredit Kind = "credit"
)

// Entry describes one applied mutation and the balance it left behind.
type Entry struct {
	Seq     uint64
	Kind    Kind
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

// Observer receives every applied entry. Observers run synchronously under
// the ledger lock and must not call back into the ledger.
type Observer func(Entry)

// Ledger is the shared currency balance. The balance never goes negative:
// a spend larger than the balance is rejected whole.
type Ledger struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	seq       uint64
	observers []Observer
	log       *zap.Logger
}

// New creates a ledger with the given opening balance.
func New(opening float64, log *zap.Logger) (*Ledger, error) {
	if opening < 0 {
		return nil, fmt.Errorf("opening balance %v: %w", opening, ErrNegativeAmount)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{balance: decimal.NewFromFloat(opening), log: log}, nil
}

// Observe registers fn for all future entries.
func (l *Ledger) Observe(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Balance returns the current balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance.InexactFloat64()
}

// TrySpend debits amount if the balance covers it. A negative amount is
// never a spend and is rejected.
func (l *Ledger) TrySpend(amount float64) bool {
	d := decimal.NewFromFloat(amount)
	l.mu.Lock()
	defer l.mu.Unlock()
	if d.IsNegative() || l.balance.LessThan(d) {
		l.log.Debug("spend rejected",
			zap.Float64("amount", amount),
			zap.String("balance", l.balance.String()))
		return false
	}
	l.balance = l.balance.Sub(d)
	l.applyLocked(KindSpend, d)
	return true
}

// Credit adds amount to the balance.
func (l *Ledger) Credit(amount float64) error {
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() {
		return fmt.Errorf("credit %v: %w", amount, ErrNegativeAmount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = l.balance.Add(d)
	l.applyLocked(KindCredit, d)
	return nil
}

func (l *Ledger) applyLocked(kind Kind, amount decimal.Decimal) {
	l.seq++
	e := Entry{Seq: l.seq, Kind: kind, Amount: amount, Balance: l.balance}
	l.log.Debug("ledger entry",
		zap.Uint64("seq", e.Seq),
		zap.String("kind", string(kind)),
		zap.String("amount", amount.String()),
		zap.String("balance", l.balance.String()))
	for _, fn := range l.observers {
		fn(e)
	}
}
