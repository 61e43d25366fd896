package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// JournalWriter moves journal batches off the simulation goroutine. Submit
// never blocks; when the queue is full the batch is dropped and counted.
type JournalWriter struct {
	journal Journal
	log     *zap.Logger
	timeout time.Duration

	ch      chan []JournalEntry
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
	written atomic.Uint64
}

func NewJournalWriter(j Journal, queueSize int, log *zap.Logger) *JournalWriter {
	if queueSize < 1 {
		queueSize = 1
	}
	w := &JournalWriter{
		journal: j,
		log:     log,
		timeout: 5 * time.Second,
		ch:      make(chan []JournalEntry, queueSize),
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

// Submit queues a batch. It reports false if the batch was dropped.
func (w *JournalWriter) Submit(batch []JournalEntry) bool {
	if len(batch) == 0 {
		return true
	}
	select {
	case w.ch <- batch:
		return true
	default:
		w.dropped.Add(uint64(len(batch)))
		w.log.Warn("journal queue full, batch dropped", zap.Int("entries", len(batch)))
		return false
	}
}

func (w *JournalWriter) loop() {
	defer w.wg.Done()
	for batch := range w.ch {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.journal.Append(ctx, batch)
		cancel()
		if err != nil {
			w.dropped.Add(uint64(len(batch)))
			w.log.Error("journal write failed", zap.Int("entries", len(batch)), zap.Error(err))
			continue
		}
		w.written.Add(uint64(len(batch)))
	}
}

// Written returns the number of entries stored so far.
func (w *JournalWriter) Written() uint64 { return w.written.Load() }

// Dropped returns the number of entries lost to a full queue or a failed write.
func (w *JournalWriter) Dropped() uint64 { return w.dropped.Load() }

// Close drains queued batches, then closes the journal.
func (w *JournalWriter) Close() error {
	var err error
	w.once.Do(func() {
		close(w.ch)
		w.wg.Wait()
		err = w.journal.Close()
	})
	return err
}
