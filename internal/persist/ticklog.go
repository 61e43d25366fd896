package persist

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// TickRecord summarizes one simulation frame.
type TickRecord struct {
	RunID     string  `json:"run_id"`
	Tick      uint64  `json:"tick"`
	DtMicros  int64   `json:"dt_us"`
	Balance   float64 `json:"balance"`
	Livestock int     `json:"livestock"`
	Spawned   int     `json:"spawned,omitempty"`
	Sold      int     `json:"sold,omitempty"`
	Rejected  int     `json:"rejected,omitempty"`
	Ledger    int     `json:"ledger,omitempty"` // ledger mutations this frame
}

// TickLogger writes one JSON line per frame into a zstd-compressed file,
// <dir>/ticks-<run id>.jsonl.zst.
type TickLogger struct {
	mu   sync.Mutex
	path string
	f    *os.File
	enc  *zstd.Encoder
	w    *bufio.Writer
}

func NewTickLogger(dir, runID string) (*TickLogger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ticklog dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("ticks-%s.jsonl.zst", runID))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open ticklog: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return &TickLogger{
		path: path,
		f:    f,
		enc:  enc,
		w:    bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Path returns the file being written.
func (l *TickLogger) Path() string { return l.path }

// WriteTick buffers one record. Records reach the file on Flush or Close.
func (l *TickLogger) WriteTick(rec TickRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return os.ErrClosed
	}
	if _, err := l.w.Write(b); err != nil {
		return err
	}
	return l.w.WriteByte('\n')
}

// Flush pushes buffered records through the encoder.
func (l *TickLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	if err := l.w.Flush(); err != nil {
		return err
	}
	return l.enc.Flush()
}

func (l *TickLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	var first error
	if err := l.w.Flush(); err != nil {
		first = err
	}
	if err := l.enc.Close(); err != nil && first == nil {
		first = err
	}
	if err := l.f.Close(); err != nil && first == nil {
		first = err
	}
	l.w, l.enc, l.f = nil, nil, nil
	return first
}

// ReadTickLog decodes every record in a tick log file.
func ReadTickLog(path string) ([]TickRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var out []TickRecord
	sc := bufio.NewScanner(dec)
	for sc.Scan() {
		var rec TickRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("decode tick record: %w", err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
